package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

// saveVersioned upserts doc only if the stored version still equals version.
func saveVersioned(ctx context.Context, col *mongo.Collection, id string, version int64, doc any) error {
	filter := bson.M{"_id": id, "version": version}
	res, err := col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection(colProperties)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id property.ID) (*property.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, property.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *property.Property) error {
	doc := newPropertyDocument(p)
	doc.Version = p.Version + 1
	if err := saveVersioned(ctx, r.col, doc.ID, p.Version, doc); err != nil {
		return err
	}
	p.Version = doc.Version
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, id property.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return property.ErrNotFound
	}
	return nil
}

func (r *PropertyRepository) Search(ctx context.Context, params property.SearchParams) (property.SearchResult, error) {
	opts := params.Normalized()
	filter := searchFilter(opts)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return property.SearchResult{}, err
	}
	find := options.Find().
		SetSort(searchSort(opts.Sort)).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))
	cur, err := r.col.Find(ctx, filter, find)
	if err != nil {
		return property.SearchResult{}, err
	}
	defer cur.Close(ctx)

	items := make([]*property.Property, 0, opts.Limit)
	for cur.Next(ctx) {
		var doc propertyDocument
		if err := cur.Decode(&doc); err != nil {
			return property.SearchResult{}, err
		}
		items = append(items, doc.toAggregate())
	}
	if err := cur.Err(); err != nil {
		return property.SearchResult{}, err
	}
	return property.SearchResult{Items: items, Total: int(total)}, nil
}

func searchFilter(opts property.SearchParams) bson.M {
	and := bson.A{}
	if opts.OwnerID != "" {
		and = append(and, bson.M{"owner_id": string(opts.OwnerID)})
	}
	if opts.City != "" {
		and = append(and, bson.M{"city_key": opts.City})
	}
	if opts.Query != "" {
		pattern := primitiveRegex(regexp.QuoteMeta(opts.Query))
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"name": pattern},
			bson.M{"city": pattern},
			bson.M{"region": pattern},
			bson.M{"address": pattern},
		}})
	}
	if opts.MinGuests > 0 {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"max_guests": 0},
			bson.M{"max_guests": bson.M{"$gte": opts.MinGuests}},
		}})
	}
	price := bson.M{}
	if opts.PriceMinCents > 0 {
		price["$gte"] = opts.PriceMinCents
	}
	if opts.PriceMaxCents > 0 {
		price["$lte"] = opts.PriceMaxCents
	}
	if len(price) > 0 {
		and = append(and, bson.M{"price_cents": price})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

func primitiveRegex(pattern string) bson.M {
	return bson.M{"$regex": pattern, "$options": "i"}
}

func searchSort(s property.Sort) bson.D {
	switch s {
	case property.SortByPriceDesc:
		return bson.D{{Key: "price_cents", Value: -1}, {Key: "_id", Value: 1}}
	case property.SortByNewest:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "price_cents", Value: 1}, {Key: "_id", Value: 1}}
	}
}

type ReservationRepository struct {
	col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{col: db.Collection(colReservations)}
}

func (r *ReservationRepository) ByID(ctx context.Context, id reservation.ID) (*reservation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservation.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *reservation.Reservation) error {
	doc := newReservationDocument(res)
	doc.Version = res.Version + 1
	if err := saveVersioned(ctx, r.col, doc.ID, res.Version, doc); err != nil {
		if errors.Is(err, ErrConcurrentUpdate) {
			return fmt.Errorf("%w: %w", reservation.ErrConcurrentBooking, err)
		}
		return err
	}
	res.Version = doc.Version
	return nil
}

func (r *ReservationRepository) ListByProperty(ctx context.Context, propertyID property.ID, includeCancelled bool) ([]*reservation.Reservation, error) {
	filter := bson.M{"property_id": string(propertyID)}
	if !includeCancelled {
		filter["status"] = bson.M{"$ne": string(reservation.StatusCancelled)}
	}
	return r.list(ctx, filter)
}

func (r *ReservationRepository) ListByGuest(ctx context.Context, guestID string) ([]*reservation.Reservation, error) {
	return r.list(ctx, bson.M{"guest_id": guestID})
}

func (r *ReservationRepository) list(ctx context.Context, filter bson.M) ([]*reservation.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []reservationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*reservation.Reservation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(colUsers)}
}

func (r *UserRepository) ByID(ctx context.Context, id user.ID) (*user.User, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"email": user.NormalizeEmail(email)})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	doc := newUserDocument(u)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return user.ErrEmailAlreadyUsed
	}
	return err
}

var (
	_ property.Repository    = (*PropertyRepository)(nil)
	_ reservation.Repository = (*ReservationRepository)(nil)
	_ user.Repository        = (*UserRepository)(nil)
)
