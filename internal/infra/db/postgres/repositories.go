package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/daterange"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

var ErrConcurrentUpdate = errors.New("postgres: concurrent update detected")

const propertyColumns = `id, owner_id, name, address, city, region, description, price_cents, currency,
	max_guests, image_url, map_link, created_at, updated_at, version`

type PropertyRepository struct {
	pool *pgxpool.Pool
}

func NewPropertyRepository(pool *pgxpool.Pool) *PropertyRepository {
	return &PropertyRepository{pool: pool}
}

func scanProperty(row pgx.Row) (*property.Property, error) {
	var (
		p        property.Property
		id, own  string
		cents    int64
		currency string
	)
	err := row.Scan(&id, &own, &p.Name, &p.Address, &p.City, &p.Region, &p.Description, &cents, &currency,
		&p.MaxGuests, &p.ImageURL, &p.MapLink, &p.CreatedAt, &p.UpdatedAt, &p.Version)
	if err != nil {
		return nil, err
	}
	p.ID = property.ID(id)
	p.OwnerID = property.OwnerID(own)
	p.NightlyPrice = money.Money{Amount: cents, Currency: strings.TrimSpace(currency)}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (r *PropertyRepository) ByID(ctx context.Context, id property.ID) (*property.Property, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, string(id))
	p, err := scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, property.ErrNotFound
	}
	return p, err
}

func (r *PropertyRepository) Save(ctx context.Context, p *property.Property) error {
	q := conn(ctx, r.pool)
	next := p.Version + 1
	if p.Version == 0 {
		_, err := q.Exec(ctx, `INSERT INTO properties (`+propertyColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			string(p.ID), string(p.OwnerID), p.Name, p.Address, p.City, p.Region, p.Description,
			p.NightlyPrice.Amount, p.NightlyPrice.Currency, p.MaxGuests, p.ImageURL, p.MapLink,
			p.CreatedAt, p.UpdatedAt, next)
		if isUniqueViolation(err) {
			return ErrConcurrentUpdate
		}
		if err != nil {
			return err
		}
		p.Version = next
		return nil
	}
	tag, err := q.Exec(ctx, `UPDATE properties SET name = $3, address = $4, city = $5, region = $6,
			description = $7, price_cents = $8, currency = $9, max_guests = $10, image_url = $11,
			map_link = $12, updated_at = $13, version = $14
		WHERE id = $1 AND version = $2`,
		string(p.ID), p.Version, p.Name, p.Address, p.City, p.Region, p.Description,
		p.NightlyPrice.Amount, p.NightlyPrice.Currency, p.MaxGuests, p.ImageURL, p.MapLink,
		p.UpdatedAt, next)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrentUpdate
	}
	p.Version = next
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, id property.ID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM properties WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return property.ErrNotFound
	}
	return nil
}

func (r *PropertyRepository) Search(ctx context.Context, params property.SearchParams) (property.SearchResult, error) {
	opts := params.Normalized()
	where, args := searchWhere(opts)
	q := conn(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM properties`+where, args...).Scan(&total); err != nil {
		return property.SearchResult{}, err
	}
	args = append(args, opts.Limit, opts.Offset)
	sql := fmt.Sprintf(`SELECT %s FROM properties%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		propertyColumns, where, searchOrder(opts.Sort), len(args)-1, len(args))
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return property.SearchResult{}, err
	}
	defer rows.Close()
	items := make([]*property.Property, 0, opts.Limit)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return property.SearchResult{}, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return property.SearchResult{}, err
	}
	return property.SearchResult{Items: items, Total: total}, nil
}

func searchWhere(opts property.SearchParams) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if opts.OwnerID != "" {
		add("owner_id = $%d", string(opts.OwnerID))
	}
	if opts.City != "" {
		add("lower(city) = $%d", opts.City)
	}
	if opts.Query != "" {
		add("lower(name || ' ' || city || ' ' || region || ' ' || address) LIKE '%%' || $%d || '%%'", escapeLike(opts.Query))
	}
	if opts.MinGuests > 0 {
		add("(max_guests = 0 OR max_guests >= $%d)", opts.MinGuests)
	}
	if opts.PriceMinCents > 0 {
		add("price_cents >= $%d", opts.PriceMinCents)
	}
	if opts.PriceMaxCents > 0 {
		add("price_cents <= $%d", opts.PriceMaxCents)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func searchOrder(s property.Sort) string {
	switch s {
	case property.SortByPriceDesc:
		return "price_cents DESC, id"
	case property.SortByNewest:
		return "created_at DESC, id"
	default:
		return "price_cents ASC, id"
	}
}

const reservationColumns = `id, property_id, guest_id, check_in, check_out, guests, status, currency,
	nightly_cents, nights, subtotal, tax_ppm, taxes, total, created_at, updated_at, version`

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func scanReservation(row pgx.Row) (*reservation.Reservation, error) {
	var (
		r                          reservation.Reservation
		id, propertyID, status     string
		currency                   string
		nightly, sub, taxes, total int64
		taxPPM                     int64
		checkIn, checkOut          time.Time
	)
	err := row.Scan(&id, &propertyID, &r.GuestID, &checkIn, &checkOut, &r.Guests, &status, &currency,
		&nightly, &r.Price.Nights, &sub, &taxPPM, &taxes, &total, &r.CreatedAt, &r.UpdatedAt, &r.Version)
	if err != nil {
		return nil, err
	}
	currency = strings.TrimSpace(currency)
	r.ID = reservation.ID(id)
	r.PropertyID = property.ID(propertyID)
	r.Status = reservation.Status(status)
	r.Range = daterange.Of(checkIn, checkOut)
	r.Price.NightlyPrice = money.Money{Amount: nightly, Currency: currency}
	r.Price.Subtotal = money.Money{Amount: sub, Currency: currency}
	r.Price.TaxRate = money.Rate{PPM: taxPPM}
	r.Price.Taxes = money.Money{Amount: taxes, Currency: currency}
	r.Price.Total = money.Money{Amount: total, Currency: currency}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

func (r *ReservationRepository) ByID(ctx context.Context, id reservation.ID) (*reservation.Reservation, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, string(id))
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, reservation.ErrNotFound
	}
	return res, err
}

func (r *ReservationRepository) Save(ctx context.Context, res *reservation.Reservation) error {
	q := conn(ctx, r.pool)
	next := res.Version + 1
	var err error
	if res.Version == 0 {
		_, err = q.Exec(ctx, `INSERT INTO reservations (`+reservationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			string(res.ID), string(res.PropertyID), res.GuestID, res.Range.CheckIn, res.Range.CheckOut,
			res.Guests, string(res.Status), res.Price.Total.Currency, res.Price.NightlyPrice.Amount,
			res.Price.Nights, res.Price.Subtotal.Amount, res.Price.TaxRate.PPM, res.Price.Taxes.Amount,
			res.Price.Total.Amount, res.CreatedAt, res.UpdatedAt, next)
	} else {
		var tag pgconn.CommandTag
		tag, err = q.Exec(ctx, `UPDATE reservations SET status = $3, updated_at = $4, version = $5
			WHERE id = $1 AND version = $2`,
			string(res.ID), res.Version, string(res.Status), res.UpdatedAt, next)
		if err == nil && tag.RowsAffected() == 0 {
			err = fmt.Errorf("%w: %w", reservation.ErrConcurrentBooking, ErrConcurrentUpdate)
		}
	}
	switch pgCode(err) {
	case "":
	case pgerrcode.ExclusionViolation:
		return reservation.ErrConflict
	case pgerrcode.UniqueViolation:
		return fmt.Errorf("%w: %w", reservation.ErrConcurrentBooking, ErrConcurrentUpdate)
	}
	if err != nil {
		return translateConflict(err)
	}
	res.Version = next
	return nil
}

func (r *ReservationRepository) ListByProperty(ctx context.Context, propertyID property.ID, includeCancelled bool) ([]*reservation.Reservation, error) {
	sql := `SELECT ` + reservationColumns + ` FROM reservations WHERE property_id = $1`
	if !includeCancelled {
		sql += ` AND status <> 'cancelled'`
	}
	return r.list(ctx, sql+` ORDER BY check_in, id`, string(propertyID))
}

func (r *ReservationRepository) ListByGuest(ctx context.Context, guestID string) ([]*reservation.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE guest_id = $1 ORDER BY check_in, id`, guestID)
}

func (r *ReservationRepository) list(ctx context.Context, sql string, args ...any) ([]*reservation.Reservation, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*reservation.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, first_name, last_name, password_hash, role, created_at, updated_at`

func (r *UserRepository) ByID(ctx context.Context, id user.ID) (*user.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, string(id))
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, user.NormalizeEmail(email))
}

func (r *UserRepository) one(ctx context.Context, sql string, arg string) (*user.User, error) {
	var (
		u        user.User
		id, role string
	)
	err := conn(ctx, r.pool).QueryRow(ctx, sql, arg).Scan(&id, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.ID = user.ID(id)
	u.Role = user.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name, password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role, updated_at = EXCLUDED.updated_at`,
		string(u.ID), user.NormalizeEmail(u.Email), u.FirstName, u.LastName, u.PasswordHash,
		string(u.Role), u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return user.ErrEmailAlreadyUsed
	}
	return err
}

var (
	_ property.Repository    = (*PropertyRepository)(nil)
	_ reservation.Repository = (*ReservationRepository)(nil)
	_ user.Repository        = (*UserRepository)(nil)
)
