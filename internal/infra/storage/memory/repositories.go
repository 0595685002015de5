package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

var (
	// ErrFactoryMisconfigured indicates a factory without a store.
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	// ErrUnitClosed is returned after Commit or Rollback.
	ErrUnitClosed = errors.New("memory: unit of work already finished")
)

type unitProperties struct{ u *Unit }

func (r unitProperties) ByID(ctx context.Context, id property.ID) (*property.Property, error) {
	r.u.mu.Lock()
	staged, ok := r.u.properties[id]
	r.u.mu.Unlock()
	if ok {
		if staged == nil {
			return nil, property.ErrNotFound
		}
		return staged.Clone(), nil
	}
	if p, ok := r.u.store.property(id); ok {
		return p.Clone(), nil
	}
	return nil, property.ErrNotFound
}

func (r unitProperties) Save(ctx context.Context, p *property.Property) error {
	if p == nil || strings.TrimSpace(string(p.ID)) == "" {
		return property.ErrIDRequired
	}
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.properties[p.ID] = p.Clone()
	return nil
}

func (r unitProperties) Delete(ctx context.Context, id property.ID) error {
	if _, err := r.ByID(ctx, id); err != nil {
		return err
	}
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.properties[id] = nil
	return nil
}

// Search filters the committed catalog merged with this unit's staged writes.
func (r unitProperties) Search(ctx context.Context, params property.SearchParams) (property.SearchResult, error) {
	opts := params.Normalized()
	merged := make(map[property.ID]*property.Property)
	for _, p := range r.u.store.snapshotProperties() {
		merged[p.ID] = p
	}
	r.u.mu.Lock()
	for id, p := range r.u.properties {
		if p == nil {
			delete(merged, id)
			continue
		}
		merged[id] = p
	}
	r.u.mu.Unlock()

	matches := make([]*property.Property, 0, len(merged))
	for _, p := range merged {
		if err := ctx.Err(); err != nil {
			return property.SearchResult{}, err
		}
		if opts.Matches(p) {
			matches = append(matches, p)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		switch opts.Sort {
		case property.SortByPriceDesc:
			if a.NightlyPrice.Amount != b.NightlyPrice.Amount {
				return a.NightlyPrice.Amount > b.NightlyPrice.Amount
			}
		case property.SortByNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		default:
			if a.NightlyPrice.Amount != b.NightlyPrice.Amount {
				return a.NightlyPrice.Amount < b.NightlyPrice.Amount
			}
		}
		return a.ID < b.ID
	})

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	items := make([]*property.Property, 0, end-start)
	for _, p := range matches[start:end] {
		items = append(items, p.Clone())
	}
	return property.SearchResult{Items: items, Total: total}, nil
}

type unitReservations struct{ u *Unit }

func (r unitReservations) ByID(ctx context.Context, id reservation.ID) (*reservation.Reservation, error) {
	r.u.mu.Lock()
	staged, ok := r.u.reservations[id]
	r.u.mu.Unlock()
	if ok {
		return staged.Clone(), nil
	}
	if res, ok := r.u.store.reservation(id); ok {
		return res.Clone(), nil
	}
	return nil, reservation.ErrNotFound
}

func (r unitReservations) Save(ctx context.Context, res *reservation.Reservation) error {
	if res == nil || strings.TrimSpace(string(res.ID)) == "" {
		return reservation.ErrIDRequired
	}
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.reservations[res.ID] = res.Clone()
	return nil
}

func (r unitReservations) ListByProperty(ctx context.Context, propertyID property.ID, includeCancelled bool) ([]*reservation.Reservation, error) {
	return r.list(func(res *reservation.Reservation) bool {
		return res.PropertyID == propertyID && (includeCancelled || res.Active())
	}), nil
}

func (r unitReservations) ListByGuest(ctx context.Context, guestID string) ([]*reservation.Reservation, error) {
	return r.list(func(res *reservation.Reservation) bool {
		return res.GuestID == guestID
	}), nil
}

// list merges committed and staged reservations; staged copies win.
func (r unitReservations) list(match func(*reservation.Reservation) bool) []*reservation.Reservation {
	merged := make(map[reservation.ID]*reservation.Reservation)
	for _, res := range r.u.store.snapshotReservations(func(*reservation.Reservation) bool { return true }) {
		merged[res.ID] = res
	}
	r.u.mu.Lock()
	for id, res := range r.u.reservations {
		merged[id] = res
	}
	r.u.mu.Unlock()

	out := make([]*reservation.Reservation, 0)
	for _, res := range merged {
		if match(res) {
			out = append(out, res.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Range.CheckIn.Equal(out[j].Range.CheckIn) {
			return out[i].Range.CheckIn.Before(out[j].Range.CheckIn)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type unitUsers struct{ u *Unit }

func (r unitUsers) ByID(ctx context.Context, id user.ID) (*user.User, error) {
	r.u.mu.Lock()
	staged, ok := r.u.users[id]
	r.u.mu.Unlock()
	if ok {
		return cloneUser(staged), nil
	}
	if u, ok := r.u.store.user(id); ok {
		return cloneUser(u), nil
	}
	return nil, user.ErrNotFound
}

func (r unitUsers) ByEmail(ctx context.Context, email string) (*user.User, error) {
	key := user.NormalizeEmail(email)
	r.u.mu.Lock()
	for _, staged := range r.u.users {
		if user.NormalizeEmail(staged.Email) == key {
			r.u.mu.Unlock()
			return cloneUser(staged), nil
		}
	}
	r.u.mu.Unlock()
	if u, ok := r.u.store.userByEmail(key); ok {
		return cloneUser(u), nil
	}
	return nil, user.ErrNotFound
}

func (r unitUsers) Save(ctx context.Context, u *user.User) error {
	if u == nil || strings.TrimSpace(string(u.ID)) == "" {
		return user.ErrIDRequired
	}
	if existing, ok := r.u.store.userByEmail(user.NormalizeEmail(u.Email)); ok && existing.ID != u.ID {
		return user.ErrEmailAlreadyUsed
	}
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.users[u.ID] = cloneUser(u)
	return nil
}

// UserRepository writes straight to the store. It backs the auth service,
// which runs outside the command pipeline.
type UserRepository struct {
	Store *Store
}

func (r UserRepository) ByID(ctx context.Context, id user.ID) (*user.User, error) {
	if u, ok := r.Store.user(id); ok {
		return cloneUser(u), nil
	}
	return nil, user.ErrNotFound
}

func (r UserRepository) ByEmail(ctx context.Context, email string) (*user.User, error) {
	if u, ok := r.Store.userByEmail(user.NormalizeEmail(email)); ok {
		return cloneUser(u), nil
	}
	return nil, user.ErrNotFound
}

func (r UserRepository) Save(ctx context.Context, u *user.User) error {
	if u == nil || strings.TrimSpace(string(u.ID)) == "" {
		return user.ErrIDRequired
	}
	return r.Store.apply(nil, nil, map[user.ID]*user.User{u.ID: u})
}

// SeedProperty stores p directly, bypassing units of work. Used for fixtures.
func (s *Store) SeedProperty(p *property.Property) error {
	if p == nil || p.ID == "" {
		return property.ErrIDRequired
	}
	return s.apply(map[property.ID]*property.Property{p.ID: p}, nil, nil)
}

var (
	_ property.Repository    = unitProperties{}
	_ reservation.Repository = unitReservations{}
	_ user.Repository        = unitUsers{}
	_ user.Repository        = UserRepository{}
)
