package memory

import (
	"errors"
	"sync"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

// ErrReadOnly is returned when a read-only unit of work is asked to write.
var ErrReadOnly = errors.New("memory: unit of work is read-only")

// Store holds committed state. Units of work read through it and apply their
// staged writes on commit. Not suitable for production.
type Store struct {
	mu           sync.RWMutex
	properties   map[property.ID]*property.Property
	reservations map[reservation.ID]*reservation.Reservation
	users        map[user.ID]*user.User
	emails       map[string]user.ID

	locksMu sync.Mutex
	locks   map[property.ID]chan struct{}
}

func NewStore() *Store {
	return &Store{
		properties:   make(map[property.ID]*property.Property),
		reservations: make(map[reservation.ID]*reservation.Reservation),
		users:        make(map[user.ID]*user.User),
		emails:       make(map[string]user.ID),
		locks:        make(map[property.ID]chan struct{}),
	}
}

// propertyLock returns the semaphore guarding writers of one property.
func (s *Store) propertyLock(id property.ID) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

func (s *Store) property(id property.ID) (*property.Property, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[id]
	return p, ok
}

func (s *Store) reservation(id reservation.ID) (*reservation.Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	return r, ok
}

func (s *Store) user(id user.ID) (*user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) userByEmail(email string) (*user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, false
	}
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) snapshotProperties() []*property.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*property.Property, 0, len(s.properties))
	for _, p := range s.properties {
		out = append(out, p)
	}
	return out
}

func (s *Store) snapshotReservations(match func(*reservation.Reservation) bool) []*reservation.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*reservation.Reservation, 0)
	for _, r := range s.reservations {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

// apply writes the staged state of a unit. Staged nil properties are deletions.
func (s *Store) apply(props map[property.ID]*property.Property, res map[reservation.ID]*reservation.Reservation, users map[user.ID]*user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		if owner, ok := s.emails[user.NormalizeEmail(u.Email)]; ok && owner != u.ID {
			return user.ErrEmailAlreadyUsed
		}
	}
	for id, p := range props {
		if p == nil {
			delete(s.properties, id)
			continue
		}
		stored := p.Clone()
		if prev, ok := s.properties[id]; ok {
			stored.Version = prev.Version + 1
		} else {
			stored.Version = 1
		}
		s.properties[id] = stored
	}
	for id, r := range res {
		stored := r.Clone()
		if prev, ok := s.reservations[id]; ok {
			stored.Version = prev.Version + 1
		} else {
			stored.Version = 1
		}
		s.reservations[id] = stored
	}
	for id, u := range users {
		if prev, ok := s.users[id]; ok {
			delete(s.emails, user.NormalizeEmail(prev.Email))
		}
		cp := *u
		s.users[id] = &cp
		s.emails[user.NormalizeEmail(u.Email)] = id
	}
	return nil
}

func cloneUser(u *user.User) *user.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
