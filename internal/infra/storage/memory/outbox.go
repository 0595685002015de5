package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	infraoutbox "github.com/AntoS03/ProyectoFinal/internal/infra/outbox"
)

// Listener receives committed records on Flush, in commit order.
type Listener func(ctx context.Context, rec appoutbox.EventRecord)

// Outbox keeps committed records in memory. Flush hands new records to
// listeners. With Relay set, records also stay queued for the outbox worker
// until it marks them sent.
type Outbox struct {
	Relay bool

	mu        sync.Mutex
	entries   []*outboxEntry
	next      int
	listeners []Listener
}

type outboxEntry struct {
	rec       appoutbox.EventRecord
	claimed   bool
	attempts  int
	notBefore time.Time
	lastError string
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Subscribe(l Listener) {
	if l == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, l)
}

// Add appends a record outside any unit of work.
func (o *Outbox) Add(ctx context.Context, rec appoutbox.EventRecord) error {
	o.append([]appoutbox.EventRecord{rec})
	return nil
}

func (o *Outbox) append(recs []appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rec := range recs {
		o.entries = append(o.entries, &outboxEntry{rec: rec})
	}
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	fresh := make([]appoutbox.EventRecord, 0, len(o.entries)-o.next)
	for _, e := range o.entries[o.next:] {
		fresh = append(fresh, e.rec)
	}
	o.next = len(o.entries)
	listeners := append([]Listener(nil), o.listeners...)
	if !o.Relay {
		o.entries = nil
		o.next = 0
	}
	o.mu.Unlock()

	for _, rec := range fresh {
		for _, l := range listeners {
			l(ctx, rec)
		}
	}
	return nil
}

// Len reports how many records are still queued.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

// Claim only hands out records that Flush has already passed to listeners.
func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	for _, e := range o.entries[:o.next] {
		if e.claimed || now.Before(e.notBefore) {
			continue
		}
		e.claimed = true
		return &infraoutbox.Message{
			ID:         e.rec.ID,
			Name:       e.rec.Name,
			Payload:    e.rec.Payload,
			OccurredAt: e.rec.OccurredAt,
			Aggregate:  e.rec.Aggregate,
			Headers:    e.rec.Headers,
			Attempts:   e.attempts,
		}, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, e := range o.entries {
		if e.rec.ID != id {
			continue
		}
		o.entries = append(o.entries[:i], o.entries[i+1:]...)
		if i < o.next {
			o.next--
		}
		return nil
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		if e.rec.ID == id {
			e.claimed = false
			e.attempts++
			e.notBefore = next
			e.lastError = errMsg
			return nil
		}
	}
	return nil
}

type unitOutbox struct{ u *Unit }

func (b unitOutbox) Add(ctx context.Context, rec appoutbox.EventRecord) error {
	b.u.mu.Lock()
	defer b.u.mu.Unlock()
	if err := b.u.writable(); err != nil {
		return err
	}
	b.u.pending = append(b.u.pending, rec)
	return nil
}

// Flush is a no-op; records reach the shared outbox on Commit.
func (b unitOutbox) Flush(context.Context) error { return nil }

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ appoutbox.Outbox  = unitOutbox{}
	_ infraoutbox.Store = (*Outbox)(nil)
)
