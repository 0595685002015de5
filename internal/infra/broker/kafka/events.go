package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/IBM/sarama"
)

// Inbox records processed event ids. Seen reports true for duplicates.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

// EventApplier consumes the data of one event; name has the version suffix removed.
type EventApplier interface {
	Apply(ctx context.Context, name string, data []byte) error
}

var ErrMalformedEvent = errors.New("kafka: malformed cloud event")

// CloudEventHandler decodes CloudEvents published by the outbox worker,
// drops duplicates through Inbox and hands the data to Applier.
type CloudEventHandler struct {
	Inbox   Inbox
	Applier EventApplier
}

type cloudEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (h CloudEventHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	if msg == nil || h.Applier == nil {
		return nil
	}
	var evt cloudEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return errors.Join(ErrMalformedEvent, err)
	}
	if evt.ID == "" || evt.Type == "" {
		return ErrMalformedEvent
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}
	return h.Applier.Apply(ctx, eventName(evt.Type), evt.Data)
}

func eventName(typ string) string {
	if idx := strings.LastIndex(typ, ".v"); idx > 0 {
		return typ[:idx]
	}
	return typ
}

var _ MessageHandler = CloudEventHandler{}
