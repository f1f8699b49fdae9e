package bridge

import (
	"time"

	"github.com/google/uuid"

	ripple "github.com/Tap30/ripple-ui-go"
)

// Record is the envelope the bridge publishes for every accepted event.
type Record struct {
	ID         string       `json:"id"`
	ReceivedAt time.Time    `json:"receivedAt"`
	Event      ripple.Event `json:"event"`
}

// NewRecord wraps event with a fresh id.
func NewRecord(event ripple.Event, receivedAt time.Time) Record {
	return Record{
		ID:         "evt_" + uuid.NewString(),
		ReceivedAt: receivedAt.UTC(),
		Event:      event,
	}
}
