package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finledger/internal/core"
)

// Event types carried in EntryEvent.Type.
const (
	EventEntryAdded   = "entry.added"
	EventEntryDeleted = "entry.deleted"
)

// EntryPayload is the wire form of an entry.
type EntryPayload struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description,omitempty"`
}

// EntryEvent announces a change that has already been persisted to the
// primary ledger. Consumers treat it as a hint to resynchronise, so
// duplicates and reordering are harmless.
type EntryEvent struct {
	EventID   string       `json:"event_id"`
	Type      string       `json:"type"`
	Entry     EntryPayload `json:"entry"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewEntryEvent creates an event with a fresh ID.
func NewEntryEvent(eventType string, e core.Entry) *EntryEvent {
	return &EntryEvent{
		EventID: uuid.NewString(),
		Type:    eventType,
		Entry: EntryPayload{
			ID:          e.ID,
			Date:        e.Date.String(),
			Kind:        e.Kind.String(),
			Category:    e.Category,
			AmountCents: e.Amount.Cents,
			Description: e.Description,
		},
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryEventFromJSON decodes and sanity-checks an event.
func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var msg EntryEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventEntryAdded, EventEntryDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return &msg, nil
}

// ToEntry converts the payload back into a domain entry.
func (p EntryPayload) ToEntry() (core.Entry, error) {
	date, err := core.ValidateDate(p.Date)
	if err != nil {
		return core.Entry{}, err
	}
	kind, err := core.ParseKind(p.Kind)
	if err != nil {
		return core.Entry{}, err
	}
	e := core.Entry{
		ID:          p.ID,
		Date:        date,
		Kind:        kind,
		Category:    p.Category,
		Amount:      core.Money{Cents: p.AmountCents},
		Description: p.Description,
	}
	return e, e.Validate()
}
