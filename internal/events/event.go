// Package events publishes loan lifecycle events to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	LoanSubmitted   = "loan.submitted"
	LoanActivated   = "loan.activated"
	LoanRejected    = "loan.rejected"
	LoanOverdue     = "loan.overdue"
	LoanPaidOff     = "loan.paid_off"
	PaymentRecorded = "payment.recorded"
	PaymentReminder = "payment.reminder"
)

// Event is one lifecycle fact about a loan.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	LoanID     string          `json:"loanId"`
	UserID     string          `json:"userId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// New builds an event; data is JSON-encoded and left empty when it cannot be.
func New(eventType, loanID, userID string, occurredAt time.Time, data interface{}) Event {
	e := Event{
		ID:         uuid.New(),
		Type:       eventType,
		LoanID:     loanID,
		UserID:     userID,
		OccurredAt: occurredAt.UTC(),
	}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			e.Data = raw
		}
	}
	return e
}

// Publisher delivers events. Publishing is best effort: callers log failures
// and carry on, the database stays the source of truth.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}
