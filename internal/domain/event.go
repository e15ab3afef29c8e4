// internal/domain/event.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind identifies what happened to a user's balances.
type EventKind string

const (
	EventTopUp          EventKind = "TOP_UP"
	EventConversion     EventKind = "CONVERSION"
	EventAccountDeleted EventKind = "ACCOUNT_DELETED"
)

// Event is a post-commit notification addressed to one user.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Kind      EventKind `json:"kind"`
	UserID    int64     `json:"-"`
	Email     string    `json:"-"`
	Subject   string    `json:"subject"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func newEvent(kind EventKind, user *User, subject, text string) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      kind,
		UserID:    user.ID,
		Email:     user.Email,
		Subject:   subject,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTopUpEvent describes a successful top-up.
func NewTopUpEvent(user *User, amount decimal.Decimal, currency string) Event {
	return newEvent(EventTopUp, user, "adding funds to your account",
		fmt.Sprintf("Your balance has been successfully replenished with %s %s", amount.String(), currency))
}

// NewConversionEvent describes a settled conversion.
func NewConversionEvent(user *User, amount decimal.Decimal, source string, converted decimal.Decimal, target string) Event {
	return newEvent(EventConversion, user, "Convert currency",
		fmt.Sprintf("you exchanged %s %s for %s %s", amount.String(), source, settledString(converted), target))
}

// NewAccountDeletedEvent confirms an account removal.
func NewAccountDeletedEvent(user *User) Event {
	return newEvent(EventAccountDeleted, user, "delete account", "your account successfully delete")
}

// settledString renders a settled amount with at least one fractional digit
// (36 -> "36.0", 36.45 -> "36.45").
func settledString(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
