package mailroom

import (
	"context"
	"time"
)

// SubscriberService is the interface that wraps methods related to the subscriber store
type SubscriberService interface {
	// Upsert creates s when no subscriber with the same email exists, reactivates an
	// inactive one, or leaves an active one untouched. The check and the write happen
	// in one atomic unit guarded by the unique constraint on email.
	Upsert(ctx context.Context, s *Subscriber) (*Subscriber, UpsertResult, error)
	FindByToken(ctx context.Context, token string) (*Subscriber, error)
	Deactivate(ctx context.Context, token string) error
	FindActive(ctx context.Context) ([]Subscriber, error)
	FindAll(ctx context.Context) ([]Subscriber, error)
	FindByIDs(ctx context.Context, ids []int) ([]Subscriber, error)
	CountActive(ctx context.Context) (int, error)
}

// Subscriber represents a newsletter recipient
type Subscriber struct {
	ID               int       `storm:"id,increment" gorm:"primaryKey;autoIncrement"`
	Email            string    `storm:"unique" gorm:"size:254;uniqueIndex;not null"`
	DateSubscribed   time.Time `storm:"index" gorm:"not null;index"`
	Active           bool      `storm:"index" gorm:"not null;default:true;index"`
	UnsubscribeToken string    `storm:"unique" gorm:"size:36;uniqueIndex;not null"`
	SourcePage       string    `gorm:"size:255"`
}

// UpsertResult tells what Upsert did with the subscriber record
type UpsertResult int

const (
	Created UpsertResult = iota
	Reactivated
	AlreadyActive
)

func (r UpsertResult) String() string {
	switch r {
	case Created:
		return "created"
	case Reactivated:
		return "reactivated"
	case AlreadyActive:
		return "already_active"
	default:
		return "unknown"
	}
}

// NewSubscriber returns an active subscriber with a fresh token
func NewSubscriber(email, token, source string, now time.Time) *Subscriber {
	return &Subscriber{
		Email:            email,
		DateSubscribed:   now,
		Active:           true,
		UnsubscribeToken: token,
		SourcePage:       source,
	}
}

// Emails returns the addresses of subscribers in order.
func Emails(subscribers []Subscriber) []string {
	emails := make([]string, 0, len(subscribers))
	for _, s := range subscribers {
		emails = append(emails, s.Email)
	}
	return emails
}

type SubscriptionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
