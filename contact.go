package mailroom

import (
	"context"
	"time"
)

// ContactService is the interface that wraps methods related to the contact message store
type ContactService interface {
	Insert(ctx context.Context, m *ContactMessage) error
	FindAll(ctx context.Context) ([]ContactMessage, error)
	FindByIDs(ctx context.Context, ids []int) ([]ContactMessage, error)
	SetRead(ctx context.Context, ids []int, read bool) (int, error)
}

// ContactMessage represents a message sent through the contact form
type ContactMessage struct {
	ID        int       `storm:"id,increment" gorm:"primaryKey;autoIncrement"`
	FullName  string    `gorm:"size:255;not null"`
	Phone     string    `gorm:"size:50"`
	Email     string    `storm:"index" gorm:"size:254;not null"`
	Message   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `storm:"index" gorm:"not null;index"`
	Read      bool      `storm:"index" gorm:"not null;default:false"`
}
