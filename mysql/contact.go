package mysql

import (
	"context"

	"github.com/pkg/errors"

	"github.com/annweb/mailroom"
)

type contactService struct {
	db *DB
}

func NewContactService(db *DB) mailroom.ContactService {
	return &contactService{
		db: db,
	}
}

func (cs *contactService) Insert(ctx context.Context, m *mailroom.ContactMessage) error {
	return errors.Wrap(cs.db.gormDB.WithContext(ctx).Create(m).Error, "failed to insert contact message")
}

// FindAll returns every message, newest first
func (cs *contactService) FindAll(ctx context.Context) ([]mailroom.ContactMessage, error) {
	var messages []mailroom.ContactMessage
	err := cs.db.gormDB.WithContext(ctx).Order("created_at DESC, id DESC").Find(&messages).Error
	return messages, errors.Wrap(err, "failed to find contact messages")
}

func (cs *contactService) FindByIDs(ctx context.Context, ids []int) ([]mailroom.ContactMessage, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var messages []mailroom.ContactMessage
	err := cs.db.gormDB.WithContext(ctx).Where("id IN ?", ids).Order("created_at DESC, id DESC").Find(&messages).Error
	return messages, errors.Wrap(err, "failed to find contact messages")
}

// SetRead updates the read flag and returns the number of changed messages
func (cs *contactService) SetRead(ctx context.Context, ids []int, read bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res := cs.db.gormDB.WithContext(ctx).Model(&mailroom.ContactMessage{}).Where("id IN ?", ids).Update("read", read)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to update read flag")
	}
	return int(res.RowsAffected), nil
}
