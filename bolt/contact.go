package bolt

import (
	"context"
	"sort"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/q"
	"github.com/go-errors/errors"

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

// Insert saves m and sets its ID
func (cs *contactService) Insert(ctx context.Context, m *mailroom.ContactMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := cs.db.stormDB.Save(m); err != nil {
		return errors.Errorf("failed to save: %v", err)
	}

	return nil
}

// FindAll returns every message, newest first
func (cs *contactService) FindAll(ctx context.Context) ([]mailroom.ContactMessage, error) {
	return cs.find(ctx)
}

func (cs *contactService) FindByIDs(ctx context.Context, ids []int) ([]mailroom.ContactMessage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return cs.find(ctx, q.In("ID", ids))
}

// SetRead updates the read flag and returns the number of messages found
func (cs *contactService) SetRead(ctx context.Context, ids []int, read bool) (int, error) {
	tx, err := cs.db.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	n := 0
	for _, id := range ids {
		var m mailroom.ContactMessage
		if err := tx.One("ID", id, &m); err != nil {
			if errors.Is(err, storm.ErrNotFound) {
				continue
			}
			return 0, errors.Errorf("failed to find message %d: %v", id, err)
		}

		if err := tx.UpdateField(&m, "Read", read); err != nil {
			return 0, errors.Errorf("failed to update message %d: %v", id, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Errorf("failed to commit: %v", err)
	}
	return n, nil
}

func (cs *contactService) find(ctx context.Context, matchers ...q.Matcher) ([]mailroom.ContactMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var messages []mailroom.ContactMessage
	if err := cs.db.stormDB.Select(matchers...).Find(&messages); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Errorf("failed to find contact messages: %v", err)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID > messages[j].ID
		}
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return messages, nil
}
