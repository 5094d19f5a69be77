package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/annweb/mailroom"
)

const contactColumns = "id, full_name, phone, email, message, created_at, read"

type contactService struct {
	db *DB
}

func NewContactService(db *DB) mailroom.ContactService {
	return &contactService{
		db: db,
	}
}

// Insert stores m and sets its ID
func (cs *contactService) Insert(ctx context.Context, m *mailroom.ContactMessage) error {
	res, err := cs.db.sqlDB.ExecContext(ctx, "INSERT INTO contact_messages (full_name, phone, email, message, created_at, read) VALUES (?, ?, ?, ?, ?, ?)",
		m.FullName, m.Phone, m.Email, m.Message, m.CreatedAt, m.Read)
	if err != nil {
		return errors.Wrap(err, "failed to insert contact message")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to get last insert id")
	}
	m.ID = int(id)

	return nil
}

// FindAll returns every message, newest first
func (cs *contactService) FindAll(ctx context.Context) ([]mailroom.ContactMessage, error) {
	return cs.query(ctx, "SELECT "+contactColumns+" FROM contact_messages ORDER BY created_at DESC, id DESC")
}

func (cs *contactService) FindByIDs(ctx context.Context, ids []int) ([]mailroom.ContactMessage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return cs.query(ctx, "SELECT "+contactColumns+" FROM contact_messages WHERE id IN ("+placeholders(len(ids))+") ORDER BY created_at DESC, id DESC", intArgs(ids)...)
}

// SetRead updates the read flag and returns the number of messages found
func (cs *contactService) SetRead(ctx context.Context, ids []int, read bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := append([]interface{}{read}, intArgs(ids)...)
	res, err := cs.db.sqlDB.ExecContext(ctx, "UPDATE contact_messages SET read = ? WHERE id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return 0, errors.Wrap(err, "failed to update read flag")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get affected rows")
	}
	return int(n), nil
}

func (cs *contactService) query(ctx context.Context, query string, args ...interface{}) ([]mailroom.ContactMessage, error) {
	rows, err := cs.db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query contact messages")
	}
	defer rows.Close()

	var messages []mailroom.ContactMessage
	for rows.Next() {
		var m mailroom.ContactMessage
		if err := rows.Scan(&m.ID, &m.FullName, &m.Phone, &m.Email, &m.Message, &m.CreatedAt, &m.Read); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		messages = append(messages, m)
	}

	return messages, errors.Wrap(rows.Err(), "failed to iterate rows")
}
