package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/annweb/mailroom"
)

const subscriberColumns = "id, email, date_subscribed, active, unsubscribe_token, source_page"

type subscriberService struct {
	db *DB
}

func NewSubscriberService(db *DB) mailroom.SubscriberService {
	return &subscriberService{
		db: db,
	}
}

// Upsert inserts s unless its email is taken. The unique index on email decides the race;
// the loser of a concurrent insert reads the winner's row.
func (ss *subscriberService) Upsert(ctx context.Context, s *mailroom.Subscriber) (*mailroom.Subscriber, mailroom.UpsertResult, error) {
	tx, err := ss.db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, mailroom.Created, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO subscribers (email, date_subscribed, active, unsubscribe_token, source_page)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT(email) DO NOTHING`,
		s.Email, s.DateSubscribed, s.Active, s.UnsubscribeToken, s.SourcePage)
	if err != nil {
		return nil, mailroom.Created, errors.Wrapf(err, "failed to insert %s", s.Email)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, mailroom.Created, errors.Wrap(err, "failed to get affected rows")
	}

	if n == 1 {
		id, err := res.LastInsertId()
		if err != nil {
			return nil, mailroom.Created, errors.Wrap(err, "failed to get last insert id")
		}
		if err := tx.Commit(); err != nil {
			return nil, mailroom.Created, errors.Wrap(err, "failed to commit")
		}

		created := *s
		created.ID = int(id)
		return &created, mailroom.Created, nil
	}

	existing, err := scanSubscriber(tx.QueryRowContext(ctx, "SELECT "+subscriberColumns+" FROM subscribers WHERE email = ?", s.Email))
	if err != nil {
		return nil, mailroom.Created, errors.Wrapf(err, "failed to find %s", s.Email)
	}

	result := mailroom.AlreadyActive
	if !existing.Active {
		if _, err := tx.ExecContext(ctx, "UPDATE subscribers SET active = 1 WHERE id = ?", existing.ID); err != nil {
			return nil, mailroom.Created, errors.Wrapf(err, "failed to reactivate %s", s.Email)
		}
		existing.Active = true
		result = mailroom.Reactivated
	}

	if err := tx.Commit(); err != nil {
		return nil, mailroom.Created, errors.Wrap(err, "failed to commit")
	}

	return existing, result, nil
}

// FindByToken finds a subscriber by unsubscribe token
func (ss *subscriberService) FindByToken(ctx context.Context, token string) (*mailroom.Subscriber, error) {
	s, err := scanSubscriber(ss.db.sqlDB.QueryRowContext(ctx, "SELECT "+subscriberColumns+" FROM subscribers WHERE unsubscribe_token = ?", token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &mailroom.Error{Code: mailroom.ErrNotFound, Message: "subscriber not found"}
		}
		return nil, errors.Wrap(err, "failed to find by token")
	}
	return s, nil
}

// Deactivate clears the active flag of the subscriber owning token
func (ss *subscriberService) Deactivate(ctx context.Context, token string) error {
	res, err := ss.db.sqlDB.ExecContext(ctx, "UPDATE subscribers SET active = 0 WHERE unsubscribe_token = ?", token)
	if err != nil {
		return errors.Wrap(err, "failed to deactivate")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get affected rows")
	}
	if n == 0 {
		return &mailroom.Error{Code: mailroom.ErrNotFound, Message: "subscriber not found"}
	}

	return nil
}

// FindActive returns active subscribers, oldest first
func (ss *subscriberService) FindActive(ctx context.Context) ([]mailroom.Subscriber, error) {
	return ss.query(ctx, "SELECT "+subscriberColumns+" FROM subscribers WHERE active = 1 ORDER BY date_subscribed, id")
}

// FindAll returns every subscriber, newest first
func (ss *subscriberService) FindAll(ctx context.Context) ([]mailroom.Subscriber, error) {
	return ss.query(ctx, "SELECT "+subscriberColumns+" FROM subscribers ORDER BY date_subscribed DESC, id DESC")
}

func (ss *subscriberService) FindByIDs(ctx context.Context, ids []int) ([]mailroom.Subscriber, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return ss.query(ctx, "SELECT "+subscriberColumns+" FROM subscribers WHERE id IN ("+placeholders(len(ids))+") ORDER BY date_subscribed DESC, id DESC", intArgs(ids)...)
}

func (ss *subscriberService) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := ss.db.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM subscribers WHERE active = 1").Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count active subscribers")
	}
	return n, nil
}

func (ss *subscriberService) query(ctx context.Context, query string, args ...interface{}) ([]mailroom.Subscriber, error) {
	rows, err := ss.db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query subscribers")
	}
	defer rows.Close()

	var subscribers []mailroom.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		subscribers = append(subscribers, *s)
	}

	return subscribers, errors.Wrap(rows.Err(), "failed to iterate rows")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscriber(row scanner) (*mailroom.Subscriber, error) {
	var s mailroom.Subscriber
	if err := row.Scan(&s.ID, &s.Email, &s.DateSubscribed, &s.Active, &s.UnsubscribeToken, &s.SourcePage); err != nil {
		return nil, err
	}
	return &s, nil
}
