package mysql

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/annweb/mailroom"
)

type subscriberService struct {
	db *DB
}

func NewSubscriberService(db *DB) mailroom.SubscriberService {
	return &subscriberService{
		db: db,
	}
}

// Upsert inserts s, ignoring a duplicate email. When the unique index rejects the row
// the existing one is locked and reactivated if needed.
func (ss *subscriberService) Upsert(ctx context.Context, s *mailroom.Subscriber) (*mailroom.Subscriber, mailroom.UpsertResult, error) {
	var (
		out    mailroom.Subscriber
		result mailroom.UpsertResult
	)

	err := ss.db.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created := *s
		created.ID = 0
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).Create(&created)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "failed to insert %s", s.Email)
		}
		if res.RowsAffected == 1 {
			out, result = created, mailroom.Created
			return nil
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("email = ?", s.Email).First(&out).Error; err != nil {
			return errors.Wrapf(err, "failed to find %s", s.Email)
		}

		if out.Active {
			result = mailroom.AlreadyActive
			return nil
		}

		if err := tx.Model(&out).Update("active", true).Error; err != nil {
			return errors.Wrapf(err, "failed to reactivate %s", s.Email)
		}
		out.Active = true
		result = mailroom.Reactivated
		return nil
	})
	if err != nil {
		return nil, mailroom.Created, err
	}

	return &out, result, nil
}

// FindByToken finds a subscriber by unsubscribe token
func (ss *subscriberService) FindByToken(ctx context.Context, token string) (*mailroom.Subscriber, error) {
	var s mailroom.Subscriber
	if err := ss.db.gormDB.WithContext(ctx).Where("unsubscribe_token = ?", token).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &mailroom.Error{Code: mailroom.ErrNotFound, Message: "subscriber not found"}
		}
		return nil, errors.Wrap(err, "failed to find by token")
	}
	return &s, nil
}

// Deactivate clears the active flag of the subscriber owning token
func (ss *subscriberService) Deactivate(ctx context.Context, token string) error {
	var s mailroom.Subscriber
	err := ss.db.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("unsubscribe_token = ?", token).First(&s).Error; err != nil {
			return err
		}
		return tx.Model(&s).Update("active", false).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &mailroom.Error{Code: mailroom.ErrNotFound, Message: "subscriber not found"}
		}
		return errors.Wrap(err, "failed to deactivate")
	}
	return nil
}

// FindActive returns active subscribers, oldest first
func (ss *subscriberService) FindActive(ctx context.Context) ([]mailroom.Subscriber, error) {
	var subscribers []mailroom.Subscriber
	err := ss.db.gormDB.WithContext(ctx).Where("active = ?", true).Order("date_subscribed, id").Find(&subscribers).Error
	return subscribers, errors.Wrap(err, "failed to find active subscribers")
}

// FindAll returns every subscriber, newest first
func (ss *subscriberService) FindAll(ctx context.Context) ([]mailroom.Subscriber, error) {
	var subscribers []mailroom.Subscriber
	err := ss.db.gormDB.WithContext(ctx).Order("date_subscribed DESC, id DESC").Find(&subscribers).Error
	return subscribers, errors.Wrap(err, "failed to find subscribers")
}

func (ss *subscriberService) FindByIDs(ctx context.Context, ids []int) ([]mailroom.Subscriber, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var subscribers []mailroom.Subscriber
	err := ss.db.gormDB.WithContext(ctx).Where("id IN ?", ids).Order("date_subscribed DESC, id DESC").Find(&subscribers).Error
	return subscribers, errors.Wrap(err, "failed to find subscribers")
}

func (ss *subscriberService) CountActive(ctx context.Context) (int, error) {
	var n int64
	if err := ss.db.gormDB.WithContext(ctx).Model(&mailroom.Subscriber{}).Where("active = ?", true).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count active subscribers")
	}
	return int(n), nil
}
