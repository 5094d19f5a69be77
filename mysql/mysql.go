package mysql

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/annweb/mailroom"
)

// DB represents the database connection.
type DB struct {
	gormDB *gorm.DB
	ctx    context.Context
	cancel func()

	dsn string
	log zerolog.Logger
}

// NewDB returns new database
func NewDB(dsn string, l zerolog.Logger) *DB {
	db := &DB{
		dsn: dsn,
		log: l.With().Str("component", "mysql").Logger(),
	}

	db.ctx, db.cancel = context.WithCancel(context.Background())

	return db
}

// Open connects to the server and migrates the schema
func (db *DB) Open() error {
	if db.dsn == "" {
		return errors.New("dsn required")
	}

	if db.gormDB != nil {
		return nil
	}

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               db.dsn,
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.New(&db.log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return errors.Wrap(err, "database connection failed")
	}

	if err := gormDB.WithContext(db.ctx).AutoMigrate(&mailroom.Subscriber{}, &mailroom.ContactMessage{}); err != nil {
		return errors.Wrap(err, "migration failed")
	}

	db.gormDB = gormDB
	return nil
}

// Close closes database connection
func (db *DB) Close() error {
	if db.gormDB == nil {
		return nil
	}

	db.cancel()

	sqlDB, err := db.gormDB.DB()
	if err != nil {
		return errors.Wrap(err, "resolve sql db")
	}
	if err := sqlDB.Close(); err != nil {
		db.log.Error().Err(err).Msg("Error closing database")
	}

	return nil
}
