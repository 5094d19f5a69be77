package bolt

import (
	"context"

	"github.com/asdine/storm/v3"
	"github.com/go-errors/errors"
	"github.com/rs/zerolog"
)

// DB represents a database
type DB struct {
	path    string
	stormDB *storm.DB
	ctx     context.Context
	cancel  func()
	log     zerolog.Logger
}

// NewDB returns new database
func NewDB(path string, logger zerolog.Logger) *DB {
	db := &DB{
		path: path,
		log:  logger.With().Str("component", "bolt").Logger(),
	}

	db.ctx, db.cancel = context.WithCancel(context.Background())

	return db
}

// Open opens new database connection
func (db *DB) Open() error {
	if db.path == "" {
		return errors.New("path required")
	}

	stormDB, err := storm.Open(db.path)
	if err != nil {
		return errors.Errorf("failed to open %s: %v", db.path, err)
	}
	db.stormDB = stormDB

	db.log.Info().Str("path", db.path).Msg("opened bolt database")
	return nil
}

// Close closes database connection
func (db *DB) Close() error {
	db.cancel()

	if db.stormDB != nil {
		return db.stormDB.Close()
	}

	return nil
}

// begin starts a read-write transaction unless ctx is already done.
func (db *DB) begin(ctx context.Context) (storm.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx, err := db.stormDB.Begin(true)
	if err != nil {
		return nil, errors.Errorf("failed to begin transaction: %v", err)
	}
	return tx, nil
}
