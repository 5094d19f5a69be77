package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"strings"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	// registers the "sqlite" driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const memoryPath = ":memory:"

// DB represents the database connection.
type DB struct {
	sqlDB  *sql.DB
	ctx    context.Context
	cancel func()

	path string
	log  zerolog.Logger
}

// NewDB returns new database
func NewDB(path string, logger zerolog.Logger) *DB {
	db := &DB{
		path: path,
		log:  logger.With().Str("component", "sqlite").Logger(),
	}

	db.ctx, db.cancel = context.WithCancel(context.Background())

	return db
}

// Open opens the database and applies pending migrations
func (db *DB) Open() (err error) {
	if db.path == "" {
		return errors.New("path required")
	}

	if db.sqlDB != nil {
		return nil
	}

	if db.sqlDB, err = sql.Open("sqlite", dsn(db.path)); err != nil {
		return errors.Wrap(err, "sql.Open")
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases alive.
	db.sqlDB.SetMaxOpenConns(1)

	if err := db.migrate(); err != nil {
		return errors.Wrap(err, "migrate")
	}

	return nil
}

func (db *DB) migrate() error {
	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.sqlDB, migrations)
	if err != nil {
		return errors.Wrap(err, "goose.NewProvider")
	}

	results, err := provider.Up(db.ctx)
	if err != nil {
		return errors.Wrap(err, "goose up")
	}
	for _, r := range results {
		db.log.Info().Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("applied migration")
	}

	return nil
}

// Close closes database connection
func (db *DB) Close() error {
	if db.sqlDB == nil {
		return nil
	}

	db.cancel()

	if err := db.sqlDB.Close(); err != nil {
		db.log.Error().Err(err).Msg("Error closing database")
	}

	return nil
}

func dsn(path string) string {
	if path == memoryPath {
		return path
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func intArgs(ids []int) []interface{} {
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}
