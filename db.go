package mailroom

// Database is a store backend that must be opened before its services are used.
type Database interface {
	Open() error
	Close() error
}
