// Package store persists article comments and allocates their sequence
// numbers.
//
// Every article owns a container of comment blobs. Sequence numbers within
// an article are zero-based and contiguous: allocation, writes and cleanup
// for one article are serialized by a per-article lock, while different
// articles proceed independently.
package store

import "log/slog"

// Container is a handle to an article's comment container.
type Container struct {
	ArticleID int
	// Location is backend specific: a directory for FSStore, a database
	// path for SQLiteStore.
	Location  string
}

// Reservation is a sequence number reserved for one pending write.
// Only the backend that issued it may consume it.
type Reservation struct {
	ArticleID int
	Seq       int

	generation uint64
}

// Backend is the capability set of a comment store.
type Backend interface {
	// EnsureContainer returns the article's container, creating it if needed.
	EnsureContainer(articleID int) (Container, error)
	// AllocateNext reserves the next unused sequence number for the article.
	AllocateNext(articleID int) (Reservation, error)
	// Write persists payload under a reservation from AllocateNext.
	// Reservations of one article must be written in allocation order.
	Write(res Reservation, payload []byte) error
	// Append ensures the container, then allocates and writes the next
	// comment without releasing the article lock in between.
	Append(articleID int, payload []byte) (Reservation, error)
	// Count returns the number of stored comments; 0 if the container does
	// not exist.
	Count(articleID int) (int, error)
	// Read returns the payload stored at seq.
	Read(articleID, seq int) ([]byte, error)
	// CleanAll removes every comment of every article and returns how many
	// were removed.
	CleanAll() (int, error)
	Close() error
}

// Option configures a backend.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for cleanup and write diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var (
	_ Backend = (*FSStore)(nil)
	_ Backend = (*SQLiteStore)(nil)
)
