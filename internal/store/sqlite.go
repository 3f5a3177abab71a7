package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS comments (
	article_id INTEGER NOT NULL,
	seq        INTEGER NOT NULL,
	payload    BLOB    NOT NULL,
	PRIMARY KEY (article_id, seq)
);`

// SQLiteStore keeps comments as rows of an embedded SQLite database.
// Allocation follows the same per-article discipline as FSStore.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	alloc *allocator
	log   *slog.Logger
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &StorageUnavailableError{Message: "opening database", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageUnavailableError{Message: "connecting to database", Err: err}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, &StorageUnavailableError{Message: "applying schema", Err: err}
	}

	o := buildOptions(opts)
	s := &SQLiteStore{db: db, path: path, log: o.logger}
	s.alloc = newAllocator(s.seed)
	return s, nil
}

func validArticle(articleID int) error {
	if articleID < 0 {
		return &StorageUnavailableError{Message: fmt.Sprintf("invalid article id %d", articleID)}
	}
	return nil
}

// EnsureContainer records the article in the articles table.
func (s *SQLiteStore) EnsureContainer(articleID int) (Container, error) {
	if err := validArticle(articleID); err != nil {
		return Container{}, err
	}
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO articles (id) VALUES (?)`, articleID); err != nil {
		return Container{}, &StorageUnavailableError{
			Message: fmt.Sprintf("article %d: creating container", articleID),
			Err:     err,
		}
	}
	return Container{ArticleID: articleID, Location: s.path}, nil
}

// AllocateNext reserves the next sequence number for the article.
func (s *SQLiteStore) AllocateNext(articleID int) (Reservation, error) {
	if err := validArticle(articleID); err != nil {
		return Reservation{}, err
	}
	return s.alloc.allocate(articleID)
}

// Write inserts payload under res in a single transaction.
func (s *SQLiteStore) Write(res Reservation, payload []byte) error {
	if err := validArticle(res.ArticleID); err != nil {
		return err
	}
	return s.alloc.commit(res, func() error {
		return s.insert(res.ArticleID, res.Seq, payload)
	})
}

// Append stores payload as the article's next comment.
func (s *SQLiteStore) Append(articleID int, payload []byte) (Reservation, error) {
	if _, err := s.EnsureContainer(articleID); err != nil {
		return Reservation{}, err
	}
	return s.alloc.appendNext(articleID, func(seq int) error {
		return s.insert(articleID, seq, payload)
	})
}

func (s *SQLiteStore) insert(articleID, seq int, payload []byte) error {
	if payload == nil {
		payload = []byte{}
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO articles (id) VALUES (?)`, articleID); err != nil {
		return fmt.Errorf("recording article: %w", err)
	}
	_, err = tx.Exec(`INSERT INTO comments (article_id, seq, payload) VALUES (?, ?, ?)`,
		articleID, seq, payload)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return &AllocationConflictError{
				Message: fmt.Sprintf("article %d: comment %d already exists", articleID, seq),
			}
		}
		return fmt.Errorf("inserting comment: %w", err)
	}
	return tx.Commit()
}

// Count returns the number of comment rows for the article.
func (s *SQLiteStore) Count(articleID int) (int, error) {
	if err := validArticle(articleID); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM comments WHERE article_id = ?`, articleID).Scan(&n)
	if err != nil {
		return 0, &StorageUnavailableError{Message: fmt.Sprintf("article %d: counting comments", articleID), Err: err}
	}
	return n, nil
}

// Read returns the payload of comment seq.
func (s *SQLiteStore) Read(articleID, seq int) ([]byte, error) {
	if err := validArticle(articleID); err != nil {
		return nil, err
	}
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM comments WHERE article_id = ? AND seq = ?`, articleID, seq).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Message: fmt.Sprintf("article %d: comment %d not found", articleID, seq)}
		}
		return nil, &StorageUnavailableError{Message: fmt.Sprintf("article %d: reading comment %d", articleID, seq), Err: err}
	}
	return payload, nil
}

// CleanAll deletes every comment row, one article at a time under that
// article's lock.
func (s *SQLiteStore) CleanAll() (int, error) {
	onDisk, err := s.articleIDs()
	if err != nil {
		return 0, &StorageUnavailableError{Message: "listing articles", Err: err}
	}

	total := 0
	for _, id := range mergeIDs(onDisk, s.alloc.known()) {
		n, err := s.alloc.reset(id, func() (int, error) {
			res, err := s.db.Exec(`DELETE FROM comments WHERE article_id = ?`, id)
			if err != nil {
				return 0, err
			}
			removed, err := res.RowsAffected()
			return int(removed), err
		})
		if n > 0 {
			s.log.Debug("removed comments", slog.Int("article_id", id), slog.Int("count", n))
		}
		total += n
		if err != nil {
			return total, &StorageUnavailableError{Message: fmt.Sprintf("article %d: removing comments", id), Err: err}
		}
	}
	return total, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) articleIDs() ([]int, error) {
	rows, err := s.db.Query(`SELECT id FROM articles UNION SELECT DISTINCT article_id FROM comments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) seed(articleID int) (int, error) {
	var next int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(seq) + 1, 0) FROM comments WHERE article_id = ?`, articleID).Scan(&next)
	if err != nil {
		return 0, &StorageUnavailableError{Message: fmt.Sprintf("article %d: reading sequence", articleID), Err: err}
	}
	return next, nil
}
