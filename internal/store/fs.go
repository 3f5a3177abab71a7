package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// commentDir is the name of the container directory inside an
	// article's directory.
	commentDir = "comment"
	// tempPrefix marks in-flight blobs. Counting and reading ignore them.
	tempPrefix = ".tmp-"
)

// FSStore keeps each comment as a file named by its decimal sequence number
// in <root>/<article id>/comment.
type FSStore struct {
	root  string
	alloc *allocator
	log   *slog.Logger
}

// OpenFS returns a store rooted at dir, creating dir if it does not exist.
// Existing comments are picked up lazily on first use of each article.
func OpenFS(dir string, opts ...Option) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageUnavailableError{Message: fmt.Sprintf("creating data dir %s", dir), Err: err}
	}
	o := buildOptions(opts)
	s := &FSStore{root: dir, log: o.logger}
	s.alloc = newAllocator(s.seed)
	return s, nil
}

// Root returns the data directory.
func (s *FSStore) Root() string {
	return s.root
}

func (s *FSStore) containerPath(articleID int) (string, error) {
	if articleID < 0 {
		return "", &StorageUnavailableError{Message: fmt.Sprintf("invalid article id %d", articleID)}
	}
	return filepath.Join(s.root, strconv.Itoa(articleID), commentDir), nil
}

// EnsureContainer creates the article's comment directory if it is missing.
func (s *FSStore) EnsureContainer(articleID int) (Container, error) {
	dir, err := s.containerPath(articleID)
	if err != nil {
		return Container{}, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Container{}, &StorageUnavailableError{
			Message: fmt.Sprintf("article %d: creating container", articleID),
			Err:     err,
		}
	}
	return Container{ArticleID: articleID, Location: dir}, nil
}

// AllocateNext reserves the next sequence number for the article.
func (s *FSStore) AllocateNext(articleID int) (Reservation, error) {
	if _, err := s.containerPath(articleID); err != nil {
		return Reservation{}, err
	}
	return s.alloc.allocate(articleID)
}

// Write stores payload under res. The payload goes to a temp file that is
// synced and then renamed onto its sequence name, so a blob is either
// absent or complete.
func (s *FSStore) Write(res Reservation, payload []byte) error {
	dir, err := s.containerPath(res.ArticleID)
	if err != nil {
		return err
	}
	return s.alloc.commit(res, func() error {
		return s.writeBlob(dir, res.Seq, payload)
	})
}

// Append stores payload as the article's next comment.
func (s *FSStore) Append(articleID int, payload []byte) (Reservation, error) {
	c, err := s.EnsureContainer(articleID)
	if err != nil {
		return Reservation{}, err
	}
	return s.alloc.appendNext(articleID, func(seq int) error {
		return s.writeBlob(c.Location, seq, payload)
	})
}

func (s *FSStore) writeBlob(dir string, seq int, payload []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating container: %w", err)
	}

	target := filepath.Join(dir, strconv.Itoa(seq))
	if _, err := os.Lstat(target); err == nil {
		return &AllocationConflictError{Message: fmt.Sprintf("comment %s already exists", target)}
	}

	tmpPath := filepath.Join(dir, tempPrefix+uuid.NewString())
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Count returns the number of comments stored for the article. It never
// creates the container.
func (s *FSStore) Count(articleID int) (int, error) {
	dir, err := s.containerPath(articleID)
	if err != nil {
		return 0, err
	}
	seqs, err := scanSequences(dir)
	if err != nil {
		return 0, &StorageUnavailableError{Message: fmt.Sprintf("article %d: listing comments", articleID), Err: err}
	}
	return len(seqs), nil
}

// Read returns the payload of comment seq.
func (s *FSStore) Read(articleID, seq int) ([]byte, error) {
	dir, err := s.containerPath(articleID)
	if err != nil {
		return nil, err
	}
	if seq < 0 {
		return nil, &NotFoundError{Message: fmt.Sprintf("article %d: comment %d not found", articleID, seq)}
	}
	data, err := os.ReadFile(filepath.Join(dir, strconv.Itoa(seq)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Message: fmt.Sprintf("article %d: comment %d not found", articleID, seq)}
		}
		return nil, &StorageUnavailableError{Message: fmt.Sprintf("article %d: reading comment %d", articleID, seq), Err: err}
	}
	return data, nil
}

// CleanAll removes every comment blob of every article directory under the
// root and resets allocation for each article to 0.
func (s *FSStore) CleanAll() (int, error) {
	onDisk, err := s.articleIDs()
	if err != nil {
		return 0, &StorageUnavailableError{Message: "listing articles", Err: err}
	}

	total := 0
	for _, id := range mergeIDs(onDisk, s.alloc.known()) {
		dir, _ := s.containerPath(id)
		n, err := s.alloc.reset(id, func() (int, error) {
			return s.removeBlobs(dir)
		})
		total += n
		if err != nil {
			return total, &StorageUnavailableError{Message: fmt.Sprintf("article %d: removing comments", id), Err: err}
		}
	}
	return total, nil
}

// Close is a no-op for the filesystem store.
func (s *FSStore) Close() error {
	return nil
}

// removeBlobs deletes comment blobs and leftover temp files in dir and
// returns the number of comments removed. Caller must hold the article lock.
func (s *FSStore) removeBlobs(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(dir, name)
		switch {
		case isBlobName(name):
			s.log.Debug("removing comment", slog.String("path", path))
			if err := os.Remove(path); err != nil {
				return removed, err
			}
			removed++
		case strings.HasPrefix(name, tempPrefix):
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return removed, err
			}
		}
	}
	return removed, nil
}

// articleIDs lists the article directories under the root.
func (s *FSStore) articleIDs() ([]int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var ids []int
	for _, e := range entries {
		if !e.IsDir() || !isBlobName(e.Name()) {
			continue
		}
		id, _ := strconv.Atoi(e.Name())
		ids = append(ids, id)
	}
	return ids, nil
}

// seed returns one past the highest sequence on disk so that a gap left by
// a failed write is never refilled.
func (s *FSStore) seed(articleID int) (int, error) {
	dir, err := s.containerPath(articleID)
	if err != nil {
		return 0, err
	}
	seqs, err := scanSequences(dir)
	if err != nil {
		return 0, &StorageUnavailableError{Message: fmt.Sprintf("article %d: listing comments", articleID), Err: err}
	}
	next := 0
	for _, n := range seqs {
		if n >= next {
			next = n + 1
		}
	}
	return next, nil
}

// scanSequences returns the sequence numbers of the blobs in dir. A missing
// dir has none.
func scanSequences(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	seqs := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isBlobName(e.Name()) {
			continue
		}
		n, _ := strconv.Atoi(e.Name())
		seqs = append(seqs, n)
	}
	return seqs, nil
}

// isBlobName reports whether name is a canonical non-negative decimal
// number: no sign and no leading zeros.
func isBlobName(name string) bool {
	if name == "" || len(name) > 18 {
		return false
	}
	if len(name) > 1 && name[0] == '0' {
		return false
	}
	for _, c := range name {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
