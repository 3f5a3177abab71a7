// Package articles serves the static side of the news site: article
// documents, their width metadata, the article total and the index page.
package articles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// IndexFile is the document served for the site root.
	IndexFile = "app.zonk"
	// CommentDir is the comment container inside an article directory.
	CommentDir = "comment"
)

// ErrNotFound is returned for documents that do not exist or resolve
// outside the library root.
var ErrNotFound = errors.New("document not found")

// Library reads article documents from a directory tree laid out as
// <root>/<id>/<document>, with the index document next to the root.
type Library struct {
	root  string
	index string
}

// New returns a Library over root. The index document is looked up in
// root's parent directory, matching the site layout where the article
// tree and app.zonk sit side by side.
func New(root string) *Library {
	return &Library{
		root:  root,
		index: filepath.Join(filepath.Dir(filepath.Clean(root)), IndexFile),
	}
}

// IndexPath returns the path of the index document.
func (l *Library) IndexPath() string {
	return l.index
}

// Total returns the number of articles in the library. A directory holding
// nothing but a comment container was created by the comment store for an
// id that has no article, and is not counted.
func (l *Library) Total() (int, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("listing articles: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			commentsOnly, err := l.commentsOnly(e.Name())
			if err != nil {
				return 0, fmt.Errorf("listing articles: %w", err)
			}
			if commentsOnly {
				continue
			}
		}
		n++
	}
	return n, nil
}

func (l *Library) commentsOnly(dir string) (bool, error) {
	entries, err := os.ReadDir(filepath.Join(l.root, dir))
	if err != nil {
		return false, err
	}
	return len(entries) == 1 && entries[0].Name() == CommentDir, nil
}

// Resolve maps a slash-separated document path to a file inside the root.
// Paths escaping the root and directories are reported as ErrNotFound.
func (l *Library) Resolve(doc string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(doc))
	if clean == string(filepath.Separator) {
		return "", ErrNotFound
	}
	path := filepath.Join(l.root, clean)
	rel, err := filepath.Rel(l.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrNotFound
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// Width returns the article's width metadata with all spaces and newlines
// removed.
func (l *Library) Width(articleID int) (string, error) {
	data, err := os.ReadFile(filepath.Join(l.root, strconv.Itoa(articleID), "width"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("reading width: %w", err)
	}
	return strings.NewReplacer(" ", "", "\n", "").Replace(string(data)), nil
}
