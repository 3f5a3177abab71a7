package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vector76/news_server/internal/articles"
	"github.com/vector76/news_server/internal/metrics"
	"github.com/vector76/news_server/internal/model"
	"github.com/vector76/news_server/internal/store"
)

const (
	// addedResponse is returned by a successful add-comment request.
	addedResponse = "Success"
	// cleanedResponse is the page shown after /clean.
	cleanedResponse = `start { set_page(Page().add(Text("Successfully removed comments"))); }`
)

// textOK writes a plain text response with status 200.
func textOK(w http.ResponseWriter, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, s)
}

// storeError maps a comment store error to an HTTP status and writes it.
// Anything other than a missing comment is a server-side failure.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *store.NotFoundError
	if errors.As(err, &notFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logFor(r).Error("comment store failure", slog.String("error", err.Error()))
	http.Error(w, "internal storage error", http.StatusInternalServerError)
}

// failureKind classifies a store error for metrics.
func failureKind(err error) string {
	var (
		unavailable *store.StorageUnavailableError
		writeFailed *store.WriteFailedError
		conflict    *store.AllocationConflictError
	)
	switch {
	case errors.Is(err, store.ErrStaleReservation):
		return "stale_reservation"
	case errors.As(err, &conflict):
		return "allocation_conflict"
	case errors.As(err, &writeFailed):
		return "write_failed"
	case errors.As(err, &unavailable):
		return "storage_unavailable"
	}
	return "unknown"
}

// articleID parses the {id} URL parameter, writing a 400 on failure.
func articleID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := model.ParseArticleID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// handleTotalComments handles GET /article/{id}/comments/total.
func (s *Server) handleTotalComments(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}

	n, err := s.store.Count(id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	textOK(w, strconv.Itoa(n))
}

// handleAddComment handles GET and POST /article/{id}/comments/add. The raw
// request body is the comment payload.
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}

	res, err := s.store.Append(id, payload)
	if err != nil {
		metrics.ObserveWriteFailure(failureKind(err))
		s.storeError(w, r, err)
		return
	}

	metrics.ObserveCommentWritten()
	s.logFor(r).Info("comment added",
		slog.Int("article_id", id),
		slog.Int("sequence", res.Seq),
		slog.Int("bytes", len(payload)),
	)
	textOK(w, addedResponse)
}

// commentParams parses {id} and {seq}, writing a 400 on failure.
func commentParams(w http.ResponseWriter, r *http.Request) (id, seq int, ok bool) {
	id, ok = articleID(w, r)
	if !ok {
		return 0, 0, false
	}
	seq, err := model.ParseSequence(chi.URLParam(r, "seq"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, 0, false
	}
	return id, seq, true
}

// handleGetComment handles GET /article/{id}/comments/{seq}.
func (s *Server) handleGetComment(w http.ResponseWriter, r *http.Request) {
	id, seq, ok := commentParams(w, r)
	if !ok {
		return
	}

	payload, err := s.store.Read(id, seq)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(payload)
}

// handleGetCommentHTML handles GET /article/{id}/comments/{seq}/html by
// rendering the payload as Markdown.
func (s *Server) handleGetCommentHTML(w http.ResponseWriter, r *http.Request) {
	id, seq, ok := commentParams(w, r)
	if !ok {
		return
	}

	payload, err := s.store.Read(id, seq)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, string(articles.RenderMarkdown(payload)))
}

// handleCleanComments handles GET /clean.
func (s *Server) handleCleanComments(w http.ResponseWriter, r *http.Request) {
	removed, err := s.store.CleanAll()
	metrics.ObserveCleanup(removed, err)
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	s.logFor(r).Info("comments cleaned", slog.Int("removed", removed))
	textOK(w, cleanedResponse)
}

// handleIndex handles GET / by serving the index document.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	path := s.library.IndexPath()
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

// handleTotalArticles handles GET /articles/total.
func (s *Server) handleTotalArticles(w http.ResponseWriter, r *http.Request) {
	n, err := s.library.Total()
	if err != nil {
		s.logFor(r).Error("listing articles", slog.String("error", err.Error()))
		http.Error(w, "internal storage error", http.StatusInternalServerError)
		return
	}
	textOK(w, strconv.Itoa(n))
}

// handleWidth handles GET /article/{id}/width.
func (s *Server) handleWidth(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}

	width, err := s.library.Width(id)
	if err != nil {
		if errors.Is(err, articles.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logFor(r).Error("reading width", slog.Int("article_id", id), slog.String("error", err.Error()))
		http.Error(w, "internal storage error", http.StatusInternalServerError)
		return
	}
	textOK(w, width)
}

// handleDocument handles GET /article/* by serving a static document.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	path, err := s.library.Resolve(chi.URLParam(r, "*"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}
