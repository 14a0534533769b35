package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"readnook/internal/album"
	"readnook/internal/app"
	"readnook/internal/assistant"
	"readnook/internal/kvstore"
	"readnook/internal/library"
	"readnook/internal/ratelimit"
	"readnook/internal/util"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                        *app.App
	MaxUploadBytes             int64
	GenerateRateLimitPerMinute int
	RedisAddr                  string
	RedisPassword              string
	TrustedProxyCIDRs          []string
}

// Server exposes the reader HTTP API.
type Server struct {
	app             *app.App
	mux             *http.ServeMux
	maxUploadBytes  int64
	generateLimiter *ratelimit.FixedWindowLimiter
	trustedProxies  *util.TrustedProxies
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app is required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 * 1024 * 1024
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxies: %w", err)
	}
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
		trustedProxies: trusted,
	}
	if cfg.GenerateRateLimitPerMinute > 0 {
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword,
			"readnook:ratelimit:generate",
			cfg.GenerateRateLimitPerMinute, time.Minute,
		)
		if err != nil {
			return nil, fmt.Errorf("init generate limiter: %w", err)
		}
		s.generateLimiter = limiter
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("readnook", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// library
	s.mux.HandleFunc("/api/shelf", s.handleShelf)
	s.mux.HandleFunc("/api/books", s.handleBooks)
	s.mux.HandleFunc("/api/books/", s.handleBookByID)

	// album
	s.mux.HandleFunc("/api/album", s.handleAlbum)
	s.mux.HandleFunc("/api/album/", s.handleAlbumSub)

	// assistant
	s.mux.HandleFunc("/api/assistant/", s.handleAssistant)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleShelf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	books := s.app.Library().Shelf(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"items": books,
		"count": len(books),
	})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleAddBook(w, r)
	case http.MethodDelete:
		s.handleDeleteBooks(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	title := r.FormValue("title")
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	outcome, err := s.app.Library().Add(r.Context(), library.AddInput{
		Title:    title,
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		var verr *library.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, validationMessage(verr.Kind))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	resp := map[string]any{"book": outcome.Book}
	if outcome.ExtractFailed {
		resp["extractFailed"] = true
	}
	if outcome.PersistErr != nil {
		resp["warning"] = storageWarning(outcome.PersistErr)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDeleteBooks(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeIDs(w, r)
	if !ok {
		return
	}
	if err := s.app.Library().Delete(r.Context(), ids); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "deleted",
			"warning": storageWarning(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// /api/books/{id}/cover or /api/books/{id}/text
func (s *Server) handleBookByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/books/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" || len(parts) != 2 {
		notFound(w, "not found")
		return
	}
	switch parts[1] {
	case "cover":
		if r.Method != http.MethodPut {
			methodNotAllowed(w)
			return
		}
		s.handleSetCover(w, r, id)
	case "text":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleBookText(w, r, id)
	default:
		notFound(w, "not found")
	}
}

func (s *Server) handleSetCover(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Cover string `json:"cover"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Cover) == "" {
		writeError(w, http.StatusBadRequest, "cover is required")
		return
	}
	if err := s.app.Library().SetCover(r.Context(), id, req.Cover); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "updated",
			"warning": storageWarning(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleBookText(w http.ResponseWriter, r *http.Request, id string) {
	text, err := s.app.BookText(r.Context(), id)
	if err != nil {
		var berr *assistant.BackendError
		if errors.As(err, &berr) && berr.Status == http.StatusNotFound {
			notFound(w, "book not found")
			return
		}
		writeError(w, http.StatusBadGateway, "assistant unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) handleAlbum(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		photos := s.app.Album().All(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"items": photos,
			"count": len(photos),
		})
	case http.MethodDelete:
		ids, ok := decodeIDs(w, r)
		if !ok {
			return
		}
		if err := s.app.Album().Delete(r.Context(), ids); err != nil {
			writeJSON(w, http.StatusOK, map[string]string{
				"status":  "deleted",
				"warning": storageWarning(err),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// /api/album/recent or /api/album/{id}
func (s *Server) handleAlbumSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/album/")
	if rest == "" || strings.Contains(rest, "/") {
		notFound(w, "not found")
		return
	}
	if rest == "recent" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleAlbumRecent(w, r)
		return
	}
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	s.handleAlbumUpdate(w, r, rest)
}

func (s *Server) handleAlbumRecent(w http.ResponseWriter, r *http.Request) {
	n := 3
	if raw := strings.TrimSpace(r.URL.Query().Get("n")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid count")
			return
		}
		n = parsed
	}
	photos := s.app.Album().RecentThumbnails(r.Context(), n)
	writeJSON(w, http.StatusOK, map[string]any{
		"items": photos,
		"count": len(photos),
	})
}

func (s *Server) handleAlbumUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Caption *string `json:"caption"`
		Quote   *string `json:"quote"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Caption == nil && req.Quote == nil {
		writeError(w, http.StatusBadRequest, "caption or quote is required")
		return
	}
	err := s.app.Album().Update(r.Context(), id, album.UpdateFields{
		Caption: req.Caption,
		Quote:   req.Quote,
	})
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "updated",
			"warning": storageWarning(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// /api/assistant/{ask,summarize,generate,messages,reset,status}
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimPrefix(r.URL.Path, "/api/assistant/")
	switch action {
	case "ask":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleAsk(w, r)
	case "summarize":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleSummarize(w, r)
	case "generate":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleGenerate(w, r)
	case "messages":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		messages := s.app.Messages()
		writeJSON(w, http.StatusOK, map[string]any{
			"items": messages,
			"count": len(messages),
		})
	case "reset":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.app.Reset()
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
	case "status":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{
			"busy":      s.app.Busy(),
			"imageBusy": s.app.ImageBusy(),
		})
	default:
		notFound(w, "not found")
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID   string `json:"bookId"`
		Question string `json:"question"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	reply, ok := s.app.Ask(r.Context(), req.BookID, req.Question)
	if !ok {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	reply, ok := s.app.SummarizeSelection(r.Context(), req.Text)
	if !ok {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.allowGenerate(w, r) {
		return
	}
	var req struct {
		BookID string `json:"bookId"`
		Text   string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	reply, ok := s.app.GenerateFromSelection(r.Context(), req.BookID, req.Text)
	if !ok {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) allowGenerate(w http.ResponseWriter, r *http.Request) bool {
	if s.generateLimiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if s.generateLimiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "too many image requests")
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func decodeIDs(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if !decodeJSON(w, r, &req) {
		return nil, false
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return nil, false
	}
	return req.IDs, true
}

func validationMessage(kind library.ValidationKind) string {
	switch kind {
	case library.KindMissingTitle:
		return "title is required"
	case library.KindMissingFile:
		return "file is required (field: file)"
	case library.KindUnsupportedType:
		return "unsupported file type"
	default:
		return "invalid book input"
	}
}

func storageWarning(err error) string {
	var serr *kvstore.StorageError
	if errors.As(err, &serr) {
		return "storage write failed for " + serr.Key
	}
	return "storage write failed"
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCode(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "title is required":
		return "LIBRARY_TITLE_REQUIRED"
	case strings.Contains(message, "file is required"):
		return "LIBRARY_FILE_REQUIRED"
	case message == "unsupported file type":
		return "LIBRARY_UNSUPPORTED_FILE_TYPE"
	case message == "invalid form data":
		return "LIBRARY_INVALID_UPLOAD_FORM"
	case message == "book not found":
		return "LIBRARY_BOOK_NOT_FOUND"
	case message == "cover is required":
		return "LIBRARY_COVER_REQUIRED"
	case message == "caption or quote is required":
		return "ALBUM_FIELDS_REQUIRED"
	case message == "invalid count":
		return "ALBUM_INVALID_COUNT"
	case message == "question is required", message == "text is required":
		return "ASSISTANT_INPUT_REQUIRED"
	case message == "too many image requests":
		return "ASSISTANT_RATE_LIMITED"
	case message == "assistant unavailable":
		return "ASSISTANT_UNAVAILABLE"
	case message == "invalid json body":
		return "SYSTEM_INVALID_REQUEST"
	case message == "ids are required":
		return "SYSTEM_IDS_REQUIRED"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case message == "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "SYSTEM_INVALID_REQUEST"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "ASSISTANT_RATE_LIMITED"
	case http.StatusBadGateway:
		return "ASSISTANT_UNAVAILABLE"
	default:
		return "SYSTEM_INTERNAL_ERROR"
	}
}
