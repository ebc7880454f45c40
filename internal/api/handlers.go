// Package api exposes the daemon's localhost HTTP JSON surface: corpus
// search, the mailbox operations and reader state.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hfarah/noor/internal/corpus"
	"github.com/hfarah/noor/internal/mailbox"
	"github.com/hfarah/noor/internal/reader"
	"github.com/hfarah/noor/internal/search"
	"github.com/hfarah/noor/internal/status"
	"github.com/hfarah/noor/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	library    *corpus.Library
	mail       *mailbox.Service
	state      *reader.State
	machine    *status.Machine
	logger     *zap.Logger
	maxResults int
}

// NewHandler creates a new Handler. maxResults caps every search response;
// a non-positive value selects the engine default.
func NewHandler(lib *corpus.Library, mail *mailbox.Service, state *reader.State, machine *status.Machine, logger *zap.Logger, maxResults int) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxResults <= 0 {
		maxResults = search.DefaultMaxResults
	}
	return &Handler{
		library: lib, mail: mail, state: state,
		machine: machine, logger: logger, maxResults: maxResults,
	}
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": string(h.machine.Current())}
	counts := map[string]int{}
	for _, name := range h.library.Names() {
		counts[name] = h.library.Get(name).Len()
	}
	body["corpora"] = counts
	writeJSON(w, http.StatusOK, body)
}

// Search handles GET /search?corpus=quran&q=...&limit=50.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("corpus")
	if name == "" {
		name = "quran"
	}
	c := h.library.Get(name)
	if c == nil {
		writeJSON(w, http.StatusNotFound, errorBody("unknown corpus "+name))
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > h.maxResults {
		limit = h.maxResults
	}

	results := search.Search(c.Snapshot(), q.Get("q"), limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

// RefreshCorpus handles POST /corpus/refresh.
func (h *Handler) RefreshCorpus(w http.ResponseWriter, _ *http.Request) {
	if err := h.machine.Transition(status.Refreshing); err != nil {
		writeJSON(w, http.StatusConflict, errorBody("daemon not ready for refresh"))
		return
	}
	if err := h.library.RefreshAll(); err != nil {
		h.logger.Error("corpus refresh failed", zap.Error(err))
		_ = h.machine.Transition(status.Degraded)
		writeJSON(w, http.StatusInternalServerError, errorBody("refresh failed"))
		return
	}
	_ = h.machine.Transition(status.Ready)
	writeJSON(w, http.StatusOK, map[string]any{"refreshed": true})
}

// ListConversations handles GET /conversations.
func (h *Handler) ListConversations(w http.ResponseWriter, _ *http.Request) {
	convs, err := h.mail.Conversations()
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("no identity configured"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

// OpenChat handles POST /conversations with body {"party": "..."}.
func (h *Handler) OpenChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Party string `json:"party"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Party == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("party is required"))
		return
	}
	conv, err := h.mail.OpenChat(req.Party)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("no identity configured"))
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// ListMessages handles GET /conversations/{id}/messages.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.mail.Messages(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("no identity configured"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// SendMessage handles POST /conversations/{id}/messages with body
// {"content": "...", "type": "text"}.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string              `json:"content"`
		Type    mailbox.MessageType `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	msg, err := h.mail.SendMessage(chi.URLParam(r, "id"), req.Content, req.Type)
	if err != nil {
		var qErr *store.QuotaExceededError
		if errors.As(err, &qErr) {
			writeJSON(w, http.StatusInsufficientStorage, errorBody("message not sent, storage full"))
			return
		}
		h.logger.Error("send failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("message not sent, please retry"))
		return
	}
	if msg.ID == "" {
		// Engine-level silent no-op: unknown conversation or no identity.
		writeJSON(w, http.StatusNotFound, errorBody("message not sent, please retry"))
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// MarkAsRead handles POST /conversations/{id}/read.
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.mail.MarkAsRead(chi.URLParam(r, "id")); err != nil {
		h.logger.Error("mark read failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"read": true})
}

// UnreadTotal handles GET /unread.
func (h *Handler) UnreadTotal(w http.ResponseWriter, _ *http.Request) {
	total, err := h.mail.UnreadTotal()
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("no identity configured"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unread": total})
}

// ListBookmarks handles GET /bookmarks.
func (h *Handler) ListBookmarks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": h.state.Bookmarks()})
}

// ToggleBookmark handles POST /bookmarks/toggle with body {"key": "2:255"}.
func (h *Handler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}
	on, err := h.state.ToggleBookmark(req.Key)
	if err != nil {
		h.logger.Error("toggle bookmark failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": req.Key, "bookmarked": on})
}

// GetSettings handles GET /settings.
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.state.Settings())
}

// PutSettings handles PUT /settings.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var s reader.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid settings"))
		return
	}
	if err := h.state.SaveSettings(s); err != nil {
		h.logger.Error("save settings failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetStats handles GET /stats.
func (h *Handler) GetStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.state.Stats())
}

// RecordRead handles POST /stats/read with body {"key": "1:1", "kind": "verse"}.
func (h *Handler) RecordRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key  string `json:"key"`
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}
	var err error
	if req.Kind == string(corpus.KindHadith) {
		err = h.state.RecordHadithRead(req.Key)
	} else {
		err = h.state.RecordVerseRead(req.Key)
	}
	if err != nil {
		h.logger.Error("record read failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, h.state.Stats())
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
