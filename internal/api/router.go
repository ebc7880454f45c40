package api

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/status", h.Status)

	// Search.
	r.Get("/search", h.Search)
	r.Post("/corpus/refresh", h.RefreshCorpus)

	// Mailbox.
	r.Get("/conversations", h.ListConversations)
	r.Post("/conversations", h.OpenChat)
	r.Get("/conversations/{id}/messages", h.ListMessages)
	r.Post("/conversations/{id}/messages", h.SendMessage)
	r.Post("/conversations/{id}/read", h.MarkAsRead)
	r.Get("/unread", h.UnreadTotal)

	// Reader state.
	r.Get("/bookmarks", h.ListBookmarks)
	r.Post("/bookmarks/toggle", h.ToggleBookmark)
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.PutSettings)
	r.Get("/stats", h.GetStats)
	r.Post("/stats/read", h.RecordRead)

	return r
}
