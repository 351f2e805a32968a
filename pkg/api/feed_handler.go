package api

import (
	"net/http"

	"github.com/mklimuk/kai/pkg/feed"
)

// HandleFeed handles GET /feed. Query parameters: bookmarks, project, goal,
// status (all|read|unread), sort (newest|oldest).
func (h *Handler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bookmarks, ok := queryBool(r, "bookmarks")
	if !ok {
		http.Error(w, "invalid bookmarks flag", http.StatusBadRequest)
		return
	}
	items, err := h.App.Feed.View(feed.Query{
		BookmarksOnly: bookmarks,
		Project:       q.Get("project"),
		Goal:          q.Get("goal"),
		Status:        feed.ReadStatus(q.Get("status")),
		Sort:          feed.SortOrder(q.Get("sort")),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// HandleFeedBookmarks handles GET /feed/bookmarks
func (h *Handler) HandleFeedBookmarks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": h.App.Feed.BookmarkedItems()})
}

// HandleFeedProjects handles GET /feed/projects
func (h *Handler) HandleFeedProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": h.App.Feed.AvailableProjects()})
}

// HandleFeedItem handles GET /feed/{id}
func (h *Handler) HandleFeedItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	it, err := h.App.Feed.Item(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"item":       it,
		"bookmarked": h.App.Feed.IsBookmarked(id),
	})
}

// HandleToggleBookmark handles POST /feed/{id}/bookmark
func (h *Handler) HandleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	on, err := h.App.Feed.ToggleBookmark(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": on})
}

// HandleToggleRead handles POST /feed/{id}/read
func (h *Handler) HandleToggleRead(w http.ResponseWriter, r *http.Request) {
	it, err := h.App.Feed.ToggleRead(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// HandleListComments handles GET /comments/{entityId}. ?order=newest lists
// the latest comment first.
func (h *Handler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("entityId")
	switch r.URL.Query().Get("order") {
	case "", "oldest":
		writeJSON(w, http.StatusOK, map[string]interface{}{"comments": h.App.Comments.Comments(id)})
	case "newest":
		writeJSON(w, http.StatusOK, map[string]interface{}{"comments": h.App.Comments.Newest(id)})
	default:
		http.Error(w, "order must be oldest or newest", http.StatusBadRequest)
	}
}

type commentRequest struct {
	Content string `json:"content"`
}

// HandleAddComment handles POST /comments/{entityId}
func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.App.Comments.AddComment(r.PathValue("entityId"), req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
