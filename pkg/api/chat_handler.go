package api

import (
	"net/http"

	"github.com/mklimuk/kai/pkg/chat"
)

// HandleListThreads handles GET /chat/threads. ?q= filters by title and
// message content.
func (h *Handler) HandleListThreads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"threads": h.App.Chat.Search(r.URL.Query().Get("q"))})
}

type createThreadRequest struct {
	Subject  string `json:"subject"`
	Question string `json:"question"`
}

// HandleCreateThread handles POST /chat/threads. With a question the thread
// opens with it and the assistant replies later; otherwise it starts empty.
func (h *Handler) HandleCreateThread(w http.ResponseWriter, r *http.Request) {
	var req createThreadRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	var (
		t   chat.Thread
		err error
	)
	if req.Question == "" {
		t, err = h.App.Chat.NewThread()
	} else {
		t, err = h.App.Chat.Ask(req.Subject, req.Question)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// HandleGetThread handles GET /chat/threads/{id}
func (h *Handler) HandleGetThread(w http.ResponseWriter, r *http.Request) {
	t, err := h.App.Chat.Thread(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type renameThreadRequest struct {
	Title string `json:"title"`
}

// HandleRenameThread handles PATCH /chat/threads/{id}
func (h *Handler) HandleRenameThread(w http.ResponseWriter, r *http.Request) {
	var req renameThreadRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.App.Chat.Rename(r.PathValue("id"), req.Title)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleStarThread handles POST /chat/threads/{id}/star
func (h *Handler) HandleStarThread(w http.ResponseWriter, r *http.Request) {
	t, err := h.App.Chat.ToggleStar(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleDeleteThread handles DELETE /chat/threads/{id}
func (h *Handler) HandleDeleteThread(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Chat.Delete(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type messageRequest struct {
	Content string `json:"content"`
}

// HandleSendMessage handles POST /chat/threads/{id}/messages. The returned
// thread holds the user message; the reply arrives after the reply delay.
func (h *Handler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.App.Chat.Send(r.PathValue("id"), req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, t)
}
