package api

import (
	"net/http"

	"github.com/mklimuk/kai/pkg/notes"
)

// HandleListNotes handles GET /notes: the notes matching the current filter,
// ordered by ?sort=newest|oldest|az|za.
func (h *Handler) HandleListNotes(w http.ResponseWriter, r *http.Request) {
	list := h.App.Notes.FilteredNotes()
	if err := notes.SortNotes(list, notes.SortOrder(r.URL.Query().Get("sort"))); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": list})
}

// HandleCreateNote handles POST /notes
func (h *Handler) HandleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req notes.Input
	if !decode(w, r, &req) {
		return
	}
	n, err := h.App.Notes.AddNote(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// HandleGetNote handles GET /notes/{id}
func (h *Handler) HandleGetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.App.Notes.Note(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// HandleUpdateNote handles PATCH /notes/{id}
func (h *Handler) HandleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req notes.Update
	if !decode(w, r, &req) {
		return
	}
	n, err := h.App.Notes.UpdateNote(r.PathValue("id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// HandleDeleteNote handles DELETE /notes/{id}
func (h *Handler) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Notes.DeleteNote(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTogglePin handles POST /notes/{id}/pin
func (h *Handler) HandleTogglePin(w http.ResponseWriter, r *http.Request) {
	h.noteAction(w, r, h.App.Notes.TogglePinned)
}

// HandleArchiveNote handles POST /notes/{id}/archive
func (h *Handler) HandleArchiveNote(w http.ResponseWriter, r *http.Request) {
	h.noteAction(w, r, h.App.Notes.ArchiveNote)
}

// HandleUnarchiveNote handles POST /notes/{id}/unarchive
func (h *Handler) HandleUnarchiveNote(w http.ResponseWriter, r *http.Request) {
	h.noteAction(w, r, h.App.Notes.UnarchiveNote)
}

func (h *Handler) noteAction(w http.ResponseWriter, r *http.Request, fn func(id string) (notes.Note, error)) {
	n, err := fn(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// HandleNoteTags handles GET /notes/tags
func (h *Handler) HandleNoteTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"tags": h.App.Notes.AllTags()})
}

// HandleGetNoteFilter handles GET /notes/filter
func (h *Handler) HandleGetNoteFilter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.App.Notes.Filter())
}

type noteFilterRequest struct {
	SearchTerm          *string      `json:"searchTerm"`
	SelectedTags        *[]notes.Tag `json:"selectedTags"`
	SelectedProjectID   *string      `json:"selectedProjectId"`
	SelectedMilestoneID *string      `json:"selectedMilestoneId"`
	View                *notes.View  `json:"filteredView"`
}

// HandleSetNoteFilter handles PUT /notes/filter. Absent fields keep their
// value; selectedTags replaces the whole tag selection.
func (h *Handler) HandleSetNoteFilter(w http.ResponseWriter, r *http.Request) {
	var req noteFilterRequest
	if !decode(w, r, &req) {
		return
	}
	s := h.App.Notes
	if req.View != nil {
		if err := s.SetFilteredView(*req.View); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if req.SearchTerm != nil {
		s.SetSearchTerm(*req.SearchTerm)
	}
	if req.SelectedProjectID != nil {
		s.SetSelectedProjectID(*req.SelectedProjectID)
	}
	if req.SelectedMilestoneID != nil {
		s.SetSelectedMilestoneID(*req.SelectedMilestoneID)
	}
	if req.SelectedTags != nil {
		want := make(map[notes.Tag]bool, len(*req.SelectedTags))
		for _, t := range *req.SelectedTags {
			want[t] = true
		}
		current := s.Filter().SelectedTags
		for _, t := range current {
			if !want[t] {
				s.ToggleTag(t)
			}
			delete(want, t)
		}
		for _, t := range *req.SelectedTags {
			if want[t] {
				s.ToggleTag(t)
				delete(want, t)
			}
		}
	}
	writeJSON(w, http.StatusOK, s.Filter())
}

// HandleResetNoteFilter handles DELETE /notes/filter
func (h *Handler) HandleResetNoteFilter(w http.ResponseWriter, r *http.Request) {
	h.App.Notes.ResetFilters()
	writeJSON(w, http.StatusOK, h.App.Notes.Filter())
}

// HandleToggleNoteFilterTag handles POST /notes/filter/tags/{tag}
func (h *Handler) HandleToggleNoteFilterTag(w http.ResponseWriter, r *http.Request) {
	h.App.Notes.ToggleTag(notes.Tag(r.PathValue("tag")))
	writeJSON(w, http.StatusOK, h.App.Notes.Filter())
}
