package notes

import "time"

// Tag labels a note. Any string is a valid tag; a handful are predefined.
type Tag string

const (
	TagIdea      Tag = "idea"
	TagMeeting   Tag = "meeting"
	TagResearch  Tag = "research"
	TagTodo      Tag = "todo"
	TagImportant Tag = "important"
	TagInsight   Tag = "insight"
	TagPersonal  Tag = "personal"
	TagWork      Tag = "work"
	TagQuestion  Tag = "question"
	TagReference Tag = "reference"
	TagChecklist Tag = "checklist"
)

// PredefinedTags lists the built-in tags in display order.
var PredefinedTags = []Tag{
	TagIdea, TagMeeting, TagResearch, TagTodo, TagImportant, TagInsight,
	TagPersonal, TagWork, TagQuestion, TagReference, TagChecklist,
}

// TagKind tells predefined tags apart from user-defined ones.
type TagKind string

const (
	KindPredefined TagKind = "predefined"
	KindCustom     TagKind = "custom"
)

// Kind reports whether t is one of PredefinedTags.
func (t Tag) Kind() TagKind {
	for _, p := range PredefinedTags {
		if p == t {
			return KindPredefined
		}
	}
	return KindCustom
}

// Note is a free-form markdown note.
type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ProjectID   string    `json:"projectId,omitempty"`
	MilestoneID string    `json:"milestoneId,omitempty"`
	Tags        []Tag     `json:"tags"`
	Pinned      bool      `json:"pinned"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (n Note) clone() Note {
	out := n
	out.Tags = append([]Tag{}, n.Tags...)
	return out
}

func (n Note) hasTag(tag Tag) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// View selects which notes the filtered list shows.
type View string

const (
	ViewAll      View = "all"
	ViewPinned   View = "pinned"
	ViewArchived View = "archived"
)

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	switch v {
	case ViewAll, ViewPinned, ViewArchived:
		return true
	}
	return false
}

// Uncategorized is the project filter value selecting notes without a project.
const Uncategorized = "uncategorized"

// Filter is the filter state the notes list is driven by.
type Filter struct {
	SearchTerm          string `json:"searchTerm"`
	SelectedTags        []Tag  `json:"selectedTags"`
	SelectedProjectID   string `json:"selectedProjectId"`
	SelectedMilestoneID string `json:"selectedMilestoneId"`
	View                View   `json:"filteredView"`
}

func (f Filter) clone() Filter {
	out := f
	out.SelectedTags = append([]Tag{}, f.SelectedTags...)
	return out
}

// TagCount is a tag together with the number of live notes carrying it.
type TagCount struct {
	Tag   Tag     `json:"tag"`
	Kind  TagKind `json:"kind"`
	Count int     `json:"count"`
}
