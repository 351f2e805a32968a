package feed

import "time"

// ItemType is the kind of content a feed item points to.
type ItemType string

const (
	TypeArticle  ItemType = "article"
	TypeVideo    ItemType = "video"
	TypeBlog     ItemType = "blog"
	TypeBookmark ItemType = "bookmark"
)

func (t ItemType) Valid() bool {
	switch t {
	case TypeArticle, TypeVideo, TypeBlog, TypeBookmark:
		return true
	}
	return false
}

// Tag classifies feed content.
type Tag string

const (
	TagInnovation   Tag = "innovation"
	TagGrowth       Tag = "growth"
	TagProductivity Tag = "productivity"
	TagLeadership   Tag = "leadership"
	TagTechnology   Tag = "technology"
	TagMindfulness  Tag = "mindfulness"
	TagStrategy     Tag = "strategy"
)

// Item is an externally sourced piece of content linked by title to a
// project and goal. Time is a display string such as "2 hours ago";
// PublishedAt, when set, is the real publication time.
type Item struct {
	ID               string     `json:"id" yaml:"id"`
	Type             ItemType   `json:"type" yaml:"type"`
	Source           string     `json:"source" yaml:"source"`
	Title            string     `json:"title" yaml:"title"`
	Time             string     `json:"time" yaml:"time"`
	PublishedAt      *time.Time `json:"publishedAt,omitempty" yaml:"publishedAt,omitempty"`
	Project          string     `json:"project" yaml:"project"`
	Goal             string     `json:"goal,omitempty" yaml:"goal,omitempty"`
	URL              string     `json:"url" yaml:"url"`
	Thumbnail        string     `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Read             bool       `json:"read" yaml:"read"`
	Tags             []Tag      `json:"tags" yaml:"tags"`
	Summary          string     `json:"summary" yaml:"summary"`
	DefaultQuestions []string   `json:"defaultQuestions" yaml:"defaultQuestions"`
}

func (it Item) clone() Item {
	out := it
	out.Tags = append([]Tag{}, it.Tags...)
	out.DefaultQuestions = append([]string{}, it.DefaultQuestions...)
	if it.PublishedAt != nil {
		p := *it.PublishedAt
		out.PublishedAt = &p
	}
	return out
}

// ReadStatus narrows a list to read or unread items.
type ReadStatus string

const (
	ReadAll    ReadStatus = "all"
	ReadRead   ReadStatus = "read"
	ReadUnread ReadStatus = "unread"
)

// All is the project/goal filter value that disables the filter.
const All = "All"

// AvailableProject is a live project title paired with its goal title.
type AvailableProject struct {
	Project string `json:"project"`
	Goal    string `json:"goal"`
}

// ProjectSource exposes the live project/goal pairs the feed can be
// filtered by.
type ProjectSource interface {
	AvailableProjects() []AvailableProject
}

// SortOrder orders feed items chronologically.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)
