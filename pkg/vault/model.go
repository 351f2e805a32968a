package vault

// Folders of an exported vault.
const (
	NotesDir    = "Notes"
	DailyDir    = "Daily"
	ProjectsDir = "Projects"
)

// CommonFrontmatter contains fields common to all exported documents
type CommonFrontmatter struct {
	ID      string   `yaml:"id"`
	Type    string   `yaml:"type"` // note, daily, project
	Created string   `yaml:"created"`
	Updated string   `yaml:"updated,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
}

// NoteFrontmatter describes an exported free-form note
type NoteFrontmatter struct {
	CommonFrontmatter `yaml:",inline"`
	Project           string `yaml:"project,omitempty"`
	Milestone         string `yaml:"milestone,omitempty"`
	Pinned            bool   `yaml:"pinned,omitempty"`
	Archived          bool   `yaml:"archived,omitempty"`
}

// DailyFrontmatter describes an exported daily note
type DailyFrontmatter struct {
	CommonFrontmatter `yaml:",inline"`
	Date              string `yaml:"date"`
}

// ProjectFrontmatter describes an exported project with its results and tasks
type ProjectFrontmatter struct {
	CommonFrontmatter `yaml:",inline"`
	Goal              string `yaml:"goal"`
	Progress          int    `yaml:"progress"`
	Archived          bool   `yaml:"archived,omitempty"`
}

// Note represents a parsed markdown note
type Note struct {
	Path        string
	Frontmatter interface{}
	Content     string // The markdown content after frontmatter
}
