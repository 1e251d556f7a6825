package learning

import "time"

type TutorialSource string

const (
	SourceAI       TutorialSource = "ai"
	SourceFallback TutorialSource = "fallback"
)

// Tutorial is the small queryable record. Its steps live in a TutorialContent
// blob keyed by the tutorial id. Regenerating for the same commit adds a row.
type Tutorial struct {
	ID          string         `gorm:"type:text;primaryKey" json:"id"`
	CommitID    string         `gorm:"type:text;not null;index" json:"commit_id"`
	RepoID      string         `gorm:"type:text;not null;index" json:"repo_id"`
	Title       string         `gorm:"type:text;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Source      TutorialSource `gorm:"type:text;not null" json:"source"`
	StepCount   int            `gorm:"not null;default:0" json:"step_count"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

func (Tutorial) TableName() string { return "tutorial" }

type TutorialStep struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Instructions string   `json:"instructions"`
	CodeExample  string   `json:"code_example,omitempty"`
	Hints        []string `json:"hints,omitempty"`
}

// TutorialContent is immutable once written; step order drives sessions.
type TutorialContent struct {
	TutorialID string         `json:"tutorial_id"`
	Steps      []TutorialStep `json:"steps"`
	FileTree   []*FileNode    `json:"file_tree,omitempty"`
	ParentSHA  string         `json:"parent_sha,omitempty"`
}

type FileNodeType string

const (
	NodeFile   FileNodeType = "file"
	NodeFolder FileNodeType = "folder"
)

type FileNode struct {
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	Type     FileNodeType `json:"type"`
	Size     int64        `json:"size,omitempty"`
	Content  string       `json:"content,omitempty"`
	Children []*FileNode  `json:"children,omitempty"`
}

// Snapshot is a persisted workspace tree.
type Snapshot struct {
	WorkspaceID string      `json:"workspace_id"`
	RepoID      string      `json:"repo_id"`
	SHA         string      `json:"sha"`
	StepID      string      `json:"step_id,omitempty"`
	Files       []*FileNode `json:"files"`
	FileCount   int         `json:"file_count"`
	CreatedAt   time.Time   `json:"created_at"`
}

// MemoryEntry is one turn of interactive-help conversation memory.
type MemoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
