package codebase

import (
	"time"

	"gorm.io/datatypes"
)

// Commit is an ingested commit row. ID is CommitID.String(). Rows are
// append-only; the analysis columns are a snapshot taken at ingestion time.
type Commit struct {
	ID     string `gorm:"type:text;primaryKey" json:"id"`
	RepoID string `gorm:"type:text;not null;index" json:"repo_id"`
	SHA    string `gorm:"type:text;not null;index" json:"sha"`

	Message    string    `gorm:"type:text;not null" json:"message"`
	Author     string    `gorm:"type:text" json:"author"`
	AuthoredAt time.Time `gorm:"index" json:"authored_at"`

	IsLearningWorthy bool           `gorm:"not null;default:false;index" json:"is_learning_worthy"`
	Category         string         `gorm:"type:text;index" json:"category"`
	Reason           string         `gorm:"type:text" json:"reason"`
	LinesChanged     int            `gorm:"not null;default:0" json:"lines_changed"`
	FilesChanged     int            `gorm:"not null;default:0" json:"files_changed"`
	FileTypes        datatypes.JSON `gorm:"type:jsonb" json:"file_types,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Commit) TableName() string { return "repo_commit" }

type FileStatus string

const (
	FileAdded    FileStatus = "added"
	FileModified FileStatus = "modified"
	FileRemoved  FileStatus = "removed"
	FileRenamed  FileStatus = "renamed"
)

// FileChange is one file's entry in a commit diff.
type FileChange struct {
	Filename         string     `json:"filename"`
	Status           FileStatus `json:"status"`
	Additions        int        `json:"additions"`
	Deletions        int        `json:"deletions"`
	Patch            string     `json:"patch,omitempty"`
	PreviousFilename string     `json:"previous_filename,omitempty"`
}

// CommitDiff is the blob payload stored for learning-worthy commits.
type CommitDiff struct {
	CommitID string       `json:"commit_id"`
	RepoID   string       `json:"repo_id"`
	SHA      string       `json:"sha"`
	Files    []FileChange `json:"files"`
	StoredAt time.Time    `json:"stored_at"`
}

// LinesChanged sums additions and deletions across files.
func LinesChanged(files []FileChange) int {
	n := 0
	for _, f := range files {
		n += f.Additions + f.Deletions
	}
	return n
}
