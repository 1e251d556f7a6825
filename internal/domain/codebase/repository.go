package codebase

import (
	"time"

	"gorm.io/datatypes"
)

// Repository is an ingested GitHub repository. ID is "owner/name"; URL carries
// the unique index that backstops concurrent ingestion of the same repo.
type Repository struct {
	ID  string `gorm:"type:text;primaryKey" json:"id"`
	URL string `gorm:"type:text;not null;uniqueIndex" json:"url"`

	Owner         string `gorm:"type:text;not null;index" json:"owner"`
	Name          string `gorm:"type:text;not null" json:"name"`
	DisplayName   string `gorm:"type:text;not null" json:"display_name"`
	Description   string `gorm:"type:text" json:"description,omitempty"`
	DefaultBranch string `gorm:"type:text" json:"default_branch,omitempty"`
	Language      string `gorm:"type:text" json:"language,omitempty"`
	Stars         int    `gorm:"not null;default:0" json:"stars"`

	Topics datatypes.JSON `gorm:"type:jsonb" json:"topics,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Repository) TableName() string { return "repository" }

// RepoMeta is the cached subset of upstream repository metadata.
type RepoMeta struct {
	RepoID        string    `json:"repo_id"`
	URL           string    `json:"url"`
	Description   string    `json:"description,omitempty"`
	DefaultBranch string    `json:"default_branch,omitempty"`
	Language      string    `json:"language,omitempty"`
	Stars         int       `json:"stars"`
	Topics        []string  `json:"topics,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}
