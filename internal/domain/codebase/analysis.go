package codebase

import "time"

type Category string

const (
	CategoryFeature  Category = "feature"
	CategoryFix      Category = "fix"
	CategoryRefactor Category = "refactor"
	CategoryTest     Category = "test"
	CategoryDocs     Category = "docs"
	CategoryOther    Category = "other"
)

// CommitAnalysis is the classifier verdict. It is recomputed on demand and
// never stored as its own entity.
type CommitAnalysis struct {
	IsLearningWorthy bool     `json:"is_learning_worthy"`
	Category         Category `json:"category"`
	Reason           string   `json:"reason"`
	FileTypes        []string `json:"file_types"`
	LinesChanged     int      `json:"lines_changed"`
}

type AnalysisState string

const (
	AnalysisPending   AnalysisState = "pending"
	AnalysisAnalyzing AnalysisState = "analyzing"
	AnalysisCompleted AnalysisState = "completed"
	AnalysisError     AnalysisState = "error"
)

// AnalysisStatus lets pollers follow an ingestion. It lives in the KV store
// with a TTL and can be discarded at any time.
type AnalysisStatus struct {
	RepoID    string        `json:"repo_id"`
	Status    AnalysisState `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
