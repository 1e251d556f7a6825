package domain

import (
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
)

type (
	Repository     = codebase.Repository
	RepoMeta       = codebase.RepoMeta
	Commit         = codebase.Commit
	CommitID       = codebase.CommitID
	CommitAnalysis = codebase.CommitAnalysis
	CommitDiff     = codebase.CommitDiff
	FileChange     = codebase.FileChange
	AnalysisStatus = codebase.AnalysisStatus

	Tutorial        = learning.Tutorial
	TutorialContent = learning.TutorialContent
	TutorialStep    = learning.TutorialStep
	FileNode        = learning.FileNode
	LearnerSession  = learning.LearnerSession
	Snapshot        = learning.Snapshot
	MemoryEntry     = learning.MemoryEntry
)

var (
	ErrInvalidCommitID = codebase.ErrInvalidCommitID
	ParseCommitID      = codebase.ParseCommitID
	NewCommitID        = codebase.NewCommitID
)

// Models lists every gorm model for AutoMigrate.
func Models() []any {
	return []any{
		&codebase.Repository{},
		&codebase.Commit{},
		&learning.Tutorial{},
		&learning.LearnerSession{},
	}
}
