package repos

import (
	"gorm.io/gorm"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/repos/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/repos/learning"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

type RepositoryRepo = codebase.RepositoryRepo
type CommitRepo = codebase.CommitRepo
type CommitFilter = codebase.CommitFilter

type TutorialRepo = learning.TutorialRepo
type SessionRepo = learning.SessionRepo

func NewRepositoryRepo(db *gorm.DB, baseLog *logger.Logger) RepositoryRepo {
	return codebase.NewRepositoryRepo(db, baseLog)
}
func NewCommitRepo(db *gorm.DB, baseLog *logger.Logger) CommitRepo {
	return codebase.NewCommitRepo(db, baseLog)
}
func NewTutorialRepo(db *gorm.DB, baseLog *logger.Logger) TutorialRepo {
	return learning.NewTutorialRepo(db, baseLog)
}
func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return learning.NewSessionRepo(db, baseLog)
}

// Set is the relational side of the storage facade.
type Set struct {
	Repositories RepositoryRepo
	Commits      CommitRepo
	Tutorials    TutorialRepo
	Sessions     SessionRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) *Set {
	return &Set{
		Repositories: NewRepositoryRepo(db, baseLog),
		Commits:      NewCommitRepo(db, baseLog),
		Tutorials:    NewTutorialRepo(db, baseLog),
		Sessions:     NewSessionRepo(db, baseLog),
	}
}
