package codebase

import (
	"errors"

	"gorm.io/gorm"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/db"
	types "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/dbctx"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

type CommitFilter struct {
	WorthyOnly bool
	Category   string
	Limit      int
	Offset     int
}

// CommitRepo is append-only; rows go away only with their repository.
type CommitRepo interface {
	Create(dbc dbctx.Context, commit *types.Commit) error
	GetByID(dbc dbctx.Context, id string) (*types.Commit, error)
	ListByRepo(dbc dbctx.Context, repoID string, f CommitFilter) ([]*types.Commit, error)
	ListSHAs(dbc dbctx.Context, repoID string) ([]string, error)
	CountByRepo(dbc dbctx.Context, repoID string) (int64, error)
	DeleteByRepo(dbc dbctx.Context, repoID string) error
}

type commitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommitRepo(db *gorm.DB, baseLog *logger.Logger) CommitRepo {
	return &commitRepo{db: db, log: baseLog.With("repo", "CommitRepo")}
}

func (r *commitRepo) Create(dbc dbctx.Context, commit *types.Commit) error {
	if commit == nil {
		return nil
	}
	return db.MapWriteError(dbc.DB(r.db).Create(commit).Error)
}

func (r *commitRepo) GetByID(dbc dbctx.Context, id string) (*types.Commit, error) {
	var out types.Commit
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *commitRepo) ListByRepo(dbc dbctx.Context, repoID string, f CommitFilter) ([]*types.Commit, error) {
	var out []*types.Commit
	q := dbc.DB(r.db).Where("repo_id = ?", repoID)
	if f.WorthyOnly {
		q = q.Where("is_learning_worthy = ?", true)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	q = q.Order("authored_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *commitRepo) ListSHAs(dbc dbctx.Context, repoID string) ([]string, error) {
	var out []string
	if err := dbc.DB(r.db).Model(&types.Commit{}).
		Where("repo_id = ?", repoID).
		Pluck("sha", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *commitRepo) CountByRepo(dbc dbctx.Context, repoID string) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Commit{}).Where("repo_id = ?", repoID).Count(&n).Error
	return n, err
}

func (r *commitRepo) DeleteByRepo(dbc dbctx.Context, repoID string) error {
	return dbc.DB(r.db).Where("repo_id = ?", repoID).Delete(&types.Commit{}).Error
}
