package learning

import (
	"errors"

	"gorm.io/gorm"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/db"
	types "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/dbctx"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

type TutorialRepo interface {
	Create(dbc dbctx.Context, t *types.Tutorial) error
	GetByID(dbc dbctx.Context, id string) (*types.Tutorial, error)
	ListByCommit(dbc dbctx.Context, commitID string) ([]*types.Tutorial, error)
	ListIDsByRepo(dbc dbctx.Context, repoID string) ([]string, error)
	Delete(dbc dbctx.Context, id string) error
	DeleteByRepo(dbc dbctx.Context, repoID string) error
}

type tutorialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTutorialRepo(db *gorm.DB, baseLog *logger.Logger) TutorialRepo {
	return &tutorialRepo{db: db, log: baseLog.With("repo", "TutorialRepo")}
}

func (r *tutorialRepo) Create(dbc dbctx.Context, t *types.Tutorial) error {
	if t == nil {
		return nil
	}
	return db.MapWriteError(dbc.DB(r.db).Create(t).Error)
}

func (r *tutorialRepo) GetByID(dbc dbctx.Context, id string) (*types.Tutorial, error) {
	var out types.Tutorial
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *tutorialRepo) ListByCommit(dbc dbctx.Context, commitID string) ([]*types.Tutorial, error) {
	var out []*types.Tutorial
	if err := dbc.DB(r.db).
		Where("commit_id = ?", commitID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tutorialRepo) ListIDsByRepo(dbc dbctx.Context, repoID string) ([]string, error) {
	var out []string
	if err := dbc.DB(r.db).Model(&types.Tutorial{}).
		Where("repo_id = ?", repoID).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tutorialRepo) Delete(dbc dbctx.Context, id string) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Tutorial{}).Error
}

func (r *tutorialRepo) DeleteByRepo(dbc dbctx.Context, repoID string) error {
	return dbc.DB(r.db).Where("repo_id = ?", repoID).Delete(&types.Tutorial{}).Error
}
