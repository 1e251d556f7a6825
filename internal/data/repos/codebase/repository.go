package codebase

import (
	"errors"

	"gorm.io/gorm"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/db"
	types "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/dbctx"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

type RepositoryRepo interface {
	// Create returns db.ErrDuplicate when the URL or id is already taken.
	Create(dbc dbctx.Context, repo *types.Repository) error
	GetByID(dbc dbctx.Context, id string) (*types.Repository, error)
	GetByURL(dbc dbctx.Context, url string) (*types.Repository, error)
	List(dbc dbctx.Context, limit, offset int) ([]*types.Repository, error)
	Delete(dbc dbctx.Context, id string) error
}

type repositoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepositoryRepo(db *gorm.DB, baseLog *logger.Logger) RepositoryRepo {
	return &repositoryRepo{db: db, log: baseLog.With("repo", "RepositoryRepo")}
}

func (r *repositoryRepo) Create(dbc dbctx.Context, repo *types.Repository) error {
	if repo == nil {
		return nil
	}
	return db.MapWriteError(dbc.DB(r.db).Create(repo).Error)
}

func (r *repositoryRepo) GetByID(dbc dbctx.Context, id string) (*types.Repository, error) {
	return r.first(dbc, "id = ?", id)
}

func (r *repositoryRepo) GetByURL(dbc dbctx.Context, url string) (*types.Repository, error) {
	return r.first(dbc, "url = ?", url)
}

func (r *repositoryRepo) first(dbc dbctx.Context, query string, arg any) (*types.Repository, error) {
	var out types.Repository
	err := dbc.DB(r.db).Where(query, arg).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repositoryRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.Repository, error) {
	var out []*types.Repository
	q := dbc.DB(r.db).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repositoryRepo) Delete(dbc dbctx.Context, id string) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Repository{}).Error
}
