package learning

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/db"
	types "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/dbctx"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

// SessionRepo is the only relational repo with an update path.
type SessionRepo interface {
	Create(dbc dbctx.Context, s *types.LearnerSession) error
	GetByID(dbc dbctx.Context, id string) (*types.LearnerSession, error)
	ListByTutorial(dbc dbctx.Context, tutorialID string) ([]*types.LearnerSession, error)
	ListIDsByTutorials(dbc dbctx.Context, tutorialIDs []string) ([]string, error)
	UpdateProgress(dbc dbctx.Context, id string, currentStep int, completedAt *time.Time, updatedAt time.Time) error
	Delete(dbc dbctx.Context, id string) error
	DeleteByTutorials(dbc dbctx.Context, tutorialIDs []string) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(dbc dbctx.Context, s *types.LearnerSession) error {
	if s == nil {
		return nil
	}
	return db.MapWriteError(dbc.DB(r.db).Create(s).Error)
}

func (r *sessionRepo) GetByID(dbc dbctx.Context, id string) (*types.LearnerSession, error) {
	var out types.LearnerSession
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sessionRepo) ListByTutorial(dbc dbctx.Context, tutorialID string) ([]*types.LearnerSession, error) {
	var out []*types.LearnerSession
	if err := dbc.DB(r.db).
		Where("tutorial_id = ?", tutorialID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) ListIDsByTutorials(dbc dbctx.Context, tutorialIDs []string) ([]string, error) {
	out := []string{}
	if len(tutorialIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Model(&types.LearnerSession{}).
		Where("tutorial_id IN ?", tutorialIDs).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProgress refuses to touch a completed row so a session never reopens.
func (r *sessionRepo) UpdateProgress(dbc dbctx.Context, id string, currentStep int, completedAt *time.Time, updatedAt time.Time) error {
	return dbc.DB(r.db).Model(&types.LearnerSession{}).
		Where("id = ? AND completed_at IS NULL", id).
		Updates(map[string]interface{}{
			"current_step": currentStep,
			"completed_at": completedAt,
			"updated_at":   updatedAt,
		}).Error
}

func (r *sessionRepo) Delete(dbc dbctx.Context, id string) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.LearnerSession{}).Error
}

func (r *sessionRepo) DeleteByTutorials(dbc dbctx.Context, tutorialIDs []string) error {
	if len(tutorialIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("tutorial_id IN ?", tutorialIDs).Delete(&types.LearnerSession{}).Error
}
