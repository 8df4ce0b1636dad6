package evaluation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/edgeslab/edges-backend/internal/domain/evaluation"
	"github.com/edgeslab/edges-backend/internal/platform/dbctx"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

type EvaluationRepo interface {
	Create(dbc dbctx.Context, rows []*types.Evaluation) ([]*types.Evaluation, error)
	ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Evaluation, error)
	CountByUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (int64, error)
}

type evaluationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvaluationRepo(db *gorm.DB, baseLog *logger.Logger) EvaluationRepo {
	return &evaluationRepo{db: db, log: baseLog.With("repo", "EvaluationRepo")}
}

func (r *evaluationRepo) Create(dbc dbctx.Context, rows []*types.Evaluation) ([]*types.Evaluation, error) {
	if len(rows) == 0 {
		return []*types.Evaluation{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByUserID returns the user's evaluations oldest first, the order they
// were added to the chart.
func (r *evaluationRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Evaluation, error) {
	var results []*types.Evaluation
	if userID == uuid.Nil {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *evaluationRepo) CountByUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	q := dbc.DB(r.db).Model(&types.Evaluation{}).Where("user_id = ?", userID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
