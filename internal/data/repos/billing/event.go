package billing

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/edgeslab/edges-backend/internal/domain/billing"
	"github.com/edgeslab/edges-backend/internal/platform/dbctx"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

var ErrDuplicateEvent = errors.New("billing event already recorded")

type BillingEventRepo interface {
	Create(dbc dbctx.Context, ev *types.BillingEvent) error
	Exists(dbc dbctx.Context, id string) (bool, error)
}

type billingEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBillingEventRepo(db *gorm.DB, baseLog *logger.Logger) BillingEventRepo {
	return &billingEventRepo{db: db, log: baseLog.With("repo", "BillingEventRepo")}
}

// Create records a processed provider event. A second insert of the same
// event id returns ErrDuplicateEvent.
func (r *billingEventRepo) Create(dbc dbctx.Context, ev *types.BillingEvent) error {
	exists, err := r.Exists(dbc, ev.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateEvent
	}
	if err := dbc.DB(r.db).Create(ev).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

func (r *billingEventRepo) Exists(dbc dbctx.Context, id string) (bool, error) {
	var count int64
	if err := dbc.DB(r.db).
		Model(&types.BillingEvent{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
