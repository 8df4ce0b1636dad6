package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/edgeslab/edges-backend/internal/domain/billing"
	"github.com/edgeslab/edges-backend/internal/platform/dbctx"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Subscription, error)
	GetByStripeSubscriptionID(dbc dbctx.Context, stripeSubscriptionID string) (*types.Subscription, error)
	EnsureForUser(dbc dbctx.Context, userID uuid.UUID, freeLimit int) (*types.Subscription, error)
	Upsert(dbc dbctx.Context, sub *types.Subscription) error
	UpdateFields(dbc dbctx.Context, userID uuid.UUID, updates map[string]interface{}) error
	Increment(dbc dbctx.Context, userID uuid.UUID, capAtLimit bool) (bool, error)
}

type subscriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) SubscriptionRepo {
	return &subscriptionRepo{db: db, log: baseLog.With("repo", "SubscriptionRepo")}
}

func (r *subscriptionRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Subscription, error) {
	var sub types.Subscription
	err := dbc.DB(r.db).Where("user_id = ?", userID).Limit(1).Find(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.UserID == uuid.Nil {
		return nil, ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (r *subscriptionRepo) GetByStripeSubscriptionID(dbc dbctx.Context, stripeSubscriptionID string) (*types.Subscription, error) {
	if stripeSubscriptionID == "" {
		return nil, ErrSubscriptionNotFound
	}
	var sub types.Subscription
	err := dbc.DB(r.db).Where("stripe_subscription_id = ?", stripeSubscriptionID).Limit(1).Find(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.UserID == uuid.Nil {
		return nil, ErrSubscriptionNotFound
	}
	return &sub, nil
}

// EnsureForUser creates the free-tier row if the user has none and returns
// the current row.
func (r *subscriptionRepo) EnsureForUser(dbc dbctx.Context, userID uuid.UUID, freeLimit int) (*types.Subscription, error) {
	row := &types.Subscription{
		UserID:                 userID,
		Tier:                   string(types.TierFree),
		MonthlyEvaluationLimit: freeLimit,
		PeriodStartedAt:        time.Now().UTC(),
	}
	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetByUserID(dbc, userID)
}

func (r *subscriptionRepo) Upsert(dbc dbctx.Context, sub *types.Subscription) error {
	if sub.PeriodStartedAt.IsZero() {
		sub.PeriodStartedAt = time.Now().UTC()
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"tier",
				"evaluations_used",
				"monthly_evaluation_limit",
				"stripe_customer_id",
				"stripe_subscription_id",
				"period_started_at",
				"updated_at",
			}),
		}).
		Create(sub).Error
}

func (r *subscriptionRepo) UpdateFields(dbc dbctx.Context, userID uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).
		Model(&types.Subscription{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// Increment adds one to evaluations_used in a single statement. With
// capAtLimit the row is left alone once the limit is reached and false is
// returned.
func (r *subscriptionRepo) Increment(dbc dbctx.Context, userID uuid.UUID, capAtLimit bool) (bool, error) {
	q := dbc.DB(r.db).
		Model(&types.Subscription{}).
		Where("user_id = ?", userID)
	if capAtLimit {
		q = q.Where("evaluations_used < monthly_evaluation_limit")
	}
	res := q.Updates(map[string]interface{}{
		"evaluations_used": gorm.Expr("evaluations_used + 1"),
		"updated_at":       time.Now().UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
