package repositories

import (
	"cardiocheck/internal/models/db_models"
	"context"
	"errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IPlanRepository interface {
	GetPlanInfoById(ctx context.Context, planID string) (*db_models.Plan, error)
	GetPlanByCode(ctx context.Context, code string) (*db_models.Plan, error)
	GetAllPlans(ctx context.Context) ([]db_models.Plan, error)
	Upsert(ctx context.Context, plan *db_models.Plan) error
}

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) IPlanRepository {
	return &PlanRepository{db: db}
}

func (p PlanRepository) GetPlanInfoById(ctx context.Context, planID string) (*db_models.Plan, error) {
	return p.first(ctx, "id = ? AND is_active = ?", planID, true)
}

func (p PlanRepository) GetPlanByCode(ctx context.Context, code string) (*db_models.Plan, error) {
	return p.first(ctx, "code = ? AND is_active = ?", code, true)
}

func (p PlanRepository) first(ctx context.Context, query string, args ...interface{}) (*db_models.Plan, error) {
	var plan db_models.Plan
	err := p.db.WithContext(ctx).Where(query, args...).First(&plan).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &plan, nil
}

// GetAllPlans lists active plans, cheapest first.
func (p PlanRepository) GetAllPlans(ctx context.Context) ([]db_models.Plan, error) {
	var plans []db_models.Plan
	err := p.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price_minor ASC").
		Find(&plans).Error

	if err != nil {
		return nil, err
	}

	return plans, nil
}

// Upsert inserts plan or updates the existing row with the same code.
func (p PlanRepository) Upsert(ctx context.Context, plan *db_models.Plan) error {
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "plan_type", "period", "price_minor", "currency", "usage_limit", "is_popular", "features", "updated_at"}),
	}).Create(plan).Error
}
