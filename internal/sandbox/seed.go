package sandbox

import (
	"cardiocheck/internal/models/db_models"
	"cardiocheck/internal/repositories"
	"cardiocheck/pkg/logger"
	"cardiocheck/pkg/utils"
	"context"
	"errors"
	"fmt"
	"gorm.io/gorm"
	"time"
)

const (
	DemoEmail    = "demo@cardiocheck.dev"
	DemoPassword = "cardio123"
	DemoName     = "Demo User"

	FreeUsageLimit    = 3
	PremiumUsageLimit = 1000
)

var seedPlans = []db_models.Plan{
	{
		Code:       "free",
		Name:       "Free",
		PlanType:   db_models.PlanTypeFree,
		Period:     db_models.PeriodMonth,
		Currency:   "USD",
		UsageLimit: FreeUsageLimit,
		IsActive:   true,
		Features:   jsonRaw([]string{"3 assessments per month", "Basic risk report"}),
	},
	{
		Code:       "premium_monthly",
		Name:       "Premium Monthly",
		PlanType:   db_models.PlanTypePremium,
		Period:     db_models.PeriodMonth,
		PriceMinor: 999,
		Currency:   "USD",
		UsageLimit: PremiumUsageLimit,
		IsPopular:  true,
		IsActive:   true,
		Features:   jsonRaw([]string{"Unlimited assessments", "Detailed recommendations", "Assessment history"}),
	},
	{
		Code:       "premium_yearly",
		Name:       "Premium Yearly",
		PlanType:   db_models.PlanTypePremium,
		Period:     db_models.PeriodYear,
		PriceMinor: 9999,
		Currency:   "USD",
		UsageLimit: PremiumUsageLimit,
		IsActive:   true,
		Features:   jsonRaw([]string{"Unlimited assessments", "Detailed recommendations", "Assessment history", "Two months free"}),
	},
}

// Seed loads the plan catalogue and the demo account. It is safe to run on
// every start.
func Seed(ctx context.Context, db *gorm.DB, now func() time.Time, log *logger.Logger) error {
	if now == nil {
		now = utils.NowUTC
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plans := repositories.NewPlanRepository(tx)
		for _, p := range seedPlans {
			plan := p
			if err := plans.Upsert(ctx, &plan); err != nil {
				return fmt.Errorf("seed plan %s: %w", p.Code, err)
			}
		}

		accounts := repositories.NewAccountRepository(tx)
		existing, err := accounts.FindByEmail(ctx, DemoEmail)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		hash, err := utils.HashPassword(DemoPassword)
		if err != nil {
			return err
		}
		demo := &db_models.Account{Name: DemoName, Email: DemoEmail, PasswordHash: hash}
		if err := accounts.Insert(ctx, demo); err != nil {
			return fmt.Errorf("seed demo account: %w", err)
		}

		// re-read: an upsert that hit an existing row keeps the stored id
		free, err := plans.GetPlanByCode(ctx, "free")
		if err != nil {
			return err
		}
		if free == nil {
			return errors.New("free plan missing after seeding")
		}
		start := now()
		sub := &db_models.Subscription{
			AccountID:  demo.ID,
			PlanID:     free.ID,
			Status:     db_models.SubStatusActive,
			StartsAt:   start.Unix(),
			EndsAt:     start.AddDate(0, 1, 0).Unix(),
			UsageLimit: free.UsageLimit,
		}
		if err := repositories.NewSubscriptionRepository(tx).Insert(ctx, sub); err != nil {
			return fmt.Errorf("seed demo subscription: %w", err)
		}

		log.Info("sandbox seeded", "plans", len(seedPlans), "demo_email", DemoEmail)
		return nil
	})
}
