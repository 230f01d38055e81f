package services

import (
	"cardiocheck/internal/models/domain_models"
	"cardiocheck/internal/repositories"
	"cardiocheck/pkg/logger"
	"context"
	"fmt"
)

const (
	snapshotResults      = "assessment.results"
	snapshotSubscription = "subscription.current"
	snapshotPlans        = "subscription.plans"
	snapshotPayments     = "payment.history"
	snapshotMethods      = "payment.methods"
)

// StateCache saves engine state between CLI runs. A nil repository turns
// every call into a no-op.
type StateCache struct {
	repo         repositories.SnapshotRepository
	assessment   AssessmentService
	subscription SubscriptionService
	payment      PaymentService
	log          *logger.Logger
}

func NewStateCache(repo repositories.SnapshotRepository, assessment AssessmentService, subscription SubscriptionService, payment PaymentService, log *logger.Logger) *StateCache {
	return &StateCache{
		repo:         repo,
		assessment:   assessment,
		subscription: subscription,
		payment:      payment,
		log:          log.With("component", "StateCache"),
	}
}

func (c *StateCache) Persist(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}
	a := c.assessment.State()
	s := c.subscription.State()
	p := c.payment.State()

	items := []struct {
		key string
		v   any
	}{
		{snapshotResults, a.Results},
		{snapshotSubscription, s.Subscription},
		{snapshotPlans, s.Plans},
		{snapshotPayments, p.Payments},
		{snapshotMethods, p.PaymentMethods},
	}
	for _, it := range items {
		if err := c.repo.Save(ctx, it.key, it.v); err != nil {
			return fmt.Errorf("persist %s: %w", it.key, err)
		}
	}
	c.log.Debug("state persisted", "results", len(a.Results), "payments", len(p.Payments))
	return nil
}

// Restore loads whatever snapshots exist. Missing ones leave the engine as
// it is.
func (c *StateCache) Restore(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}

	var results []domain_models.AssessmentResult
	if ok, err := c.repo.Load(ctx, snapshotResults, &results); err != nil {
		return err
	} else if ok {
		c.assessment.SetResults(results)
	}

	var sub *domain_models.Subscription
	if ok, err := c.repo.Load(ctx, snapshotSubscription, &sub); err != nil {
		return err
	} else if ok {
		c.subscription.SetSubscription(sub)
	}

	var plans []domain_models.SubscriptionPlan
	if ok, err := c.repo.Load(ctx, snapshotPlans, &plans); err != nil {
		return err
	} else if ok {
		c.subscription.SetPlans(plans)
	}

	var payments []domain_models.Payment
	if ok, err := c.repo.Load(ctx, snapshotPayments, &payments); err != nil {
		return err
	} else if ok {
		c.payment.SetPayments(payments)
	}

	var methods []domain_models.PaymentMethod
	if ok, err := c.repo.Load(ctx, snapshotMethods, &methods); err != nil {
		return err
	} else if ok {
		c.payment.SetPaymentMethods(methods)
	}
	return nil
}

// Clear drops every snapshot, used on logout.
func (c *StateCache) Clear(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}
	return c.repo.Delete(ctx, snapshotResults, snapshotSubscription, snapshotPlans, snapshotPayments, snapshotMethods)
}
