package services

import (
	"cardiocheck/internal/infra"
	"cardiocheck/internal/models/domain_models"
	"cardiocheck/internal/repositories"
	"cardiocheck/pkg/logger"
	"context"
	"path/filepath"
	"testing"
)

func TestStateCacheRoundTrip(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "state.db")
	db, err := infra.OpenDatabase(dsn, logger.Nop())
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	t.Cleanup(func() { infra.CloseDatabase(db, logger.Nop()) })
	repo := repositories.NewSnapshotRepository(db)
	ctx := context.Background()

	a1, _ := newAssessment(&stubAssessmentAPI{})
	s1 := NewSubscriptionService(&stubSubscriptionAPI{}, logger.Nop())
	p1, _ := newPayments(&stubPaymentAPI{})
	a1.AddResult(domain_models.AssessmentResult{ID: "r1", RiskLevel: domain_models.RiskHigh, Confidence: 0.8})
	s1.SetSubscription(activeSub(domain_models.PlanPremium, 10, 4))
	list := methods("m1", "m2")
	list[1].IsDefault = true
	p1.SetPaymentMethods(list)
	p1.SetPayments([]domain_models.Payment{{ID: "pay-1", Amount: 999}})

	if err := NewStateCache(repo, a1, s1, p1, logger.Nop()).Persist(ctx); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	a2, _ := newAssessment(&stubAssessmentAPI{})
	s2 := NewSubscriptionService(&stubSubscriptionAPI{}, logger.Nop())
	p2, _ := newPayments(&stubPaymentAPI{})
	cache := NewStateCache(repo, a2, s2, p2, logger.Nop())
	if err := cache.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if st := a2.State(); st.LatestResult == nil || st.LatestResult.ID != "r1" {
		t.Fatalf("results not restored: %+v", st.Results)
	}
	if st := s2.State(); st.Subscription == nil || st.Subscription.UsageCount != 4 {
		t.Fatalf("subscription not restored: %+v", st.Subscription)
	}
	if m, ok := p2.GetDefaultPaymentMethod(); !ok || m.ID != "m2" {
		t.Fatalf("default method not restored: %+v", m)
	}
	if len(p2.State().Payments) != 1 {
		t.Fatal("payments not restored")
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	a3, _ := newAssessment(&stubAssessmentAPI{})
	if err := NewStateCache(repo, a3, s2, p2, logger.Nop()).Restore(ctx); err != nil {
		t.Fatalf("Restore after clear: %v", err)
	}
	if len(a3.State().Results) != 0 {
		t.Fatal("cleared snapshots still restored")
	}
}

func TestStateCacheWithoutRepositoryIsNoop(t *testing.T) {
	a, _ := newAssessment(&stubAssessmentAPI{})
	cache := NewStateCache(nil, a, NewSubscriptionService(&stubSubscriptionAPI{}, logger.Nop()), nil, logger.Nop())
	if err := cache.Persist(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := cache.Restore(context.Background()); err != nil {
		t.Fatal(err)
	}
}
