package services

import (
	"cardiocheck/internal/models/domain_models"
	"cardiocheck/pkg/logger"
	"cardiocheck/pkg/utils"
	"context"
	"golang.org/x/sync/errgroup"
	"slices"
	"sync"
	"time"
)

type SubscriptionAPI interface {
	ListPlans(ctx context.Context) ([]domain_models.SubscriptionPlan, error)
	GetUserSubscription(ctx context.Context, userID string) (*domain_models.Subscription, error)
	CreateSubscription(ctx context.Context, userID, planID string) (domain_models.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (domain_models.Subscription, error)
}

type SubscriptionState struct {
	Subscription *domain_models.Subscription
	Plans        []domain_models.SubscriptionPlan
	IsLoading    bool
	Error        string
}

type SubscriptionService interface {
	IsPremium() bool
	IsActive(now time.Time) bool
	RemainingUsage() int
	CanUseFeature(required domain_models.PlanType, now time.Time) bool

	SetSubscription(sub *domain_models.Subscription)
	UpdateSubscription(patch domain_models.SubscriptionPatch)
	IncrementUsage()
	ResetUsage()
	SetPlans(plans []domain_models.SubscriptionPlan)
	ClearError()

	LoadPlans(ctx context.Context) error
	LoadSubscription(ctx context.Context, userID string) error
	Load(ctx context.Context, userID string) error
	Purchase(ctx context.Context, userID, planID string) (domain_models.Subscription, error)
	Cancel(ctx context.Context) (domain_models.Subscription, error)

	// Subscribe registers the engine's reactions to other engines' events.
	Subscribe(bus *EventBus)
	State() SubscriptionState
}

type subscriptionService struct {
	api SubscriptionAPI
	log *logger.Logger

	mu      sync.Mutex
	sub     *domain_models.Subscription
	plans   []domain_models.SubscriptionPlan
	loading bool
	err     string
}

func NewSubscriptionService(api SubscriptionAPI, log *logger.Logger) SubscriptionService {
	return &subscriptionService{
		api: api,
		log: log.With("service", "SubscriptionService"),
	}
}

func (s *subscriptionService) IsPremium() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub != nil && s.sub.PlanType == domain_models.PlanPremium
}

// IsActive is true for an active subscription whose end date is strictly
// after now.
func (s *subscriptionService) IsActive(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isActive(now)
}

func (s *subscriptionService) isActive(now time.Time) bool {
	return s.sub != nil && s.sub.Status == domain_models.SubStatusActive && s.sub.EndDate.After(now)
}

func (s *subscriptionService) RemainingUsage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining()
}

func (s *subscriptionService) remaining() int {
	if s.sub == nil {
		return 0
	}
	return max(0, s.sub.UsageLimit-s.sub.UsageCount)
}

// CanUseFeature checks, in order: active, plan, then the free-tier quota.
func (s *subscriptionService) CanUseFeature(required domain_models.PlanType, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isActive(now) {
		return false
	}
	if required == domain_models.PlanPremium && s.sub.PlanType != domain_models.PlanPremium {
		return false
	}
	if s.sub.PlanType == domain_models.PlanFree && s.remaining() == 0 {
		return false
	}
	return true
}

func (s *subscriptionService) SetSubscription(sub *domain_models.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sub = cloneSubscription(sub)
}

func (s *subscriptionService) UpdateSubscription(patch domain_models.SubscriptionPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return
	}
	updated := s.sub.Apply(patch)
	s.sub = &updated
}

// IncrementUsage does not stop at the limit; RemainingUsage clamps instead.
func (s *subscriptionService) IncrementUsage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return
	}
	s.sub.UsageCount++
}

func (s *subscriptionService) ResetUsage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return
	}
	s.sub.UsageCount = 0
}

func (s *subscriptionService) SetPlans(plans []domain_models.SubscriptionPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = clonePlans(plans)
}

func (s *subscriptionService) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

func (s *subscriptionService) LoadPlans(ctx context.Context) error {
	s.begin()
	plans, err := s.api.ListPlans(ctx)
	return s.finish(err, func() { s.plans = clonePlans(plans) })
}

func (s *subscriptionService) LoadSubscription(ctx context.Context, userID string) error {
	s.begin()
	sub, err := s.api.GetUserSubscription(ctx, userID)
	return s.finish(err, func() { s.sub = cloneSubscription(sub) })
}

// Load fetches plans and the user's subscription concurrently. Nothing is
// applied unless both succeed.
func (s *subscriptionService) Load(ctx context.Context, userID string) error {
	s.begin()

	var (
		plans []domain_models.SubscriptionPlan
		sub   *domain_models.Subscription
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plans, err = s.api.ListPlans(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		sub, err = s.api.GetUserSubscription(gctx, userID)
		return err
	})
	err := g.Wait()

	return s.finish(err, func() {
		s.plans = clonePlans(plans)
		s.sub = cloneSubscription(sub)
	})
}

// Purchase replaces the current record with the newly created one.
func (s *subscriptionService) Purchase(ctx context.Context, userID, planID string) (domain_models.Subscription, error) {
	s.begin()
	sub, err := s.api.CreateSubscription(ctx, userID, planID)
	if err := s.finish(err, func() { s.sub = cloneSubscription(&sub) }); err != nil {
		return domain_models.Subscription{}, err
	}
	s.log.Info("subscription purchased", "user_id", userID, "plan_id", planID)
	return sub, nil
}

func (s *subscriptionService) Cancel(ctx context.Context) (domain_models.Subscription, error) {
	s.mu.Lock()
	if s.sub == nil {
		err := utils.NewValidationError("You do not have a subscription to cancel.", utils.ErrNoSubscription)
		s.err = err.Message
		s.mu.Unlock()
		return domain_models.Subscription{}, err
	}
	id := s.sub.ID
	s.loading = true
	s.mu.Unlock()

	sub, err := s.api.CancelSubscription(ctx, id)
	if err := s.finish(err, func() { s.sub = cloneSubscription(&sub) }); err != nil {
		return domain_models.Subscription{}, err
	}
	return sub, nil
}

func (s *subscriptionService) Subscribe(bus *EventBus) {
	bus.OnAssessmentCompleted(func(ctx context.Context, e AssessmentCompleted) {
		s.IncrementUsage()
	})
	bus.OnPaymentCompleted(func(ctx context.Context, e PaymentCompleted) {
		if e.Payment.UserID == "" {
			return
		}
		if err := s.LoadSubscription(ctx, e.Payment.UserID); err != nil {
			s.log.Warn("reload subscription after payment failed", "user_id", e.Payment.UserID, "error", err)
		}
	})
}

func (s *subscriptionService) State() SubscriptionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SubscriptionState{
		Subscription: cloneSubscription(s.sub),
		Plans:        clonePlans(s.plans),
		IsLoading:    s.loading,
		Error:        s.err,
	}
}

func (s *subscriptionService) begin() {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
}

// finish ends a remote operation: apply runs only on success, otherwise the
// error slot is set and state is left alone.
func (s *subscriptionService) finish(err error, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = utils.UserMessage(err)
		return err
	}
	apply()
	s.err = ""
	return nil
}

func cloneSubscription(sub *domain_models.Subscription) *domain_models.Subscription {
	if sub == nil {
		return nil
	}
	c := *sub
	return &c
}

func clonePlans(plans []domain_models.SubscriptionPlan) []domain_models.SubscriptionPlan {
	if plans == nil {
		return nil
	}
	out := slices.Clone(plans)
	for i := range out {
		out[i].Features = slices.Clone(out[i].Features)
	}
	return out
}
