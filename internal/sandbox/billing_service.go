package sandbox

import (
	"cardiocheck/internal/models/db_models"
	"cardiocheck/internal/models/request_models"
	"cardiocheck/internal/models/response_models"
	"cardiocheck/internal/repositories"
	"cardiocheck/pkg/logger"
	"cardiocheck/pkg/utils"
	"context"
	"fmt"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"strings"
	"time"
)

type BillingService interface {
	ListPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error)
	// GetUserSubscription returns nil when the user never subscribed.
	GetUserSubscription(ctx context.Context, userID string) (*response_models.SubscriptionResponse, error)
	CreateSubscription(ctx context.Context, userID, planID string) (response_models.SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, userID, subscriptionID string) (response_models.SubscriptionResponse, error)

	CreatePayment(ctx context.Context, userID string, req request_models.CreatePaymentRequest) (response_models.PaymentResponse, error)
	CompletePayment(ctx context.Context, userID, paymentID, transactionID string) (response_models.PaymentResponse, error)
	FailPayment(ctx context.Context, userID, paymentID, reason string) (response_models.PaymentResponse, error)
	CancelPayment(ctx context.Context, userID, paymentID string) (response_models.PaymentResponse, error)
	RefundPayment(ctx context.Context, userID, paymentID string) (response_models.PaymentResponse, error)
	ListPayments(ctx context.Context, userID string) ([]response_models.PaymentResponse, error)

	ListPaymentMethods(ctx context.Context, userID string) ([]response_models.PaymentMethodResponse, error)
	AddPaymentMethod(ctx context.Context, userID string, req request_models.AddPaymentMethodRequest) (response_models.PaymentMethodResponse, error)
	DeletePaymentMethod(ctx context.Context, userID, methodID string) error
	SetDefaultPaymentMethod(ctx context.Context, userID, methodID string) error
}

type billingService struct {
	db      *gorm.DB
	plans   repositories.IPlanRepository
	subs    repositories.SubscriptionRepository
	txns    repositories.TransactionRepository
	methods repositories.PaymentMethodRepository
	now     func() time.Time
	log     *logger.Logger
}

func NewBillingService(
	db *gorm.DB,
	plans repositories.IPlanRepository,
	subs repositories.SubscriptionRepository,
	txns repositories.TransactionRepository,
	methods repositories.PaymentMethodRepository,
	now func() time.Time,
	log *logger.Logger,
) BillingService {
	if now == nil {
		now = utils.NowUTC
	}
	return &billingService{
		db:      db,
		plans:   plans,
		subs:    subs,
		txns:    txns,
		methods: methods,
		now:     now,
		log:     log.With("service", "sandbox.BillingService"),
	}
}

// ---- subscriptions ----

func (b *billingService) ListPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error) {
	plans, err := b.plans.GetAllPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	out := make([]response_models.SubscriptionPlan, 0, len(plans))
	for _, p := range plans {
		out = append(out, planResponse(p))
	}
	return out, nil
}

func (b *billingService) GetUserSubscription(ctx context.Context, userID string) (*response_models.SubscriptionResponse, error) {
	sub, err := b.subs.FindCurrent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	if sub == nil {
		return nil, nil
	}
	out := subscriptionResponse(*sub)
	return &out, nil
}

// CreateSubscription grants plan right away. The sandbox settles nothing, so
// a purchase without a payment is accepted as is.
func (b *billingService) CreateSubscription(ctx context.Context, userID, planID string) (response_models.SubscriptionResponse, error) {
	accountID, err := uuid.Parse(userID)
	if err != nil {
		return response_models.SubscriptionResponse{}, utils.ErrForbidden
	}
	plan, err := b.plans.GetPlanInfoById(ctx, planID)
	if err != nil {
		return response_models.SubscriptionResponse{}, fmt.Errorf("find plan: %w", err)
	}
	if plan == nil {
		return response_models.SubscriptionResponse{}, utils.ErrRecordNotFound
	}

	var sub *db_models.Subscription
	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = b.activateSubscription(ctx, tx, accountID, *plan)
		return err
	})
	if err != nil {
		return response_models.SubscriptionResponse{}, err
	}

	b.log.Info("subscription created", "user_id", userID, "plan", plan.Code)
	return subscriptionResponse(*sub), nil
}

func (b *billingService) CancelSubscription(ctx context.Context, userID, subscriptionID string) (response_models.SubscriptionResponse, error) {
	sub, err := b.subs.FindById(ctx, subscriptionID)
	if err != nil {
		return response_models.SubscriptionResponse{}, fmt.Errorf("find subscription: %w", err)
	}
	if sub == nil {
		return response_models.SubscriptionResponse{}, utils.ErrRecordNotFound
	}
	if sub.AccountID.String() != userID {
		return response_models.SubscriptionResponse{}, utils.ErrForbidden
	}
	if sub.Status != db_models.SubStatusActive && sub.Status != db_models.SubStatusTrialing {
		return response_models.SubscriptionResponse{}, fmt.Errorf("%w: subscription is %s", utils.ErrInvalidTransition, sub.Status)
	}

	now := b.now().Unix()
	sub.Status = db_models.SubStatusCanceled
	sub.CanceledAt = &now
	sub.AutoRenew = false
	if err := b.subs.Save(ctx, sub); err != nil {
		return response_models.SubscriptionResponse{}, fmt.Errorf("save subscription: %w", err)
	}

	b.log.Info("subscription canceled", "user_id", userID, "subscription_id", subscriptionID)
	return subscriptionResponse(*sub), nil
}

// activateSubscription starts a new period of plan for the account. A paid
// period that is still running is extended from its end; anything else the
// account held is expired.
func (b *billingService) activateSubscription(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, plan db_models.Plan) (*db_models.Subscription, error) {
	subs := repositories.NewSubscriptionRepository(tx)
	now := b.now()
	starts := now

	current, err := subs.FindCurrent(ctx, accountID.String())
	if err != nil {
		return nil, err
	}
	if current != nil && current.Status == db_models.SubStatusActive && current.EndsAt > now.Unix() {
		if current.Plan.PlanType == db_models.PlanTypePremium && plan.PlanType == db_models.PlanTypePremium {
			starts = time.Unix(current.EndsAt, 0).UTC()
		}
		current.Status = db_models.SubStatusExpired
		current.EndsAt = now.Unix()
		if err := subs.Save(ctx, current); err != nil {
			return nil, err
		}
	}

	var ends time.Time
	switch plan.Period {
	case db_models.PeriodYear:
		ends = starts.AddDate(1, 0, 0)
	default:
		ends = starts.AddDate(0, 1, 0)
	}

	sub := &db_models.Subscription{
		AccountID:  accountID,
		PlanID:     plan.ID,
		Status:     db_models.SubStatusActive,
		StartsAt:   now.Unix(),
		EndsAt:     ends.Unix(),
		AutoRenew:  plan.PlanType == db_models.PlanTypePremium,
		UsageLimit: plan.UsageLimit,
	}
	// created strictly after the row it replaces so FindCurrent picks it
	sub.CreatedAt = now.Unix()
	if current != nil && sub.CreatedAt <= current.CreatedAt {
		sub.CreatedAt = current.CreatedAt + 1
	}
	if err := subs.Insert(ctx, sub); err != nil {
		return nil, err
	}
	sub.Plan = plan
	return sub, nil
}

// ---- payments ----

func (b *billingService) CreatePayment(ctx context.Context, userID string, req request_models.CreatePaymentRequest) (response_models.PaymentResponse, error) {
	accountID, err := uuid.Parse(userID)
	if err != nil {
		return response_models.PaymentResponse{}, utils.ErrForbidden
	}
	plan, err := b.plans.GetPlanInfoById(ctx, req.PlanID)
	if err != nil {
		return response_models.PaymentResponse{}, fmt.Errorf("find plan: %w", err)
	}
	if plan == nil {
		return response_models.PaymentResponse{}, utils.ErrRecordNotFound
	}
	if plan.PriceMinor != req.Amount || !strings.EqualFold(plan.Currency, req.Currency) {
		return response_models.PaymentResponse{}, utils.ErrInvalidAmount
	}

	method, err := b.ownedMethod(ctx, userID, req.PaymentMethodID)
	if err != nil {
		return response_models.PaymentResponse{}, err
	}

	txn := &db_models.Transaction{
		AccountID:        accountID,
		PlanID:           plan.ID,
		PaymentMethodID:  &method.ID,
		AmountMinor:      plan.PriceMinor,
		Currency:         plan.Currency,
		Status:           db_models.TxnStatusPending,
		ProviderTxnID:    "txn_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		PaymentMethodRef: methodRef(*method),
		Metadata: jsonRaw(map[string]any{
			"plan_id":   plan.ID,
			"plan_code": plan.Code,
		}),
	}
	txn.CreatedAt = b.now().Unix()
	if err := b.txns.Insert(ctx, txn); err != nil {
		return response_models.PaymentResponse{}, fmt.Errorf("insert payment: %w", err)
	}
	txn.Plan = *plan

	b.log.Info("payment created", "user_id", userID, "payment_id", txn.ID.String(), "amount", txn.AmountMinor)
	return paymentResponse(*txn), nil
}

// CompletePayment settles a pending payment and activates its plan in the
// same database transaction.
func (b *billingService) CompletePayment(ctx context.Context, userID, paymentID, transactionID string) (response_models.PaymentResponse, error) {
	var out db_models.Transaction
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txns := repositories.NewTransactionRepository(tx)
		txn, err := loadOwned(ctx, txns, userID, paymentID)
		if err != nil {
			return err
		}
		if txn.Status != db_models.TxnStatusPending {
			return fmt.Errorf("%w: payment is %s", utils.ErrInvalidTransition, txn.Status)
		}
		if transactionID != txn.ProviderTxnID {
			return fmt.Errorf("%w: transaction id does not match", utils.ErrInvalidTransition)
		}

		now := b.now().Unix()
		txn.Status = db_models.TxnStatusSuccess
		txn.PaidAt = &now
		if err := txns.Save(ctx, txn); err != nil {
			return err
		}
		if _, err := b.activateSubscription(ctx, tx, txn.AccountID, txn.Plan); err != nil {
			return fmt.Errorf("activate subscription: %w", err)
		}
		out = *txn
		return nil
	})
	if err != nil {
		return response_models.PaymentResponse{}, err
	}

	b.log.Info("payment completed", "user_id", userID, "payment_id", paymentID)
	return paymentResponse(out), nil
}

func (b *billingService) FailPayment(ctx context.Context, userID, paymentID, reason string) (response_models.PaymentResponse, error) {
	return b.transition(ctx, userID, paymentID, db_models.TxnStatusPending, func(t *db_models.Transaction) {
		t.Status = db_models.TxnStatusFailed
		t.Metadata = jsonRaw(map[string]any{"plan_id": t.PlanID, "failure_reason": reason})
	})
}

func (b *billingService) CancelPayment(ctx context.Context, userID, paymentID string) (response_models.PaymentResponse, error) {
	return b.transition(ctx, userID, paymentID, db_models.TxnStatusPending, func(t *db_models.Transaction) {
		t.Status = db_models.TxnStatusCanceled
	})
}

func (b *billingService) RefundPayment(ctx context.Context, userID, paymentID string) (response_models.PaymentResponse, error) {
	return b.transition(ctx, userID, paymentID, db_models.TxnStatusSuccess, func(t *db_models.Transaction) {
		now := b.now().Unix()
		t.Status = db_models.TxnStatusRefunded
		t.RefundedAt = &now
	})
}

func (b *billingService) transition(ctx context.Context, userID, paymentID string, from db_models.TransactionStatus, apply func(*db_models.Transaction)) (response_models.PaymentResponse, error) {
	txn, err := loadOwned(ctx, b.txns, userID, paymentID)
	if err != nil {
		return response_models.PaymentResponse{}, err
	}
	if txn.Status != from {
		return response_models.PaymentResponse{}, fmt.Errorf("%w: payment is %s", utils.ErrInvalidTransition, txn.Status)
	}
	apply(txn)
	if err := b.txns.Save(ctx, txn); err != nil {
		return response_models.PaymentResponse{}, fmt.Errorf("save payment: %w", err)
	}
	b.log.Info("payment updated", "user_id", userID, "payment_id", paymentID, "status", string(txn.Status))
	return paymentResponse(*txn), nil
}

func loadOwned(ctx context.Context, txns repositories.TransactionRepository, userID, paymentID string) (*db_models.Transaction, error) {
	txn, err := txns.FindById(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if txn == nil {
		return nil, utils.ErrRecordNotFound
	}
	if txn.AccountID.String() != userID {
		return nil, utils.ErrForbidden
	}
	return txn, nil
}

func (b *billingService) ListPayments(ctx context.Context, userID string) ([]response_models.PaymentResponse, error) {
	list, err := b.txns.ListByAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]response_models.PaymentResponse, 0, len(list))
	for _, t := range list {
		out = append(out, paymentResponse(t))
	}
	return out, nil
}

// ---- payment methods ----

func (b *billingService) ListPaymentMethods(ctx context.Context, userID string) ([]response_models.PaymentMethodResponse, error) {
	list, err := b.methods.ListByAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	out := make([]response_models.PaymentMethodResponse, 0, len(list))
	for _, m := range list {
		out = append(out, methodResponse(m))
	}
	return out, nil
}

// AddPaymentMethod stores the method. The first method an account adds is
// its default even when not flagged.
func (b *billingService) AddPaymentMethod(ctx context.Context, userID string, req request_models.AddPaymentMethodRequest) (response_models.PaymentMethodResponse, error) {
	accountID, err := uuid.Parse(userID)
	if err != nil {
		return response_models.PaymentMethodResponse{}, utils.ErrForbidden
	}
	existing, err := b.methods.ListByAccount(ctx, userID)
	if err != nil {
		return response_models.PaymentMethodResponse{}, fmt.Errorf("list payment methods: %w", err)
	}

	m := &db_models.PaymentMethod{
		AccountID: accountID,
		Type:      req.Type,
		Brand:     strings.ToLower(req.Brand),
		Last4:     req.Last4,
	}
	m.CreatedAt = b.now().Unix()
	if n := len(existing); n > 0 && m.CreatedAt <= existing[n-1].CreatedAt {
		m.CreatedAt = existing[n-1].CreatedAt + 1
	}
	if err := b.methods.Insert(ctx, m); err != nil {
		return response_models.PaymentMethodResponse{}, fmt.Errorf("insert payment method: %w", err)
	}

	if req.IsDefault || len(existing) == 0 {
		if err := b.methods.SetDefault(ctx, userID, m.ID.String()); err != nil {
			return response_models.PaymentMethodResponse{}, fmt.Errorf("set default: %w", err)
		}
		m.IsDefault = true
	}

	b.log.Info("payment method added", "user_id", userID, "method_id", m.ID.String(), "default", m.IsDefault)
	return methodResponse(*m), nil
}

// DeletePaymentMethod removes the method; when it was the default the
// oldest remaining method takes over.
func (b *billingService) DeletePaymentMethod(ctx context.Context, userID, methodID string) error {
	m, err := b.ownedMethod(ctx, userID, methodID)
	if err != nil {
		return err
	}
	if err := b.methods.Delete(ctx, methodID); err != nil {
		return fmt.Errorf("delete payment method: %w", err)
	}
	if !m.IsDefault {
		return nil
	}

	rest, err := b.methods.ListByAccount(ctx, userID)
	if err != nil {
		return fmt.Errorf("list payment methods: %w", err)
	}
	if len(rest) == 0 {
		return nil
	}
	return b.methods.SetDefault(ctx, userID, rest[0].ID.String())
}

func (b *billingService) SetDefaultPaymentMethod(ctx context.Context, userID, methodID string) error {
	if _, err := b.ownedMethod(ctx, userID, methodID); err != nil {
		return err
	}
	return b.methods.SetDefault(ctx, userID, methodID)
}

func (b *billingService) ownedMethod(ctx context.Context, userID, methodID string) (*db_models.PaymentMethod, error) {
	if _, err := uuid.Parse(methodID); err != nil {
		return nil, utils.ErrRecordNotFound
	}
	m, err := b.methods.FindById(ctx, methodID)
	if err != nil {
		return nil, fmt.Errorf("find payment method: %w", err)
	}
	if m == nil {
		return nil, utils.ErrRecordNotFound
	}
	if m.AccountID.String() != userID {
		return nil, utils.ErrForbidden
	}
	return m, nil
}
