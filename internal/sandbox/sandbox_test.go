package sandbox

import (
	"cardiocheck/internal/infra"
	"cardiocheck/internal/models/request_models"
	"cardiocheck/internal/repositories"
	"cardiocheck/pkg/logger"
	mem "cardiocheck/pkg/memcache"
	"cardiocheck/pkg/utils"
	"context"
	"errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"testing"
	"time"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db         *gorm.DB
	auth       AuthService
	assessment AssessmentService
	billing    BillingService
	tokens     *mem.Store
	secret     []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Nop()
	dsn := "sqlite://file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := infra.OpenSandboxDatabase(dsn, log)
	if err != nil {
		t.Fatalf("open sandbox db: %v", err)
	}
	t.Cleanup(func() { infra.CloseDatabase(db, log) })

	now := func() time.Time { return testNow }
	if err := Seed(context.Background(), db, now, log); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	secret := []byte("test-secret")
	tokens := mem.NewStore()
	checks := repositories.NewHealthCheckRepository(db)
	return &fixture{
		db:     db,
		tokens: tokens,
		secret: secret,
		auth: NewAuthService(repositories.NewAccountRepository(db), tokens, TokenConfig{
			Secret:     secret,
			AccessTTL:  15 * time.Minute,
			RefreshTTL: time.Hour,
		}, now, log),
		assessment: NewAssessmentService(db, checks, Prediction{Risk: "medium", Confidence: 0.7}, log),
		billing: NewBillingService(db,
			repositories.NewPlanRepository(db),
			repositories.NewSubscriptionRepository(db),
			repositories.NewTransactionRepository(db),
			repositories.NewPaymentMethodRepository(db),
			now, log),
	}
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()
	resp, err := f.auth.Login(context.Background(), request_models.LoginRequest{Email: DemoEmail, Password: DemoPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return resp.User.ID
}

func ptr[T any](v T) *T { return &v }

func checkRequest(userID string) request_models.CreateCheckRequest {
	return request_models.CreateCheckRequest{
		UserID:         userID,
		Age:            ptr(54),
		Sex:            ptr("M"),
		ChestPainType:  ptr(1),
		RestingBP:      ptr(140),
		Cholesterol:    ptr(239),
		FastingBS:      ptr(0),
		RestingECG:     ptr(0),
		MaxHR:          ptr(160),
		ExerciseAngina: ptr(false),
		Oldpeak:        ptr(1.2),
		STSlope:        ptr(1),
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	if err := Seed(context.Background(), f.db, nil, logger.Nop()); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	plans, err := f.billing.ListPlans(context.Background())
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 3 || plans[0].Code != "free" || plans[2].DurationDays != 365 {
		t.Fatalf("unexpected plans %+v", plans)
	}
}

func TestAuthLoginRefreshLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.auth.Login(ctx, request_models.LoginRequest{Email: DemoEmail, Password: "wrong-password"}); !errors.Is(err, utils.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := f.auth.Login(ctx, request_models.LoginRequest{Email: "nobody@cardiocheck.dev", Password: DemoPassword}); !errors.Is(err, utils.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}

	resp, err := f.auth.Login(ctx, request_models.LoginRequest{Email: DemoEmail, Password: DemoPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.ExpiresIn != 900 || resp.User.Email != DemoEmail {
		t.Fatalf("unexpected login response %+v", resp)
	}
	claims, err := utils.ValidateToken(f.secret, resp.AccessToken, testNow)
	if err != nil || claims.SubjectID() != resp.User.ID {
		t.Fatalf("access token: %v %+v", err, claims)
	}

	next, err := f.auth.Refresh(ctx, resp.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == resp.RefreshToken || next.AccessToken == resp.AccessToken {
		t.Fatalf("expected rotated tokens")
	}
	if _, err := f.auth.Refresh(ctx, resp.RefreshToken); !errors.Is(err, utils.ErrTokenRevoked) {
		t.Fatalf("expected old refresh token revoked, got %v", err)
	}

	if err := f.auth.Logout(ctx, next.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := f.auth.Refresh(ctx, next.RefreshToken); !errors.Is(err, utils.ErrTokenRevoked) {
		t.Fatalf("expected logged out refresh token revoked, got %v", err)
	}
}

func TestPredictConsumesFreeQuotaOncePerCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.login(t)

	check, err := f.assessment.CreateCheck(ctx, userID, checkRequest(userID))
	if err != nil {
		t.Fatalf("CreateCheck: %v", err)
	}
	pred, err := f.assessment.Predict(ctx, userID, check.ID)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.RiskLevel != "medium" || pred.Confidence != 0.7 || pred.Age != 54 || len(pred.Recommendations) == 0 {
		t.Fatalf("unexpected prediction %+v", pred)
	}
	sum := 0.0
	for _, p := range pred.Probabilities {
		sum += p
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("probabilities should sum to 1, got %v", sum)
	}

	again, err := f.assessment.Predict(ctx, userID, check.ID)
	if err != nil || again.ID != pred.ID {
		t.Fatalf("expected the stored prediction, got %+v %v", again, err)
	}

	sub, _ := f.billing.GetUserSubscription(ctx, userID)
	if sub == nil || sub.UsageCount != 1 || sub.PlanType != "free" {
		t.Fatalf("expected one use on the free plan, got %+v", sub)
	}

	for i := 0; i < FreeUsageLimit-1; i++ {
		c, _ := f.assessment.CreateCheck(ctx, userID, checkRequest(userID))
		if _, err := f.assessment.Predict(ctx, userID, c.ID); err != nil {
			t.Fatalf("Predict %d: %v", i, err)
		}
	}
	last, _ := f.assessment.CreateCheck(ctx, userID, checkRequest(userID))
	if _, err := f.assessment.Predict(ctx, userID, last.ID); !errors.Is(err, utils.ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded, got %v", err)
	}

	list, err := f.assessment.ListPredictions(ctx, userID)
	if err != nil || len(list) != FreeUsageLimit {
		t.Fatalf("ListPredictions: %d %v", len(list), err)
	}
}

func TestPredictRejectsForeignAndUnknownChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.login(t)

	check, err := f.assessment.CreateCheck(ctx, userID, checkRequest(userID))
	if err != nil {
		t.Fatalf("CreateCheck: %v", err)
	}
	if _, err := f.assessment.Predict(ctx, uuid.NewString(), check.ID); !errors.Is(err, utils.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.assessment.Predict(ctx, userID, uuid.NewString()); !errors.Is(err, utils.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPaymentLifecycleActivatesPremium(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.login(t)

	method, err := f.billing.AddPaymentMethod(ctx, userID, request_models.AddPaymentMethodRequest{
		UserID: userID, Type: "card", Brand: "Visa", Last4: "4242",
	})
	if err != nil {
		t.Fatalf("AddPaymentMethod: %v", err)
	}
	if !method.IsDefault {
		t.Fatalf("first method should become default")
	}

	plans, _ := f.billing.ListPlans(ctx)
	premium := plans[1]

	if _, err := f.billing.CreatePayment(ctx, userID, request_models.CreatePaymentRequest{
		UserID: userID, PlanID: premium.ID, PaymentMethodID: method.ID, Amount: 1, Currency: "USD",
	}); !errors.Is(err, utils.ErrInvalidAmount) {
		t.Fatalf("expected amount mismatch, got %v", err)
	}

	pending, err := f.billing.CreatePayment(ctx, userID, request_models.CreatePaymentRequest{
		UserID: userID, PlanID: premium.ID, PaymentMethodID: method.ID, Amount: premium.Price, Currency: "usd",
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if pending.Status != "pending" || pending.Method != "visa ****4242" || pending.Plan != "Premium Monthly" {
		t.Fatalf("unexpected pending payment %+v", pending)
	}

	if _, err := f.billing.CompletePayment(ctx, userID, pending.ID, "txn_wrong"); !errors.Is(err, utils.ErrInvalidTransition) {
		t.Fatalf("expected mismatched transaction rejected, got %v", err)
	}

	settled, err := f.billing.CompletePayment(ctx, userID, pending.ID, pending.TransactionID)
	if err != nil {
		t.Fatalf("CompletePayment: %v", err)
	}
	if settled.Status != "success" {
		t.Fatalf("unexpected settled payment %+v", settled)
	}
	if _, err := f.billing.CompletePayment(ctx, userID, pending.ID, pending.TransactionID); !errors.Is(err, utils.ErrInvalidTransition) {
		t.Fatalf("expected second completion rejected, got %v", err)
	}

	sub, err := f.billing.GetUserSubscription(ctx, userID)
	if err != nil || sub == nil {
		t.Fatalf("GetUserSubscription: %v %v", sub, err)
	}
	if sub.PlanType != "premium" || sub.Status != "active" || sub.UsageLimit != PremiumUsageLimit || !sub.AutoRenew {
		t.Fatalf("expected active premium, got %+v", sub)
	}

	refunded, err := f.billing.RefundPayment(ctx, userID, pending.ID)
	if err != nil || refunded.Status != "refunded" || refunded.RefundedAt == nil {
		t.Fatalf("RefundPayment: %+v %v", refunded, err)
	}
	if _, err := f.billing.CancelPayment(ctx, userID, pending.ID); !errors.Is(err, utils.ErrInvalidTransition) {
		t.Fatalf("expected cancel of refunded payment rejected, got %v", err)
	}

	history, err := f.billing.ListPayments(ctx, userID)
	if err != nil || len(history) != 1 {
		t.Fatalf("ListPayments: %+v %v", history, err)
	}
}

func TestPendingPaymentCanFailOrCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.login(t)

	method, _ := f.billing.AddPaymentMethod(ctx, userID, request_models.AddPaymentMethodRequest{UserID: userID, Type: "wallet", Last4: "0001"})
	plans, _ := f.billing.ListPlans(ctx)
	req := request_models.CreatePaymentRequest{UserID: userID, PlanID: plans[2].ID, PaymentMethodID: method.ID, Amount: plans[2].Price, Currency: "USD"}

	a, err := f.billing.CreatePayment(ctx, userID, req)
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	failed, err := f.billing.FailPayment(ctx, userID, a.ID, "card declined")
	if err != nil || failed.Status != "failed" {
		t.Fatalf("FailPayment: %+v %v", failed, err)
	}

	b, _ := f.billing.CreatePayment(ctx, userID, req)
	canceled, err := f.billing.CancelPayment(ctx, userID, b.ID)
	if err != nil || canceled.Status != "canceled" {
		t.Fatalf("CancelPayment: %+v %v", canceled, err)
	}
	if _, err := f.billing.CancelPayment(ctx, uuid.NewString(), b.ID); !errors.Is(err, utils.ErrForbidden) {
		t.Fatalf("expected forbidden for another user, got %v", err)
	}

	sub, _ := f.billing.GetUserSubscription(ctx, userID)
	if sub == nil || sub.PlanType != "free" {
		t.Fatalf("failed payments must not change the plan, got %+v", sub)
	}
}

func TestPaymentMethodDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.login(t)

	add := func(last4 string, def bool) string {
		m, err := f.billing.AddPaymentMethod(ctx, userID, request_models.AddPaymentMethodRequest{UserID: userID, Type: "card", Brand: "visa", Last4: last4, IsDefault: def})
		if err != nil {
			t.Fatalf("AddPaymentMethod: %v", err)
		}
		return m.ID
	}
	first := add("1111", false)
	second := add("2222", false)
	third := add("3333", true)

	defaults := func() []string {
		list, err := f.billing.ListPaymentMethods(ctx, userID)
		if err != nil {
			t.Fatalf("ListPaymentMethods: %v", err)
		}
		var ids []string
		for _, m := range list {
			if m.IsDefault {
				ids = append(ids, m.ID)
			}
		}
		return ids
	}
	if got := defaults(); len(got) != 1 || got[0] != third {
		t.Fatalf("expected third method default, got %v", got)
	}

	if err := f.billing.SetDefaultPaymentMethod(ctx, userID, second); err != nil {
		t.Fatalf("SetDefaultPaymentMethod: %v", err)
	}
	if err := f.billing.DeletePaymentMethod(ctx, userID, second); err != nil {
		t.Fatalf("DeletePaymentMethod: %v", err)
	}
	if got := defaults(); len(got) != 1 || got[0] != first {
		t.Fatalf("expected oldest remaining method promoted, got %v", got)
	}

	if err := f.billing.DeletePaymentMethod(ctx, uuid.NewString(), first); !errors.Is(err, utils.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := f.billing.SetDefaultPaymentMethod(ctx, userID, "not-a-uuid"); !errors.Is(err, utils.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCancelSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.login(t)

	sub, _ := f.billing.GetUserSubscription(ctx, userID)
	canceled, err := f.billing.CancelSubscription(ctx, userID, sub.ID)
	if err != nil {
		t.Fatalf("CancelSubscription: %v", err)
	}
	if canceled.Status != "canceled" || canceled.AutoRenew {
		t.Fatalf("unexpected canceled subscription %+v", canceled)
	}
	if _, err := f.billing.CancelSubscription(ctx, userID, sub.ID); !errors.Is(err, utils.ErrInvalidTransition) {
		t.Fatalf("expected second cancel rejected, got %v", err)
	}

	plans, _ := f.billing.ListPlans(ctx)
	renewed, err := f.billing.CreateSubscription(ctx, userID, plans[0].ID)
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	if renewed.Status != "active" || renewed.UsageCount != 0 || renewed.ID == sub.ID {
		t.Fatalf("unexpected new subscription %+v", renewed)
	}
	current, _ := f.billing.GetUserSubscription(ctx, userID)
	if current.ID != renewed.ID {
		t.Fatalf("expected the new subscription to be current")
	}
}
