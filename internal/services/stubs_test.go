package services

import (
	"cardiocheck/internal/models/domain_models"
	"cardiocheck/internal/models/request_models"
	"cardiocheck/internal/models/response_models"
	"cardiocheck/pkg/logger"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var errStub = errors.New("stub failure")

func ptr[T any](v T) *T { return &v }

func completeForm() domain_models.AssessmentForm {
	return domain_models.AssessmentForm{
		Age:            ptr(50),
		Sex:            ptr("M"),
		ChestPainType:  ptr(0),
		RestingBP:      ptr(120),
		Cholesterol:    ptr(200),
		FastingBS:      ptr(100),
		RestingECG:     ptr(0),
		MaxHR:          ptr(150),
		ExerciseAngina: ptr(false),
		Oldpeak:        ptr(1.0),
		STSlope:        ptr(1),
	}
}

// stubAssessmentAPI records calls and answers with canned data.
type stubAssessmentAPI struct {
	mu             sync.Mutex
	checkErr       error
	predictErr     error
	listErr        error
	risk           string
	confidence     float64
	history        []response_models.PredictionResponse
	checkCalls     int
	predictCalls   int
	lastForm       domain_models.AssessmentForm
	predictedCheck string
}

func (s *stubAssessmentAPI) CreateCheck(ctx context.Context, userID string, form domain_models.AssessmentForm) (response_models.CheckResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkCalls++
	s.lastForm = form
	if s.checkErr != nil {
		return response_models.CheckResponse{}, s.checkErr
	}
	return response_models.CheckResponse{ID: fmt.Sprintf("check-%d", s.checkCalls), UserID: userID}, nil
}

func (s *stubAssessmentAPI) RequestPrediction(ctx context.Context, checkID string) (response_models.PredictionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predictCalls++
	s.predictedCheck = checkID
	if s.predictErr != nil {
		return response_models.PredictionResponse{}, s.predictErr
	}
	risk := s.risk
	if risk == "" {
		risk = "low"
	}
	return response_models.PredictionResponse{
		ID:              "pred-" + checkID,
		CheckID:         checkID,
		Age:             50,
		Sex:             "M",
		RiskLevel:       risk,
		Confidence:      s.confidence,
		Probabilities:   map[string]float64{"low": s.confidence, "high": 1 - s.confidence},
		Recommendations: []string{"Keep up regular exercise"},
		CreatedAt:       "2026-03-01T12:00:00Z",
	}, nil
}

func (s *stubAssessmentAPI) ListPredictions(ctx context.Context, userID string) ([]response_models.PredictionResponse, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.history, nil
}

type stubSubscriptionAPI struct {
	mu         sync.Mutex
	plans      []domain_models.SubscriptionPlan
	sub        *domain_models.Subscription
	plansErr   error
	subErr     error
	createErr  error
	subCalls   int
	canceledID string
}

func (s *stubSubscriptionAPI) ListPlans(ctx context.Context) ([]domain_models.SubscriptionPlan, error) {
	if s.plansErr != nil {
		return nil, s.plansErr
	}
	return s.plans, nil
}

func (s *stubSubscriptionAPI) GetUserSubscription(ctx context.Context, userID string) (*domain_models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subCalls++
	if s.subErr != nil {
		return nil, s.subErr
	}
	return s.sub, nil
}

func (s *stubSubscriptionAPI) CreateSubscription(ctx context.Context, userID, planID string) (domain_models.Subscription, error) {
	if s.createErr != nil {
		return domain_models.Subscription{}, s.createErr
	}
	return domain_models.Subscription{
		ID: "sub-new", UserID: userID, PlanID: planID, PlanType: domain_models.PlanPremium,
		Status: domain_models.SubStatusActive, EndDate: time.Now().Add(30 * 24 * time.Hour), UsageLimit: 100,
	}, nil
}

func (s *stubSubscriptionAPI) CancelSubscription(ctx context.Context, id string) (domain_models.Subscription, error) {
	s.canceledID = id
	return domain_models.Subscription{ID: id, Status: domain_models.SubStatusCanceled}, nil
}

type stubPaymentAPI struct {
	createErr   error
	completeErr error
	refundErr   error
	cancelErr   error
	history     []domain_models.Payment
	methods     []domain_models.PaymentMethod
	lastCreate  domain_models.PaymentRequest
	completedTx string
	listCalls   int
	deleted     []string
	defaulted   []string
}

func (s *stubPaymentAPI) CreatePayment(ctx context.Context, req domain_models.PaymentRequest) (response_models.PaymentResponse, error) {
	s.lastCreate = req
	if s.createErr != nil {
		return response_models.PaymentResponse{}, s.createErr
	}
	return response_models.PaymentResponse{ID: "pay-1", UserID: req.UserID, TransactionID: "txn-1", Amount: req.Amount, Status: "pending"}, nil
}

func (s *stubPaymentAPI) CompletePayment(ctx context.Context, paymentID, transactionID string) (domain_models.Payment, error) {
	s.completedTx = transactionID
	if s.completeErr != nil {
		return domain_models.Payment{}, s.completeErr
	}
	return domain_models.Payment{
		ID: paymentID, UserID: s.lastCreate.UserID, TransactionID: transactionID,
		Amount: s.lastCreate.Amount, Currency: s.lastCreate.Currency, Status: domain_models.PaymentSuccess,
	}, nil
}

func (s *stubPaymentAPI) CancelPayment(ctx context.Context, paymentID string) (domain_models.Payment, error) {
	if s.cancelErr != nil {
		return domain_models.Payment{}, s.cancelErr
	}
	return domain_models.Payment{ID: paymentID, UserID: "u1", Status: domain_models.PaymentCanceled}, nil
}

func (s *stubPaymentAPI) RefundPayment(ctx context.Context, paymentID string) (domain_models.Payment, error) {
	if s.refundErr != nil {
		return domain_models.Payment{}, s.refundErr
	}
	return domain_models.Payment{ID: paymentID, UserID: "u1", Status: domain_models.PaymentRefunded}, nil
}

func (s *stubPaymentAPI) ListPayments(ctx context.Context, userID string) ([]domain_models.Payment, error) {
	s.listCalls++
	return s.history, nil
}

func (s *stubPaymentAPI) ListPaymentMethods(ctx context.Context, userID string) ([]domain_models.PaymentMethod, error) {
	return s.methods, nil
}

func (s *stubPaymentAPI) AddPaymentMethod(ctx context.Context, req request_models.AddPaymentMethodRequest) (domain_models.PaymentMethod, error) {
	return domain_models.PaymentMethod{
		ID: "pm-" + req.Last4, UserID: req.UserID, Type: domain_models.PaymentMethodType(req.Type),
		Last4: req.Last4, IsDefault: req.IsDefault,
	}, nil
}

func (s *stubPaymentAPI) DeletePaymentMethod(ctx context.Context, methodID string) error {
	s.deleted = append(s.deleted, methodID)
	return nil
}

func (s *stubPaymentAPI) SetDefaultPaymentMethod(ctx context.Context, methodID string) error {
	s.defaulted = append(s.defaulted, methodID)
	return nil
}

func newTestBus() *EventBus { return NewEventBus(logger.Nop()) }
