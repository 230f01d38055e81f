package client

import (
	"cardiocheck/internal/models/domain_models"
	"cardiocheck/internal/models/request_models"
	"cardiocheck/internal/models/response_models"
	"context"
	"net/http"
	"net/url"
)

// API is the typed surface of the backend. Every method goes through the
// authenticated pipeline.
type API struct {
	p *Pipeline
}

func NewAPI(p *Pipeline) *API {
	return &API{p: p}
}

// ---- auth ----

func (a *API) Login(ctx context.Context, email, password string) (response_models.LoginResponse, error) {
	return call[response_models.LoginResponse](ctx, a.p, &Request{
		Method:   http.MethodPost,
		Path:     "/auth/login",
		Body:     request_models.LoginRequest{Email: email, Password: password},
		SkipAuth: true,
	})
}

func (a *API) Logout(ctx context.Context, refreshToken string) error {
	_, err := call[any](ctx, a.p, &Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Body:   request_models.RefreshRequest{RefreshToken: refreshToken},
	})
	return err
}

// ---- assessment ----

func (a *API) CreateCheck(ctx context.Context, userID string, form domain_models.AssessmentForm) (response_models.CheckResponse, error) {
	return call[response_models.CheckResponse](ctx, a.p, &Request{
		Method: http.MethodPost,
		Path:   "/checks",
		Body: request_models.CreateCheckRequest{
			UserID:         userID,
			Age:            form.Age,
			Sex:            form.Sex,
			ChestPainType:  form.ChestPainType,
			RestingBP:      form.RestingBP,
			Cholesterol:    form.Cholesterol,
			FastingBS:      form.FastingBS,
			RestingECG:     form.RestingECG,
			MaxHR:          form.MaxHR,
			ExerciseAngina: form.ExerciseAngina,
			Oldpeak:        form.Oldpeak,
			STSlope:        form.STSlope,
		},
	})
}

func (a *API) RequestPrediction(ctx context.Context, checkID string) (response_models.PredictionResponse, error) {
	return call[response_models.PredictionResponse](ctx, a.p, &Request{
		Method: http.MethodPost,
		Path:   "/predictions",
		Body:   request_models.PredictionRequest{CheckID: checkID},
	})
}

func (a *API) ListPredictions(ctx context.Context, userID string) ([]response_models.PredictionResponse, error) {
	return call[[]response_models.PredictionResponse](ctx, a.p, &Request{
		Method: http.MethodGet,
		Path:   "/predictions/user/" + url.PathEscape(userID),
	})
}

// ---- subscriptions ----

func (a *API) ListPlans(ctx context.Context) ([]domain_models.SubscriptionPlan, error) {
	plans, err := call[[]response_models.SubscriptionPlan](ctx, a.p, &Request{
		Method: http.MethodGet,
		Path:   "/subscriptions/plans",
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain_models.SubscriptionPlan, 0, len(plans))
	for _, p := range plans {
		out = append(out, ToPlan(p))
	}
	return out, nil
}

// GetUserSubscription returns nil when the user has never subscribed.
func (a *API) GetUserSubscription(ctx context.Context, userID string) (*domain_models.Subscription, error) {
	sub, err := call[*response_models.SubscriptionResponse](ctx, a.p, &Request{
		Method: http.MethodGet,
		Path:   "/subscriptions/user/" + url.PathEscape(userID),
	})
	if err != nil || sub == nil {
		return nil, err
	}
	out, err := ToSubscription(*sub)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) CreateSubscription(ctx context.Context, userID, planID string) (domain_models.Subscription, error) {
	return a.subscriptionCall(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/subscriptions",
		Body:   request_models.CreateSubscriptionRequest{UserID: userID, PlanID: planID},
	})
}

func (a *API) CancelSubscription(ctx context.Context, subscriptionID string) (domain_models.Subscription, error) {
	return a.subscriptionCall(ctx, &Request{
		Method: http.MethodPut,
		Path:   "/subscriptions/" + url.PathEscape(subscriptionID) + "/cancel",
	})
}

func (a *API) subscriptionCall(ctx context.Context, req *Request) (domain_models.Subscription, error) {
	sub, err := call[response_models.SubscriptionResponse](ctx, a.p, req)
	if err != nil {
		return domain_models.Subscription{}, err
	}
	return ToSubscription(sub)
}

// ---- payments ----

func (a *API) CreatePayment(ctx context.Context, req domain_models.PaymentRequest) (response_models.PaymentResponse, error) {
	return call[response_models.PaymentResponse](ctx, a.p, &Request{
		Method: http.MethodPost,
		Path:   "/payments",
		Body: request_models.CreatePaymentRequest{
			UserID:          req.UserID,
			PlanID:          req.PlanID,
			PaymentMethodID: req.PaymentMethodID,
			Amount:          req.Amount,
			Currency:        req.Currency,
		},
	})
}

func (a *API) CompletePayment(ctx context.Context, paymentID, transactionID string) (domain_models.Payment, error) {
	return a.paymentTransition(ctx, paymentID, "complete", request_models.CompletePaymentRequest{TransactionID: transactionID})
}

func (a *API) CancelPayment(ctx context.Context, paymentID string) (domain_models.Payment, error) {
	return a.paymentTransition(ctx, paymentID, "cancel", nil)
}

func (a *API) RefundPayment(ctx context.Context, paymentID string) (domain_models.Payment, error) {
	return a.paymentTransition(ctx, paymentID, "refund", nil)
}

func (a *API) paymentTransition(ctx context.Context, paymentID, action string, body any) (domain_models.Payment, error) {
	p, err := call[response_models.PaymentResponse](ctx, a.p, &Request{
		Method: http.MethodPut,
		Path:   "/payments/" + url.PathEscape(paymentID) + "/" + action,
		Body:   body,
	})
	if err != nil {
		return domain_models.Payment{}, err
	}
	return ToPayment(p)
}

func (a *API) ListPayments(ctx context.Context, userID string) ([]domain_models.Payment, error) {
	list, err := call[[]response_models.PaymentResponse](ctx, a.p, &Request{
		Method: http.MethodGet,
		Path:   "/payments/user/" + url.PathEscape(userID),
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain_models.Payment, 0, len(list))
	for _, p := range list {
		mapped, err := ToPayment(p)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped)
	}
	return out, nil
}

func (a *API) ListPaymentMethods(ctx context.Context, userID string) ([]domain_models.PaymentMethod, error) {
	list, err := call[[]response_models.PaymentMethodResponse](ctx, a.p, &Request{
		Method: http.MethodGet,
		Path:   "/payment-methods/user/" + url.PathEscape(userID),
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain_models.PaymentMethod, 0, len(list))
	for _, m := range list {
		out = append(out, ToPaymentMethod(m))
	}
	return out, nil
}

func (a *API) AddPaymentMethod(ctx context.Context, req request_models.AddPaymentMethodRequest) (domain_models.PaymentMethod, error) {
	m, err := call[response_models.PaymentMethodResponse](ctx, a.p, &Request{
		Method: http.MethodPost,
		Path:   "/payment-methods",
		Body:   req,
	})
	if err != nil {
		return domain_models.PaymentMethod{}, err
	}
	return ToPaymentMethod(m), nil
}

func (a *API) DeletePaymentMethod(ctx context.Context, methodID string) error {
	_, err := call[any](ctx, a.p, &Request{
		Method: http.MethodDelete,
		Path:   "/payment-methods/" + url.PathEscape(methodID),
	})
	return err
}

func (a *API) SetDefaultPaymentMethod(ctx context.Context, methodID string) error {
	_, err := call[any](ctx, a.p, &Request{
		Method: http.MethodPut,
		Path:   "/payment-methods/" + url.PathEscape(methodID) + "/default",
	})
	return err
}
