package services

import (
	"cardiocheck/internal/models/domain_models"
	"cardiocheck/internal/models/request_models"
	"cardiocheck/internal/models/response_models"
	"cardiocheck/pkg/logger"
	"cardiocheck/pkg/utils"
	"context"
	"slices"
	"sync"
)

type PaymentAPI interface {
	CreatePayment(ctx context.Context, req domain_models.PaymentRequest) (response_models.PaymentResponse, error)
	CompletePayment(ctx context.Context, paymentID, transactionID string) (domain_models.Payment, error)
	CancelPayment(ctx context.Context, paymentID string) (domain_models.Payment, error)
	RefundPayment(ctx context.Context, paymentID string) (domain_models.Payment, error)
	ListPayments(ctx context.Context, userID string) ([]domain_models.Payment, error)
	ListPaymentMethods(ctx context.Context, userID string) ([]domain_models.PaymentMethod, error)
	AddPaymentMethod(ctx context.Context, req request_models.AddPaymentMethodRequest) (domain_models.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, methodID string) error
	SetDefaultPaymentMethod(ctx context.Context, methodID string) error
}

type PaymentState struct {
	Payments       []domain_models.Payment
	PaymentMethods []domain_models.PaymentMethod
	SelectedMethod *domain_models.PaymentMethod
	IsProcessing   bool
	Error          string
}

type PaymentService interface {
	StartPayment() bool
	CompletePayment(p domain_models.Payment)
	FailPayment(message string)

	SetPayments(list []domain_models.Payment)
	SetPaymentMethods(list []domain_models.PaymentMethod)
	AddPaymentMethod(m domain_models.PaymentMethod)
	RemovePaymentMethod(id string)
	SetDefaultMethod(id string) bool
	GetDefaultPaymentMethod() (domain_models.PaymentMethod, bool)
	SelectMethod(id string) bool
	ClearError()

	ProcessPayment(ctx context.Context, req domain_models.PaymentRequest) (domain_models.Payment, error)
	CancelPayment(ctx context.Context, paymentID string) error
	RefundPayment(ctx context.Context, paymentID string) error
	LoadPayments(ctx context.Context, userID string) error
	LoadPaymentMethods(ctx context.Context, userID string) error
	SavePaymentMethod(ctx context.Context, req request_models.AddPaymentMethodRequest) (domain_models.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, methodID string) error
	MakeDefaultMethod(ctx context.Context, methodID string) error

	State() PaymentState
}

// paymentService keeps the default method as a separate id, so a list with
// two defaults cannot be represented. The IsDefault flag on stored methods
// is always false and is filled in on the way out.
type paymentService struct {
	api PaymentAPI
	bus *EventBus
	log *logger.Logger

	mu         sync.Mutex
	payments   []domain_models.Payment
	methods    []domain_models.PaymentMethod
	defaultID  string
	selectedID string
	processing bool
	err        string
}

func NewPaymentService(api PaymentAPI, bus *EventBus, log *logger.Logger) PaymentService {
	return &paymentService{
		api: api,
		bus: bus,
		log: log.With("service", "PaymentService"),
	}
}

// StartPayment moves idle to processing. It refuses, returning false, while
// another payment is in flight.
func (s *paymentService) StartPayment() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing {
		return false
	}
	s.processing = true
	s.err = ""
	return true
}

func (s *paymentService) CompletePayment(p domain_models.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append([]domain_models.Payment{clonePayment(p)}, s.payments...)
	s.processing = false
	s.err = ""
}

func (s *paymentService) FailPayment(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
	s.err = message
}

func (s *paymentService) SetPayments(list []domain_models.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = clonePayments(list)
}

// SetPaymentMethods replaces the list. The first flagged entry becomes the
// default; flags on later entries are dropped.
func (s *paymentService) SetPaymentMethods(list []domain_models.PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods = make([]domain_models.PaymentMethod, 0, len(list))
	s.defaultID = ""
	for _, m := range list {
		if m.IsDefault && s.defaultID == "" {
			s.defaultID = m.ID
		}
		m.IsDefault = false
		s.methods = append(s.methods, m)
	}
	if s.selectedID != "" && s.indexOf(s.selectedID) < 0 {
		s.selectedID = ""
	}
}

// AddPaymentMethod appends m, replacing an entry with the same id. A method
// flagged default only becomes the default when there is none yet.
func (s *paymentService) AddPaymentMethod(m domain_models.PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(m)
}

func (s *paymentService) addLocked(m domain_models.PaymentMethod) {
	flagged := m.IsDefault
	m.IsDefault = false
	if i := s.indexOf(m.ID); i >= 0 {
		s.methods[i] = m
	} else {
		s.methods = append(s.methods, m)
	}
	if flagged && s.defaultID == "" {
		s.defaultID = m.ID
	}
}

// RemovePaymentMethod never picks a new default; zero defaults is valid.
func (s *paymentService) RemovePaymentMethod(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *paymentService) removeLocked(id string) {
	s.methods = slices.DeleteFunc(s.methods, func(m domain_models.PaymentMethod) bool { return m.ID == id })
	if s.defaultID == id {
		s.defaultID = ""
	}
	if s.selectedID == id {
		s.selectedID = ""
	}
}

// SetDefaultMethod reports false, changing nothing, when id is unknown.
func (s *paymentService) SetDefaultMethod(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return false
	}
	s.defaultID = id
	return true
}

func (s *paymentService) GetDefaultPaymentMethod() (domain_models.PaymentMethod, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(s.defaultID)
	if s.defaultID == "" || i < 0 {
		return domain_models.PaymentMethod{}, false
	}
	return s.view(s.methods[i]), true
}

func (s *paymentService) SelectMethod(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return false
	}
	s.selectedID = id
	return true
}

func (s *paymentService) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

// ProcessPayment creates a pending payment and immediately completes it.
// The settled payment is prepended to history and PaymentCompleted is
// published. Without an explicit method the selected, then the default,
// method is used.
func (s *paymentService) ProcessPayment(ctx context.Context, req domain_models.PaymentRequest) (domain_models.Payment, error) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return domain_models.Payment{}, utils.NewValidationError("A payment is already being processed.", utils.ErrPaymentInProgress)
	}
	if req.PaymentMethodID == "" {
		if s.selectedID != "" {
			req.PaymentMethodID = s.selectedID
		} else {
			req.PaymentMethodID = s.defaultID
		}
	}
	s.processing = true
	s.err = ""
	s.mu.Unlock()

	pending, err := s.api.CreatePayment(ctx, req)
	if err != nil {
		return s.processFailed(req, err)
	}
	settled, err := s.api.CompletePayment(ctx, pending.ID, pending.TransactionID)
	if err != nil {
		return s.processFailed(req, err)
	}

	s.mu.Lock()
	s.payments = append([]domain_models.Payment{clonePayment(settled)}, s.payments...)
	s.processing = false
	s.err = ""
	s.mu.Unlock()

	s.log.Info("payment completed", "user_id", settled.UserID, "payment_id", settled.ID, "amount", settled.Amount)
	s.bus.PublishPaymentCompleted(ctx, PaymentCompleted{Payment: clonePayment(settled)})
	return settled, nil
}

func (s *paymentService) processFailed(req domain_models.PaymentRequest, err error) (domain_models.Payment, error) {
	s.log.Warn("payment failed", "user_id", req.UserID, "plan_id", req.PlanID, "error", err)
	s.mu.Lock()
	s.processing = false
	s.err = utils.UserMessage(err)
	s.mu.Unlock()
	return domain_models.Payment{}, err
}

// CancelPayment and RefundPayment never edit history in place: after the
// server accepts the transition the whole list is reloaded.
func (s *paymentService) CancelPayment(ctx context.Context, paymentID string) error {
	return s.transition(ctx, paymentID, s.api.CancelPayment)
}

func (s *paymentService) RefundPayment(ctx context.Context, paymentID string) error {
	return s.transition(ctx, paymentID, s.api.RefundPayment)
}

func (s *paymentService) transition(ctx context.Context, paymentID string, call func(context.Context, string) (domain_models.Payment, error)) error {
	p, err := call(ctx, paymentID)
	if err != nil {
		s.setError(err)
		return err
	}
	return s.LoadPayments(ctx, p.UserID)
}

func (s *paymentService) LoadPayments(ctx context.Context, userID string) error {
	list, err := s.api.ListPayments(ctx, userID)
	if err != nil {
		s.setError(err)
		return err
	}
	s.mu.Lock()
	s.payments = clonePayments(list)
	s.err = ""
	s.mu.Unlock()
	return nil
}

func (s *paymentService) LoadPaymentMethods(ctx context.Context, userID string) error {
	list, err := s.api.ListPaymentMethods(ctx, userID)
	if err != nil {
		s.setError(err)
		return err
	}
	s.SetPaymentMethods(list)
	s.ClearError()
	return nil
}

// SavePaymentMethod stores a method remotely and mirrors the server's
// decision about the default.
func (s *paymentService) SavePaymentMethod(ctx context.Context, req request_models.AddPaymentMethodRequest) (domain_models.PaymentMethod, error) {
	m, err := s.api.AddPaymentMethod(ctx, req)
	if err != nil {
		s.setError(err)
		return domain_models.PaymentMethod{}, err
	}
	s.mu.Lock()
	s.addLocked(m)
	if m.IsDefault {
		s.defaultID = m.ID
	}
	s.err = ""
	s.mu.Unlock()
	return m, nil
}

// DeletePaymentMethod removes the method remotely. Deleting the default
// reloads the list so the default the server promoted is mirrored.
func (s *paymentService) DeletePaymentMethod(ctx context.Context, methodID string) error {
	if err := s.api.DeletePaymentMethod(ctx, methodID); err != nil {
		s.setError(err)
		return err
	}
	s.mu.Lock()
	wasDefault := methodID != "" && s.defaultID == methodID
	userID := ""
	if i := s.indexOf(methodID); i >= 0 {
		userID = s.methods[i].UserID
	}
	s.removeLocked(methodID)
	s.err = ""
	s.mu.Unlock()

	if wasDefault && userID != "" {
		if err := s.LoadPaymentMethods(ctx, userID); err != nil {
			s.log.Warn("reload payment methods after deleting default failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

func (s *paymentService) MakeDefaultMethod(ctx context.Context, methodID string) error {
	if err := s.api.SetDefaultPaymentMethod(ctx, methodID); err != nil {
		s.setError(err)
		return err
	}
	s.mu.Lock()
	if s.indexOf(methodID) >= 0 {
		s.defaultID = methodID
	}
	s.err = ""
	s.mu.Unlock()
	return nil
}

func (s *paymentService) State() PaymentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := PaymentState{
		Payments:       clonePayments(s.payments),
		PaymentMethods: make([]domain_models.PaymentMethod, len(s.methods)),
		IsProcessing:   s.processing,
		Error:          s.err,
	}
	for i, m := range s.methods {
		st.PaymentMethods[i] = s.view(m)
	}
	if i := s.indexOf(s.selectedID); s.selectedID != "" && i >= 0 {
		sel := s.view(s.methods[i])
		st.SelectedMethod = &sel
	}
	return st
}

func (s *paymentService) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = utils.UserMessage(err)
}

func (s *paymentService) indexOf(id string) int {
	return slices.IndexFunc(s.methods, func(m domain_models.PaymentMethod) bool { return m.ID == id })
}

func (s *paymentService) view(m domain_models.PaymentMethod) domain_models.PaymentMethod {
	m.IsDefault = s.defaultID != "" && m.ID == s.defaultID
	return m
}

func clonePayment(p domain_models.Payment) domain_models.Payment {
	if p.RefundedAt != nil {
		t := *p.RefundedAt
		p.RefundedAt = &t
	}
	return p
}

func clonePayments(list []domain_models.Payment) []domain_models.Payment {
	if list == nil {
		return nil
	}
	out := make([]domain_models.Payment, len(list))
	for i, p := range list {
		out[i] = clonePayment(p)
	}
	return out
}
