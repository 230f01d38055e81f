package services

import (
	"cardiocheck/internal/api/client"
	"cardiocheck/internal/models/domain_models"
	"cardiocheck/internal/models/response_models"
	"cardiocheck/pkg/logger"
	"cardiocheck/pkg/utils"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// TotalSteps is the number of pages the intake form is split into.
const TotalSteps = 3

var stepFields = [TotalSteps][]domain_models.FormField{
	{domain_models.FieldAge, domain_models.FieldSex, domain_models.FieldChestPainType},
	{domain_models.FieldRestingBP, domain_models.FieldCholesterol, domain_models.FieldFastingBS, domain_models.FieldMaxHR},
	{domain_models.FieldRestingECG, domain_models.FieldExerciseAngina, domain_models.FieldOldpeak, domain_models.FieldSTSlope},
}

// StepFields returns the fields collected on a step, or nil when step is
// out of range.
func StepFields(step int) []domain_models.FormField {
	if step < 0 || step >= TotalSteps {
		return nil
	}
	return slices.Clone(stepFields[step])
}

type AssessmentAPI interface {
	CreateCheck(ctx context.Context, userID string, form domain_models.AssessmentForm) (response_models.CheckResponse, error)
	RequestPrediction(ctx context.Context, checkID string) (response_models.PredictionResponse, error)
	ListPredictions(ctx context.Context, userID string) ([]response_models.PredictionResponse, error)
}

// AssessmentState is a copy of the engine state; mutating it has no effect
// on the engine.
type AssessmentState struct {
	FormData       domain_models.AssessmentForm
	CurrentStep    int
	TotalSteps     int
	Results        []domain_models.AssessmentResult
	LatestResult   *domain_models.AssessmentResult
	IsSubmitting   bool
	IsLoading      bool
	Error          string
	PendingCheckID string
}

// SubmissionError reports a submission whose check was stored but whose
// prediction failed. ResumeSubmission retries the prediction for CheckID.
type SubmissionError struct {
	CheckID string
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("prediction for check %s failed: %v", e.CheckID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

type AssessmentService interface {
	UpdateFormData(partial domain_models.AssessmentForm)
	ClearFormFields(fields ...domain_models.FormField)
	SetStep(n int)
	NextStep()
	PrevStep()
	IsFormValid() bool
	IsStepComplete(step int) bool
	ResetForm()
	SubmitAssessment(ctx context.Context, userID string) (*domain_models.AssessmentResult, error)
	ResumeSubmission(ctx context.Context) (*domain_models.AssessmentResult, error)
	LoadResults(ctx context.Context, userID string) error
	AddResult(r domain_models.AssessmentResult)
	SetResults(list []domain_models.AssessmentResult)
	ClearResults()
	ClearError()
	State() AssessmentState
}

type assessmentService struct {
	api AssessmentAPI
	bus *EventBus
	log *logger.Logger

	mu            sync.Mutex
	form          domain_models.AssessmentForm
	step          int
	results       []domain_models.AssessmentResult
	submitting    bool
	loading       bool
	err           string
	pendingCheck  string
	pendingUserID string
}

func NewAssessmentService(api AssessmentAPI, bus *EventBus, log *logger.Logger) AssessmentService {
	return &assessmentService{
		api: api,
		bus: bus,
		log: log.With("service", "AssessmentService"),
	}
}

func (s *assessmentService) UpdateFormData(partial domain_models.AssessmentForm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = s.form.Merge(partial.Clone())
}

func (s *assessmentService) ClearFormFields(fields ...domain_models.FormField) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = s.form.Clear(fields...)
}

// SetStep ignores targets outside [0, TotalSteps).
func (s *assessmentService) SetStep(n int) {
	if n < 0 || n >= TotalSteps {
		return
	}
	s.mu.Lock()
	s.step = n
	s.mu.Unlock()
}

func (s *assessmentService) NextStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step < TotalSteps-1 {
		s.step++
	}
}

func (s *assessmentService) PrevStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step > 0 {
		s.step--
	}
}

func (s *assessmentService) IsFormValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.IsComplete()
}

func (s *assessmentService) IsStepComplete(step int) bool {
	fields := StepFields(step)
	if fields == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fields {
		if !s.form.Has(f) {
			return false
		}
	}
	return true
}

// ResetForm empties the form, returns to the first step and drops any
// check left waiting for a prediction. History is kept.
func (s *assessmentService) ResetForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = domain_models.AssessmentForm{}
	s.step = 0
	s.err = ""
	s.submitting = false
	s.pendingCheck = ""
	s.pendingUserID = ""
}

func (s *assessmentService) SubmitAssessment(ctx context.Context, userID string) (*domain_models.AssessmentResult, error) {
	s.mu.Lock()
	if missing := s.form.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, f := range missing {
			names[i] = string(f)
		}
		verr := utils.NewValidationError("Please complete all required fields: "+strings.Join(names, ", "), utils.ErrFormIncomplete)
		s.err = verr.Message
		s.mu.Unlock()
		return nil, verr
	}
	form := s.form.Clone()
	s.submitting = true
	s.err = ""
	s.pendingCheck = ""
	s.pendingUserID = ""
	s.mu.Unlock()

	check, err := s.api.CreateCheck(ctx, userID, form)
	if err != nil {
		s.log.Warn("create check failed", "user_id", userID, "error", err)
		s.fail(err)
		return nil, err
	}
	if check.ID == "" {
		err := utils.NewDomainError("", "MISSING_CHECK_ID")
		s.fail(err)
		return nil, err
	}

	return s.predict(ctx, userID, check.ID)
}

// ResumeSubmission runs only the prediction phase for the check left behind
// by a failed submission.
func (s *assessmentService) ResumeSubmission(ctx context.Context) (*domain_models.AssessmentResult, error) {
	s.mu.Lock()
	checkID, userID := s.pendingCheck, s.pendingUserID
	if checkID == "" {
		s.mu.Unlock()
		return nil, utils.NewValidationError("There is no assessment waiting for a result.", utils.ErrNoPendingCheck)
	}
	s.submitting = true
	s.err = ""
	s.mu.Unlock()

	return s.predict(ctx, userID, checkID)
}

func (s *assessmentService) predict(ctx context.Context, userID, checkID string) (*domain_models.AssessmentResult, error) {
	prediction, err := s.api.RequestPrediction(ctx, checkID)
	if err == nil {
		var result domain_models.AssessmentResult
		if result, err = toResult(prediction); err == nil {
			if result.CheckID == "" {
				result.CheckID = checkID
			}
			s.commit(userID, result)
			s.bus.PublishAssessmentCompleted(ctx, AssessmentCompleted{UserID: userID, Result: result.Clone()})
			out := result.Clone()
			return &out, nil
		}
	}

	s.log.Warn("prediction failed", "user_id", userID, "check_id", checkID, "error", err)
	s.mu.Lock()
	s.submitting = false
	s.err = utils.UserMessage(err)
	s.pendingCheck = checkID
	s.pendingUserID = userID
	s.mu.Unlock()
	return nil, &SubmissionError{CheckID: checkID, Err: err}
}

func (s *assessmentService) commit(userID string, result domain_models.AssessmentResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append([]domain_models.AssessmentResult{result}, s.results...)
	s.submitting = false
	s.err = ""
	s.pendingCheck = ""
	s.pendingUserID = ""
	s.form = domain_models.AssessmentForm{}
	s.step = 0
	s.log.Info("assessment recorded", "user_id", userID, "check_id", result.CheckID, "risk", result.RiskLevel)
}

func (s *assessmentService) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	s.err = utils.UserMessage(err)
}

// LoadResults replaces the history with the server's, newest first. On
// failure the current history is left as it was.
func (s *assessmentService) LoadResults(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	list, err := s.api.ListPredictions(ctx, userID)
	var results []domain_models.AssessmentResult
	if err == nil {
		results = make([]domain_models.AssessmentResult, 0, len(list))
		for _, p := range list {
			r, mapErr := toResult(p)
			if mapErr != nil {
				err = mapErr
				break
			}
			results = append(results, r)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = utils.UserMessage(err)
		return err
	}
	slices.SortStableFunc(results, func(a, b domain_models.AssessmentResult) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	s.results = results
	s.err = ""
	return nil
}

// AddResult prepends r, making it the latest result.
func (s *assessmentService) AddResult(r domain_models.AssessmentResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append([]domain_models.AssessmentResult{r.Clone()}, s.results...)
}

func (s *assessmentService) SetResults(list []domain_models.AssessmentResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = cloneResults(list)
}

func (s *assessmentService) ClearResults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = nil
}

func (s *assessmentService) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

func (s *assessmentService) State() AssessmentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := AssessmentState{
		FormData:       s.form.Clone(),
		CurrentStep:    s.step,
		TotalSteps:     TotalSteps,
		Results:        cloneResults(s.results),
		IsSubmitting:   s.submitting,
		IsLoading:      s.loading,
		Error:          s.err,
		PendingCheckID: s.pendingCheck,
	}
	if len(s.results) > 0 {
		latest := s.results[0].Clone()
		st.LatestResult = &latest
	}
	return st
}

func cloneResults(list []domain_models.AssessmentResult) []domain_models.AssessmentResult {
	if list == nil {
		return nil
	}
	out := make([]domain_models.AssessmentResult, len(list))
	for i, r := range list {
		out[i] = r.Clone()
	}
	return out
}

// toResult maps a prediction and turns a rejected one into a user-facing
// domain error.
func toResult(p response_models.PredictionResponse) (domain_models.AssessmentResult, error) {
	r, err := client.ToAssessmentResult(p)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidPrediction) {
			de := utils.NewDomainError("We could not read the prediction. Please try again.", "INVALID_PREDICTION")
			de.Err = err
			return r, de
		}
		return r, err
	}
	return r, nil
}
