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
)

var riskLevels = []string{"low", "medium", "high"}

var recommendations = map[string][]string{
	"low": {
		"Keep up regular physical activity, at least 150 minutes a week.",
		"Maintain a balanced diet low in saturated fat and salt.",
		"Repeat the check-up once a year.",
	},
	"medium": {
		"Schedule a visit with your general practitioner within the next month.",
		"Monitor your blood pressure and cholesterol regularly.",
		"Reduce salt intake and avoid smoking.",
	},
	"high": {
		"Consult a cardiologist as soon as possible.",
		"Seek emergency care if you experience chest pain or shortness of breath.",
		"Do not start strenuous exercise before a medical evaluation.",
	},
}

// Prediction is the canned answer handed out for every check.
type Prediction struct {
	Risk       string
	Confidence float64
}

type AssessmentService interface {
	CreateCheck(ctx context.Context, userID string, req request_models.CreateCheckRequest) (response_models.CheckResponse, error)
	// Predict is idempotent per check: asking again returns the stored
	// prediction without consuming quota.
	Predict(ctx context.Context, userID, checkID string) (response_models.PredictionResponse, error)
	ListPredictions(ctx context.Context, userID string) ([]response_models.PredictionResponse, error)
}

type assessmentService struct {
	db     *gorm.DB
	checks repositories.HealthCheckRepository
	canned Prediction
	log    *logger.Logger
}

func NewAssessmentService(db *gorm.DB, checks repositories.HealthCheckRepository, canned Prediction, log *logger.Logger) AssessmentService {
	return &assessmentService{
		db:     db,
		checks: checks,
		canned: canned,
		log:    log.With("service", "sandbox.AssessmentService"),
	}
}

func (s *assessmentService) CreateCheck(ctx context.Context, userID string, req request_models.CreateCheckRequest) (response_models.CheckResponse, error) {
	accountID, err := uuid.Parse(userID)
	if err != nil {
		return response_models.CheckResponse{}, utils.ErrForbidden
	}

	check := &db_models.HealthCheck{
		AccountID:      accountID,
		Age:            *req.Age,
		Sex:            *req.Sex,
		ChestPainType:  *req.ChestPainType,
		RestingBP:      *req.RestingBP,
		Cholesterol:    *req.Cholesterol,
		FastingBS:      *req.FastingBS,
		RestingECG:     *req.RestingECG,
		MaxHR:          *req.MaxHR,
		ExerciseAngina: *req.ExerciseAngina,
		Oldpeak:        *req.Oldpeak,
		STSlope:        *req.STSlope,
	}
	if err := s.checks.InsertCheck(ctx, check); err != nil {
		return response_models.CheckResponse{}, fmt.Errorf("insert check: %w", err)
	}

	s.log.Info("check created", "user_id", userID, "check_id", check.ID.String())
	return checkResponse(*check), nil
}

func (s *assessmentService) Predict(ctx context.Context, userID, checkID string) (response_models.PredictionResponse, error) {
	check, err := s.checks.FindCheck(ctx, checkID)
	if err != nil {
		return response_models.PredictionResponse{}, fmt.Errorf("find check: %w", err)
	}
	if check == nil {
		return response_models.PredictionResponse{}, utils.ErrRecordNotFound
	}
	if check.AccountID.String() != userID {
		return response_models.PredictionResponse{}, utils.ErrForbidden
	}

	existing, err := s.checks.FindPredictionByCheck(ctx, checkID)
	if err != nil {
		return response_models.PredictionResponse{}, fmt.Errorf("find prediction: %w", err)
	}
	if existing != nil {
		return predictionResponse(*existing), nil
	}

	pred := &db_models.Prediction{
		CheckID:         check.ID,
		AccountID:       check.AccountID,
		RiskLevel:       s.canned.Risk,
		Confidence:      s.canned.Confidence,
		Probabilities:   jsonRaw(probabilities(s.canned.Risk, s.canned.Confidence)),
		Recommendations: jsonRaw(recommendations[s.canned.Risk]),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subs := repositories.NewSubscriptionRepository(tx)
		sub, err := subs.FindCurrent(ctx, userID)
		if err != nil {
			return err
		}
		if sub != nil {
			if sub.Plan.PlanType == db_models.PlanTypeFree && sub.UsageCount >= sub.UsageLimit {
				return utils.ErrQuotaExceeded
			}
			if err := subs.IncrementUsage(ctx, sub.ID.String()); err != nil {
				return err
			}
		}
		return repositories.NewHealthCheckRepository(tx).InsertPrediction(ctx, pred)
	})
	if err != nil {
		return response_models.PredictionResponse{}, err
	}

	pred.Check = *check
	s.log.Info("prediction issued", "user_id", userID, "check_id", checkID, "risk", pred.RiskLevel)
	return predictionResponse(*pred), nil
}

func (s *assessmentService) ListPredictions(ctx context.Context, userID string) ([]response_models.PredictionResponse, error) {
	list, err := s.checks.ListPredictions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	out := make([]response_models.PredictionResponse, 0, len(list))
	for _, p := range list {
		out = append(out, predictionResponse(p))
	}
	return out, nil
}

// probabilities gives risk the configured confidence and splits the rest
// evenly over the other levels.
func probabilities(risk string, confidence float64) map[string]float64 {
	rest := (1 - confidence) / float64(len(riskLevels)-1)
	out := make(map[string]float64, len(riskLevels))
	for _, level := range riskLevels {
		if level == risk {
			out[level] = confidence
		} else {
			out[level] = rest
		}
	}
	return out
}
