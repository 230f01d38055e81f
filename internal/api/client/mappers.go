package client

import (
	"cardiocheck/internal/models/domain_models"
	"cardiocheck/internal/models/response_models"
	"cardiocheck/pkg/utils"
	"fmt"
)

// ToAssessmentResult validates a prediction and turns it into a result.
// Unknown risk levels and confidences outside [0,1] are rejected.
func ToAssessmentResult(p response_models.PredictionResponse) (domain_models.AssessmentResult, error) {
	level := domain_models.RiskLevel(p.RiskLevel)
	if !level.Valid() {
		return domain_models.AssessmentResult{}, fmt.Errorf("%w: risk level %q", utils.ErrInvalidPrediction, p.RiskLevel)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return domain_models.AssessmentResult{}, fmt.Errorf("%w: confidence %v", utils.ErrInvalidPrediction, p.Confidence)
	}
	createdAt, err := utils.ParseTimestamp(p.CreatedAt)
	if err != nil {
		return domain_models.AssessmentResult{}, fmt.Errorf("%w: createdAt: %v", utils.ErrInvalidPrediction, err)
	}

	probs := make(map[string]float64, len(p.Probabilities))
	for k, v := range p.Probabilities {
		probs[k] = v
	}
	recs := append([]string(nil), p.Recommendations...)

	return domain_models.AssessmentResult{
		ID:              p.ID,
		CheckID:         p.CheckID,
		CreatedAt:       createdAt,
		Age:             p.Age,
		Sex:             p.Sex,
		RiskLevel:       level,
		Confidence:      p.Confidence,
		Probabilities:   probs,
		Recommendations: recs,
	}, nil
}

func ToSubscription(s response_models.SubscriptionResponse) (domain_models.Subscription, error) {
	start, err := utils.ParseTimestamp(s.StartDate)
	if err != nil {
		return domain_models.Subscription{}, fmt.Errorf("subscription startDate: %w", err)
	}
	end, err := utils.ParseTimestamp(s.EndDate)
	if err != nil {
		return domain_models.Subscription{}, fmt.Errorf("subscription endDate: %w", err)
	}
	return domain_models.Subscription{
		ID:         s.ID,
		UserID:     s.UserID,
		PlanID:     s.PlanID,
		PlanType:   domain_models.PlanType(s.PlanType),
		Status:     domain_models.SubscriptionStatus(s.Status),
		StartDate:  start,
		EndDate:    end,
		UsageLimit: s.UsageLimit,
		UsageCount: s.UsageCount,
		AutoRenew:  s.AutoRenew,
	}, nil
}

func ToPlan(p response_models.SubscriptionPlan) domain_models.SubscriptionPlan {
	return domain_models.SubscriptionPlan{
		ID:           p.ID,
		Code:         p.Code,
		Name:         p.Name,
		PlanType:     domain_models.PlanType(p.PlanType),
		Price:        p.Price,
		Currency:     p.Currency,
		DurationDays: p.DurationDays,
		Features:     append([]string(nil), p.Features...),
		IsPopular:    p.IsPopular,
	}
}

func ToPayment(p response_models.PaymentResponse) (domain_models.Payment, error) {
	createdAt, err := utils.ParseTimestamp(p.CreatedAt)
	if err != nil {
		return domain_models.Payment{}, fmt.Errorf("payment createdAt: %w", err)
	}
	out := domain_models.Payment{
		ID:            p.ID,
		UserID:        p.UserID,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        domain_models.PaymentStatus(p.Status),
		Method:        p.Method,
		Plan:          p.Plan,
		CreatedAt:     createdAt,
	}
	if p.RefundedAt != nil && *p.RefundedAt != "" {
		refunded, err := utils.ParseTimestamp(*p.RefundedAt)
		if err != nil {
			return domain_models.Payment{}, fmt.Errorf("payment refundedAt: %w", err)
		}
		out.RefundedAt = &refunded
	}
	return out, nil
}

func ToPaymentMethod(m response_models.PaymentMethodResponse) domain_models.PaymentMethod {
	return domain_models.PaymentMethod{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      domain_models.PaymentMethodType(m.Type),
		Brand:     m.Brand,
		Last4:     m.Last4,
		IsDefault: m.IsDefault,
	}
}
