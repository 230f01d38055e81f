package sandbox

import (
	"cardiocheck/internal/models/db_models"
	"cardiocheck/internal/models/response_models"
	"cardiocheck/pkg/utils"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

func unixString(sec int64) string {
	if sec == 0 {
		return ""
	}
	return utils.FormatTimestamp(time.Unix(sec, 0))
}

func planResponse(p db_models.Plan) response_models.SubscriptionPlan {
	var features []string
	if len(p.Features) > 0 {
		_ = json.Unmarshal(p.Features, &features)
	}
	return response_models.SubscriptionPlan{
		ID:           p.ID.String(),
		Code:         p.Code,
		Name:         p.Name,
		PlanType:     string(p.PlanType),
		Price:        p.PriceMinor,
		Currency:     p.Currency,
		DurationDays: p.DurationDays(),
		Features:     features,
		IsPopular:    p.IsPopular,
	}
}

func subscriptionResponse(s db_models.Subscription) response_models.SubscriptionResponse {
	return response_models.SubscriptionResponse{
		ID:         s.ID.String(),
		UserID:     s.AccountID.String(),
		PlanID:     s.PlanID.String(),
		PlanType:   string(s.Plan.PlanType),
		Status:     string(s.Status),
		StartDate:  unixString(s.StartsAt),
		EndDate:    unixString(s.EndsAt),
		UsageLimit: s.UsageLimit,
		UsageCount: s.UsageCount,
		AutoRenew:  s.AutoRenew,
	}
}

func paymentResponse(t db_models.Transaction) response_models.PaymentResponse {
	out := response_models.PaymentResponse{
		ID:            t.ID.String(),
		UserID:        t.AccountID.String(),
		TransactionID: t.ProviderTxnID,
		Amount:        t.AmountMinor,
		Currency:      t.Currency,
		Status:        string(t.Status),
		Method:        t.PaymentMethodRef,
		Plan:          t.Plan.Name,
		CreatedAt:     unixString(t.CreatedAt),
	}
	if t.RefundedAt != nil {
		r := unixString(*t.RefundedAt)
		out.RefundedAt = &r
	}
	return out
}

func methodResponse(m db_models.PaymentMethod) response_models.PaymentMethodResponse {
	return response_models.PaymentMethodResponse{
		ID:        m.ID.String(),
		UserID:    m.AccountID.String(),
		Type:      m.Type,
		Brand:     m.Brand,
		Last4:     m.Last4,
		IsDefault: m.IsDefault,
	}
}

// methodRef is what payment history shows instead of card data.
func methodRef(m db_models.PaymentMethod) string {
	label := m.Brand
	if label == "" {
		label = strings.ReplaceAll(m.Type, "_", " ")
	}
	return fmt.Sprintf("%s ****%s", label, m.Last4)
}

func checkResponse(c db_models.HealthCheck) response_models.CheckResponse {
	return response_models.CheckResponse{
		ID:             c.ID.String(),
		UserID:         c.AccountID.String(),
		Age:            c.Age,
		Sex:            c.Sex,
		ChestPainType:  c.ChestPainType,
		RestingBP:      c.RestingBP,
		Cholesterol:    c.Cholesterol,
		FastingBS:      c.FastingBS,
		RestingECG:     c.RestingECG,
		MaxHR:          c.MaxHR,
		ExerciseAngina: c.ExerciseAngina,
		Oldpeak:        c.Oldpeak,
		STSlope:        c.STSlope,
		CreatedAt:      unixString(c.CreatedAt),
	}
}

func predictionResponse(p db_models.Prediction) response_models.PredictionResponse {
	probs := map[string]float64{}
	var recs []string
	_ = json.Unmarshal(p.Probabilities, &probs)
	_ = json.Unmarshal(p.Recommendations, &recs)
	return response_models.PredictionResponse{
		ID:              p.ID.String(),
		CheckID:         p.CheckID.String(),
		Age:             p.Check.Age,
		Sex:             p.Check.Sex,
		RiskLevel:       p.RiskLevel,
		Confidence:      p.Confidence,
		Probabilities:   probs,
		Recommendations: recs,
		CreatedAt:       unixString(p.CreatedAt),
	}
}

func jsonRaw(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
