package domain_models

import "time"

type PlanType string

const (
	PlanFree    PlanType = "free"
	PlanPremium PlanType = "premium"
)

type SubscriptionStatus string

const (
	SubStatusActive   SubscriptionStatus = "active"
	SubStatusTrial    SubscriptionStatus = "trial"
	SubStatusPastDue  SubscriptionStatus = "past_due"
	SubStatusCanceled SubscriptionStatus = "canceled"
	SubStatusExpired  SubscriptionStatus = "expired"
)

type Subscription struct {
	ID         string             `json:"id"`
	UserID     string             `json:"userId"`
	PlanID     string             `json:"planId"`
	PlanType   PlanType           `json:"planType"`
	Status     SubscriptionStatus `json:"status"`
	StartDate  time.Time          `json:"startDate"`
	EndDate    time.Time          `json:"endDate"`
	UsageLimit int                `json:"usageLimit"`
	UsageCount int                `json:"usageCount"`
	AutoRenew  bool               `json:"autoRenew"`
}

// SubscriptionPatch holds the fields to overwrite; nil leaves a field alone.
type SubscriptionPatch struct {
	PlanID     *string
	PlanType   *PlanType
	Status     *SubscriptionStatus
	StartDate  *time.Time
	EndDate    *time.Time
	UsageLimit *int
	UsageCount *int
	AutoRenew  *bool
}

func (s Subscription) Apply(p SubscriptionPatch) Subscription {
	if p.PlanID != nil {
		s.PlanID = *p.PlanID
	}
	if p.PlanType != nil {
		s.PlanType = *p.PlanType
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.StartDate != nil {
		s.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		s.EndDate = *p.EndDate
	}
	if p.UsageLimit != nil {
		s.UsageLimit = *p.UsageLimit
	}
	if p.UsageCount != nil {
		s.UsageCount = *p.UsageCount
	}
	if p.AutoRenew != nil {
		s.AutoRenew = *p.AutoRenew
	}
	return s
}

type SubscriptionPlan struct {
	ID           string   `json:"id"`
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	PlanType     PlanType `json:"planType"`
	Price        int64    `json:"price"` // minor units
	Currency     string   `json:"currency"`
	DurationDays int      `json:"durationDays"`
	Features     []string `json:"features"`
	IsPopular    bool     `json:"isPopular"`
}
