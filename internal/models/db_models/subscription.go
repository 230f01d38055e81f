package db_models

import (
	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubStatusTrialing SubscriptionStatus = "trial"
	SubStatusActive   SubscriptionStatus = "active"
	SubStatusPastDue  SubscriptionStatus = "past_due"
	SubStatusCanceled SubscriptionStatus = "canceled"
	SubStatusExpired  SubscriptionStatus = "expired"
)

type BillingPeriod string

const (
	PeriodMonth BillingPeriod = "month"
	PeriodYear  BillingPeriod = "year"
)

type Subscription struct {
	BaseModel
	AccountID uuid.UUID `gorm:"type:uuid;index"`
	PlanID    uuid.UUID `gorm:"type:uuid;index"`

	Status     SubscriptionStatus `gorm:"size:16;index"`
	StartsAt   int64              `gorm:"not null"`
	EndsAt     int64              `gorm:"not null"`
	CanceledAt *int64
	AutoRenew  bool

	UsageLimit int
	UsageCount int

	Plan Plan `gorm:"foreignKey:PlanID"`
}
