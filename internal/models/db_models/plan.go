package db_models

import (
	"gorm.io/datatypes"
)

type PlanType string

const (
	PlanTypeFree    PlanType = "free"
	PlanTypePremium PlanType = "premium"
)

type Plan struct {
	BaseModel
	Code        string `gorm:"uniqueIndex;size:64"` // e.g. "free", "premium_monthly"
	Name        string
	Description *string
	PlanType    PlanType      `gorm:"size:16"`
	Period      BillingPeriod `gorm:"size:16"`
	PriceMinor  int64         // 999 = $9.99
	Currency    string        `gorm:"size:3"`
	UsageLimit  int           // assessments per period
	IsPopular   bool
	IsActive    bool           `gorm:"default:true"`
	Features    datatypes.JSON // JSON array of strings
}

// DurationDays is the length of one billing period.
func (p Plan) DurationDays() int {
	if p.Period == PeriodYear {
		return 365
	}
	return 30
}
