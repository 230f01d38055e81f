package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// HealthCheck is one submitted intake form.
type HealthCheck struct {
	BaseModel
	AccountID      uuid.UUID `gorm:"type:uuid;index"`
	Age            int
	Sex            string `gorm:"size:1"`
	ChestPainType  int
	RestingBP      int
	Cholesterol    int
	FastingBS      int
	RestingECG     int
	MaxHR          int
	ExerciseAngina bool
	Oldpeak        float64
	STSlope        int
}

type Prediction struct {
	BaseModel
	CheckID         uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	AccountID       uuid.UUID `gorm:"type:uuid;index"`
	RiskLevel       string    `gorm:"size:16"`
	Confidence      float64
	Probabilities   datatypes.JSON
	Recommendations datatypes.JSON

	Check HealthCheck `gorm:"foreignKey:CheckID"`
}
