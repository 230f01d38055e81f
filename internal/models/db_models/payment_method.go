package db_models

import "github.com/google/uuid"

type PaymentMethod struct {
	BaseModel
	AccountID uuid.UUID `gorm:"type:uuid;index"`
	Type      string    `gorm:"size:16"`
	Brand     string
	Last4     string `gorm:"size:4"`
	IsDefault bool
}
