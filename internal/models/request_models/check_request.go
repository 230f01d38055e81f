package request_models

// CreateCheckRequest carries a complete intake form; every field is required
// so the sandbox rejects partial forms the same way the real backend does.
type CreateCheckRequest struct {
	UserID         string   `json:"userId" binding:"required"`
	Age            *int     `json:"age" binding:"required,gt=0,lt=130"`
	Sex            *string  `json:"sex" binding:"required,oneof=M F"`
	ChestPainType  *int     `json:"chestPainType" binding:"required,min=0,max=3"`
	RestingBP      *int     `json:"restingBP" binding:"required,gt=0"`
	Cholesterol    *int     `json:"cholesterol" binding:"required,min=0"`
	FastingBS      *int     `json:"fastingBS" binding:"required,min=0"`
	RestingECG     *int     `json:"restingECG" binding:"required,min=0,max=2"`
	MaxHR          *int     `json:"maxHR" binding:"required,gt=0"`
	ExerciseAngina *bool    `json:"exerciseAngina" binding:"required"`
	Oldpeak        *float64 `json:"oldpeak" binding:"required"`
	STSlope        *int     `json:"stSlope" binding:"required,min=0,max=2"`
}

type PredictionRequest struct {
	CheckID string `json:"checkId" binding:"required"`
}
