package response_models

type CheckResponse struct {
	ID             string  `json:"id"`
	UserID         string  `json:"userId"`
	Age            int     `json:"age"`
	Sex            string  `json:"sex"`
	ChestPainType  int     `json:"chestPainType"`
	RestingBP      int     `json:"restingBP"`
	Cholesterol    int     `json:"cholesterol"`
	FastingBS      int     `json:"fastingBS"`
	RestingECG     int     `json:"restingECG"`
	MaxHR          int     `json:"maxHR"`
	ExerciseAngina bool    `json:"exerciseAngina"`
	Oldpeak        float64 `json:"oldpeak"`
	STSlope        int     `json:"stSlope"`
	CreatedAt      string  `json:"createdAt"`
}

type PredictionResponse struct {
	ID              string             `json:"id"`
	CheckID         string             `json:"checkId"`
	Age             int                `json:"age"`
	Sex             string             `json:"sex"`
	RiskLevel       string             `json:"riskLevel"`
	Confidence      float64            `json:"confidence"`
	Probabilities   map[string]float64 `json:"probabilities"`
	Recommendations []string           `json:"recommendations"`
	CreatedAt       string             `json:"createdAt"`
}
