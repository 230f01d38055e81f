package response_models

type SubscriptionPlan struct {
	ID           string   `json:"id"`
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	PlanType     string   `json:"planType"`
	Price        int64    `json:"price"` // minor units, 999 = $9.99
	Currency     string   `json:"currency"`
	DurationDays int      `json:"durationDays"`
	Features     []string `json:"features,omitempty"`
	IsPopular    bool     `json:"isPopular"`
}

type SubscriptionResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	PlanID     string `json:"planId"`
	PlanType   string `json:"planType"`
	Status     string `json:"status"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	UsageLimit int    `json:"usageLimit"`
	UsageCount int    `json:"usageCount"`
	AutoRenew  bool   `json:"autoRenew"`
}
