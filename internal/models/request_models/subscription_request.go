package request_models

type CreateSubscriptionRequest struct {
	UserID string `json:"userId" binding:"required"`
	PlanID string `json:"planId" binding:"required"`
}
