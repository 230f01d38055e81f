package request_models

type CreatePaymentRequest struct {
	UserID          string `json:"userId" binding:"required"`
	PlanID          string `json:"planId" binding:"required"`
	PaymentMethodID string `json:"paymentMethodId" binding:"required"`
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	Currency        string `json:"currency" binding:"required,len=3"`
}

type CompletePaymentRequest struct {
	TransactionID string `json:"transactionId" binding:"required"`
}

type FailPaymentRequest struct {
	Reason string `json:"reason"`
}

type AddPaymentMethodRequest struct {
	UserID    string `json:"userId" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=card bank_account wallet"`
	Brand     string `json:"brand"`
	Last4     string `json:"last4" binding:"required,len=4,numeric"`
	IsDefault bool   `json:"isDefault"`
}
