package response_models

type PaymentResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"userId"`
	TransactionID string  `json:"transactionId,omitempty"`
	Amount        int64   `json:"amount"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	Method        string  `json:"method"`
	Plan          string  `json:"plan"`
	CreatedAt     string  `json:"createdAt"`
	RefundedAt    *string `json:"refundedAt,omitempty"`
}

type PaymentMethodResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Type      string `json:"type"`
	Brand     string `json:"brand,omitempty"`
	Last4     string `json:"last4"`
	IsDefault bool   `json:"isDefault"`
}
