package db_models

type Account struct {
	BaseModel
	Name         string
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string

	Subscriptions  []Subscription
	PaymentMethods []PaymentMethod
}
