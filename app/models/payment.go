package models

import "time"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusCanceled  = "canceled"
)

// Coarse payment method categories derived from the provider's raw
// payment_method_types list.
const (
	PaymentMethodCard   = "card"
	PaymentMethodBank   = "bank"
	PaymentMethodWallet = "wallet"
	PaymentMethodOther  = "other"
)

// Payment records one provider payment intent. At most one row exists per
// ExternalID; redeliveries of the same intent update the status in place
// instead of inserting a duplicate.
type Payment struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ExternalID         string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_payments_external_id" json:"external_id"`
	ExternalCustomerID string    `gorm:"type:varchar(191);not null;default:'';index" json:"external_customer_id"`
	Amount             int64     `gorm:"not null;default:0" json:"amount"` // minor units
	Currency           string    `gorm:"type:varchar(8);not null;default:''" json:"currency"`
	Status             string    `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	Description        string    `gorm:"type:text" json:"description"`
	PaymentMethod      string    `gorm:"type:varchar(16);not null;default:'other'" json:"payment_method"`
	UserID             *uint     `gorm:"index;default:null" json:"user_id,omitempty"`
	SubscriptionID     *uint     `gorm:"index;default:null" json:"subscription_id,omitempty"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
