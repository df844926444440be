package models

import "time"

// Subscription statuses mirror the payment provider's vocabulary. The
// provider is authoritative: whatever status arrives is stored as-is.
const (
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusActive            = "active"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusUnpaid            = "unpaid"
)

// Subscription mirrors one provider subscription. Rows are keyed by the
// provider-assigned ExternalID and are upserted on every webhook delivery;
// they are never physically deleted (a provider delete only forces the
// status to canceled).
type Subscription struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	ExternalID         string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_subscriptions_external_id" json:"external_id"`
	ExternalCustomerID string     `gorm:"type:varchar(191);not null;default:'';index" json:"external_customer_id"`
	ExternalPriceID    string     `gorm:"type:varchar(191);not null;default:''" json:"external_price_id"`
	PlanName           string     `gorm:"type:varchar(191);not null;default:''" json:"plan_name"`
	Status             string     `gorm:"type:varchar(32);not null;default:'incomplete';index" json:"status"`
	CurrentPeriodStart *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CanceledAt         *time.Time `gorm:"type:timestamp;default:null" json:"canceled_at,omitempty"`
	UserID             *uint      `gorm:"index;default:null" json:"user_id,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsCanceled reports whether the subscription already reached its terminal
// state.
func (s *Subscription) IsCanceled() bool {
	return s.Status == SubscriptionStatusCanceled
}
