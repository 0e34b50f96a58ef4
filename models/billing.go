package models

import "gorm.io/gorm"

// Plan represents a purchasable subscription tier as shown on the
// pricing page. The ceilings enforced at request time come from the
// plans package limit table; these rows carry display copy and the
// Stripe price mapping.
type Plan struct {
	gorm.Model
	Name        string `gorm:"not null;uniqueIndex" json:"name"` // free, pro, business
	Description string `json:"description"`

	// Monthly price in cents
	Price int `gorm:"not null" json:"price"`

	// Ceilings mirrored from the plans limit table for display
	WorkspaceLimit int `gorm:"default:1" json:"workspace_limit"`
	BoardLimit     int `gorm:"default:3" json:"board_limit"`
	MemberLimit    int `gorm:"default:3" json:"member_limit"`

	// For display purposes
	DisplayPrice string `gorm:"-" json:"display_price"` // e.g. "$12"
	IsPopular    bool   `gorm:"default:false" json:"is_popular"`
	Recommended  bool   `gorm:"default:false" json:"recommended"`

	StripePriceID   string `json:"stripe_price_id"`                          // price_xxx from Stripe dashboard
	BillingInterval string `json:"billing_interval" gorm:"default:'monthly'"` // monthly, yearly
}

// PlanTransaction records subscription purchases and renewals
type PlanTransaction struct {
	gorm.Model
	UserID uint  `gorm:"not null;index" json:"user_id"`
	PlanID *uint `json:"plan_id,omitempty"`

	// Financial information
	Amount        int    `json:"amount"` // in cents
	Currency      string `gorm:"default:'usd'" json:"currency"`
	PaymentStatus string `gorm:"default:'pending'" json:"payment_status"` // pending, succeeded, failed, refunded

	// Metadata
	Description string `json:"description"`

	StripeCheckoutSessionID string `json:"stripe_checkout_session_id,omitempty"`
	StripeSubscriptionID    string `json:"stripe_subscription_id,omitempty"`
	StripeInvoiceID         string `json:"stripe_invoice_id,omitempty"`
	ReceiptURL              string `json:"receipt_url,omitempty"`

	// Relations
	User User  `json:"-"`
	Plan *Plan `json:"plan,omitempty"`
}
