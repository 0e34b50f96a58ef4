package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a user account in the system
type User struct {
	gorm.Model

	// Authentication fields
	Email               string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash        string    `gorm:"not null" json:"-"`
	EmailVerified       bool      `gorm:"default:false" json:"email_verified"`
	VerifyCode          string    `json:"-"`
	VerifyCodeExpiresAt time.Time `json:"-"`
	TokenVersion        int       `gorm:"default:0" json:"-"`

	// Google OAuth fields
	GoogleID       *string `gorm:"uniqueIndex" json:"google_id,omitempty"`
	GoogleImageURL *string `json:"google_image_url,omitempty"`

	// Profile information
	Name      *string `json:"name,omitempty"`
	Company   *string `json:"company,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Timezone  string  `gorm:"default:'UTC'" json:"timezone"`
	Language  string  `gorm:"default:'en'" json:"language"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`
	IsAdmin  bool `gorm:"default:false" json:"is_admin"`

	// Subscription plan information. PlanName holds the stored tier
	// (free, pro, business); the tier actually in force is computed on
	// every read by the plans package because PlanExpiresAt can already
	// be in the past while the billing webhook lags behind.
	PlanName      string     `gorm:"default:'free'" json:"plan_name"`
	PlanExpiresAt *time.Time `json:"plan_expires_at,omitempty"`
	PlanStartedAt *time.Time `json:"plan_started_at,omitempty"`
	PlanUpdatedAt *time.Time `json:"plan_updated_at,omitempty"`

	// Stripe integration
	StripeCustomerID     *string `gorm:"index" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string `gorm:"index" json:"stripe_subscription_id,omitempty"`
	DefaultCurrency      string  `gorm:"default:'usd'" json:"default_currency"`

	// Relations
	OwnedWorkspaces []Workspace       `gorm:"foreignKey:OwnerID" json:"owned_workspaces,omitempty"`
	Memberships     []WorkspaceMember `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	Notifications   []Notification    `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
	Transactions    []PlanTransaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}

// RefreshToken stores issued refresh tokens so sessions can be revoked
type RefreshToken struct {
	gorm.Model
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Token     string     `gorm:"uniqueIndex;not null" json:"-"`
	SessionID string     `gorm:"index" json:"session_id"`
	UserAgent string     `json:"user_agent"`
	IPAddress string     `json:"ip_address"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`

	// Relations
	User User `json:"-"`
}
