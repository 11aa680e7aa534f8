package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Plan pricing types.
const (
	PricingBundle    = "bundle"
	PricingMetered   = "metered"
	PricingUnlimited = "unlimited"
)

// TenantPlan discount types.
const (
	DiscountNone  = "none"
	DiscountRate  = "rate"
	DiscountFixed = "fixed"
)

// Plan is a pricing template. Referenced plans must not be deleted; the
// handler refuses deletion while any TenantPlan points at it and the FK
// is RESTRICT as a backstop.
type Plan struct {
	ID                   uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Code                 string          `gorm:"uniqueIndex;not null" json:"code"`
	Name                 string          `gorm:"not null" json:"name"`
	PricingType          string          `gorm:"not null;default:bundle" json:"pricing_type"`
	BasePrice            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"base_price"`
	AnnualFee            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"annual_fee"`
	UnitPrice            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
	OverageUnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"overage_unit_price"`
	IncludedMails        int             `gorm:"not null;default:0" json:"included_mails"`
	TaxRate              decimal.Decimal `gorm:"type:decimal(5,2);not null;default:10.00" json:"tax_rate"`
	DefaultRetentionDays int             `gorm:"not null;default:90" json:"default_retention_days"`
	CalculationRule      JSONB           `gorm:"type:jsonb" json:"calculation_rule,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Tenant is a customer organization. Soft-deleted, never hard-deleted.
// Notification contacts are encrypted at rest.
type Tenant struct {
	ID                    uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                  string          `gorm:"not null" json:"name"`
	Code                  string          `gorm:"uniqueIndex;not null" json:"code"`
	Domain                string          `json:"domain,omitempty"`
	NotifyName            EncryptedString `json:"notify_name,omitempty"`
	NotifyEmail           EncryptedString `json:"notify_email,omitempty"`
	IsActive              bool            `gorm:"not null;default:true" json:"is_active"`
	TrialStartAt          *time.Time      `json:"trial_start_at,omitempty"`
	TrialEndsAt           *time.Time      `json:"trial_ends_at,omitempty"`
	LanguageID            uint            `gorm:"not null" json:"language_id"`
	Language              *Language       `json:"language,omitempty"`
	AuditLogRetentionDays int             `gorm:"not null;default:90" json:"audit_log_retention_days"`
	TenantPlan            *TenantPlan     `json:"tenant_plan,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	DeletedAt             gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TenantPlan binds a tenant to a plan: the contract instance. One per
// tenant by application convention.
type TenantPlan struct {
	ID                    uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID              uint                `gorm:"index;not null" json:"tenant_id"`
	PlanID                uint                `gorm:"not null" json:"plan_id"`
	Plan                  *Plan               `gorm:"constraint:OnDelete:RESTRICT" json:"plan,omitempty"`
	DiscountType          string              `gorm:"not null;default:none" json:"discount_type"`
	DiscountValue         decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0" json:"discount_value"`
	ContractPriceOverride decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"contract_price_override,omitempty"`
	ContractStartAt       *time.Time          `gorm:"type:date" json:"contract_start_at,omitempty"`
	ContractEndAt         *time.Time          `gorm:"type:date" json:"contract_end_at,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}
