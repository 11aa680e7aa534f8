package models

import "time"

// Operator roles. A role is a single foreign reference on the admin user,
// not a many-to-many set.
const (
	RoleSuperAdmin  = "super_admin"
	RoleTenantAdmin = "tenant_admin"
	RoleViewer      = "viewer"
)

type Role struct {
	ID   int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// AdminUser is a system-wide operator account. Not tenant-scoped.
type AdminUser struct {
	ID           string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	RoleID       int        `gorm:"not null" json:"role_id"`
	Role         *Role      `json:"role,omitempty"`
	Locale       string     `gorm:"not null;default:en;size:8" json:"locale"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Language is a tenant's default display language.
type Language struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Code string `gorm:"uniqueIndex;not null;size:8" json:"code"`
	Name string `gorm:"not null" json:"name"`
}

// Session backs JWT revocation: a token is only valid while its JTI row
// exists, is unrevoked and unexpired.
type Session struct {
	JTI       string     `gorm:"primaryKey;size:64" json:"jti"`
	UserID    string     `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
