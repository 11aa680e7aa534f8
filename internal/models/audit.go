package models

import "time"

// Audit actions.
const (
	AuditCreated     = "created"
	AuditUpdated     = "updated"
	AuditDeleted     = "deleted"
	AuditRoleChanged = "role_changed"
	AuditLogin       = "login"
	AuditLogout      = "logout"
	AuditExportLogs  = "export_logs"
)

// AdminAuditLog is the compliance ledger. Rows are appended by the audit
// recorder and removed only by the archive job; no application code path
// updates them.
type AdminAuditLog struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AdminUserID *string   `gorm:"type:uuid" json:"admin_user_id,omitempty"`
	TenantID    *uint     `gorm:"index" json:"tenant_id,omitempty"`
	Action      string    `gorm:"not null;index" json:"action"`
	TargetType  string    `gorm:"not null" json:"target_type"`
	TargetID    string    `gorm:"not null" json:"target_id"`
	Before      JSONB     `gorm:"type:jsonb" json:"before,omitempty"`
	After       JSONB     `gorm:"type:jsonb" json:"after,omitempty"`
	IP          string    `json:"ip"`
	UserAgent   string    `json:"user_agent"`
	OccurredAt  time.Time `gorm:"not null;index" json:"occurred_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (AdminAuditLog) TableName() string { return "admin_audit_logs" }
