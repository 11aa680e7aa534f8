// Package audit appends the administrative action ledger. Entries are built
// by pure functions and written by an explicit recorder call after a
// successful save; there are no ORM hooks involved, which keeps the
// role-change suppression rule in one visible place.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantcore/internal/auth"
	"tenantcore/internal/models"
)

// Columns that never appear in a snapshot or diff: bookkeeping noise and
// secret material.
var ignoredColumns = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"last_login_at": true,
	"password_hash": true,
}

// Fields whose change is recorded as role_changed instead of updated.
var roleColumns = map[string]bool{
	"role":    true,
	"role_id": true,
}

// Meta identifies who did what to which entity from where.
type Meta struct {
	ActorID    *string
	TenantID   *uint
	TargetType string
	TargetID   string
	IP         string
	UserAgent  string
	OccurredAt time.Time
}

// Entry is one ledger row before persistence.
type Entry struct {
	Meta   Meta
	Action string
	Before map[string]any
	After  map[string]any
}

// RequestMeta captures actor and request attributes once at the use-case
// boundary.
func RequestMeta(r *http.Request, targetType, targetID string, tenantID *uint) Meta {
	m := Meta{
		TargetType: targetType,
		TargetID:   targetID,
		TenantID:   tenantID,
		UserAgent:  r.UserAgent(),
		IP:         r.RemoteAddr,
		OccurredAt: time.Now(),
	}
	if sub := auth.Subject(r.Context()); sub != "" {
		m.ActorID = &sub
	}
	return m
}

// BuildCreated records the full attribute set of a new entity.
func BuildCreated(meta Meta, attrs map[string]any) []Entry {
	return []Entry{{Meta: meta, Action: models.AuditCreated, After: filterColumns(attrs)}}
}

// BuildUpdated diffs before/after snapshots. A save that changed nothing
// produces no entry. When a role column is among the changes the whole
// mutation is recorded as one role_changed entry limited to the role field,
// and the generic updated entry is suppressed; the two paths are mutually
// exclusive for a single save.
func BuildUpdated(meta Meta, before, after map[string]any) []Entry {
	changed := map[string]any{}
	orig := map[string]any{}
	for k, v := range filterColumns(after) {
		if prev, ok := before[k]; !ok || !equalValue(prev, v) {
			changed[k] = v
			if ok {
				orig[k] = prev
			}
		}
	}
	if len(changed) == 0 {
		return nil
	}

	for k := range changed {
		if roleColumns[k] {
			return []Entry{{
				Meta:   meta,
				Action: models.AuditRoleChanged,
				Before: map[string]any{k: before[k]},
				After:  map[string]any{k: changed[k]},
			}}
		}
	}

	return []Entry{{Meta: meta, Action: models.AuditUpdated, Before: orig, After: changed}}
}

// BuildDeleted records the entity's final snapshot.
func BuildDeleted(meta Meta, before map[string]any) []Entry {
	return []Entry{{Meta: meta, Action: models.AuditDeleted, Before: filterColumns(before)}}
}

// BuildEvent records a non-CRUD action: login, logout, export_logs.
func BuildEvent(meta Meta, action string, after map[string]any) []Entry {
	return []Entry{{Meta: meta, Action: action, After: filterColumns(after)}}
}

func filterColumns(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if ignoredColumns[k] {
			continue
		}
		out[k] = v
	}
	return out
}

// equalValue compares snapshot values through their JSON form so times,
// decimals and numbers of different widths compare by content.
func equalValue(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}

// Recorder appends entries to admin_audit_logs.
type Recorder struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewRecorder(db *gorm.DB, lg *zap.SugaredLogger) *Recorder {
	return &Recorder{db: db, lg: lg}
}

// Record persists the entries. Rows are append-only; nothing in the
// application updates or deletes them.
func (r *Recorder) Record(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		row := models.AdminAuditLog{
			AdminUserID: e.Meta.ActorID,
			TenantID:    e.Meta.TenantID,
			Action:      e.Action,
			TargetType:  e.Meta.TargetType,
			TargetID:    e.Meta.TargetID,
			IP:          e.Meta.IP,
			UserAgent:   e.Meta.UserAgent,
			OccurredAt:  e.Meta.OccurredAt,
		}
		if e.Before != nil {
			b, err := json.Marshal(e.Before)
			if err != nil {
				return fmt.Errorf("audit: marshal before: %w", err)
			}
			row.Before = models.JSONB(b)
		}
		if e.After != nil {
			b, err := json.Marshal(e.After)
			if err != nil {
				return fmt.Errorf("audit: marshal after: %w", err)
			}
			row.After = models.JSONB(b)
		}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("audit: append log: %w", err)
		}
	}
	return nil
}

// MustRecord logs instead of failing the caller's request when the ledger
// write itself fails. The mutation already happened; losing the response
// would not undo it.
func (r *Recorder) MustRecord(ctx context.Context, entries []Entry) {
	if err := r.Record(ctx, entries); err != nil {
		r.lg.Errorw("audit record failed", "error", err)
	}
}
