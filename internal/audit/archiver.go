package audit

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantcore/internal/models"
)

// The archive job always trims at a fixed 90 days, independent of each
// tenant's configurable retention window.
const archiveRetentionDays = 90

// Postgres advisory lock key serializing archive runs across processes.
const archiveLockKey int64 = 0x7461_6c6f_67 // "talog"

// ErrArchiveRunning means another archive invocation holds the lock.
var ErrArchiveRunning = errors.New("audit: archive already running")

// Archiver moves expired audit rows to a CSV file and deletes them in the
// same transaction. A crash between the file write and the commit leaves
// the rows in place (and at worst a duplicate file); rows are never deleted
// unarchived.
type Archiver struct {
	db    *gorm.DB
	dir   string
	lg    *zap.SugaredLogger
	clock func() time.Time
	lock  func(ctx context.Context) (release func(), ok bool, err error)
}

func NewArchiver(db *gorm.DB, dir string, lg *zap.SugaredLogger) *Archiver {
	a := &Archiver{db: db, dir: dir, lg: lg, clock: time.Now}
	a.lock = a.advisoryLock
	return a
}

// Run performs one archive sweep. Returns the number of rows archived.
func (a *Archiver) Run(ctx context.Context) (int, error) {
	release, ok, err := a.lock(ctx)
	if err != nil {
		return 0, fmt.Errorf("audit: acquire archive lock: %w", err)
	}
	if !ok {
		return 0, ErrArchiveRunning
	}
	defer release()

	now := a.clock()
	cutoff := now.AddDate(0, 0, -archiveRetentionDays)

	var logs []models.AdminAuditLog
	if err := a.db.WithContext(ctx).
		Where("occurred_at < ?", cutoff).
		Order("occurred_at asc").
		Find(&logs).Error; err != nil {
		return 0, fmt.Errorf("audit: select expired logs: %w", err)
	}
	if len(logs) == 0 {
		a.lg.Infow("no audit logs to archive", "cutoff", cutoff)
		return 0, nil
	}

	name := fmt.Sprintf("audit_log_backup_%s.csv", now.Format("20060102_150405"))
	path := filepath.Join(a.dir, name)

	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := writeArchiveFile(path, logs); err != nil {
			return fmt.Errorf("write archive file: %w", err)
		}
		if err := tx.Where("occurred_at < ?", cutoff).
			Delete(&models.AdminAuditLog{}).Error; err != nil {
			return fmt.Errorf("delete archived rows: %w", err)
		}
		return nil
	})
	if err != nil {
		// the delete did not commit; remove the orphan file so a retry
		// starts clean
		_ = os.Remove(path)
		return 0, fmt.Errorf("audit: archive transaction: %w", err)
	}

	a.lg.Infow("archived audit logs", "rows", len(logs), "file", path)
	return len(logs), nil
}

// advisoryLock takes the archive lock on a dedicated connection and
// returns a release bound to that same connection. Advisory locks are
// session-scoped: an unlock issued through the pool can land on another
// session, silently return false, and leave the lock held by an idle
// pooled connection.
func (a *Archiver) advisoryLock(ctx context.Context) (func(), bool, error) {
	sqlDB, err := a.db.DB()
	if err != nil {
		return nil, false, err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, false, err
	}
	var locked bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", archiveLockKey).Scan(&locked); err != nil {
		conn.Close()
		return nil, false, err
	}
	if !locked {
		conn.Close()
		return nil, false, nil
	}
	release := func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", archiveLockKey)
		conn.Close()
	}
	return release, true, nil
}

func writeArchiveFile(path string, logs []models.AdminAuditLog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, rec := range ExportRecords(logs) {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

// ExportRecords renders the fixed export layout, header first.
func ExportRecords(logs []models.AdminAuditLog) [][]string {
	out := make([][]string, 0, len(logs)+1)
	out = append(out, []string{"ID", "Admin_ID", "Action", "Target", "Time", "IP"})
	for _, l := range logs {
		adminID := ""
		if l.AdminUserID != nil {
			adminID = *l.AdminUserID
		}
		out = append(out, []string{
			strconv.FormatInt(l.ID, 10),
			adminID,
			l.Action,
			l.TargetType,
			l.OccurredAt.Format(time.RFC3339),
			l.IP,
		})
	}
	return out
}
