package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantcore/internal/contract"
	"tenantcore/internal/models"
)

// Alert template keys and their exact-day triggers. The comparison is an
// equality on remaining whole days, not a range: a sweep that skips a day
// fires nothing for that tenant. Do not widen this to <= without changing
// the notification volume contract.
const (
	TemplateTrialEnding    = "trial_3days"
	TemplateContractEnding = "contract_before_7days"

	trialAlertDays    = 3
	contractAlertDays = 7
)

// sender is what the sweeper needs from the notify service.
type sender interface {
	Send(ctx context.Context, templateKey string, tenant models.Tenant, overrideEmail string) (bool, error)
}

// Sweeper runs the daily trial/contract expiry alert pass.
type Sweeper struct {
	db    *gorm.DB
	svc   sender
	lg    *zap.SugaredLogger
	clock func() time.Time
}

func NewSweeper(db *gorm.DB, svc *Service, lg *zap.SugaredLogger) *Sweeper {
	return &Sweeper{db: db, svc: svc, lg: lg, clock: time.Now}
}

// Run sweeps all active tenants once. A single tenant's send failure is
// logged and does not abort the run; only an infrastructure failure does.
func (s *Sweeper) Run(ctx context.Context) error {
	var tenants []models.Tenant
	if err := s.db.WithContext(ctx).
		Preload("TenantPlan").
		Where("is_active = ?", true).
		Find(&tenants).Error; err != nil {
		return fmt.Errorf("notify: load active tenants: %w", err)
	}
	s.process(ctx, tenants)
	return nil
}

func (s *Sweeper) process(ctx context.Context, tenants []models.Tenant) {
	today := s.clock()
	sent := 0
	for _, tenant := range tenants {
		for _, key := range dueAlerts(today, contract.SnapshotOf(tenant)) {
			ok, err := s.svc.Send(ctx, key, tenant, "")
			if err != nil {
				s.lg.Errorw("alert send failed", "tenant", tenant.Code, "template", key, "error", err)
				continue
			}
			if ok {
				sent++
			}
		}
	}
	s.lg.Infow("alert sweep complete", "tenants", len(tenants), "sent", sent)
}

// dueAlerts returns the template keys due for this tenant today.
func dueAlerts(today time.Time, snap contract.Snapshot) []string {
	var due []string
	if snap.TrialEndsAt != nil && contract.DaysUntil(today, *snap.TrialEndsAt) == trialAlertDays {
		due = append(due, TemplateTrialEnding)
	}
	if snap.ContractEndAt != nil && contract.DaysUntil(today, *snap.ContractEndAt) == contractAlertDays {
		due = append(due, TemplateContractEnding)
	}
	return due
}
