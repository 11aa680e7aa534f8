package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"tenantcore/internal/contract"
	"tenantcore/internal/models"
)

var sweepToday = time.Date(2026, 3, 15, 6, 0, 0, 0, time.UTC)

func sweepDay(offset int) *time.Time {
	t := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	return &t
}

func TestDueAlertsExactDayOnly(t *testing.T) {
	tests := []struct {
		name string
		snap contract.Snapshot
		want []string
	}{
		{"trial ends in exactly 3 days", contract.Snapshot{TrialEndsAt: sweepDay(3)}, []string{TemplateTrialEnding}},
		{"trial ends in 2 days", contract.Snapshot{TrialEndsAt: sweepDay(2)}, nil},
		{"trial ends in 4 days", contract.Snapshot{TrialEndsAt: sweepDay(4)}, nil},
		{"contract ends in exactly 7 days", contract.Snapshot{ContractEndAt: sweepDay(7)}, []string{TemplateContractEnding}},
		{"contract ends in 6 days", contract.Snapshot{ContractEndAt: sweepDay(6)}, nil},
		{"both thresholds hit", contract.Snapshot{TrialEndsAt: sweepDay(3), ContractEndAt: sweepDay(7)}, []string{TemplateTrialEnding, TemplateContractEnding}},
		{"nothing set", contract.Snapshot{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dueAlerts(sweepToday, tt.snap))
		})
	}
}

type fakeSender struct {
	sent    []string // "code:key"
	failFor string   // tenant code whose sends error
}

func (f *fakeSender) Send(_ context.Context, key string, tenant models.Tenant, _ string) (bool, error) {
	if tenant.Code == f.failFor {
		return false, errors.New("smtp down")
	}
	f.sent = append(f.sent, tenant.Code+":"+key)
	return true, nil
}

func TestProcessPerTenantIsolation(t *testing.T) {
	fake := &fakeSender{failFor: "bravo"}
	s := &Sweeper{svc: fake, lg: zap.NewNop().Sugar(), clock: func() time.Time { return sweepToday }}

	tenants := []models.Tenant{
		{Code: "alpha", TrialEndsAt: sweepDay(3)},
		{Code: "bravo", TrialEndsAt: sweepDay(3)},
		{Code: "charlie", TenantPlan: &models.TenantPlan{ContractStartAt: sweepDay(-30), ContractEndAt: sweepDay(7)}},
		{Code: "delta", TrialEndsAt: sweepDay(10)},
	}

	s.process(context.Background(), tenants)

	// bravo failed but charlie still got its alert
	assert.Equal(t, []string{
		"alpha:" + TemplateTrialEnding,
		"charlie:" + TemplateContractEnding,
	}, fake.sent)
}
