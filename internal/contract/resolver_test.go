package contract

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"tenantcore/internal/models"
)

var today = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func day(offset int) *time.Time {
	t := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	return &t
}

func TestResolveContractWindow(t *testing.T) {
	tests := []struct {
		name  string
		start *time.Time
		end   *time.Time
		want  State
	}{
		{"window spans today", day(-30), day(30), StateActive},
		{"window ends today", day(-30), day(0), StateActive},
		{"window starts today", day(0), day(30), StateActive},
		{"window ended yesterday", day(-30), day(-1), StateExpired},
		{"window starts tomorrow", day(1), day(30), StateUpcoming},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(today, Snapshot{ContractStartAt: tt.start, ContractEndAt: tt.end})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveContractWindowIgnoresTrialFields(t *testing.T) {
	base := Snapshot{ContractStartAt: day(-10), ContractEndAt: day(10)}
	withTrial := base
	withTrial.TrialStartAt = day(-100)
	withTrial.TrialEndsAt = day(-50) // long expired trial

	assert.Equal(t, Resolve(today, base), Resolve(today, withTrial))
	assert.Equal(t, StateActive, Resolve(today, withTrial))
}

func TestResolveTrial(t *testing.T) {
	tests := []struct {
		name     string
		trialEnd *time.Time
		want     State
	}{
		{"ended yesterday", day(-1), StateExpired},
		{"ends today", day(0), StateTrialCritical},
		{"3 days left", day(3), StateTrialCritical},
		{"4 days left", day(4), StateTrialWarning},
		{"7 days left", day(7), StateTrialWarning},
		{"8 days left", day(8), StateActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(today, Snapshot{TrialEndsAt: tt.trialEnd})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveTrialNotYetStarted(t *testing.T) {
	got := Resolve(today, Snapshot{TrialStartAt: day(5), TrialEndsAt: day(20)})
	assert.Equal(t, StateUpcoming, got)
}

func TestResolveInactive(t *testing.T) {
	assert.Equal(t, StateInactive, Resolve(today, Snapshot{}))
	// start date alone does not make a contract window
	assert.Equal(t, StateInactive, Resolve(today, Snapshot{ContractStartAt: day(-10)}))
}

func TestResolveTruncatesTimeOfDay(t *testing.T) {
	// trial ends later today: zero days remaining, critical not expired
	end := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)
	got := Resolve(today, Snapshot{TrialEndsAt: &end})
	assert.Equal(t, StateTrialCritical, got)

	// trial ended earlier today still counts as today
	end = time.Date(2026, 3, 15, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, StateTrialCritical, Resolve(today, Snapshot{TrialEndsAt: &end}))
}

func TestForcesDeactivation(t *testing.T) {
	assert.True(t, ForcesDeactivation(StateExpired))
	for _, s := range []State{StateActive, StateUpcoming, StateTrialCritical, StateTrialWarning, StateInactive} {
		assert.False(t, ForcesDeactivation(s), string(s))
	}
}

func TestDaysUntil(t *testing.T) {
	assert.Equal(t, 3, DaysUntil(today, *day(3)))
	assert.Equal(t, 0, DaysUntil(today, *day(0)))
	assert.Equal(t, -2, DaysUntil(today, *day(-2)))
}

func TestDaysUntilAcrossDSTTransition(t *testing.T) {
	// spring forward: March 8 is a 23-hour day, so the wall-clock span
	// from March 7 to March 10 is 71h; the day count must still be 3
	from := time.Date(2026, 3, 7, 0, 0, 0, 0, time.FixedZone("EST", -5*3600))
	to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.FixedZone("EDT", -4*3600))
	assert.Equal(t, 3, DaysUntil(from, to))
	assert.Equal(t, -3, DaysUntil(to, from))
}

func TestGuardSaveForcesExpiredTenantInactive(t *testing.T) {
	tenant := models.Tenant{
		IsActive:   true,
		TenantPlan: &models.TenantPlan{ContractStartAt: day(-60), ContractEndAt: day(-1)},
	}
	assert.True(t, GuardSave(today, &tenant))
	assert.False(t, tenant.IsActive)
}

func TestGuardSaveLeavesNonExpiredAlone(t *testing.T) {
	active := models.Tenant{
		IsActive:   true,
		TenantPlan: &models.TenantPlan{ContractStartAt: day(-10), ContractEndAt: day(10)},
	}
	assert.False(t, GuardSave(today, &active))
	assert.True(t, active.IsActive)

	// an explicitly deactivated tenant is not reactivated either
	inactive := models.Tenant{IsActive: false}
	assert.False(t, GuardSave(today, &inactive))
	assert.False(t, inactive.IsActive)
}

func TestGuardSaveExpiredTrial(t *testing.T) {
	tenant := models.Tenant{IsActive: true, TrialEndsAt: day(-1)}
	assert.True(t, GuardSave(today, &tenant))
	assert.False(t, tenant.IsActive)
}

func TestStats(t *testing.T) {
	price := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
	inputs := []StatsInput{
		{Snapshot{ContractStartAt: day(-10), ContractEndAt: day(10)}, price(25000)}, // active
		{Snapshot{TrialEndsAt: day(2)}, price(5000)},                                // trial_critical
		{Snapshot{TrialEndsAt: day(6)}, price(100000)},                              // trial_warning
		{Snapshot{ContractStartAt: day(-60), ContractEndAt: day(-1)}, price(7000)},  // expired
		{Snapshot{ContractStartAt: day(2), ContractEndAt: day(40)}, price(9000)},    // upcoming
		{Snapshot{}, price(1)}, // inactive
	}

	sum := Stats(today, inputs)

	assert.Equal(t, 1, sum.Counts[StateActive])
	assert.Equal(t, 1, sum.Counts[StateTrialCritical])
	assert.Equal(t, 1, sum.Counts[StateTrialWarning])
	assert.Equal(t, 1, sum.Counts[StateExpired])
	assert.Equal(t, 1, sum.Counts[StateUpcoming])
	assert.Equal(t, 1, sum.Counts[StateInactive])

	// revenue counts only active + trial_critical base prices
	assert.True(t, sum.TotalRevenue.Equal(price(30000)), sum.TotalRevenue.String())
}
