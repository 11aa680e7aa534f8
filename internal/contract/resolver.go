// Package contract derives a tenant's commercial lifecycle state from its
// trial and contract windows. The resolver is a pure total function; it is
// the single source of truth for state, re-derived everywhere instead of
// being stored.
package contract

import (
	"time"

	"github.com/shopspring/decimal"

	"tenantcore/internal/models"
)

type State string

const (
	StateActive        State = "active"
	StateUpcoming      State = "upcoming"
	StateExpired       State = "expired"
	StateTrialCritical State = "trial_critical"
	StateTrialWarning  State = "trial_warning"
	StateInactive      State = "inactive"
)

// Trial thresholds in whole days remaining.
const (
	trialCriticalDays = 3
	trialWarningDays  = 7
)

// Snapshot is the plain-data view of a tenant the resolver operates on.
type Snapshot struct {
	TrialStartAt    *time.Time
	TrialEndsAt     *time.Time
	ContractStartAt *time.Time
	ContractEndAt   *time.Time
}

// SnapshotOf builds a Snapshot from a tenant and its contract, if any.
func SnapshotOf(t models.Tenant) Snapshot {
	s := Snapshot{
		TrialStartAt: t.TrialStartAt,
		TrialEndsAt:  t.TrialEndsAt,
	}
	if tp := t.TenantPlan; tp != nil {
		s.ContractStartAt = tp.ContractStartAt
		s.ContractEndAt = tp.ContractEndAt
	}
	return s
}

// Resolve classifies the snapshot as of today. A fully specified contract
// window (both ends set) decides the state by itself; trial fields are only
// consulted when no such window exists.
func Resolve(today time.Time, s Snapshot) State {
	day := truncateDay(today)

	if s.ContractStartAt != nil && s.ContractEndAt != nil {
		switch {
		case truncateDay(*s.ContractEndAt).Before(day):
			return StateExpired
		case truncateDay(*s.ContractStartAt).After(day):
			return StateUpcoming
		default:
			return StateActive
		}
	}

	if s.TrialEndsAt != nil {
		if truncateDay(*s.TrialEndsAt).Before(day) {
			return StateExpired
		}
		if s.TrialStartAt != nil && truncateDay(*s.TrialStartAt).After(day) {
			return StateUpcoming
		}
		switch remaining := DaysUntil(day, *s.TrialEndsAt); {
		case remaining <= trialCriticalDays:
			return StateTrialCritical
		case remaining <= trialWarningDays:
			return StateTrialWarning
		default:
			return StateActive
		}
	}

	return StateInactive
}

// ForcesDeactivation reports whether the save-time guard must clear the
// tenant's is_active flag before persisting. Only expired does.
func ForcesDeactivation(state State) bool {
	return state == StateExpired
}

// GuardSave applies the save-time guard to a tenant about to be persisted:
// an expired tenant is forced inactive regardless of the flag the caller
// set. Reports whether the flag was cleared.
func GuardSave(today time.Time, t *models.Tenant) bool {
	if !ForcesDeactivation(Resolve(today, SnapshotOf(*t))) {
		return false
	}
	t.IsActive = false
	return true
}

// DaysUntil is the signed whole-day difference from today to t, both
// truncated to their calendar day. The dates are rebuilt in UTC before
// subtracting so a 23- or 25-hour DST-transition day still counts as one
// calendar day.
func DaysUntil(today, t time.Time) int {
	return int(civilDay(t).Sub(civilDay(today)) / (24 * time.Hour))
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StatsInput pairs a tenant snapshot with its plan's base price for the
// revenue rollup.
type StatsInput struct {
	Snapshot  Snapshot
	BasePrice decimal.Decimal
}

// Summary is the dashboard rollup: tenant counts per state and the monthly
// revenue forecast over active and trial-critical tenants.
type Summary struct {
	Counts       map[State]int   `json:"counts"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// Stats re-derives state for every tenant and aggregates. O(n), no stored
// status column is trusted.
func Stats(today time.Time, inputs []StatsInput) Summary {
	sum := Summary{
		Counts: map[State]int{
			StateActive:        0,
			StateUpcoming:      0,
			StateExpired:       0,
			StateTrialCritical: 0,
			StateTrialWarning:  0,
			StateInactive:      0,
		},
		TotalRevenue: decimal.Zero,
	}
	for _, in := range inputs {
		st := Resolve(today, in.Snapshot)
		sum.Counts[st]++
		if st == StateActive || st == StateTrialCritical {
			sum.TotalRevenue = sum.TotalRevenue.Add(in.BasePrice)
		}
	}
	return sum
}
