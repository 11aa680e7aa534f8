package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantcore/internal/models"
)

func testMeta() Meta {
	actor := "7f9c24e5-0000-0000-0000-000000000001"
	return Meta{
		ActorID:    &actor,
		TargetType: "AdminUser",
		TargetID:   "42",
		IP:         "203.0.113.9",
		UserAgent:  "go-test",
		OccurredAt: time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestBuildUpdatedNoChangesProducesNothing(t *testing.T) {
	snap := map[string]any{"name": "Acme", "email": "a@acme.test"}
	assert.Nil(t, BuildUpdated(testMeta(), snap, snap))
}

func TestBuildUpdatedRecordsOnlyChangedColumns(t *testing.T) {
	before := map[string]any{"name": "Acme", "email": "a@acme.test", "locale": "en"}
	after := map[string]any{"name": "Acme K.K.", "email": "a@acme.test", "locale": "en"}

	entries := BuildUpdated(testMeta(), before, after)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, models.AuditUpdated, e.Action)
	assert.Equal(t, map[string]any{"name": "Acme"}, e.Before)
	assert.Equal(t, map[string]any{"name": "Acme K.K."}, e.After)
}

func TestBuildUpdatedRoleChangeIsExclusive(t *testing.T) {
	before := map[string]any{"role_id": 3, "name": "Admin"}
	after := map[string]any{"role_id": 1, "name": "Admin"}

	entries := BuildUpdated(testMeta(), before, after)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, models.AuditRoleChanged, e.Action)
	assert.Equal(t, map[string]any{"role_id": 3}, e.Before)
	assert.Equal(t, map[string]any{"role_id": 1}, e.After)

	// exactly one entry, none of them generic updated
	for _, got := range entries {
		assert.NotEqual(t, models.AuditUpdated, got.Action)
	}
}

func TestBuildUpdatedRoleChangeSwallowsOtherColumns(t *testing.T) {
	// a save that changes role plus other fields still yields a single
	// role_changed entry limited to the role field
	before := map[string]any{"role_id": 3, "name": "Old"}
	after := map[string]any{"role_id": 1, "name": "New"}

	entries := BuildUpdated(testMeta(), before, after)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditRoleChanged, entries[0].Action)
	assert.NotContains(t, entries[0].After, "name")
}

func TestBuildUpdatedIgnoresNoiseColumns(t *testing.T) {
	before := map[string]any{"name": "Acme", "updated_at": "2026-01-01T00:00:00Z", "password_hash": "x"}
	after := map[string]any{"name": "Acme", "updated_at": "2026-03-15T00:00:00Z", "password_hash": "y"}

	assert.Nil(t, BuildUpdated(testMeta(), before, after))
}

func TestBuildCreatedAndDeleted(t *testing.T) {
	attrs := map[string]any{"name": "Acme", "created_at": "now", "password_hash": "h"}

	created := BuildCreated(testMeta(), attrs)
	require.Len(t, created, 1)
	assert.Equal(t, models.AuditCreated, created[0].Action)
	assert.Nil(t, created[0].Before)
	assert.Equal(t, map[string]any{"name": "Acme"}, created[0].After)

	deleted := BuildDeleted(testMeta(), attrs)
	require.Len(t, deleted, 1)
	assert.Equal(t, models.AuditDeleted, deleted[0].Action)
	assert.Nil(t, deleted[0].After)
	assert.Equal(t, map[string]any{"name": "Acme"}, deleted[0].Before)
}

func TestBuildEvent(t *testing.T) {
	entries := BuildEvent(testMeta(), models.AuditLogin, map[string]any{"email": "a@b.test"})
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditLogin, entries[0].Action)
	assert.Equal(t, map[string]any{"email": "a@b.test"}, entries[0].After)
}

func TestArchiveRecordsLayout(t *testing.T) {
	admin := "7f9c24e5-0000-0000-0000-000000000001"
	logs := []models.AdminAuditLog{
		{
			ID:          12,
			AdminUserID: &admin,
			Action:      models.AuditUpdated,
			TargetType:  "Tenant",
			OccurredAt:  time.Date(2025, 12, 1, 8, 30, 0, 0, time.UTC),
			IP:          "198.51.100.7",
		},
		{ID: 13, Action: models.AuditLogin, TargetType: "AdminUser", OccurredAt: time.Date(2025, 12, 2, 8, 30, 0, 0, time.UTC)},
	}

	recs := ExportRecords(logs)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"ID", "Admin_ID", "Action", "Target", "Time", "IP"}, recs[0])
	assert.Equal(t, "12", recs[1][0])
	assert.Equal(t, admin, recs[1][1])
	assert.Equal(t, "updated", recs[1][2])
	assert.Equal(t, "Tenant", recs[1][3])
	assert.True(t, strings.HasPrefix(recs[1][4], "2025-12-01T08:30:00"))
	assert.Equal(t, "198.51.100.7", recs[1][5])
	// deleted actor renders empty, not a nil deref
	assert.Equal(t, "", recs[2][1])
}
