package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantcore/internal/models"
)

func TestExtractVariables(t *testing.T) {
	text := "Dear {{ notify_name }}, {{tenant_name}} ends {{ expiry_date }}. Bye {{notify_name}}"
	assert.Equal(t, []string{"notify_name", "tenant_name", "expiry_date"}, ExtractVariables(text))
	assert.Empty(t, ExtractVariables("no tokens here"))
}

func TestValidateTemplateAccepts(t *testing.T) {
	allowed := models.StringList{"tenant_name", "expiry_date"}
	err := ValidateTemplate("{{tenant_name}} notice", "ends {{ expiry_date }}", allowed)
	assert.NoError(t, err)
}

func TestValidateTemplateRejectsUndeclaredTokens(t *testing.T) {
	allowed := models.StringList{"tenant_name"}
	err := ValidateTemplate("{{tenant_name}}", "hi {{ hacker }} and {{ other }}", allowed)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"hacker", "other"}, verr.Tokens)
	assert.Contains(t, verr.Error(), "{{hacker}}")
	assert.Contains(t, verr.Error(), "{{other}}")
}

func TestRenderLiteralSubstitution(t *testing.T) {
	vars := map[string]string{"tenant_name": "Acme", "expiry_date": "2026/03/18"}
	got := Render("{{ tenant_name }} expires {{expiry_date}}; {{ unknown }} stays", vars)
	assert.Equal(t, "Acme expires 2026/03/18; {{ unknown }} stays", got)
}

func TestRenderNoEscaping(t *testing.T) {
	vars := map[string]string{"tenant_name": "<b>Acme & Co</b>"}
	assert.Equal(t, "<b>Acme & Co</b>", Render("{{tenant_name}}", vars))
}

func TestBuildVariablesIntersectsAllowList(t *testing.T) {
	end := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)
	tenant := models.Tenant{
		Name:        "Acme",
		NotifyName:  "Suzuki",
		TrialEndsAt: &end,
	}
	tpl := models.NotifyMailTemplate{
		Key:              "trial_3days",
		AllowedVariables: models.StringList{"tenant_name", "expiry_date"},
	}

	vars := BuildVariables(tpl, tenant, "tenantcore")

	assert.Equal(t, map[string]string{
		"tenant_name": "Acme",
		"expiry_date": "2026/03/18",
	}, vars)
}

func TestBuildVariablesDefaultsAndContractDate(t *testing.T) {
	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	tenant := models.Tenant{
		Name:       "Acme",
		TenantPlan: &models.TenantPlan{ContractEndAt: &end},
	}
	tpl := models.NotifyMailTemplate{
		Key:              "contract_before_7days",
		AllowedVariables: models.StringList{"notify_name", "expiry_date", "app_name"},
	}

	vars := BuildVariables(tpl, tenant, "tenantcore")

	assert.Equal(t, "Customer", vars["notify_name"])
	assert.Equal(t, "2026/04/01", vars["expiry_date"])
	assert.Equal(t, "tenantcore", vars["app_name"])
}

func TestBuildVariablesMissingDate(t *testing.T) {
	tpl := models.NotifyMailTemplate{
		Key:              "trial_3days",
		AllowedVariables: models.StringList{"expiry_date"},
	}
	vars := BuildVariables(tpl, models.Tenant{Name: "Acme"}, "x")
	assert.Equal(t, "-", vars["expiry_date"])
}
