// Package notify renders and delivers templated notification mail and runs
// the daily expiry alert sweep.
package notify

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"tenantcore/internal/models"
)

// tokenRe matches {{identifier}} with optional inner whitespace. Tokens are
// plain identifiers; there is no expression language, escaping or nesting.
var tokenRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// ExtractVariables returns the unique token names used in text, in order of
// first appearance.
func ExtractVariables(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range tokenRe.FindAllStringSubmatch(text, -1) {
		if name := m[1]; !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// ValidationError reports tokens used by a template that its allow-list
// does not declare. Recoverable, surfaced as a field-level error.
type ValidationError struct {
	Tokens []string
}

func (e *ValidationError) Error() string {
	quoted := make([]string, len(e.Tokens))
	for i, t := range e.Tokens {
		quoted[i] = fmt.Sprintf("{{%s}}", t)
	}
	return "undeclared template variables: " + strings.Join(quoted, ", ")
}

// ValidateTemplate checks subject and body against the template's own
// allow-list. Any undeclared token rejects the save.
func ValidateTemplate(subject, body string, allowed models.StringList) error {
	var bad []string
	for _, name := range ExtractVariables(subject + " " + body) {
		if !allowed.Contains(name) {
			bad = append(bad, name)
		}
	}
	if len(bad) > 0 {
		return &ValidationError{Tokens: bad}
	}
	return nil
}

// Render substitutes known variables literally. Tokens without a value are
// left untouched.
func Render(text string, vars map[string]string) string {
	return tokenRe.ReplaceAllStringFunc(text, func(tok string) string {
		name := tokenRe.FindStringSubmatch(tok)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return tok
	})
}

// BuildVariables assembles the variable values for one tenant, then keeps
// only names the template allows.
func BuildVariables(tpl models.NotifyMailTemplate, tenant models.Tenant, appName string) map[string]string {
	notifyName := tenant.NotifyName.String()
	if notifyName == "" {
		notifyName = "Customer"
	}
	base := map[string]string{
		"tenant_name": tenant.Name,
		"notify_name": notifyName,
		"expiry_date": expiryDate(tpl.Key, tenant),
		"app_name":    appName,
	}
	out := make(map[string]string, len(base))
	for name, v := range base {
		if tpl.AllowedVariables.Contains(name) {
			out[name] = v
		}
	}
	return out
}

// expiryDate picks the trial or contract end date depending on the template
// key.
func expiryDate(key string, tenant models.Tenant) string {
	var date *time.Time
	if strings.Contains(key, "trial") {
		date = tenant.TrialEndsAt
	} else if tenant.TenantPlan != nil {
		date = tenant.TenantPlan.ContractEndAt
	}
	if date == nil {
		return "-"
	}
	return date.Format("2006/01/02")
}
