package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tenantcore/internal/audit"
	"tenantcore/internal/contract"
	"tenantcore/internal/models"
)

type tenantPlanReq struct {
	PlanID                uint             `json:"plan_id"`
	DiscountType          string           `json:"discount_type"`
	DiscountValue         *decimal.Decimal `json:"discount_value"`
	ContractPriceOverride *decimal.Decimal `json:"contract_price_override"`
	ContractStartAt       string           `json:"contract_start_at"`
	ContractEndAt         string           `json:"contract_end_at"`
}

type tenantReq struct {
	Name                  *string        `json:"name"`
	Code                  *string        `json:"code"`
	Domain                *string        `json:"domain"`
	IsActive              *bool          `json:"is_active"`
	NotifyName            *string        `json:"notify_name"`
	NotifyEmail           *string        `json:"notify_email"`
	LanguageID            *uint          `json:"language_id"`
	AuditLogRetentionDays *int           `json:"audit_log_retention_days"`
	TrialStartAt          *string        `json:"trial_start_at"`
	TrialEndsAt           *string        `json:"trial_ends_at"`
	Plan                  *tenantPlanReq `json:"plan"`
}

// tenantSnapshot is the audited view of a tenant plus its contract.
// Notification contacts are excluded: the ledger must not hold the
// plaintext of encrypted-at-rest columns.
func tenantSnapshot(t models.Tenant) map[string]any {
	snap := map[string]any{
		"name":                     t.Name,
		"code":                     t.Code,
		"domain":                   t.Domain,
		"is_active":                t.IsActive,
		"language_id":              t.LanguageID,
		"audit_log_retention_days": t.AuditLogRetentionDays,
		"trial_start_at":           t.TrialStartAt,
		"trial_ends_at":            t.TrialEndsAt,
	}
	if tp := t.TenantPlan; tp != nil {
		snap["plan_id"] = tp.PlanID
		snap["discount_type"] = tp.DiscountType
		snap["discount_value"] = tp.DiscountValue
		snap["contract_price_override"] = tp.ContractPriceOverride
		snap["contract_start_at"] = tp.ContractStartAt
		snap["contract_end_at"] = tp.ContractEndAt
	}
	return snap
}

type tenantView struct {
	models.Tenant
	State contract.State `json:"state"`
}

func tenantViews(now time.Time, tenants []models.Tenant) []tenantView {
	out := make([]tenantView, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, tenantView{Tenant: t, State: contract.Resolve(now, contract.SnapshotOf(t))})
	}
	return out
}

func ListTenants(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tenants []models.Tenant
		if err := db.Preload("TenantPlan.Plan").Preload("Language").
			Order("created_at desc").Find(&tenants).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		now := time.Now()
		views := tenantViews(now, tenants)

		// state filter re-derives instead of trusting a stored column
		if want := r.URL.Query().Get("state"); want != "" {
			filtered := views[:0]
			for _, v := range views {
				if string(v.State) == want {
					filtered = append(filtered, v)
				}
			}
			views = filtered
		}
		respondJSON(w, views)
	}
}

func GetTenant(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t models.Tenant
		if err := db.Preload("TenantPlan.Plan").Preload("Language").
			First(&t, "id = ?", chi.URLParam(r, "id")).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		respondJSON(w, tenantView{Tenant: t, State: contract.Resolve(time.Now(), contract.SnapshotOf(t))})
	}
}

// applyTenantPlan validates and maps the nested contract payload.
func applyTenantPlan(db *gorm.DB, tp *models.TenantPlan, req tenantPlanReq) error {
	var plan models.Plan
	if err := db.First(&plan, "id = ?", req.PlanID).Error; err != nil {
		return errors.New("unknown plan")
	}
	tp.PlanID = plan.ID

	switch req.DiscountType {
	case "", models.DiscountNone:
		tp.DiscountType = models.DiscountNone
	case models.DiscountRate, models.DiscountFixed:
		tp.DiscountType = req.DiscountType
	default:
		return errors.New("discount_type must be none, rate or fixed")
	}
	if req.DiscountValue != nil {
		tp.DiscountValue = *req.DiscountValue
	}
	if req.ContractPriceOverride != nil {
		tp.ContractPriceOverride = decimal.NewNullDecimal(*req.ContractPriceOverride)
	} else {
		tp.ContractPriceOverride = decimal.NullDecimal{}
	}

	start, err := parseDate(req.ContractStartAt)
	if err != nil {
		return errors.New("invalid contract_start_at")
	}
	end, err := parseDate(req.ContractEndAt)
	if err != nil {
		return errors.New("invalid contract_end_at")
	}
	if start == nil {
		return errors.New("contract_start_at required")
	}
	if end != nil && end.Before(*start) {
		return errors.New("contract_end_at must be on or after contract_start_at")
	}
	tp.ContractStartAt = start
	tp.ContractEndAt = end
	return nil
}

func CreateTenant(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tenantReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Name == nil || req.Code == nil || req.LanguageID == nil {
			http.Error(w, "name/code/language_id required", http.StatusBadRequest)
			return
		}

		t := models.Tenant{
			Name:                  strings.TrimSpace(*req.Name),
			Code:                  strings.TrimSpace(*req.Code),
			IsActive:              true,
			LanguageID:            *req.LanguageID,
			AuditLogRetentionDays: 90,
			CreatedAt:             time.Now(),
			UpdatedAt:             time.Now(),
		}
		if err := applyTenantFields(&t, req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Plan != nil {
			tp := &models.TenantPlan{CreatedAt: time.Now(), UpdatedAt: time.Now()}
			if err := applyTenantPlan(db, tp, *req.Plan); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			t.TenantPlan = tp
		}

		// save-time guard: an expired tenant is never persisted active
		contract.GuardSave(time.Now(), &t)

		if err := db.Create(&t).Error; err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		meta := audit.RequestMeta(r, "Tenant", itoa(t.ID), &t.ID)
		rec.MustRecord(r.Context(), audit.BuildCreated(meta, tenantSnapshot(t)))

		respondStatus(w, http.StatusCreated, tenantView{Tenant: t, State: contract.Resolve(time.Now(), contract.SnapshotOf(t))})
	}
}

func UpdateTenant(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tenantReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var t models.Tenant
		if err := db.Preload("TenantPlan").First(&t, "id = ?", chi.URLParam(r, "id")).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		before := tenantSnapshot(t)

		if req.Name != nil {
			t.Name = strings.TrimSpace(*req.Name)
		}
		if req.Code != nil {
			t.Code = strings.TrimSpace(*req.Code)
		}
		if err := applyTenantFields(&t, req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Plan != nil {
			if t.TenantPlan == nil {
				t.TenantPlan = &models.TenantPlan{TenantID: t.ID, CreatedAt: time.Now()}
			}
			if err := applyTenantPlan(db, t.TenantPlan, *req.Plan); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			t.TenantPlan.UpdatedAt = time.Now()
		}

		contract.GuardSave(time.Now(), &t)
		t.UpdatedAt = time.Now()

		err := db.Transaction(func(tx *gorm.DB) error {
			if t.TenantPlan != nil {
				t.TenantPlan.TenantID = t.ID
				if err := tx.Save(t.TenantPlan).Error; err != nil {
					return err
				}
			}
			return tx.Omit(clause.Associations).Save(&t).Error
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		meta := audit.RequestMeta(r, "Tenant", itoa(t.ID), &t.ID)
		rec.MustRecord(r.Context(), audit.BuildUpdated(meta, before, tenantSnapshot(t)))

		respondJSON(w, tenantView{Tenant: t, State: contract.Resolve(time.Now(), contract.SnapshotOf(t))})
	}
}

// DeleteTenant tombstones the tenant; rows stay recoverable.
func DeleteTenant(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t models.Tenant
		if err := db.Preload("TenantPlan").First(&t, "id = ?", chi.URLParam(r, "id")).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := db.Delete(&t).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		meta := audit.RequestMeta(r, "Tenant", itoa(t.ID), &t.ID)
		rec.MustRecord(r.Context(), audit.BuildDeleted(meta, tenantSnapshot(t)))

		respondJSON(w, map[string]any{"deleted": true})
	}
}

func applyTenantFields(t *models.Tenant, req tenantReq) error {
	if req.Domain != nil {
		t.Domain = *req.Domain
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if req.NotifyName != nil {
		t.NotifyName = models.EncryptedString(*req.NotifyName)
	}
	if req.NotifyEmail != nil {
		t.NotifyEmail = models.EncryptedString(*req.NotifyEmail)
	}
	if req.LanguageID != nil {
		t.LanguageID = *req.LanguageID
	}
	if req.AuditLogRetentionDays != nil {
		if *req.AuditLogRetentionDays <= 0 {
			return errors.New("audit_log_retention_days must be positive")
		}
		t.AuditLogRetentionDays = *req.AuditLogRetentionDays
	}
	if req.TrialStartAt != nil {
		d, err := parseDate(*req.TrialStartAt)
		if err != nil {
			return errors.New("invalid trial_start_at")
		}
		t.TrialStartAt = d
	}
	if req.TrialEndsAt != nil {
		d, err := parseDate(*req.TrialEndsAt)
		if err != nil {
			return errors.New("invalid trial_ends_at")
		}
		t.TrialEndsAt = d
	}
	if t.TrialStartAt != nil && t.TrialEndsAt != nil && t.TrialEndsAt.Before(*t.TrialStartAt) {
		return errors.New("trial_ends_at must be on or after trial_start_at")
	}
	return nil
}
