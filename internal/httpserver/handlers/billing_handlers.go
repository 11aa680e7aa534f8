package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantcore/internal/billing"
	"tenantcore/internal/models"
)

// TenantBillingPreview computes a charge breakdown for the tenant's
// current contract at a hypothetical usage level. Nothing is persisted.
func TenantBillingPreview(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Usage int `json:"usage"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Usage < 0 {
			http.Error(w, "usage must not be negative", http.StatusBadRequest)
			return
		}

		var t models.Tenant
		if err := db.Preload("TenantPlan.Plan").First(&t, "id = ?", chi.URLParam(r, "id")).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if t.TenantPlan == nil {
			http.Error(w, "tenant has no contract", http.StatusUnprocessableEntity)
			return
		}

		bd, err := billing.Calculate(*t.TenantPlan, req.Usage)
		if errors.Is(err, billing.ErrPlanRequired) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, bd)
	}
}

// BillingPreview computes a breakdown from explicit plan and contract
// terms, for quoting before any tenant exists.
func BillingPreview(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlanID                uint                `json:"plan_id"`
			Usage                 int                 `json:"usage"`
			DiscountType          string              `json:"discount_type"`
			DiscountValue         decimal.Decimal     `json:"discount_value"`
			ContractPriceOverride decimal.NullDecimal `json:"contract_price_override"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Usage < 0 {
			http.Error(w, "usage must not be negative", http.StatusBadRequest)
			return
		}
		if req.DiscountType == "" {
			req.DiscountType = models.DiscountNone
		}
		switch req.DiscountType {
		case models.DiscountNone, models.DiscountRate, models.DiscountFixed:
		default:
			http.Error(w, "discount_type must be none, rate or fixed", http.StatusBadRequest)
			return
		}

		var plan models.Plan
		if err := db.First(&plan, "id = ?", req.PlanID).Error; err != nil {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}

		tp := models.TenantPlan{
			Plan:                  &plan,
			PlanID:                plan.ID,
			DiscountType:          req.DiscountType,
			DiscountValue:         req.DiscountValue,
			ContractPriceOverride: req.ContractPriceOverride,
		}
		bd, err := billing.Calculate(tp, req.Usage)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		respondJSON(w, bd)
	}
}
