package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantcore/internal/audit"
	"tenantcore/internal/models"
)

func planSnapshot(p models.Plan) map[string]any {
	return map[string]any{
		"code":                   p.Code,
		"name":                   p.Name,
		"pricing_type":           p.PricingType,
		"base_price":             p.BasePrice,
		"annual_fee":             p.AnnualFee,
		"unit_price":             p.UnitPrice,
		"overage_unit_price":     p.OverageUnitPrice,
		"included_mails":         p.IncludedMails,
		"tax_rate":               p.TaxRate,
		"default_retention_days": p.DefaultRetentionDays,
	}
}

func ListPlans(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var plans []models.Plan
		_ = db.Order("id asc").Find(&plans).Error
		respondJSON(w, plans)
	}
}

type planReq struct {
	Code                 *string          `json:"code"`
	Name                 *string          `json:"name"`
	PricingType          *string          `json:"pricing_type"`
	BasePrice            *decimal.Decimal `json:"base_price"`
	AnnualFee            *decimal.Decimal `json:"annual_fee"`
	UnitPrice            *decimal.Decimal `json:"unit_price"`
	OverageUnitPrice     *decimal.Decimal `json:"overage_unit_price"`
	IncludedMails        *int             `json:"included_mails"`
	TaxRate              *decimal.Decimal `json:"tax_rate"`
	DefaultRetentionDays *int             `json:"default_retention_days"`
}

func validPricingType(s string) bool {
	switch s {
	case models.PricingBundle, models.PricingMetered, models.PricingUnlimited:
		return true
	}
	return false
}

func applyPlanFields(p *models.Plan, req planReq) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.BasePrice != nil {
		p.BasePrice = *req.BasePrice
	}
	if req.AnnualFee != nil {
		p.AnnualFee = *req.AnnualFee
	}
	if req.UnitPrice != nil {
		p.UnitPrice = *req.UnitPrice
	}
	if req.OverageUnitPrice != nil {
		p.OverageUnitPrice = *req.OverageUnitPrice
	}
	if req.IncludedMails != nil {
		p.IncludedMails = *req.IncludedMails
	}
	if req.TaxRate != nil {
		p.TaxRate = *req.TaxRate
	}
	if req.DefaultRetentionDays != nil {
		p.DefaultRetentionDays = *req.DefaultRetentionDays
	}
}

func CreatePlan(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Code == nil || req.Name == nil || req.PricingType == nil {
			http.Error(w, "code/name/pricing_type required", http.StatusBadRequest)
			return
		}
		if !validPricingType(*req.PricingType) {
			http.Error(w, "pricing_type must be bundle, metered or unlimited", http.StatusBadRequest)
			return
		}
		p := models.Plan{
			Code:                 *req.Code,
			PricingType:          *req.PricingType,
			TaxRate:              decimal.NewFromInt(10),
			DefaultRetentionDays: 90,
			CreatedAt:            time.Now(),
			UpdatedAt:            time.Now(),
		}
		applyPlanFields(&p, req)
		if err := db.Create(&p).Error; err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		meta := audit.RequestMeta(r, "Plan", itoa(p.ID), nil)
		rec.MustRecord(r.Context(), audit.BuildCreated(meta, planSnapshot(p)))

		respondStatus(w, http.StatusCreated, p)
	}
}

func UpdatePlan(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var p models.Plan
		if err := db.First(&p, "id = ?", chi.URLParam(r, "id")).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		before := planSnapshot(p)

		if req.PricingType != nil {
			if !validPricingType(*req.PricingType) {
				http.Error(w, "pricing_type must be bundle, metered or unlimited", http.StatusBadRequest)
				return
			}
			p.PricingType = *req.PricingType
		}
		if req.Code != nil {
			p.Code = *req.Code
		}
		applyPlanFields(&p, req)
		p.UpdatedAt = time.Now()
		if err := db.Save(&p).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		meta := audit.RequestMeta(r, "Plan", itoa(p.ID), nil)
		rec.MustRecord(r.Context(), audit.BuildUpdated(meta, before, planSnapshot(p)))

		respondJSON(w, p)
	}
}

// DeletePlan refuses to remove a plan any contract still references.
func DeletePlan(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p models.Plan
		if err := db.First(&p, "id = ?", chi.URLParam(r, "id")).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var refs int64
		if err := db.Model(&models.TenantPlan{}).Where("plan_id = ?", p.ID).Count(&refs).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if refs > 0 {
			http.Error(w, "plan is referenced by active contracts", http.StatusConflict)
			return
		}
		if err := db.Delete(&p).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		meta := audit.RequestMeta(r, "Plan", itoa(p.ID), nil)
		rec.MustRecord(r.Context(), audit.BuildDeleted(meta, planSnapshot(p)))

		respondJSON(w, map[string]any{"deleted": true})
	}
}
