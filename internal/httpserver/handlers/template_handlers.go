package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantcore/internal/audit"
	"tenantcore/internal/models"
	"tenantcore/internal/notify"
)

func templateSnapshot(t models.NotifyMailTemplate) map[string]any {
	return map[string]any{
		"key":               t.Key,
		"slug":              t.Slug,
		"title":             t.Title,
		"channel":           t.Channel,
		"subject":           t.Subject,
		"body":              t.Body,
		"allowed_variables": t.AllowedVariables,
		"is_active":         t.IsActive,
	}
}

func ListTemplates(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tpls []models.NotifyMailTemplate
		_ = db.Order("key asc").Find(&tpls).Error
		respondJSON(w, tpls)
	}
}

func GetTemplate(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tpl models.NotifyMailTemplate
		if err := db.First(&tpl, "id = ?", chi.URLParam(r, "id")).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		respondJSON(w, tpl)
	}
}

type templateReq struct {
	Key              *string            `json:"key"`
	Slug             *string            `json:"slug"`
	Title            *string            `json:"title"`
	Channel          *string            `json:"channel"`
	Subject          *string            `json:"subject"`
	Body             *string            `json:"body"`
	AllowedVariables *models.StringList `json:"allowed_variables"`
	Description      *string            `json:"description"`
	IsActive         *bool              `json:"is_active"`
}

func applyTemplateFields(t *models.NotifyMailTemplate, req templateReq) {
	if req.Slug != nil {
		t.Slug = *req.Slug
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Channel != nil {
		t.Channel = *req.Channel
	}
	if req.Subject != nil {
		t.Subject = *req.Subject
	}
	if req.Body != nil {
		t.Body = *req.Body
	}
	if req.AllowedVariables != nil {
		t.AllowedVariables = *req.AllowedVariables
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
}

// validateTemplateBody returns a 422 payload when subject or body use
// tokens outside the allow-list, naming the offending tokens.
func validateTemplateBody(w http.ResponseWriter, t models.NotifyMailTemplate) bool {
	if err := notify.ValidateTemplate(t.Subject, t.Body, t.AllowedVariables); err != nil {
		var verr *notify.ValidationError
		if errors.As(err, &verr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":  verr.Error(),
				"tokens": verr.Tokens,
			})
			return false
		}
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return false
	}
	return true
}

func CreateTemplate(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req templateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Key == nil || req.Subject == nil || req.Body == nil {
			http.Error(w, "key/subject/body required", http.StatusBadRequest)
			return
		}
		tpl := models.NotifyMailTemplate{
			Key:       *req.Key,
			Channel:   models.ChannelMail,
			IsActive:  true,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		applyTemplateFields(&tpl, req)
		if !validateTemplateBody(w, tpl) {
			return
		}
		if err := db.Create(&tpl).Error; err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		meta := audit.RequestMeta(r, "NotifyMailTemplate", itoa(tpl.ID), nil)
		rec.MustRecord(r.Context(), audit.BuildCreated(meta, templateSnapshot(tpl)))

		respondStatus(w, http.StatusCreated, tpl)
	}
}

func UpdateTemplate(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req templateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var tpl models.NotifyMailTemplate
		if err := db.First(&tpl, "id = ?", chi.URLParam(r, "id")).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		before := templateSnapshot(tpl)

		if req.Key != nil {
			tpl.Key = *req.Key
		}
		applyTemplateFields(&tpl, req)
		if !validateTemplateBody(w, tpl) {
			return
		}
		tpl.UpdatedAt = time.Now()
		if err := db.Save(&tpl).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		meta := audit.RequestMeta(r, "NotifyMailTemplate", itoa(tpl.ID), nil)
		rec.MustRecord(r.Context(), audit.BuildUpdated(meta, before, templateSnapshot(tpl)))

		respondJSON(w, tpl)
	}
}

func DeleteTemplate(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tpl models.NotifyMailTemplate
		if err := db.First(&tpl, "id = ?", chi.URLParam(r, "id")).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := db.Delete(&tpl).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		meta := audit.RequestMeta(r, "NotifyMailTemplate", itoa(tpl.ID), nil)
		rec.MustRecord(r.Context(), audit.BuildDeleted(meta, templateSnapshot(tpl)))

		respondJSON(w, map[string]any{"deleted": true})
	}
}

// PreviewTemplate renders a template against a tenant without sending.
func PreviewTemplate(db *gorm.DB, svc *notify.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Key      string `json:"key"`
			TenantID uint   `json:"tenant_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var tpl models.NotifyMailTemplate
		if err := db.First(&tpl, "key = ?", req.Key).Error; err != nil {
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		var tenant models.Tenant
		if err := db.Preload("TenantPlan").First(&tenant, "id = ?", req.TenantID).Error; err != nil {
			http.Error(w, "tenant not found", http.StatusNotFound)
			return
		}
		subject, body := svc.Preview(tpl, tenant)
		respondJSON(w, map[string]string{"subject": subject, "body": body})
	}
}

// SendTestMail delivers a rendered template to an explicit address so
// operators can verify content before the sweeper uses it.
func SendTestMail(db *gorm.DB, svc *notify.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Key      string `json:"key"`
			TenantID uint   `json:"tenant_id"`
			To       string `json:"to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.To == "" {
			http.Error(w, "to required", http.StatusBadRequest)
			return
		}
		var tenant models.Tenant
		if err := db.Preload("TenantPlan").First(&tenant, "id = ?", req.TenantID).Error; err != nil {
			http.Error(w, "tenant not found", http.StatusNotFound)
			return
		}
		sent, err := svc.Send(r.Context(), req.Key, tenant, req.To)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		respondJSON(w, map[string]any{"sent": sent})
	}
}
