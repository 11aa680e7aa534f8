package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantcore/internal/audit"
	"tenantcore/internal/auth"
	"tenantcore/internal/models"
)

func adminUserSnapshot(u models.AdminUser) map[string]any {
	return map[string]any{
		"name":    u.Name,
		"email":   u.Email,
		"role_id": u.RoleID,
		"locale":  u.Locale,
	}
}

func ListAdminUsers(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var users []models.AdminUser
		_ = db.Preload("Role").Order("created_at desc").Find(&users).Error
		respondJSON(w, users)
	}
}

type adminUserReq struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	RoleID   *int    `json:"role_id"`
	Locale   *string `json:"locale"`
}

func CreateAdminUser(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adminUserReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Name == nil || req.Email == nil || req.Password == nil || req.RoleID == nil {
			http.Error(w, "name/email/password/role_id required", http.StatusBadRequest)
			return
		}
		var role models.Role
		if err := db.First(&role, "id = ?", *req.RoleID).Error; err != nil {
			http.Error(w, "unknown role", http.StatusBadRequest)
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		u := models.AdminUser{
			Name:         *req.Name,
			Email:        strings.ToLower(strings.TrimSpace(*req.Email)),
			PasswordHash: hash,
			RoleID:       role.ID,
			Locale:       "en",
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if req.Locale != nil && *req.Locale != "" {
			u.Locale = *req.Locale
		}
		if err := db.Create(&u).Error; err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		meta := audit.RequestMeta(r, "AdminUser", u.ID, nil)
		rec.MustRecord(r.Context(), audit.BuildCreated(meta, adminUserSnapshot(u)))

		respondStatus(w, http.StatusCreated, map[string]any{"id": u.ID})
	}
}

// UpdateAdminUser applies a partial update. A change that touches the role
// is recorded as role_changed instead of updated; the entry builder owns
// that exclusivity.
func UpdateAdminUser(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req adminUserReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var u models.AdminUser
		if err := db.First(&u, "id = ?", id).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		before := adminUserSnapshot(u)

		if req.Name != nil {
			u.Name = *req.Name
		}
		if req.Email != nil {
			u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		}
		if req.Locale != nil {
			u.Locale = *req.Locale
		}
		if req.RoleID != nil {
			var role models.Role
			if err := db.First(&role, "id = ?", *req.RoleID).Error; err != nil {
				http.Error(w, "unknown role", http.StatusBadRequest)
				return
			}
			u.RoleID = role.ID
		}
		if req.Password != nil && *req.Password != "" {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				http.Error(w, "hash error", http.StatusInternalServerError)
				return
			}
			u.PasswordHash = hash
		}
		u.UpdatedAt = time.Now()
		if err := db.Save(&u).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		meta := audit.RequestMeta(r, "AdminUser", u.ID, nil)
		rec.MustRecord(r.Context(), audit.BuildUpdated(meta, before, adminUserSnapshot(u)))

		respondJSON(w, map[string]any{"updated": true})
	}
}

func DeleteAdminUser(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var u models.AdminUser
		if err := db.First(&u, "id = ?", id).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := db.Delete(&u).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		meta := audit.RequestMeta(r, "AdminUser", u.ID, nil)
		rec.MustRecord(r.Context(), audit.BuildDeleted(meta, adminUserSnapshot(u)))

		respondJSON(w, map[string]any{"deleted": true})
	}
}
