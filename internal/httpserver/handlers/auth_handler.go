package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantcore/internal/audit"
	"tenantcore/internal/auth"
	"tenantcore/internal/locale"
	"tenantcore/internal/models"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an operator, opens a revocable session and records
// the login in the audit ledger.
func Login(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var u models.AdminUser
		if err := db.Preload("Role").First(&u, "email = ?", strings.ToLower(strings.TrimSpace(req.Email))).Error; err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		roleName := ""
		if u.Role != nil {
			roleName = u.Role.Name
		}
		tok, jti, err := auth.Sign(u.ID, roleName)
		if err != nil {
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}
		sess := models.Session{
			JTI:       jti,
			UserID:    u.ID,
			ExpiresAt: time.Now().Add(auth.TokenTTL()),
			CreatedAt: time.Now(),
		}
		if err := db.Create(&sess).Error; err != nil {
			http.Error(w, "session error", http.StatusInternalServerError)
			return
		}
		now := time.Now()
		_ = db.Model(&u).Update("last_login_at", now).Error

		meta := audit.RequestMeta(r, "AdminUser", u.ID, nil)
		meta.ActorID = &u.ID
		rec.MustRecord(r.Context(), audit.BuildEvent(meta, models.AuditLogin, map[string]any{"email": u.Email}))

		respondJSON(w, map[string]any{"token": tok, "role": roleName})
	}
}

// Logout revokes the session behind the presented token.
func Logout(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.FromContext(r.Context())
		now := time.Now()
		if err := db.Model(&models.Session{}).
			Where("jti = ?", claims.JWTID).
			Update("revoked_at", now).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		meta := audit.RequestMeta(r, "AdminUser", claims.Subject, nil)
		rec.MustRecord(r.Context(), audit.BuildEvent(meta, models.AuditLogout, nil))

		respondJSON(w, map[string]any{"revoked": true})
	}
}

func Me(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := auth.Subject(r.Context())
		var u models.AdminUser
		if err := db.Preload("Role").First(&u, "id = ?", sub).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		respondJSON(w, map[string]any{
			"id":             u.ID,
			"name":           u.Name,
			"email":          u.Email,
			"role":           u.Role,
			"locale":         u.Locale,
			"request_locale": locale.FromContext(r.Context()),
		})
	}
}

type changePasswordReq struct {
	Current string `json:"current"`
	New     string `json:"new"`
}

func ChangePassword(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.New == "" {
			http.Error(w, "new password required", http.StatusBadRequest)
			return
		}
		sub := auth.Subject(r.Context())
		var u models.AdminUser
		if err := db.First(&u, "id = ?", sub).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := auth.CheckPassword(u.PasswordHash, req.Current); err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		hash, err := auth.HashPassword(req.New)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		if err := db.Model(&u).Update("password_hash", hash).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"updated": true})
	}
}
