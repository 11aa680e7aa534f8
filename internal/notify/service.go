package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantcore/internal/models"
)

// Service resolves a template by key, renders it for a tenant and hands it
// to the mailer.
type Service struct {
	db      *gorm.DB
	mailer  Mailer
	appName string
	lg      *zap.SugaredLogger
}

func NewService(db *gorm.DB, mailer Mailer, appName string, lg *zap.SugaredLogger) *Service {
	return &Service{db: db, mailer: mailer, appName: appName, lg: lg}
}

// Send delivers templateKey to the tenant's notification address, or to
// overrideEmail when set (test sends). A missing template or address is a
// skip, not a failure; a transport error is logged and returned so the
// caller decides whether to surface it.
func (s *Service) Send(ctx context.Context, templateKey string, tenant models.Tenant, overrideEmail string) (bool, error) {
	var tpl models.NotifyMailTemplate
	err := s.db.WithContext(ctx).
		Where("key = ? AND is_active = ?", templateKey, true).
		First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.lg.Warnw("mail skip: template not found", "key", templateKey)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("notify: load template %q: %w", templateKey, err)
	}

	target := overrideEmail
	if target == "" {
		target = tenant.NotifyEmail.String()
	}
	if target == "" {
		s.lg.Warnw("mail skip: tenant has no notify address", "key", templateKey, "tenant", tenant.Code)
		return false, nil
	}

	subject, body := s.renderFor(tpl, tenant)
	if err := s.mailer.Send(target, subject, body); err != nil {
		s.lg.Errorw("mail send failed", "key", templateKey, "tenant", tenant.Code, "error", err)
		return false, fmt.Errorf("notify: send %q: %w", templateKey, err)
	}
	return true, nil
}

// Preview renders subject and body for a tenant without sending.
func (s *Service) Preview(tpl models.NotifyMailTemplate, tenant models.Tenant) (string, string) {
	return s.renderFor(tpl, tenant)
}

func (s *Service) renderFor(tpl models.NotifyMailTemplate, tenant models.Tenant) (string, string) {
	vars := BuildVariables(tpl, tenant, s.appName)
	return Render(tpl.Subject, vars), Render(tpl.Body, vars)
}
