package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tenantcore/internal/audit"
	"tenantcore/internal/auth"
	"tenantcore/internal/config"
	"tenantcore/internal/crypt"
	"tenantcore/internal/httpserver"
	"tenantcore/internal/logger"
	"tenantcore/internal/models"
	"tenantcore/internal/notify"
)

func main() {
	lg := logger.New()
	defer lg.Sync()

	cfg, err := config.Load()
	if err != nil {
		lg.Fatalw("config load failed", "error", err)
	}
	if err := crypt.SetKey([]byte(cfg.FieldKey)); err != nil {
		lg.Fatalw("field encryption key rejected", "error", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.Role{}, &models.AdminUser{}, &models.Session{},
		&models.Language{}, &models.Plan{}, &models.Tenant{}, &models.TenantPlan{},
		&models.AdminAuditLog{}, &models.NotifyMailTemplate{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}
	seed(db, lg)

	mailer := &notify.SMTPMailer{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	}
	svc := notify.NewService(db, mailer, cfg.AppName, lg)
	rec := audit.NewRecorder(db, lg)

	router := httpserver.NewRouter(db, rec, svc, lg)
	lg.Infow("listening", "port", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}

func seed(db *gorm.DB, lg *zap.SugaredLogger) {
	for _, name := range []string{models.RoleSuperAdmin, models.RoleTenantAdmin, models.RoleViewer} {
		db.Exec("INSERT INTO roles(name) VALUES (?) ON CONFLICT DO NOTHING", name)
	}
	for _, l := range []models.Language{{Code: "en", Name: "English"}, {Code: "ja", Name: "Japanese"}} {
		db.Where(models.Language{Code: l.Code}).FirstOrCreate(&models.Language{}, l)
	}
	seedDefaultAdmin(db, lg)
	seedPlans(db)
	seedTemplates(db)
}

func seedDefaultAdmin(db *gorm.DB, lg *zap.SugaredLogger) {
	email := strings.ToLower("admin@tenantcore.local")
	var count int64
	db.Model(&models.AdminUser{}).Where("LOWER(email) = ?", email).Count(&count)
	if count > 0 {
		return
	}
	var role models.Role
	if err := db.First(&role, "name = ?", models.RoleSuperAdmin).Error; err != nil {
		lg.Errorw("seed: super_admin role missing", "error", err)
		return
	}
	hash, _ := auth.HashPassword("changeme")
	u := models.AdminUser{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		RoleID:       role.ID,
		Locale:       "en",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&u).Error; err != nil {
		lg.Errorw("seed: default admin create failed", "error", err)
		return
	}
	lg.Infow("seeded default admin", "email", email)
}

func seedPlans(db *gorm.DB) {
	plans := []models.Plan{
		{
			Code: "starter", Name: "Starter", PricingType: models.PricingBundle,
			BasePrice: decimal.NewFromInt(25000), OverageUnitPrice: decimal.NewFromInt(400),
			IncludedMails: 1000, TaxRate: decimal.NewFromInt(10), DefaultRetentionDays: 90,
		},
		{
			Code: "metered", Name: "Metered", PricingType: models.PricingMetered,
			UnitPrice: decimal.NewFromInt(50), OverageUnitPrice: decimal.NewFromInt(50),
			TaxRate: decimal.NewFromInt(10), DefaultRetentionDays: 90,
		},
		{
			Code: "enterprise", Name: "Enterprise", PricingType: models.PricingUnlimited,
			AnnualFee: decimal.NewFromInt(1200000), TaxRate: decimal.NewFromInt(10),
			DefaultRetentionDays: 180,
		},
	}
	for _, p := range plans {
		db.Where(models.Plan{Code: p.Code}).FirstOrCreate(&models.Plan{}, p)
	}
}

func seedTemplates(db *gorm.DB) {
	tpls := []models.NotifyMailTemplate{
		{
			Key: notify.TemplateTrialEnding, Slug: "trial-3days", Title: "Trial ending reminder",
			Channel: models.ChannelMail,
			Subject: "{{app_name}}: your trial ends on {{expiry_date}}",
			Body:    "Hello {{notify_name}},\n\nThe trial for {{tenant_name}} ends on {{expiry_date}}.\n",
			AllowedVariables: models.StringList{"app_name", "tenant_name", "notify_name", "expiry_date"},
			IsActive:         true,
		},
		{
			Key: notify.TemplateContractEnding, Slug: "contract-before-7days", Title: "Contract renewal reminder",
			Channel: models.ChannelMail,
			Subject: "{{app_name}}: contract for {{tenant_name}} ends on {{expiry_date}}",
			Body:    "Hello {{notify_name}},\n\nThe contract for {{tenant_name}} ends on {{expiry_date}}.\n",
			AllowedVariables: models.StringList{"app_name", "tenant_name", "notify_name", "expiry_date"},
			IsActive:         true,
		},
	}
	for _, t := range tpls {
		db.Where(models.NotifyMailTemplate{Key: t.Key}).FirstOrCreate(&models.NotifyMailTemplate{}, t)
	}
}
