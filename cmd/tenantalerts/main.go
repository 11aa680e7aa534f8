// Command tenantalerts runs the daily trial/contract expiry alert sweep.
// One tenant's send failure never blocks the others; the exit status only
// reflects infrastructure failures.
package main

import (
	"context"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tenantcore/internal/config"
	"tenantcore/internal/crypt"
	"tenantcore/internal/logger"
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

	mailer := &notify.SMTPMailer{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	}
	svc := notify.NewService(db, mailer, cfg.AppName, lg)

	if err := notify.NewSweeper(db, svc, lg).Run(context.Background()); err != nil {
		lg.Errorw("alert sweep failed", "error", err)
		os.Exit(1)
	}
}
