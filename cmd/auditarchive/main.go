// Command auditarchive moves audit rows past retention into a CSV file
// and deletes them. Meant to run daily from a scheduler; exits non-zero
// on failure so the scheduler can alert.
package main

import (
	"context"
	"errors"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tenantcore/internal/audit"
	"tenantcore/internal/config"
	"tenantcore/internal/logger"
)

func main() {
	lg := logger.New()
	defer lg.Sync()

	cfg, err := config.Load()
	if err != nil {
		lg.Fatalw("config load failed", "error", err)
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}

	n, err := audit.NewArchiver(db, cfg.ArchiveDir, lg).Run(context.Background())
	if errors.Is(err, audit.ErrArchiveRunning) {
		lg.Infow("archive already running elsewhere, skipping")
		os.Exit(0)
	}
	if err != nil {
		lg.Errorw("archive run failed", "error", err)
		os.Exit(1)
	}
	lg.Infow("archive run complete", "archived", n)
}
