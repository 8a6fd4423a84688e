package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/pkg/database"
	pkglog "github.com/weiawesome/asg-rev/pkg/log"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the chat tables",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := pkglog.L()

	db, err := database.New(cfg.Database.ToDatabase())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")
	return nil
}
