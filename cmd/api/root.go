package main

import (
	"fmt"

	"approv-backend/internal/config"
	"approv-backend/internal/infrastructure/db"
	"approv-backend/internal/infrastructure/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "approv",
		Short:        "Client approval workflow service",
		SilenceUsage: true,
		// serve is the default
		RunE: func(cmd *cobra.Command, args []string) error { return runServe(cmd.Context()) },
	}
	cmd.AddCommand(newServeCmd(), newMigrateCmd(), newSweepCmd(), newTokenCmd())
	return cmd
}

// bootstrap loads config and opens the database shared by every command.
func bootstrap() (*config.Config, *logrus.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), db.LogLevel(cfg.LogLevel))
	if err != nil {
		log.WithError(err).Error("database unavailable")
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, log, gdb, nil
}

func closeDB(gdb *gorm.DB, log logrus.FieldLogger) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("close database")
	}
}
