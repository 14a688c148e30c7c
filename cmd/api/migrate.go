package main

import (
	"approv-backend/internal/infrastructure/db"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, gdb, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeDB(gdb, log)

			if err := db.Migrate(gdb); err != nil {
				log.WithError(err).Error("migration failed")
				return err
			}
			log.Info("migration complete")
			return nil
		},
	}
}
