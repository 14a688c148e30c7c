package main

import (
	"fmt"

	"approv-backend/internal/adapter/repository/mysql"
	ucApproval "approv-backend/internal/usecase/approval"

	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-expired",
		Short: "Mark pending approvals past their deadline as expired",
		Long: "Housekeeping only. Expiry is already derived at read time, so running this " +
			"changes stored status but never what clients see.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, gdb, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeDB(gdb, log)

			uc := ucApproval.NewUsecase(
				mysql.NewApprovalRepository(gdb),
				mysql.NewProjectRepository(gdb),
				mysql.NewClientRepository(gdb),
				mysql.NewGormUoW(gdb),
				ucApproval.Options{PublicBaseURL: cfg.PublicBaseURL, Logger: log},
			)
			n, err := uc.SweepExpired(cmd.Context())
			if err != nil {
				log.WithError(err).Error("sweep failed")
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d approvals\n", n)
			return nil
		},
	}
}
