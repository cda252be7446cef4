package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-callbridge/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the leads table and indexes if missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		_, release, err := app.OpenStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer release()

		zap.L().Info("migration complete", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}
