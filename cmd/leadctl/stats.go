package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xavierca1/ligue-callbridge/internal/app"
	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

var statsSince time.Duration

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print lead counts by call status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		store, release, err := app.OpenStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer release()

		counts, err := store.CountByStatusSince(cmd.Context(), time.Now().Add(-statsSince))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, s := range []entity.CallStatus{entity.CallStatusCompleted, entity.CallStatusAbandoned, entity.CallStatusVoicemail} {
			fmt.Fprintf(out, "%-10s %d\n", s, counts[s])
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().DurationVar(&statsSince, "since", 24*time.Hour, "look-back window")
}
