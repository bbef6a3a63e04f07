package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/interview-matrix/internal/repository"
)

// dbhealthCmd checks that the configured session store is reachable
var dbhealthCmd = &cobra.Command{
	Use:   "dbhealth",
	Short: "Check the configured session store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		timeout := 2 * cfg.Store.DialTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		if err := repository.Ping(ctx, cfg.Store, logger); err != nil {
			return fmt.Errorf("DB health: FAIL (%w)", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "DB health: OK (%s)\n", cfg.Store.Driver)
		return nil
	},
}
