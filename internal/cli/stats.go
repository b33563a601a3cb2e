package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your record and the leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("no auth token; run `gridlock login` first")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			session, err := Dial(ctx, cfg.ServerURL, cfg.Token)
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.RequestStats(ctx); err != nil {
				return err
			}

			select {
			case event, ok := <-session.Events:
				if !ok {
					return fmt.Errorf("connection closed before stats arrived")
				}
				fmt.Println(event)
				return nil
			case <-ctx.Done():
				return fmt.Errorf("timed out waiting for stats")
			}
		},
	}
}
