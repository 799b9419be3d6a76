package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/clubhouse/internal/invites/app"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "clubhouse",
		Short:         "Team invitations for the clubhouse fundraising app",
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(bootstrapCmd())
	rootCmd.AddCommand(inviteCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext carries the process logger so service calls log the way
// they do under serve.
func commandContext(cmd *cobra.Command, cfg app.Config) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return slogx.WithContext(ctx, app.NewLogger(cfg))
}
