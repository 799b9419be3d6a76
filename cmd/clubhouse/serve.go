package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/clubhouse/internal/invites/app"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the invite HTTP API",
		Long: `Run the invite HTTP API.

Configuration is read from the environment (and a .env file in the working
directory). JWT_SECRET is required; see DB_DRIVER, DATABASE_FILE and
DATABASE_URL for storage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			application, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run()
		},
	}
}
