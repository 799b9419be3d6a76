package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/clubhouse/internal/invites/app"
	"github.com/aussiebroadwan/clubhouse/internal/invites/service"
)

const adminPasswordEnv = "CLUBHOUSE_ADMIN_PASSWORD"

func bootstrapCmd() *cobra.Command {
	var (
		teamName   string
		adminName  string
		adminEmail string
	)

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first team and its admin account",
		Long: `Create the first team and its admin account on an empty database.

The admin password is read from ` + adminPasswordEnv + ` so it never appears in
shell history. Running bootstrap a second time fails without changing anything.

Examples:
  ` + adminPasswordEnv + `=... clubhouse bootstrap --team "Thunder U12" \
      --admin-name "Sam Admin" --admin-email sam@club.example`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			hasher, err := app.NewHasher(cfg)
			if err != nil {
				return err
			}

			st, err := app.OpenStore(cfg)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer st.Close()

			if err := st.ApplyMigrations(); err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}

			svc := &service.BootstrapService{Store: st, Hasher: hasher}
			res, err := svc.Bootstrap(commandContext(cmd, cfg), service.BootstrapRequest{
				TeamName:      teamName,
				AdminName:     adminName,
				AdminEmail:    adminEmail,
				AdminPassword: os.Getenv(adminPasswordEnv),
			})
			if errors.Is(err, service.ErrAlreadyBootstrapped) {
				return errors.New("database already has a team; nothing to do")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "team:    %s (%s)\n", res.Team.Name, res.Team.ID)
			fmt.Fprintf(out, "admin:   %s (%s)\n", res.Admin.Email, res.Admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&teamName, "team", "", "name of the first team")
	cmd.Flags().StringVar(&adminName, "admin-name", "", "full name of the admin")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "email address of the admin")
	_ = cmd.MarkFlagRequired("team")
	_ = cmd.MarkFlagRequired("admin-email")

	return cmd
}
