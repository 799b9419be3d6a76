package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/clubhouse/internal/invites/app"
	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
	"github.com/aussiebroadwan/clubhouse/internal/invites/service"
)

func inviteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Manage team invites",
	}
	cmd.AddCommand(inviteSendCmd())
	cmd.AddCommand(inviteExpireCmd())
	return cmd
}

func inviteSendCmd() *cobra.Command {
	var (
		as     string
		email  string
		role   string
		teamID string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Issue an invite and print its join link",
		Long: `Issue an invite on behalf of an existing coach or admin and print the
join link. The same authorization rules as the HTTP API apply.

Examples:
  clubhouse invite send --as 01J... --team 01J... --email a@x.com --role athlete`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			st, err := app.OpenStore(cfg)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer st.Close()

			svc := &service.InviteService{
				Store:        st,
				Origin:       cfg.AppOrigin,
				StoreTimeout: cfg.StoreTimeout,
			}
			issued, err := svc.IssueInvite(commandContext(cmd, cfg), as, email, domain.Role(role), teamID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "invite:  %s\n", issued.Invite.ID)
			fmt.Fprintf(out, "expires: %s\n", issued.Invite.ExpiresAt.Format("2006-01-02 15:04 MST"))
			fmt.Fprintf(out, "link:    %s\n", issued.Link)
			return nil
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "account ID of the coach or admin issuing the invite")
	cmd.Flags().StringVar(&email, "email", "", "address to invite")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAthlete), "role granted on redemption (admin, coach, parent, athlete)")
	cmd.Flags().StringVar(&teamID, "team", "", "team ID")
	_ = cmd.MarkFlagRequired("as")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("team")

	return cmd
}

func inviteExpireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-overdue",
		Short: "Mark overdue pending invites as expired once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			st, err := app.OpenStore(cfg)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer st.Close()

			ctx := commandContext(cmd, cfg)
			hk := service.NewHousekeepingService(st, app.NewLogger(cfg), cfg.HousekeepingInterval)
			hk.StoreTimeout = cfg.StoreTimeout
			n, err := hk.ExpireOverdue(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "expired %d invite(s)\n", n)
			return nil
		},
	}
}
