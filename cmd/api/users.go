package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helpdesk/support-desk/internal/auth"
	"github.com/helpdesk/support-desk/internal/domain"
	"github.com/helpdesk/support-desk/internal/repository"
	"github.com/helpdesk/support-desk/internal/service"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Account administration",
	}

	var email, role string
	promote := &cobra.Command{
		Use:   "promote",
		Short: "Change the role of an existing account",
		Example: "  support-desk users promote --email admin@example.com\n" +
			"  support-desk users promote --email mod@example.com --role moderator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadRuntime()
			if err != nil {
				return err
			}
			defer env.logger.Sync() //nolint:errcheck

			pg, err := openDatabase(cmd.Context(), env)
			if err != nil {
				return err
			}
			defer pg.Close()

			authService := service.NewAuthService(env.cfg.Auth,
				repository.NewUserRepository(pg.PoolHandle()),
				auth.NewTokenManager(env.cfg.Auth.JWTSecret, env.cfg.Auth.AccessTokenTTLMinutes),
				env.logger)

			user, err := authService.PromoteByEmail(cmd.Context(), email, domain.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
			return nil
		},
	}
	promote.Flags().StringVar(&email, "email", "", "account email")
	promote.Flags().StringVar(&role, "role", string(domain.RoleAdmin), "new role: user, moderator or admin")
	_ = promote.MarkFlagRequired("email")
	cmd.AddCommand(promote)
	return cmd
}
