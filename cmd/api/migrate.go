package main

import (
	"github.com/spf13/cobra"

	"github.com/helpdesk/support-desk/internal/persistence"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *persistence.Migrator) error {
				return m.Up(cmd.Context())
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *persistence.Migrator) error {
				return m.Down(cmd.Context(), steps)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *persistence.Migrator) error {
				return m.Status(cmd.Context())
			})
		},
	})
	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(*persistence.Migrator) error) error {
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

	return fn(persistence.NewMigrator(pg.PoolHandle(), env.logger))
}
