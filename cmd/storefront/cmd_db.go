package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/database/seeders"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

// bootDB loads config and opens the database connection. The returned func
// disconnects.
func bootDB(ctx context.Context) (func(), error) {
	if err := config.Load(); err != nil {
		return func() {}, err
	}
	if err := database.Connect(ctx); err != nil {
		return func() {}, err
	}
	return func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = database.Disconnect(dctx)
	}, nil
}

// storefront migrate
var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Aliases: []string{"indexes"},
	Short:   "Run all pending migrations (collection indexes)",
	RunE: func(cmd *cobra.Command, args []string) error {
		closeDB, err := bootDB(cmd.Context())
		defer closeDB()
		if err != nil {
			return err
		}
		ran, err := migration.New(database.DB).Run(cmd.Context())
		for _, name := range ran {
			fmt.Fprintln(cmd.OutOrStdout(), "  • Migrated:", name)
		}
		return err
	},
}

// storefront migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		closeDB, err := bootDB(cmd.Context())
		defer closeDB()
		if err != nil {
			return err
		}
		rolled, err := migration.New(database.DB).Rollback(cmd.Context())
		for _, name := range rolled {
			fmt.Fprintln(cmd.OutOrStdout(), "  • Rolled back:", name)
		}
		return err
	},
}

// storefront migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show which migrations are pending",
	RunE: func(cmd *cobra.Command, args []string) error {
		closeDB, err := bootDB(cmd.Context())
		defer closeDB()
		if err != nil {
			return err
		}
		pending, err := migration.New(database.DB).PendingNames(cmd.Context())
		if err != nil {
			return err
		}
		waiting := make(map[string]bool, len(pending))
		for _, name := range pending {
			waiting[name] = true
		}
		for _, name := range migration.Names() {
			state := "ran"
			if waiting[name] {
				state = "pending"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-8s %s\n", state, name)
		}
		return nil
	},
}

// storefront seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		closeDB, err := bootDB(cmd.Context())
		defer closeDB()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
		return seeders.RunAll(cmd.Context(), repositories.NewMongoStore(database.DB), cmd.OutOrStdout())
	},
}
