package db

import (
	"context"
	"fmt"
	"strconv"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/cmd/utils"
	"github.com/72mo2c/pero-system-sub002/db"
	"github.com/72mo2c/pero-system-sub002/db/migrations"
)

// MigrationsExecutor applies count migrations in the dir direction. A zero count applies all of them.
type MigrationsExecutor func(ctx context.Context, dir migrate.MigrationDirection, count int) error

// MigrateCmd returns the `migrate up|down` commands, delegating the work to executeMigrationsFn.
func MigrateCmd(executeMigrationsFn MigrationsExecutor) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:              "migrate",
		Short:            "Schema migration helpers",
		PersistentPreRun: utils.PropagatePersistentPreRun,
		RunE:             utils.CallHelpCommand,
	}

	migrateUpCmd := &cobra.Command{
		Use:              "up [count]",
		Short:            "Migrates database up [count] migrations, or all of them when count is omitted",
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRun: utils.PropagatePersistentPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			var count int
			if len(args) > 0 {
				var err error
				if count, err = parseCount(args[0]); err != nil {
					return err
				}
			}

			if err := executeMigrationsFn(cmd.Context(), migrate.Up, count); err != nil {
				return fmt.Errorf("executing migrate up: %w", err)
			}
			return nil
		},
	}

	migrateDownCmd := &cobra.Command{
		Use:              "down <count>",
		Short:            "Migrates database down <count> migrations",
		Args:             cobra.ExactArgs(1),
		PersistentPreRun: utils.PropagatePersistentPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := parseCount(args[0])
			if err != nil {
				return err
			}

			if err = executeMigrationsFn(cmd.Context(), migrate.Down, count); err != nil {
				return fmt.Errorf("executing migrate down: %w", err)
			}
			return nil
		},
	}

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	return migrateCmd
}

func parseCount(arg string) (int, error) {
	count, err := strconv.Atoi(arg)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("invalid [count] argument: %s", arg)
	}
	return count, nil
}

// ExecuteMigrations runs the migrations of migrationRouter against the database at dbURL.
func ExecuteMigrations(ctx context.Context, dbURL string, dir migrate.MigrationDirection, count int, migrationRouter migrations.MigrationRouter) error {
	numMigrationsRun, err := db.Migrate(dbURL, dir, count, migrationRouter)
	if err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	if numMigrationsRun == 0 {
		log.Ctx(ctx).Info("No migrations applied.")
	} else {
		log.Ctx(ctx).Infof("Successfully applied %d migrations %s.", numMigrationsRun, migrationDirectionStr(dir))
	}
	return nil
}

func migrationDirectionStr(dir migrate.MigrationDirection) string {
	if dir == migrate.Up {
		return "up"
	}
	return "down"
}
