package db

import (
	"context"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/cmd/utils"
	"github.com/72mo2c/pero-system-sub002/db"
	"github.com/72mo2c/pero-system-sub002/db/migrations"
	"github.com/72mo2c/pero-system-sub002/db/router"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
)

const DBConfigOptionFlagName = "database-url"

type DatabaseCommand struct{}

func (c *DatabaseCommand) Command(globalOptions *utils.GlobalOptionsType) *cobra.Command {
	cmd := &cobra.Command{
		Use:              "db",
		Short:            "Database related commands",
		PersistentPreRun: utils.PropagatePersistentPreRun,
		RunE:             utils.CallHelpCommand,
	}

	cmd.AddCommand(c.registryMigrationsCmd(globalOptions)) // 'registry migrate up|down'
	cmd.AddCommand(c.tenantMigrationsCmd(globalOptions))   // 'tenant migrate up|down'

	return cmd
}

// registryMigrationsCmd runs the migrations of the main database, which holds the tenant registry and the activity
// log. They are tracked in the `registry_migrations` table.
func (c *DatabaseCommand) registryMigrationsCmd(globalOptions *utils.GlobalOptionsType) *cobra.Command {
	registryCmd := &cobra.Command{
		Use:              "registry",
		Short:            "Migrations of the main database holding the tenant registry. They are tracked in the table `registry_migrations`.",
		PersistentPreRun: utils.PropagatePersistentPreRun,
		RunE:             utils.CallHelpCommand,
	}

	registryCmd.AddCommand(MigrateCmd(func(ctx context.Context, dir migrate.MigrationDirection, count int) error {
		return ExecuteMigrations(ctx, globalOptions.DatabaseURL, dir, count, migrations.RegistryMigrationRouter)
	}))

	return registryCmd
}

// tenantMigrationsCmd runs the tenant schema migrations on already provisioned tenant databases, according to the
// --all or --tenant-id configs. They are tracked in the `tenant_migrations` table of each tenant database.
func (c *DatabaseCommand) tenantMigrationsCmd(globalOptions *utils.GlobalOptionsType) *cobra.Command {
	opts := utils.TenantRoutingOptions{}
	var configOptions config.ConfigOptions = utils.TenantRoutingConfigOptions(&opts)

	tenantCmd := &cobra.Command{
		Use:   "tenant",
		Short: "Schema migrations of the provisioned tenant databases, applied according to the --all or --tenant-id configs. They are tracked in the table `tenant_migrations`.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			utils.PropagatePersistentPreRun(cmd, args)
			configOptions.Require()
			if err := configOptions.SetValues(); err != nil {
				log.Ctx(cmd.Context()).Fatalf("Error setting values of config options: %v", err)
			}
		},
		RunE: utils.CallHelpCommand,
	}

	tenantCmd.AddCommand(MigrateCmd(func(ctx context.Context, dir migrate.MigrationDirection, count int) error {
		if err := opts.ValidateFlags(); err != nil {
			return err
		}

		registryPool, err := db.OpenDBConnectionPool(globalOptions.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opening registry database connection pool: %w", err)
		}
		defer registryPool.Close()

		registry := tenant.NewManager(
			tenant.WithDatabase(registryPool),
			tenant.WithTenantDatabasePrefix(globalOptions.TenantDatabasePrefix),
		)

		tenants, err := provisionedTenants(ctx, registry, opts)
		if err != nil {
			return err
		}

		for _, t := range tenants {
			log.Ctx(ctx).Infof("Applying migrations on tenant %s (database %s)", t.TenantID, t.DatabaseName)

			dsn, err := router.GetDSNForTenant(globalOptions.DatabaseURL, t.DatabaseName)
			if err != nil {
				return fmt.Errorf("getting DSN of tenant %s: %w", t.TenantID, err)
			}

			if err = ExecuteMigrations(ctx, dsn, dir, count, migrations.TenantMigrationRouter); err != nil {
				return fmt.Errorf("migrating tenant %s: %w", t.TenantID, err)
			}
		}
		return nil
	}))

	if err := configOptions.Init(tenantCmd); err != nil {
		log.Ctx(tenantCmd.Context()).Fatalf("initializing config options: %v", err)
	}

	return tenantCmd
}

// provisionedTenants returns the tenants selected by opts whose database was provisioned. Tenants that were never
// provisioned have no database to migrate.
func provisionedTenants(ctx context.Context, registry tenant.ManagerInterface, opts utils.TenantRoutingOptions) ([]tenant.Tenant, error) {
	if opts.TenantID != "" {
		t, err := registry.GetTenantByTenantID(ctx, opts.TenantID)
		if err != nil {
			return nil, fmt.Errorf("getting tenant %s: %w", opts.TenantID, err)
		}
		if !t.IsProvisioned() {
			return nil, fmt.Errorf("tenant %s has no provisioned database while it is %s", t.TenantID, t.Status)
		}
		return []tenant.Tenant{*t}, nil
	}

	tenants, err := tenant.ListProvisionedTenants(ctx, registry)
	if err != nil {
		return nil, fmt.Errorf("listing provisioned tenants: %w", err)
	}
	return tenants, nil
}
