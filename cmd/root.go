package cmd

import (
	"go/types"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/cmd/db"
	cmdUtils "github.com/72mo2c/pero-system-sub002/cmd/utils"
	"github.com/72mo2c/pero-system-sub002/internal/monitor"
)

// globalOptions holds the CLI options that apply to every command and subcommand.
var globalOptions cmdUtils.GlobalOptionsType

func rootCmd() *cobra.Command {
	configOpts := config.ConfigOptions{
		{
			Name:           "log-level",
			Usage:          `The log level used in this project. Options: "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", or "PANIC".`,
			OptType:        types.String,
			FlagDefault:    "TRACE",
			ConfigKey:      &globalOptions.LogLevel,
			CustomSetValue: cmdUtils.SetConfigOptionLogLevel,
			Required:       true,
		},
		{
			Name:      "sentry-dsn",
			Usage:     "The DSN (client key) of the Sentry project. If not provided, Sentry will not be used.",
			OptType:   types.String,
			ConfigKey: &globalOptions.SentryDSN,
			Required:  false,
		},
		{
			Name:        "environment",
			Usage:       `The environment where the application is running. Example: "development", "staging", "production".`,
			OptType:     types.String,
			FlagDefault: "development",
			ConfigKey:   &globalOptions.Environment,
			Required:    true,
		},
		{
			Name:        db.DBConfigOptionFlagName,
			Usage:       "Postgres URL of the main database, the one holding the tenant registry. Tenant databases are reached on the same server.",
			OptType:     types.String,
			FlagDefault: "postgres://localhost:5432/wms_main?sslmode=disable",
			ConfigKey:   &globalOptions.DatabaseURL,
			Required:    true,
		},
		cmdUtils.TenantDatabasePrefixConfigOption(&globalOptions.TenantDatabasePrefix),
	}

	rootCmd := &cobra.Command{
		Use:     "wms-admin",
		Short:   "Warehouse management SaaS administration",
		Long:    "Administration backend of the multi-tenant warehouse management platform. It registers tenants, provisions an isolated database for each of them and drives their subscription lifecycle.",
		Version: globalOptions.Version,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configOpts.Require()
			err := configOpts.SetValues()
			if err != nil {
				log.Fatalf("Error setting values of config options: %s", err.Error())
			}
			log.Info("Version: ", globalOptions.Version)
			log.Info("GitCommit: ", globalOptions.GitCommit)
		},
		RunE: cmdUtils.CallHelpCommand,
	}

	err := configOpts.Init(rootCmd)
	if err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}
	// Read by cmdUtils.LoadEnvFile before the CLI is set up, registered here so cobra accepts it.
	rootCmd.PersistentFlags().String(cmdUtils.EnvFileFlagName, "", "Path of an env file to load. Defaults to the "+cmdUtils.EnvFileEnvVar+" env var, then to .env in the working directory.")

	return rootCmd
}

// SetupCLI sets up the CLI and returns the root command with the subcommands attached.
func SetupCLI(version, gitCommit string) *cobra.Command {
	globalOptions.Version = version
	globalOptions.GitCommit = gitCommit
	rootCmd := rootCmd()

	rootCmd.AddCommand((&ServeCommand{}).Command(&ServerService{}, &monitor.MonitorService{}))
	rootCmd.AddCommand((&db.DatabaseCommand{}).Command(&globalOptions))
	rootCmd.AddCommand((&TenantsCommand{}).Command(NewTenantDependencies, &PromptConfirmer{}))
	rootCmd.AddCommand((&MessageCommand{}).Command(&MessengerService{}))
	rootCmd.AddCommand((&OperatorTokenCommand{}).Command())

	return rootCmd
}
