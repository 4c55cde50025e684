package utils

import (
	"fmt"
	"go/types"
	"time"

	"github.com/stellar/go-stellar-sdk/support/config"

	"github.com/72mo2c/pero-system-sub002/db"
	"github.com/72mo2c/pero-system-sub002/db/router"
	"github.com/72mo2c/pero-system-sub002/internal/crashtracker"
	"github.com/72mo2c/pero-system-sub002/internal/message"
)

// DBPoolOptions contains tunables for the PostgreSQL connection pools.
type DBPoolOptions struct {
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxIdleTimeSeconds int
	DBConnMaxLifetimeSeconds int
	DBConnectTimeoutSeconds  int
	DBStatementTimeoutSecs   int
}

// DBPoolConfig converts the options into the pool configuration of the db package.
func (o DBPoolOptions) DBPoolConfig() db.DBPoolConfig {
	return db.DBPoolConfig{
		MaxOpenConns:     o.DBMaxOpenConns,
		MaxIdleConns:     o.DBMaxIdleConns,
		ConnMaxIdleTime:  time.Duration(o.DBConnMaxIdleTimeSeconds) * time.Second,
		ConnMaxLifetime:  time.Duration(o.DBConnMaxLifetimeSeconds) * time.Second,
		ConnectTimeout:   time.Duration(o.DBConnectTimeoutSeconds) * time.Second,
		StatementTimeout: time.Duration(o.DBStatementTimeoutSecs) * time.Second,
	}
}

// DBPoolConfigOptions returns config options for tuning the DB connection pool.
func DBPoolConfigOptions(opts *DBPoolOptions) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:        "db-max-open-conns",
			Usage:       "Maximum number of open DB connections of the registry pool",
			OptType:     types.Int,
			ConfigKey:   &opts.DBMaxOpenConns,
			FlagDefault: db.DefaultDBPoolConfig.MaxOpenConns,
			Required:    false,
		},
		{
			Name:        "db-max-idle-conns",
			Usage:       "Maximum number of idle DB connections retained by the registry pool",
			OptType:     types.Int,
			ConfigKey:   &opts.DBMaxIdleConns,
			FlagDefault: db.DefaultDBPoolConfig.MaxIdleConns,
			Required:    false,
		},
		{
			Name:        "db-conn-max-idle-time-seconds",
			Usage:       "Maximum idle time in seconds before a connection is closed",
			OptType:     types.Int,
			ConfigKey:   &opts.DBConnMaxIdleTimeSeconds,
			FlagDefault: db.DefaultConnMaxIdleTimeSeconds,
			Required:    false,
		},
		{
			Name:        "db-conn-max-lifetime-seconds",
			Usage:       "Maximum lifetime in seconds for a single connection",
			OptType:     types.Int,
			ConfigKey:   &opts.DBConnMaxLifetimeSeconds,
			FlagDefault: db.DefaultConnMaxLifetimeSeconds,
			Required:    false,
		},
		{
			Name:        "db-connect-timeout-seconds",
			Usage:       "Maximum time in seconds to wait for a new connection to any database. Zero waits forever.",
			OptType:     types.Int,
			ConfigKey:   &opts.DBConnectTimeoutSeconds,
			FlagDefault: db.DefaultConnectTimeoutSeconds,
			Required:    false,
		},
		{
			Name:        "db-statement-timeout-seconds",
			Usage:       "Maximum time in seconds a single statement may run on any database. Zero disables the limit.",
			OptType:     types.Int,
			ConfigKey:   &opts.DBStatementTimeoutSecs,
			FlagDefault: int(db.DefaultStatementTimeout.Seconds()),
			Required:    false,
		},
	}
}

// TenantDatabasePrefixConfigOption is the prefix every tenant database name starts with.
func TenantDatabasePrefixConfigOption(targetPointer interface{}) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "tenant-database-prefix",
		Usage:          "The prefix of the tenant database names. Databases with this prefix and no tenant are reported as orphaned.",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionTenantDatabasePrefix,
		ConfigKey:      targetPointer,
		FlagDefault:    router.DefaultTenantDatabasePrefix,
		Required:       true,
	}
}

// EmailClientConfigOptions returns the config options of the client used to email the tenant contacts.
func EmailClientConfigOptions(opts *message.MessengerOptions) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:           "email-sender-type",
			Usage:          fmt.Sprintf("The messenger type used to send the tenant activation emails. Options: %+v", message.MessengerTypesFor(message.MessageChannelEmail)),
			OptType:        types.String,
			CustomSetValue: SetConfigOptionMessengerType,
			ConfigKey:      &opts.MessengerType,
			FlagDefault:    string(message.MessengerTypeDryRun),
			Required:       true,
		},
		// Twilio Email (SendGrid)
		{
			Name:      "twilio-sendgrid-api-key",
			Usage:     "The API key of the Twilio SendGrid account",
			OptType:   types.String,
			ConfigKey: &opts.TwilioSendGridAPIKey,
			Required:  false,
		},
		{
			Name:      "twilio-sendgrid-sender-address",
			Usage:     "The email address that Twilio SendGrid will use to send emails",
			OptType:   types.String,
			ConfigKey: &opts.TwilioSendGridSenderAddress,
			Required:  false,
		},
		// AWS Email (SES)
		{
			Name:      "aws-access-key-id",
			Usage:     "The AWS access key ID",
			OptType:   types.String,
			ConfigKey: &opts.AWSAccessKeyID,
			Required:  false,
		},
		{
			Name:      "aws-secret-access-key",
			Usage:     "The AWS secret access key",
			OptType:   types.String,
			ConfigKey: &opts.AWSSecretAccessKey,
			Required:  false,
		},
		{
			Name:      "aws-region",
			Usage:     "The AWS region",
			OptType:   types.String,
			ConfigKey: &opts.AWSRegion,
			Required:  false,
		},
		{
			Name:      "aws-ses-sender-id",
			Usage:     "The email address that AWS will use to send emails. Uses AWS SES.",
			OptType:   types.String,
			ConfigKey: &opts.AWSSESSenderID,
			Required:  false,
		},
	}
}

// SMSClientConfigOptions returns the config options of the client used to text the tenant contacts when their email
// cannot be delivered. The AWS credentials are shared with EmailClientConfigOptions, so the SMS client is built from a
// copy of the email options with smsType set.
func SMSClientConfigOptions(smsType *message.MessengerType, opts *message.MessengerOptions) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:           "sms-sender-type",
			Usage:          fmt.Sprintf("The messenger type used to text the tenant contacts. Leave empty to disable SMS. Options: %+v", message.MessengerTypesFor(message.MessageChannelSMS)),
			OptType:        types.String,
			CustomSetValue: SetConfigOptionSMSMessengerType,
			ConfigKey:      smsType,
			Required:       false,
		},
		// Twilio SMS
		{
			Name:      "twilio-account-sid",
			Usage:     "The SID of the Twilio account",
			OptType:   types.String,
			ConfigKey: &opts.TwilioAccountSID,
			Required:  false,
		},
		{
			Name:      "twilio-auth-token",
			Usage:     "The auth token of the Twilio account",
			OptType:   types.String,
			ConfigKey: &opts.TwilioAuthToken,
			Required:  false,
		},
		{
			Name:      "twilio-service-sid",
			Usage:     "The SID of the Twilio messaging service the SMS are sent from",
			OptType:   types.String,
			ConfigKey: &opts.TwilioServiceSID,
			Required:  false,
		},
		// AWS SMS (SNS)
		{
			Name:      "aws-sns-sender-id",
			Usage:     "The optional sender ID shown on the SMS sent through AWS SNS",
			OptType:   types.String,
			ConfigKey: &opts.AWSSNSSenderID,
			Required:  false,
		},
	}
}

func CrashTrackerTypeConfigOption(targetPointer interface{}) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "crash-tracker-type",
		Usage:          `Crash tracker type. Options: "SENTRY", "DRY_RUN"`,
		OptType:        types.String,
		CustomSetValue: SetConfigOptionCrashTrackerType,
		ConfigKey:      targetPointer,
		FlagDefault:    string(crashtracker.CrashTrackerTypeDryRun),
		Required:       true,
	}
}

// TenantRoutingOptions selects the tenants a command applies to.
type TenantRoutingOptions struct {
	All      bool
	TenantID string
}

func (o *TenantRoutingOptions) ValidateFlags() error {
	if !o.All && o.TenantID == "" {
		return fmt.Errorf(
			"invalid config. Please specify --all to run the command for all provisioned tenants " +
				"or specify --tenant-id to run it for a specific tenant",
		)
	}
	return nil
}

// TenantRoutingConfigOptions returns the config options for commands that apply to all tenants or a specific tenant.
func TenantRoutingConfigOptions(opts *TenantRoutingOptions) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:        "all",
			Usage:       "Apply the command to all provisioned tenants. Either --tenant-id or --all must be set, but the --all option will be ignored if --tenant-id is set.",
			OptType:     types.Bool,
			FlagDefault: false,
			ConfigKey:   &opts.All,
			Required:    false,
		},
		{
			Name:      "tenant-id",
			Usage:     "The tenant ID where the command will be applied.",
			OptType:   types.String,
			ConfigKey: &opts.TenantID,
			Required:  false,
		},
	}
}
