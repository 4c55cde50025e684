package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/crashtracker"
	"github.com/72mo2c/pero-system-sub002/internal/message"
	"github.com/72mo2c/pero-system-sub002/internal/monitor"
)

// Postgres identifiers are capped at 63 bytes and tenant IDs take up to 40 of them.
var rxTenantDatabasePrefix = regexp.MustCompile(`^[a-z][a-z0-9_]{0,22}$`)

func SetConfigOptionMessengerType(co *config.ConfigOption) error {
	senderType := viper.GetString(co.Name)

	messengerType, err := message.ParseMessengerTypeFor(message.MessageChannelEmail, senderType)
	if err != nil {
		return fmt.Errorf("couldn't parse messenger type: %w", err)
	}

	*(co.ConfigKey.(*message.MessengerType)) = messengerType
	return nil
}

// SetConfigOptionSMSMessengerType parses an SMS capable messenger type. An empty value leaves SMS disabled.
func SetConfigOptionSMSMessengerType(co *config.ConfigOption) error {
	senderType := strings.TrimSpace(viper.GetString(co.Name))
	if senderType == "" {
		*(co.ConfigKey.(*message.MessengerType)) = ""
		return nil
	}

	messengerType, err := message.ParseMessengerTypeFor(message.MessageChannelSMS, senderType)
	if err != nil {
		return fmt.Errorf("couldn't parse SMS messenger type: %w", err)
	}

	*(co.ConfigKey.(*message.MessengerType)) = messengerType
	return nil
}

func SetConfigOptionMetricType(co *config.ConfigOption) error {
	metricType := viper.GetString(co.Name)

	metricTypeParsed, err := monitor.ParseMetricType(metricType)
	if err != nil {
		return fmt.Errorf("couldn't parse metric type: %w", err)
	}

	*(co.ConfigKey.(*monitor.MetricType)) = metricTypeParsed
	return nil
}

func SetConfigOptionCrashTrackerType(co *config.ConfigOption) error {
	ctType := viper.GetString(co.Name)

	ctTypeParsed, err := crashtracker.ParseCrashTrackerType(ctType)
	if err != nil {
		return fmt.Errorf("couldn't parse crash tracker type: %w", err)
	}

	*(co.ConfigKey.(*crashtracker.CrashTrackerType)) = ctTypeParsed
	return nil
}

func SetConfigOptionLogLevel(co *config.ConfigOption) error {
	logLevelStr := viper.GetString(co.Name)
	logLevel, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		return fmt.Errorf("couldn't parse log level: %w", err)
	}

	key, ok := co.ConfigKey.(*logrus.Level)
	if !ok {
		return fmt.Errorf("configKey has an invalid type %T", co.ConfigKey)
	}
	*key = logLevel

	if config.IsExplicitlySet(co) {
		log.Debugf("Setting log level to: %q", logLevel)
		log.DefaultLogger.SetLevel(*key)
	} else {
		log.Debugf("Using default log level: %q", logLevel)
	}
	return nil
}

func SetCorsAllowedOrigins(co *config.ConfigOption) error {
	corsAllowedOriginsOptions := viper.GetString(co.Name)

	if corsAllowedOriginsOptions == "" {
		return fmt.Errorf("cors allowed addresses cannot be empty")
	}

	corsAllowedOrigins := strings.Split(corsAllowedOriginsOptions, ",")

	for i, address := range corsAllowedOrigins {
		address = strings.TrimSpace(address)
		corsAllowedOrigins[i] = address
		if address == "*" {
			log.Warn(`The value "*" for the CORS Allowed Origins is too permissive and not recommended.`)
			continue
		}
		if _, err := url.ParseRequestURI(address); err != nil {
			return fmt.Errorf("error parsing cors addresses: %w", err)
		}
	}

	key, ok := co.ConfigKey.(*[]string)
	if !ok {
		return fmt.Errorf("the expected type for this config key is a string slice, but got a %T instead", co.ConfigKey)
	}
	*key = corsAllowedOrigins

	return nil
}

// SetConfigOptionTenantDatabasePrefix validates the prefix of the tenant database names. It must be a lower case
// identifier, so every database name built from it is a valid unquoted Postgres identifier.
func SetConfigOptionTenantDatabasePrefix(co *config.ConfigOption) error {
	prefix := strings.TrimSpace(viper.GetString(co.Name))

	if !rxTenantDatabasePrefix.MatchString(prefix) {
		return fmt.Errorf("tenant database prefix %q must start with a lower case letter and contain up to 23 lower case letters, digits or underscores", prefix)
	}

	key, ok := co.ConfigKey.(*string)
	if !ok {
		return fmt.Errorf("the expected type for this config key is a string, but got a %T instead", co.ConfigKey)
	}
	*key = prefix

	return nil
}
