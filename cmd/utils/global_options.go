package utils

import (
	"github.com/sirupsen/logrus"

	"github.com/72mo2c/pero-system-sub002/internal/crashtracker"
)

// GlobalOptionsType holds the options shared by every command of the CLI.
type GlobalOptionsType struct {
	LogLevel             logrus.Level
	SentryDSN            string
	Environment          string
	Version              string
	GitCommit            string
	DatabaseURL          string
	TenantDatabasePrefix string
}

// PopulateCrashTrackerOptions fills the crash tracker options that come from the global options.
func (g GlobalOptionsType) PopulateCrashTrackerOptions(crashTrackerOptions *crashtracker.CrashTrackerOptions) {
	if crashTrackerOptions.CrashTrackerType == crashtracker.CrashTrackerTypeSentry {
		crashTrackerOptions.SentryDSN = g.SentryDSN
	}
	crashTrackerOptions.Environment = g.Environment
	crashTrackerOptions.GitCommit = g.GitCommit
}
