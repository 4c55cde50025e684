package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/cmd"
	cmdUtils "github.com/72mo2c/pero-system-sub002/cmd/utils"
)

// Version is the official version of this application.
const Version = "1.0.0"

// GitCommit is populated at build time by
// go build -ldflags "-X main.GitCommit=$GIT_COMMIT"
var GitCommit string

func main() {
	preConfigureLogger()

	envFile, err := cmdUtils.LoadEnvFile(os.Args, os.Getenv)
	if err != nil {
		log.Fatalf("Error loading the env file: %v", err)
	}
	if envFile.Path != "" {
		log.Debugf("Loaded env file %s (%s)", envFile.Path, envFile.Source)
	}

	rootCmd := cmd.SetupCLI(Version, GitCommit)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing root command: %v", err)
	}
}

// preConfigureLogger sets the log level to Trace, so logs work from the start. It is overwritten by the --log-level
// option in cmd/root.go.
func preConfigureLogger() {
	log.DefaultLogger = log.New()
	log.DefaultLogger.SetLevel(logrus.TraceLevel)
}
