package cmd

import (
	"fmt"
	"go/types"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	cmdUtils "github.com/72mo2c/pero-system-sub002/cmd/utils"
	"github.com/72mo2c/pero-system-sub002/internal/serve/middleware"
)

type operatorTokenOptions struct {
	Secret         string
	OperatorID     string
	ExpiresInHours int
}

// OperatorTokenCommand issues the tokens sent in the X-Operator-Token header, which name the operator performing the
// API calls in the activity log.
type OperatorTokenCommand struct{}

func (c *OperatorTokenCommand) Command() *cobra.Command {
	opts := operatorTokenOptions{}
	configOpts := config.ConfigOptions{
		{
			Name:      "token-secret",
			Usage:     "The secret the API server verifies the operator tokens with, the value of its --operator-token-secret option",
			OptType:   types.String,
			ConfigKey: &opts.Secret,
			Required:  true,
		},
		{
			Name:      "operator-id",
			Usage:     "The operator the token is issued to, as it should appear in the activity log",
			OptType:   types.String,
			ConfigKey: &opts.OperatorID,
			Required:  true,
		},
		{
			Name:        "expires-in-hours",
			Usage:       "Hours until the token expires",
			OptType:     types.Int,
			ConfigKey:   &opts.ExpiresInHours,
			FlagDefault: 12,
			Required:    true,
		},
	}

	cmd := &cobra.Command{
		Use:   "operator-token",
		Short: "Issue an operator token for the administration API",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmdUtils.PropagatePersistentPreRun(cmd, args)

			configOpts.Require()
			if err := configOpts.SetValues(); err != nil {
				log.Ctx(cmd.Context()).Fatalf("Error setting values of config options: %s", err.Error())
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.ExpiresInHours < 1 {
				return fmt.Errorf("expires-in-hours must be at least 1")
			}

			tokenManager, err := middleware.NewOperatorTokenManager(opts.Secret)
			if err != nil {
				return fmt.Errorf("creating operator token manager: %w", err)
			}

			token, err := tokenManager.GenerateToken(opts.OperatorID, time.Duration(opts.ExpiresInHours)*time.Hour)
			if err != nil {
				return fmt.Errorf("generating operator token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	if err := configOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}
