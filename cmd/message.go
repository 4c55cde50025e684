package cmd

import (
	"context"
	"fmt"
	"go/types"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	cmdUtils "github.com/72mo2c/pero-system-sub002/cmd/utils"
	"github.com/72mo2c/pero-system-sub002/internal/message"
)

type MessageCommand struct{}

type MessengerServiceInterface interface {
	GetClient(opts message.MessengerOptions) (message.MessengerClient, error)
	SendMessage(ctx context.Context, opts message.MessengerOptions, msg message.Message) error
}

type MessengerService struct{}

var _ MessengerServiceInterface = (*MessengerService)(nil)

func (m *MessengerService) GetClient(opts message.MessengerOptions) (message.MessengerClient, error) {
	return message.GetClient(opts)
}

func (m *MessengerService) SendMessage(ctx context.Context, opts message.MessengerOptions, msg message.Message) error {
	messengerClient, err := m.GetClient(opts)
	if err != nil {
		return fmt.Errorf("getting messenger client: %w", err)
	}

	if err = msg.ValidateFor(message.MessageChannelEmail); err != nil {
		return fmt.Errorf("validating message: %w", err)
	}

	return messengerClient.SendMessage(ctx, msg)
}

// Command returns the `message` command, used to check the email configuration before it is used to notify tenants.
func (s *MessageCommand) Command(messengerService MessengerServiceInterface) *cobra.Command {
	opts := message.MessengerOptions{}
	messageCmdConfigOpts := config.ConfigOptions(cmdUtils.EmailClientConfigOptions(&opts))

	messageCmd := &cobra.Command{
		Use:   "message",
		Short: "Email related commands",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmdUtils.PropagatePersistentPreRun(cmd, args)

			messageCmdConfigOpts.Require()
			err := messageCmdConfigOpts.SetValues()
			if err != nil {
				log.Ctx(cmd.Context()).Fatalf("Error setting values of config options: %s", err.Error())
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			_, err := messengerService.GetClient(opts)
			if err != nil {
				log.Ctx(ctx).Fatalf("Error creating the messenger client: %s", err.Error())
			}

			log.Ctx(ctx).Infof("🎉 Successfully mounted messenger client for type %s", opts.MessengerType)
		},
	}
	err := messageCmdConfigOpts.Init(messageCmd)
	if err != nil {
		log.Ctx(messageCmd.Context()).Fatalf("Error initializing messageCmd config option: %s", err.Error())
	}

	messageCmd.AddCommand(s.sendMessageCommand(messengerService, &opts))

	return messageCmd
}

func (s *MessageCommand) sendMessageCommand(messengerService MessengerServiceInterface, messageOptions *message.MessengerOptions) *cobra.Command {
	msg := message.Message{}
	sendMessageCmdConfigOpts := config.ConfigOptions{
		{
			Name:      "email",
			Usage:     "The email address to send the message to",
			OptType:   types.String,
			ConfigKey: &msg.ToEmail,
			Required:  true,
		},
		{
			Name:        "title",
			Usage:       "The subject of the email",
			OptType:     types.String,
			ConfigKey:   &msg.Title,
			FlagDefault: "Test email",
			Required:    true,
		},
		{
			Name:      "message",
			Usage:     "The text of the email",
			OptType:   types.String,
			ConfigKey: &msg.Body,
			Required:  true,
		},
	}
	sendMessageCmd := &cobra.Command{
		Use:   "send",
		Short: "Send an email with the configured messenger",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmdUtils.PropagatePersistentPreRun(cmd, args)

			sendMessageCmdConfigOpts.Require()
			err := sendMessageCmdConfigOpts.SetValues()
			if err != nil {
				log.Ctx(cmd.Context()).Fatalf("Error setting values of config options: %s", err.Error())
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			err := messengerService.SendMessage(cmd.Context(), *messageOptions, msg)
			if err != nil {
				log.Ctx(cmd.Context()).Fatalf("Error sending message: %s", err.Error())
			}
		},
	}
	err := sendMessageCmdConfigOpts.Init(sendMessageCmd)
	if err != nil {
		log.Ctx(sendMessageCmd.Context()).Fatalf("Error initializing a sendMessageCmd option: %s", err.Error())
	}

	return sendMessageCmd
}
