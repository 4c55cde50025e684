package message

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/utils"
)

// sendGridSender is the part of *sendgrid.Client used to deliver mail.
type sendGridSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

var _ sendGridSender = (*sendgrid.Client)(nil)

type twilioSendGridClient struct {
	client        sendGridSender
	senderAddress string
}

func (c *twilioSendGridClient) MessengerType() MessengerType {
	return MessengerTypeTwilioEmail
}

func (c *twilioSendGridClient) SendMessage(ctx context.Context, message Message) error {
	if err := message.ValidateFor(MessageChannelEmail); err != nil {
		return fmt.Errorf("validating SendGrid message: %w", err)
	}

	email, err := newSendGridMail(message, c.senderAddress)
	if err != nil {
		return fmt.Errorf("building SendGrid message: %w", err)
	}

	resp, err := c.client.Send(email)
	if err != nil {
		return fmt.Errorf("calling SendGrid: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("SendGrid rejected the message with status %d: %s", resp.StatusCode, resp.Body)
	}

	log.Ctx(ctx).
		WithField("sendgrid_message_id", sendGridMessageID(resp)).
		Debugf("SendGrid accepted the email to %q", utils.TruncateString(message.ToEmail, 3))
	return nil
}

func newSendGridMail(message Message, sender string) (*mail.SGMailV3, error) {
	html, err := htmlBody(message.Body)
	if err != nil {
		return nil, err
	}
	return mail.NewSingleEmail(mail.NewEmail("", sender), message.Title, mail.NewEmail("", message.ToEmail), "", html), nil
}

func sendGridMessageID(resp *rest.Response) string {
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0]
	}
	return ""
}

// NewTwilioSendGridClient returns a client that sends emails through the SendGrid v3 API.
func NewTwilioSendGridClient(apiKey string, senderAddress string) (MessengerClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("SendGrid API key is required")
	}

	senderAddress = strings.TrimSpace(senderAddress)
	if err := utils.ValidateEmail(senderAddress); err != nil {
		return nil, fmt.Errorf("invalid SendGrid sender address: %w", err)
	}

	return &twilioSendGridClient{
		client:        sendgrid.NewSendClient(apiKey),
		senderAddress: senderAddress,
	}, nil
}
