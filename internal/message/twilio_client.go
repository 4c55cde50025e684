package message

import (
	"context"
	"fmt"
	"strings"

	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/twilio/twilio-go"
	twilioAPI "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/72mo2c/pero-system-sub002/internal/utils"
)

type twilioAPIInterface interface {
	CreateMessage(params *twilioAPI.CreateMessageParams) (*twilioAPI.ApiV2010Message, error)
}

var _ twilioAPIInterface = (*twilioAPI.ApiService)(nil)

// twilioClient sends SMS through a Twilio messaging service.
type twilioClient struct {
	apiService twilioAPIInterface
	serviceSID string
}

func (c *twilioClient) MessengerType() MessengerType {
	return MessengerTypeTwilioSMS
}

func (c *twilioClient) SendMessage(ctx context.Context, message Message) error {
	if err := message.ValidateFor(MessageChannelSMS); err != nil {
		return fmt.Errorf("validating SMS message: %w", err)
	}

	resp, err := c.apiService.CreateMessage(&twilioAPI.CreateMessageParams{
		To:                  &message.ToPhoneNumber,
		Body:                &message.SMSBody,
		MessagingServiceSid: &c.serviceSID,
	})
	if err != nil {
		return fmt.Errorf("sending Twilio SMS: %w", err)
	}

	// Twilio can accept the request and still report a delivery error in the body.
	if resp.ErrorCode != nil || resp.ErrorMessage != nil {
		var errorCode string
		if resp.ErrorCode != nil {
			errorCode = fmt.Sprintf("%d", *resp.ErrorCode)
		}
		return fmt.Errorf("the SMS was rejected by Twilio {code: %q, message: %q}", errorCode, utils.ValueOrEmpty(resp.ErrorMessage))
	}

	log.Ctx(ctx).Debugf("🎉 Twilio sent an SMS to the phone number %q", utils.TruncateString(message.ToPhoneNumber, 3))
	return nil
}

// NewTwilioClient creates a client that sends SMS through the messaging service serviceSID.
func NewTwilioClient(accountSID, authToken, serviceSID string) (*twilioClient, error) {
	accountSID = strings.TrimSpace(accountSID)
	if accountSID == "" {
		return nil, fmt.Errorf("twilio account SID is empty")
	}

	authToken = strings.TrimSpace(authToken)
	if authToken == "" {
		return nil, fmt.Errorf("twilio auth token is empty")
	}

	serviceSID = strings.TrimSpace(serviceSID)
	if serviceSID == "" {
		return nil, fmt.Errorf("twilio messaging service SID is empty")
	}

	return &twilioClient{
		apiService: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}).Api,
		serviceSID: serviceSID,
	}, nil
}

var _ MessengerClient = (*twilioClient)(nil)
