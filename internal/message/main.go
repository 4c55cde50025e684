package message

import (
	"fmt"
	"slices"
	"strings"
)

// MessengerType is the provider the notifications go through.
type MessengerType string

const (
	// MessengerTypeTwilioEmail sends emails through Twilio SendGrid.
	MessengerTypeTwilioEmail MessengerType = "TWILIO_EMAIL"
	// MessengerTypeAWSEmail sends emails through AWS SES.
	MessengerTypeAWSEmail MessengerType = "AWS_EMAIL"
	// MessengerTypeTwilioSMS sends SMS through a Twilio messaging service.
	MessengerTypeTwilioSMS MessengerType = "TWILIO_SMS"
	// MessengerTypeAWSSMS sends SMS through AWS SNS.
	MessengerTypeAWSSMS MessengerType = "AWS_SMS"
	// MessengerTypeDryRun prints the messages to stdout.
	MessengerTypeDryRun MessengerType = "DRY_RUN"
)

func MessengerTypes() []MessengerType {
	return []MessengerType{MessengerTypeDryRun, MessengerTypeTwilioEmail, MessengerTypeAWSEmail, MessengerTypeTwilioSMS, MessengerTypeAWSSMS}
}

// Channels returns the channels a messenger of this type can deliver on.
func (mt MessengerType) Channels() []MessageChannel {
	switch mt {
	case MessengerTypeTwilioEmail, MessengerTypeAWSEmail:
		return []MessageChannel{MessageChannelEmail}
	case MessengerTypeTwilioSMS, MessengerTypeAWSSMS:
		return []MessageChannel{MessageChannelSMS}
	case MessengerTypeDryRun:
		return []MessageChannel{MessageChannelEmail, MessageChannelSMS}
	default:
		return nil
	}
}

// MessengerTypesFor returns the messenger types that can deliver on channel.
func MessengerTypesFor(channel MessageChannel) []MessengerType {
	var mTypes []MessengerType
	for _, mType := range MessengerTypes() {
		if slices.Contains(mType.Channels(), channel) {
			mTypes = append(mTypes, mType)
		}
	}
	return mTypes
}

func ParseMessengerType(messengerTypeStr string) (MessengerType, error) {
	return parseMessengerType(messengerTypeStr, MessengerTypes())
}

// ParseMessengerTypeFor parses a messenger type that can deliver on channel.
func ParseMessengerTypeFor(channel MessageChannel, messengerTypeStr string) (MessengerType, error) {
	return parseMessengerType(messengerTypeStr, MessengerTypesFor(channel))
}

func parseMessengerType(messengerTypeStr string, validTypes []MessengerType) (MessengerType, error) {
	mType := MessengerType(strings.ToUpper(strings.TrimSpace(messengerTypeStr)))
	if !slices.Contains(validTypes, mType) {
		return "", fmt.Errorf("invalid message sender type %q, valid values are %v", mType, validTypes)
	}
	return mType, nil
}

type MessengerOptions struct {
	MessengerType MessengerType

	TwilioSendGridAPIKey        string
	TwilioSendGridSenderAddress string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioServiceSID string

	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	AWSSESSenderID     string
	AWSSNSSenderID     string
}

func GetClient(opts MessengerOptions) (MessengerClient, error) {
	var (
		client MessengerClient
		err    error
	)
	switch opts.MessengerType {
	case MessengerTypeTwilioEmail:
		client, err = NewTwilioSendGridClient(opts.TwilioSendGridAPIKey, opts.TwilioSendGridSenderAddress)
	case MessengerTypeAWSEmail:
		client, err = NewAWSSESClient(opts.AWSAccessKeyID, opts.AWSSecretAccessKey, opts.AWSRegion, opts.AWSSESSenderID)
	case MessengerTypeTwilioSMS:
		client, err = NewTwilioClient(opts.TwilioAccountSID, opts.TwilioAuthToken, opts.TwilioServiceSID)
	case MessengerTypeAWSSMS:
		client, err = NewAWSSNSClient(opts.AWSAccessKeyID, opts.AWSSecretAccessKey, opts.AWSRegion, opts.AWSSNSSenderID)
	case MessengerTypeDryRun:
		client, err = NewDryRunClient()
	default:
		return nil, fmt.Errorf("unsupported message sender type %q", opts.MessengerType)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", opts.MessengerType, err)
	}
	return client, nil
}
