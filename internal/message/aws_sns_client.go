package message

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/utils"
)

// awsSNSInterface is used to send SMS.
type awsSNSInterface interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

var _ awsSNSInterface = (*sns.Client)(nil)

// awsSNSClient is used to send SMS.
type awsSNSClient struct {
	snsService awsSNSInterface
	senderID   string
}

func (a *awsSNSClient) MessengerType() MessengerType {
	return MessengerTypeAWSSMS
}

func (a *awsSNSClient) SendMessage(ctx context.Context, message Message) error {
	if err := message.ValidateFor(MessageChannelSMS); err != nil {
		return fmt.Errorf("validating message to send an SMS through AWS: %w", err)
	}

	_, err := a.snsService.Publish(ctx, generateAWSSMS(message, a.senderID))
	if err != nil {
		return fmt.Errorf("sending AWS SNS SMS: %w", err)
	}

	log.Ctx(ctx).Debugf("🎉 AWS SNS sent an SMS to the phone number %q", utils.TruncateString(message.ToPhoneNumber, 3))
	return nil
}

// generateAWSSMS builds a transactional SMS publish request. The sender ID is optional and not supported in every
// country.
func generateAWSSMS(message Message, senderID string) *sns.PublishInput {
	attributes := map[string]snsTypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if senderID != "" {
		attributes["AWS.SNS.SMS.SenderID"] = snsTypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(senderID),
		}
	}

	return &sns.PublishInput{
		PhoneNumber:       aws.String(message.ToPhoneNumber),
		Message:           aws.String(message.SMSBody),
		MessageAttributes: attributes,
	}
}

// NewAWSSNSClient creates a new AWS SNS client, that is used to send SMS.
func NewAWSSNSClient(accessKeyID, secretAccessKey, region, senderID string) (*awsSNSClient, error) {
	cfg, err := loadAWSConfig(accessKeyID, secretAccessKey, region)
	if err != nil {
		return nil, err
	}

	return &awsSNSClient{
		senderID:   strings.TrimSpace(senderID),
		snsService: sns.NewFromConfig(cfg),
	}, nil
}

var _ MessengerClient = (*awsSNSClient)(nil)
