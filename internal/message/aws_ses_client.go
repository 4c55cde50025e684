package message

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/utils"
)

// awsSESInterface is used to send emails.
type awsSESInterface interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

var _ awsSESInterface = (*ses.Client)(nil)

// awsSESClient is used to send emails.
type awsSESClient struct {
	emailService awsSESInterface
	senderID     string
}

func (a *awsSESClient) MessengerType() MessengerType {
	return MessengerTypeAWSEmail
}

func (a *awsSESClient) SendMessage(ctx context.Context, message Message) error {
	err := message.ValidateFor(MessageChannelEmail)
	if err != nil {
		return fmt.Errorf("validating message to send an email through AWS: %w", err)
	}

	emailInput, err := generateAWSEmail(message, a.senderID)
	if err != nil {
		return fmt.Errorf("generating AWS SES email: %w", err)
	}

	_, err = a.emailService.SendEmail(ctx, emailInput)
	if err != nil {
		return fmt.Errorf("sending AWS SES email: %w", err)
	}

	log.Ctx(ctx).Debugf("🎉 AWS SES sent an email to the receiver %q", utils.TruncateString(message.ToEmail, 3))
	return nil
}

// generateAWSEmail generates the email object to send an email through AWS SES.
func generateAWSEmail(message Message, sender string) (*ses.SendEmailInput, error) {
	html, err := htmlBody(message.Body)
	if err != nil {
		return nil, err
	}

	return &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{message.ToEmail},
		},
		Message: &types.Message{
			Body: &types.Body{
				Html: &types.Content{
					Charset: aws.String("utf-8"),
					Data:    aws.String(html),
				},
			},
			Subject: &types.Content{
				Charset: aws.String("utf-8"),
				Data:    aws.String(message.Title),
			},
		},
		Source: aws.String(sender),
	}, nil
}

// loadAWSConfig builds an AWS config with static credentials for the given region.
func loadAWSConfig(accessKeyID, secretAccessKey, region string) (aws.Config, error) {
	accessKeyID = strings.TrimSpace(accessKeyID)
	if accessKeyID == "" {
		return aws.Config{}, fmt.Errorf("aws accessKeyID is empty")
	}

	secretAccessKey = strings.TrimSpace(secretAccessKey)
	if secretAccessKey == "" {
		return aws.Config{}, fmt.Errorf("aws secretAccessKey is empty")
	}

	region = strings.TrimSpace(region)
	if region == "" {
		return aws.Config{}, fmt.Errorf("aws region is empty")
	}

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}

// NewAWSSESClient creates a new AWS SES client, that is used to send emails.
func NewAWSSESClient(accessKeyID, secretAccessKey, region, senderID string) (*awsSESClient, error) {
	cfg, err := loadAWSConfig(accessKeyID, secretAccessKey, region)
	if err != nil {
		return nil, err
	}

	senderID = strings.TrimSpace(senderID)
	if err = utils.ValidateEmail(senderID); err != nil {
		return nil, fmt.Errorf("aws SES (email) senderID is invalid: %w", err)
	}

	return &awsSESClient{
		senderID:     senderID,
		emailService: ses.NewFromConfig(cfg),
	}, nil
}

var _ MessengerClient = (*awsSESClient)(nil)
