package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseMessengerType(t *testing.T) {
	valid := map[string]MessengerType{
		"TWILIO_EMAIL": MessengerTypeTwilioEmail,
		"aws_email":    MessengerTypeAWSEmail,
		"twilio_sms":   MessengerTypeTwilioSMS,
		"AWS_SMS":      MessengerTypeAWSSMS,
		" DRY_RUN ":    MessengerTypeDryRun,
	}
	for input, want := range valid {
		got, err := ParseMessengerType(input)
		require.NoError(t, err, "input: %q", input)
		assert.Equal(t, want, got)
	}

	for _, input := range []string{"", "foo_BAR"} {
		got, err := ParseMessengerType(input)
		assert.Empty(t, got)
		assert.ErrorContains(t, err, "invalid message sender type", "input: %q", input)
	}
}

func Test_ParseMessengerTypeFor(t *testing.T) {
	got, err := ParseMessengerTypeFor(MessageChannelEmail, "aws_email")
	require.NoError(t, err)
	assert.Equal(t, MessengerTypeAWSEmail, got)

	got, err = ParseMessengerTypeFor(MessageChannelSMS, "dry_run")
	require.NoError(t, err)
	assert.Equal(t, MessengerTypeDryRun, got)

	got, err = ParseMessengerTypeFor(MessageChannelEmail, "TWILIO_SMS")
	assert.Empty(t, got)
	assert.EqualError(t, err, `invalid message sender type "TWILIO_SMS", valid values are [DRY_RUN TWILIO_EMAIL AWS_EMAIL]`)

	got, err = ParseMessengerTypeFor(MessageChannelSMS, "TWILIO_EMAIL")
	assert.Empty(t, got)
	assert.EqualError(t, err, `invalid message sender type "TWILIO_EMAIL", valid values are [DRY_RUN TWILIO_SMS AWS_SMS]`)
}

func Test_MessengerType_Channels(t *testing.T) {
	assert.Equal(t, []MessageChannel{MessageChannelEmail}, MessengerTypeTwilioEmail.Channels())
	assert.Equal(t, []MessageChannel{MessageChannelSMS}, MessengerTypeAWSSMS.Channels())
	assert.Equal(t, []MessageChannel{MessageChannelEmail, MessageChannelSMS}, MessengerTypeDryRun.Channels())
	assert.Nil(t, MessengerType("PIGEON").Channels())
}

func Test_GetClient(t *testing.T) {
	gotClient, err := GetClient(MessengerOptions{
		MessengerType:               MessengerTypeTwilioEmail,
		TwilioSendGridAPIKey:        "api-key",
		TwilioSendGridSenderAddress: "noreply@warehouse.test",
	})
	require.NoError(t, err)
	assert.IsType(t, &twilioSendGridClient{}, gotClient)

	gotClient, err = GetClient(MessengerOptions{
		MessengerType:      MessengerTypeAWSEmail,
		AWSAccessKeyID:     "accessKeyID",
		AWSSecretAccessKey: "secretAccessKey",
		AWSRegion:          "eu-west-1",
		AWSSESSenderID:     "noreply@warehouse.test",
	})
	require.NoError(t, err)
	assert.IsType(t, &awsSESClient{}, gotClient)

	gotClient, err = GetClient(MessengerOptions{
		MessengerType:    MessengerTypeTwilioSMS,
		TwilioAccountSID: "accountSID",
		TwilioAuthToken:  "authToken",
		TwilioServiceSID: "serviceSID",
	})
	require.NoError(t, err)
	assert.IsType(t, &twilioClient{}, gotClient)

	gotClient, err = GetClient(MessengerOptions{
		MessengerType:      MessengerTypeAWSSMS,
		AWSAccessKeyID:     "accessKeyID",
		AWSSecretAccessKey: "secretAccessKey",
		AWSRegion:          "eu-west-1",
	})
	require.NoError(t, err)
	assert.IsType(t, &awsSNSClient{}, gotClient)

	gotClient, err = GetClient(MessengerOptions{MessengerType: MessengerTypeDryRun})
	require.NoError(t, err)
	assert.IsType(t, &dryRunClient{}, gotClient)

	gotClient, err = GetClient(MessengerOptions{MessengerType: MessengerTypeTwilioEmail, TwilioSendGridSenderAddress: "noreply@warehouse.test"})
	assert.Nil(t, gotClient)
	assert.EqualError(t, err, "creating TWILIO_EMAIL client: sendGrid API key is empty")

	gotClient, err = GetClient(MessengerOptions{MessengerType: "PIGEON"})
	assert.Nil(t, gotClient)
	assert.EqualError(t, err, `unsupported message sender type "PIGEON"`)
}
