package message

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_message_ValidateFor(t *testing.T) {
	testCases := []struct {
		name    string
		channel MessageChannel
		message Message
		wantErr error
	}{
		{
			name:    "email address cannot be empty",
			channel: MessageChannelEmail,
			message: Message{},
			wantErr: fmt.Errorf("invalid message: email cannot be empty"),
		},
		{
			name:    "email address must be valid",
			channel: MessageChannelEmail,
			message: Message{ToEmail: "invalid-email"},
			wantErr: fmt.Errorf("invalid message: the provided email is not valid"),
		},
		{
			name:    "title cannot be blank",
			channel: MessageChannelEmail,
			message: Message{ToEmail: "foo@test.com", Title: "   "},
			wantErr: fmt.Errorf("title is empty"),
		},
		{
			name:    "body cannot be blank",
			channel: MessageChannelEmail,
			message: Message{ToEmail: "foo@test.com", Title: "My title", Body: " "},
			wantErr: fmt.Errorf("body is empty"),
		},
		{
			name:    "🎉 all email fields are present",
			channel: MessageChannelEmail,
			message: Message{ToEmail: "foo@test.com", Title: "My title", Body: "foo bar"},
		},
		{
			name:    "phone number cannot be empty",
			channel: MessageChannelSMS,
			message: Message{ToEmail: "foo@test.com", Title: "My title", Body: "foo bar"},
			wantErr: fmt.Errorf("invalid message: phone number cannot be empty"),
		},
		{
			name:    "phone number must be E.164",
			channel: MessageChannelSMS,
			message: Message{ToPhoneNumber: "415-511-1111"},
			wantErr: fmt.Errorf("invalid message: the provided phone number is not a valid E.164 number"),
		},
		{
			name:    "SMS body cannot be blank",
			channel: MessageChannelSMS,
			message: Message{ToPhoneNumber: "+14155111111", Body: "only the email has a body"},
			wantErr: fmt.Errorf("SMS body is empty"),
		},
		{
			name:    "🎉 all SMS fields are present",
			channel: MessageChannelSMS,
			message: Message{ToPhoneNumber: "+14155111111", SMSBody: "foo bar"},
		},
		{
			name:    "unknown channel",
			channel: "PIGEON",
			message: Message{ToEmail: "foo@test.com", Title: "My title", Body: "foo bar"},
			wantErr: fmt.Errorf(`unsupported message channel "PIGEON"`),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.message.ValidateFor(tc.channel)
			if tc.wantErr != nil {
				require.EqualError(t, err, tc.wantErr.Error())
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func Test_message_SupportedChannels(t *testing.T) {
	email := Message{ToEmail: "foo@test.com", Title: "My title", Body: "foo bar"}
	assert.Equal(t, []MessageChannel{MessageChannelEmail}, email.SupportedChannels())

	sms := Message{ToPhoneNumber: "+14155111111", SMSBody: "foo bar"}
	assert.Equal(t, []MessageChannel{MessageChannelSMS}, sms.SupportedChannels())

	both := Message{ToEmail: "foo@test.com", ToPhoneNumber: "+14155111111", Title: "My title", Body: "foo bar", SMSBody: "foo bar"}
	assert.Equal(t, []MessageChannel{MessageChannelEmail, MessageChannelSMS}, both.SupportedChannels())

	assert.Empty(t, (&Message{}).SupportedChannels())
}

func Test_message_String(t *testing.T) {
	msg := Message{ToEmail: "jane.doe@test.com", Title: "Welcome", Body: "secret content"}
	assert.Equal(t, `Message{ToEmail: jan...com, Title: "Welcome"}`, msg.String())
	assert.NotContains(t, msg.String(), "secret content")

	msg.ToPhoneNumber = "+14155111111"
	assert.Equal(t, `Message{ToEmail: jan...com, ToPhoneNumber: +14...111, Title: "Welcome"}`, msg.String())
}

func Test_htmlBody(t *testing.T) {
	html, err := htmlBody("<p>foo bar</p>")
	require.NoError(t, err)
	assert.Contains(t, html, "<body>\n<p>foo bar</p>\n</body>")
	assert.Contains(t, html, "<!DOCTYPE html>")

	document := "<!DOCTYPE html><HTML><body>already wrapped</body></HTML>"
	html, err = htmlBody(document)
	require.NoError(t, err)
	assert.Equal(t, document, html)
}
