package message

import (
	"fmt"
	"strings"

	"github.com/72mo2c/pero-system-sub002/internal/utils"
)

type MessageChannel string

const (
	MessageChannelEmail MessageChannel = "EMAIL"
	MessageChannelSMS   MessageChannel = "SMS"
)

// Message is a notification that can go out by email, by SMS or both. Body holds either a full HTML document or a
// fragment that gets wrapped in the default email layout. SMSBody is the plain text sent over SMS.
type Message struct {
	ToEmail       string
	ToPhoneNumber string
	Title         string
	Body          string
	SMSBody       string
}

// ValidateFor checks the message has what channel needs to deliver it.
func (s *Message) ValidateFor(channel MessageChannel) error {
	switch channel {
	case MessageChannelEmail:
		if err := utils.ValidateEmail(s.ToEmail); err != nil {
			return fmt.Errorf("invalid message: %w", err)
		}
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("title is empty")
		}
		if strings.TrimSpace(s.Body) == "" {
			return fmt.Errorf("body is empty")
		}
	case MessageChannelSMS:
		if err := utils.ValidatePhoneNumber(s.ToPhoneNumber); err != nil {
			return fmt.Errorf("invalid message: %w", err)
		}
		if strings.TrimSpace(s.SMSBody) == "" {
			return fmt.Errorf("SMS body is empty")
		}
	default:
		return fmt.Errorf("unsupported message channel %q", channel)
	}

	return nil
}

// SupportedChannels returns the channels the message is valid for, in email, SMS order.
func (s *Message) SupportedChannels() []MessageChannel {
	var channels []MessageChannel
	for _, channel := range []MessageChannel{MessageChannelEmail, MessageChannelSMS} {
		if s.ValidateFor(channel) == nil {
			channels = append(channels, channel)
		}
	}
	return channels
}

func (s Message) String() string {
	if s.ToPhoneNumber == "" {
		return fmt.Sprintf("Message{ToEmail: %s, Title: %q}", utils.TruncateString(s.ToEmail, 3), s.Title)
	}
	return fmt.Sprintf("Message{ToEmail: %s, ToPhoneNumber: %s, Title: %q}",
		utils.TruncateString(s.ToEmail, 3), utils.TruncateString(s.ToPhoneNumber, 3), s.Title)
}
