package message

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

type dryRunClient struct {
	out io.Writer
}

func (c *dryRunClient) SendMessage(_ context.Context, message Message) error {
	fmt.Fprintln(c.out, strings.Repeat("-", 79))
	fmt.Fprintln(c.out, "Recipient:", message.ToEmail)
	fmt.Fprintln(c.out, "Subject:", message.Title)
	fmt.Fprintln(c.out, "Content:", message.Body)
	if message.ToPhoneNumber != "" {
		fmt.Fprintln(c.out, "Phone number:", message.ToPhoneNumber)
		fmt.Fprintln(c.out, "SMS:", message.SMSBody)
	}
	fmt.Fprintln(c.out, strings.Repeat("-", 79))

	return nil
}

func (c *dryRunClient) MessengerType() MessengerType {
	return MessengerTypeDryRun
}

func NewDryRunClient() (MessengerClient, error) {
	return &dryRunClient{out: os.Stdout}, nil
}

var _ MessengerClient = (*dryRunClient)(nil)
