package message

import (
	"context"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/monitor"
)

// instrumentedClient observes how long every send takes, labelled by provider and outcome.
type instrumentedClient struct {
	MessengerClient
	monitorService monitor.MonitorServiceInterface
}

// WithMetrics wraps client so every send is observed by monitorService. A nil monitorService returns client as is.
func WithMetrics(client MessengerClient, monitorService monitor.MonitorServiceInterface) MessengerClient {
	if monitorService == nil {
		return client
	}
	return &instrumentedClient{MessengerClient: client, monitorService: monitorService}
}

func (c *instrumentedClient) SendMessage(ctx context.Context, message Message) error {
	startedAt := time.Now()
	err := c.MessengerClient.SendMessage(ctx, message)

	labels := monitor.MessageLabels{Provider: string(c.MessengerType()), Status: monitor.SuccessResult}
	if err != nil {
		labels.Status = monitor.FailureResult
	}
	if monitorErr := c.monitorService.MonitorHistogram(time.Since(startedAt).Seconds(), monitor.MessageSendDurationTag, labels.ToMap()); monitorErr != nil {
		log.Ctx(ctx).Errorf("monitoring message send duration: %v", monitorErr)
	}

	return err
}
