package message

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/stellar/go-stellar-sdk/support/log"
)

//go:generate mockery --name=MessageDispatcherInterface --case=underscore --structname=MockMessageDispatcher --inpackage --filename=mocks.go
type MessageDispatcherInterface interface {
	RegisterClient(ctx context.Context, channel MessageChannel, client MessengerClient)
	SendMessage(ctx context.Context, message Message, channelPriority []MessageChannel) (MessengerType, error)
	GetClient(channel MessageChannel) (MessengerClient, error)
}

// MessageDispatcher holds one client per channel and delivers a message on the first channel, in priority order, that
// the message is valid for and that accepts it.
type MessageDispatcher struct {
	mu      sync.RWMutex
	clients map[MessageChannel]MessengerClient
}

func NewMessageDispatcher() *MessageDispatcher {
	return &MessageDispatcher{
		clients: make(map[MessageChannel]MessengerClient),
	}
}

func (d *MessageDispatcher) RegisterClient(ctx context.Context, channel MessageChannel, client MessengerClient) {
	log.Ctx(ctx).Infof("📡 Registering messenger %s for channel %s", client.MessengerType(), channel)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.clients[channel] = client
}

// SendMessage returns the type of the messenger that delivered the message, or of the last one that failed.
func (d *MessageDispatcher) SendMessage(ctx context.Context, message Message, channelPriority []MessageChannel) (MessengerType, error) {
	supported := message.SupportedChannels()
	if len(supported) == 0 {
		return "", fmt.Errorf("no valid channel found for message %s", message)
	}

	var (
		messengerType MessengerType
		lastErr       error
	)
	for _, channel := range channelPriority {
		if !slices.Contains(supported, channel) {
			log.Ctx(ctx).Debugf("Skipping channel %s, not supported by message %s", channel, message)
			continue
		}

		client, err := d.GetClient(channel)
		if err != nil {
			log.Ctx(ctx).Debugf("Skipping channel %s: %v", channel, err)
			continue
		}

		messengerType = client.MessengerType()
		if lastErr = client.SendMessage(ctx, message); lastErr == nil {
			return messengerType, nil
		}
		log.Ctx(ctx).Warnf("Sending %s through %s: %v", channel, messengerType, lastErr)
	}

	if lastErr != nil {
		return messengerType, fmt.Errorf("unable to send message %s on channels %v: %w", message, channelPriority, lastErr)
	}
	return messengerType, fmt.Errorf("no client registered for the channels %v supported by message %s", supported, message)
}

func (d *MessageDispatcher) GetClient(channel MessageChannel) (MessengerClient, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	client, ok := d.clients[channel]
	if !ok {
		return nil, fmt.Errorf("no client registered for channel %q", channel)
	}
	return client, nil
}

var _ MessageDispatcherInterface = (*MessageDispatcher)(nil)
