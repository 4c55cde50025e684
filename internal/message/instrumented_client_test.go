package message

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/72mo2c/pero-system-sub002/internal/monitor"
)

func Test_WithMetrics(t *testing.T) {
	client := &MessengerClientMock{}
	assert.Same(t, client, WithMetrics(client, nil))
}

func Test_instrumentedClient_SendMessage(t *testing.T) {
	ctx := context.Background()
	msg := Message{ToEmail: "foo@test.com", Title: "title", Body: "body"}

	testCases := []struct {
		name       string
		sendErr    error
		wantStatus string
	}{
		{name: "success", wantStatus: monitor.SuccessResult},
		{name: "failure", sendErr: errors.New("provider is down"), wantStatus: monitor.FailureResult},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := NewMessengerClientMock(t, MessengerTypeAWSEmail)
			client.On("SendMessage", ctx, msg).Return(tc.sendErr).Once()

			monitorService := monitor.NewMockMonitorService(t)
			monitorService.
				On("MonitorHistogram", mock.AnythingOfType("float64"), monitor.MessageSendDurationTag, map[string]string{
					"provider": "AWS_EMAIL",
					"status":   tc.wantStatus,
				}).
				Return(nil).
				Once()

			err := WithMetrics(client, monitorService).SendMessage(ctx, msg)
			if tc.sendErr != nil {
				require.ErrorIs(t, err, tc.sendErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
