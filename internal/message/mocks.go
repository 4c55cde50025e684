package message

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MessengerClientMock is a testify mock of MessengerClient.
type MessengerClientMock struct {
	mock.Mock
}

// NewMessengerClientMock creates a MessengerClientMock of the given type whose expectations are asserted when the
// test ends.
func NewMessengerClientMock(t interface {
	mock.TestingT
	Cleanup(func())
}, messengerType MessengerType,
) *MessengerClientMock {
	m := &MessengerClientMock{}
	m.Test(t)
	m.On("MessengerType").Return(messengerType).Maybe()
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MessengerClientMock) SendMessage(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MessengerClientMock) MessengerType() MessengerType {
	messengerType, _ := m.Called().Get(0).(MessengerType)
	return messengerType
}

var _ MessengerClient = (*MessengerClientMock)(nil)

// MockMessageDispatcher is a testify mock of MessageDispatcherInterface.
type MockMessageDispatcher struct {
	mock.Mock
}

// NewMockMessageDispatcher creates a MockMessageDispatcher whose expectations are asserted when the test ends.
func NewMockMessageDispatcher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockMessageDispatcher {
	m := &MockMessageDispatcher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockMessageDispatcher) RegisterClient(ctx context.Context, channel MessageChannel, client MessengerClient) {
	m.Called(ctx, channel, client)
}

func (m *MockMessageDispatcher) SendMessage(ctx context.Context, message Message, channelPriority []MessageChannel) (MessengerType, error) {
	args := m.Called(ctx, message, channelPriority)
	messengerType, _ := args.Get(0).(MessengerType)
	return messengerType, args.Error(1)
}

func (m *MockMessageDispatcher) GetClient(channel MessageChannel) (MessengerClient, error) {
	args := m.Called(channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(MessengerClient), args.Error(1)
}

var _ MessageDispatcherInterface = (*MockMessageDispatcher)(nil)
