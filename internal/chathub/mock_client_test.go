package chathub_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"textbookexchange/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	clientID    string
	userID      *uint
	RecvChannel chan models.Frame

	mu     sync.Mutex
	closed bool
}

func newMockClient(clientID string) *MockClient {
	return &MockClient{
		clientID:    clientID,
		RecvChannel: make(chan models.Frame, 10),
	}
}

func newAuthenticatedMockClient(clientID string, userID uint) *MockClient {
	c := newMockClient(clientID)
	c.userID = &userID
	return c
}

func (c *MockClient) GetClientID() string {
	return c.clientID
}

func (c *MockClient) GetUserID() (uint, bool) {
	if c.userID == nil {
		return 0, false
	}
	return *c.userID, true
}

func (c *MockClient) GetSendChannel() chan<- models.Frame {
	return c.RecvChannel
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// MockStore is a testify mock of the relay's MessageStore.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockStore) FindUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
