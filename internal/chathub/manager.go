package chathub

import (
	"context"
	"log/slog"

	"textbookexchange/backend/internal/models"
)

// Direct addresses a frame to a single client.
type Direct struct {
	ClientID string
	Frame    models.Frame
}

// ManagerService is the hub. A single goroutine (Run) owns the subscriber
// set and is the only writer to client send channels.
type ManagerService struct {
	Clients map[string]Client

	// Channels
	RegisterCh   chan Client
	UnregisterCh chan Client
	BroadcastCh  chan models.Frame
	DirectCh     chan Direct

	countCh chan chan int
	done    chan struct{}
	log     *slog.Logger
}

func NewManagerService(log *slog.Logger) *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		BroadcastCh:  make(chan models.Frame, 64),
		DirectCh:     make(chan Direct, 64),
		countCh:      make(chan chan int),
		done:         make(chan struct{}),
		log:          log,
	}
}

// Run processes hub events until ctx is cancelled, then closes every client.
func (m *ManagerService) Run(ctx context.Context) {
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			for id, client := range m.Clients {
				delete(m.Clients, id)
				client.Close()
			}
			m.log.Info("Chat hub stopped")
			return

		case client := <-m.RegisterCh:
			m.Clients[client.GetClientID()] = client
			m.log.Debug("Client registered", "client_id", client.GetClientID(), "clients", len(m.Clients))

		case client := <-m.UnregisterCh:
			m.remove(client.GetClientID())

		case frame := <-m.BroadcastCh:
			for id, client := range m.Clients {
				m.deliver(id, client, frame)
			}

		case d := <-m.DirectCh:
			if client, ok := m.Clients[d.ClientID]; ok {
				m.deliver(d.ClientID, client, d.Frame)
			}

		case reply := <-m.countCh:
			reply <- len(m.Clients)
		}
	}
}

// deliver never blocks the hub: a client whose buffer is full is dropped.
func (m *ManagerService) deliver(id string, client Client, frame models.Frame) {
	select {
	case client.GetSendChannel() <- frame:
	default:
		m.log.Warn("Dropping slow client", "client_id", id)
		m.remove(id)
	}
}

func (m *ManagerService) remove(id string) {
	client, ok := m.Clients[id]
	if !ok {
		return
	}
	delete(m.Clients, id)
	client.Close()
	m.log.Debug("Client unregistered", "client_id", id, "clients", len(m.Clients))
}

// Register adds client to the topic. It returns false once the hub stopped.
func (m *ManagerService) Register(client Client) bool {
	select {
	case m.RegisterCh <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *ManagerService) Unregister(client Client) {
	select {
	case m.UnregisterCh <- client:
	case <-m.done:
	}
}

// Broadcast queues frame for every subscriber.
func (m *ManagerService) Broadcast(frame models.Frame) {
	select {
	case m.BroadcastCh <- frame:
	case <-m.done:
	}
}

// SendTo queues frame for the client with the given id only.
func (m *ManagerService) SendTo(clientID string, frame models.Frame) {
	select {
	case m.DirectCh <- Direct{ClientID: clientID, Frame: frame}:
	case <-m.done:
	}
}

// ClientCount returns the number of subscribers, or 0 once the hub stopped.
func (m *ManagerService) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case m.countCh <- reply:
		return <-reply
	case <-m.done:
		return 0
	}
}

// Done is closed when Run returns.
func (m *ManagerService) Done() <-chan struct{} {
	return m.done
}
