package realtime

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"nearby-server/models"
)

// Hub tracks websocket clients by email and fans events out to them.
// It only forwards what services publish; it never reads business state.
type Hub struct {
	log *zap.Logger

	// email -> open connections for that email
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}
}

// connectedPayload is the first frame on every connection, sent once the client
// is subscribed.
var connectedPayload = []byte(`{"type":"connected"}`)

type delivery struct {
	email   string
	payload []byte
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:        log,
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			if h.clients[client.email] == nil {
				h.clients[client.email] = make(map[*Client]struct{})
			}
			h.clients[client.email][client] = struct{}{}
			client.send <- connectedPayload
			h.log.Debug("websocket client registered", zap.String("email", client.email))

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			for client := range h.clients[d.email] {
				select {
				case client.send <- d.payload:
				default:
					h.log.Warn("dropping slow websocket client", zap.String("email", client.email))
					h.remove(client)
				}
			}

		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					h.remove(client)
				}
			}
			return
		}
	}
}

// Notify queues event for every connection of email. It never blocks; when the
// hub is saturated or stopped the event is dropped.
func (h *Hub) Notify(email string, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("encode event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	select {
	case h.deliver <- delivery{email: email, payload: payload}:
	case <-h.done:
	default:
		h.log.Warn("event dropped", zap.String("email", email), zap.String("type", event.Type))
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.email]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.email)
	}
	close(client.send)
	h.log.Debug("websocket client unregistered", zap.String("email", client.email))
}
