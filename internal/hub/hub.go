package hub

import (
	"context"
	"errors"
	"sync"

	"github.com/weiawesome/asg-rev/pkg/log"
)

// ErrHubStopped is returned by Publish after Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// Broadcaster fans events out to every client subscribed to a topic.
type Broadcaster interface {
	Subscribe(topic string, client *Client)
	Unsubscribe(topic string, client *Client)
	Publish(ctx context.Context, topic string, data []byte) error
}

// Hub is the in-process broadcaster. Publishes are delivered by a single
// loop, so events from one publisher reach every subscriber in order.
type Hub struct {
	clients   map[string]*Client            // clientID -> client
	topics    map[string]map[string]*Client // topic -> clientID -> client
	broadcast chan *TopicMessage
	done      chan struct{}
	emptied   chan struct{} // closed when clients drains to zero, set by Drain
	mu        sync.RWMutex
}

type TopicMessage struct {
	Topic   string
	Message []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		topics:    make(map[string]map[string]*Client),
		broadcast: make(chan *TopicMessage, 256),
		done:      make(chan struct{}),
	}
}

// Run delivers published messages until ctx is cancelled, then closes every
// registered client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.closeAll()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg *TopicMessage) {
	var evicted []*Client

	h.mu.RLock()
	for _, client := range h.topics[msg.Topic] {
		if !client.Enqueue(msg.Message) {
			evicted = append(evicted, client)
		}
	}
	h.mu.RUnlock()

	// A subscriber that cannot keep up is dropped without affecting others.
	for _, client := range evicted {
		l := log.L()
		l.Warn().Str(log.FieldClientID, client.ID).Str(log.FieldTopic, msg.Topic).Msg("send queue full, evicting client")
		h.Unregister(client)
	}
}

// Register tracks a client so it is closed on shutdown.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
	l := log.L()
	l.Debug().Str(log.FieldClientID, client.ID).Msg("client registered")
}

// Unregister drops the client from every topic and closes its send queue.
// Unregistering twice is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	for topic, subs := range h.topics {
		if _, ok := subs[client.ID]; ok {
			delete(subs, client.ID)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	delete(h.clients, client.ID)
	if len(h.clients) == 0 && h.emptied != nil {
		close(h.emptied)
		h.emptied = nil
	}
	h.mu.Unlock()

	client.Close()
	l := log.L()
	l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")
}

// Subscribe adds client to topic. Subscribing twice is a no-op.
func (h *Hub) Subscribe(topic string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[string]*Client)
	}
	h.topics[topic][client.ID] = client
	h.clients[client.ID] = client
	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldTopic, topic).Msg("client subscribed")
}

// Unsubscribe removes client from topic, if present.
func (h *Hub) Unsubscribe(topic string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	if _, ok := subs[client.ID]; !ok {
		return
	}
	delete(subs, client.ID)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldTopic, topic).Msg("client unsubscribed")
}

// Publish queues data for every subscriber of topic, the publisher
// included.
func (h *Hub) Publish(ctx context.Context, topic string, data []byte) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	select {
	case h.broadcast <- &TopicMessage{Topic: topic, Message: data}:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubscriberCount returns the number of local subscribers of topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// IsSubscribed reports whether client is subscribed to topic.
func (h *Hub) IsSubscribed(topic string, client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.topics[topic][client.ID]
	return ok
}

// Drain closes every registered client and waits until each has been
// unregistered by its connection handler, so per-connection cleanup runs
// before shutdown continues. It returns ctx.Err() if clients remain when
// ctx is done.
func (h *Hub) Drain(ctx context.Context) error {
	h.mu.Lock()
	if len(h.clients) == 0 {
		h.mu.Unlock()
		return nil
	}
	if h.emptied == nil {
		h.emptied = make(chan struct{})
	}
	emptied := h.emptied
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	l := log.L()
	l.Info().Int("clients", len(clients)).Msg("draining clients")
	for _, c := range clients {
		c.Close()
	}

	select {
	case <-emptied:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*Client)
	h.topics = make(map[string]map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
