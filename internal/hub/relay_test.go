package hub

import (
	"context"
	"path"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/asg-rev/pkg/pubsub"
)

// memoryBus is an in-process pubsub.PubSub shared by several relays.
type memoryBus struct {
	mu   sync.Mutex
	subs map[string][]chan *pubsub.Event
}

func newMemoryBus() *memoryBus {
	return &memoryBus{subs: make(map[string][]chan *pubsub.Event)}
}

func (b *memoryBus) Publish(ctx context.Context, channel string, event *pubsub.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for pattern, chans := range b.subs {
		if ok, _ := path.Match(pattern, channel); !ok {
			continue
		}
		for _, ch := range chans {
			ch <- event
		}
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context, channel string) (<-chan *pubsub.Event, error) {
	return b.SubscribePattern(ctx, channel)
}

func (b *memoryBus) SubscribePattern(ctx context.Context, pattern string) (<-chan *pubsub.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *pubsub.Event, 64)
	b.subs[pattern] = append(b.subs[pattern], ch)
	return ch, nil
}

func (b *memoryBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[channel] {
		close(ch)
	}
	delete(b.subs, channel)
	return nil
}

func (b *memoryBus) Close() error { return nil }

func TestRelay_FansOutAcrossInstances(t *testing.T) {
	bus := newMemoryBus()
	topic := "group_chat_w_c_ch"

	hubA, hubB := startHub(t), startHub(t)
	relayA, relayB := NewRelay(hubA, bus), NewRelay(hubB, bus)
	require.NoError(t, relayA.Start(context.Background()))
	require.NoError(t, relayB.Start(context.Background()))

	alice := newTestClient("alice", 8)
	bob := newTestClient("bob", 8)
	relayA.Subscribe(topic, alice)
	relayB.Subscribe(topic, bob)

	frame := []byte(`{"id":"01H","content":"hello"}`)
	require.NoError(t, relayA.Publish(context.Background(), topic, frame))

	assert.JSONEq(t, string(frame), receive(t, alice, 1)[0])
	assert.JSONEq(t, string(frame), receive(t, bob, 1)[0])

	require.NoError(t, relayA.Stop())
	require.NoError(t, relayB.Stop())
}

func TestRelay_IgnoresForeignChannels(t *testing.T) {
	bus := newMemoryBus()
	h := startHub(t)
	relay := NewRelay(h, bus)
	require.NoError(t, relay.Start(context.Background()))
	defer relay.Stop()

	c := newTestClient("c", 8)
	relay.Subscribe("group_chat_a_b_c", c)

	// matches the pattern via the bus but is published on an unrelated channel name
	event, err := pubsub.NewEvent(pubsub.EventGroupChat, "presence_a", map[string]string{"x": "y"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), "group_chat_a_b_c", event))

	require.NoError(t, relay.Publish(context.Background(), "group_chat_a_b_c", []byte(`{"n":1}`)))
	assert.JSONEq(t, `{"n":1}`, receive(t, c, 1)[0])
}

func TestRelay_DropsMalformedPayload(t *testing.T) {
	bus := newMemoryBus()
	h := startHub(t)
	relay := NewRelay(h, bus)
	require.NoError(t, relay.Start(context.Background()))
	defer relay.Stop()

	c := newTestClient("c", 8)
	relay.Subscribe("group_chat_a_b_c", c)

	bad := &pubsub.Event{Type: pubsub.EventGroupChat, Channel: "group_chat_a_b_c", Payload: []byte(`{"n":`)}
	require.NoError(t, bus.Publish(context.Background(), "group_chat_a_b_c", bad))

	require.NoError(t, relay.Publish(context.Background(), "group_chat_a_b_c", []byte(`{"n":2}`)))
	assert.JSONEq(t, `{"n":2}`, receive(t, c, 1)[0])
}
