package hub

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/asg-rev/internal/config"
	"github.com/weiawesome/asg-rev/internal/domain"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func newTestClient(id string, buffer int) *Client {
	return NewClient(id, domain.NewSession(id, domain.Identity{UserID: id}, config.ProtocolLegacy), config.WebSocketConfig{SendBufferSize: buffer})
}

func receive(t *testing.T, c *Client, n int) []string {
	t.Helper()
	out := make([]string, 0, n)
	for len(out) < n {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				t.Fatalf("client %s closed after %d of %d messages", c.ID, len(out), n)
			}
			out = append(out, string(msg))
		case <-time.After(2 * time.Second):
			t.Fatalf("client %s received %d of %d messages", c.ID, len(out), n)
		}
	}
	return out
}

func TestHub_PerPublisherFIFO(t *testing.T) {
	h := startHub(t)
	const n, m = 200, 4
	topic := "group_chat_w_c_ch"

	clients := make([]*Client, m)
	for i := range clients {
		clients[i] = newTestClient(fmt.Sprintf("c%d", i), n)
		h.Subscribe(topic, clients[i])
	}

	want := make([]string, n)
	for i := 0; i < n; i++ {
		want[i] = fmt.Sprintf(`{"seq":%d}`, i)
		require.NoError(t, h.Publish(context.Background(), topic, []byte(want[i])))
	}

	for _, c := range clients {
		assert.Equal(t, want, receive(t, c, n), c.ID)
	}
}

func TestHub_SubscribeIdempotent(t *testing.T) {
	h := startHub(t)
	topic := "group_chat_w_c_ch"
	c := newTestClient("c1", 8)

	h.Subscribe(topic, c)
	h.Subscribe(topic, c)
	assert.Equal(t, 1, h.SubscriberCount(topic))

	require.NoError(t, h.Publish(context.Background(), topic, []byte(`{"a":1}`)))
	require.NoError(t, h.Publish(context.Background(), topic, []byte(`{"a":2}`)))
	assert.Equal(t, []string{`{"a":1}`, `{"a":2}`}, receive(t, c, 2))
	assert.Len(t, c.Send, 0)
}

func TestHub_UnsubscribeNoop(t *testing.T) {
	h := startHub(t)
	c := newTestClient("c1", 8)

	h.Unsubscribe("group_chat_none", c)
	h.Subscribe("group_chat_a_b_c", c)
	h.Unsubscribe("group_chat_a_b_c", c)
	h.Unsubscribe("group_chat_a_b_c", c)

	assert.Equal(t, 0, h.SubscriberCount("group_chat_a_b_c"))
	assert.False(t, h.IsSubscribed("group_chat_a_b_c", c))
}

func TestHub_TopicsAreIsolated(t *testing.T) {
	h := startHub(t)
	a := newTestClient("a", 8)
	b := newTestClient("b", 8)
	h.Subscribe("group_chat_1_1_1", a)
	h.Subscribe("group_chat_2_2_2", b)

	require.NoError(t, h.Publish(context.Background(), "group_chat_1_1_1", []byte(`"one"`)))
	require.NoError(t, h.Publish(context.Background(), "group_chat_2_2_2", []byte(`"two"`)))

	assert.Equal(t, []string{`"one"`}, receive(t, a, 1))
	assert.Equal(t, []string{`"two"`}, receive(t, b, 1))
}

func TestHub_SlowSubscriberEvicted(t *testing.T) {
	h := startHub(t)
	topic := "group_chat_w_c_ch"
	slow := newTestClient("slow", 1)
	fast := newTestClient("fast", 16)
	h.Subscribe(topic, slow)
	h.Subscribe(topic, fast)

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Publish(context.Background(), topic, []byte(fmt.Sprintf("%d", i))))
	}

	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, receive(t, fast, 5))
	assert.Eventually(t, slow.Closed, time.Second, 10*time.Millisecond)
	assert.False(t, h.IsSubscribed(topic, slow))
	assert.True(t, h.IsSubscribed(topic, fast))
}

func TestHub_UnregisterClosesOnce(t *testing.T) {
	h := startHub(t)
	c := newTestClient("c1", 4)
	h.Subscribe("group_chat_a_b_c", c)

	h.Unregister(c)
	h.Unregister(c)

	assert.True(t, c.Closed())
	assert.False(t, c.Enqueue([]byte("late")))
	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestHub_StopClosesClients(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	c := newTestClient("c1", 4)
	h.Subscribe("group_chat_a_b_c", c)
	cancel()
	<-stopped

	assert.True(t, c.Closed())
	assert.ErrorIs(t, h.Publish(context.Background(), "group_chat_a_b_c", []byte("x")), ErrHubStopped)
}

// closeWatcher mimics a connection handler: once the send queue closes it
// runs cleanup and unregisters the client.
func closeWatcher(h *Hub, c *Client, cleanup func()) {
	go func() {
		for range c.Send {
		}
		cleanup()
		h.Unregister(c)
	}()
}

func TestHub_DrainWaitsForUnregister(t *testing.T) {
	h := startHub(t)

	var cleaned sync.Map
	for _, id := range []string{"a", "b", "c"} {
		c := newTestClient(id, 4)
		h.Subscribe("group_chat_a_b_c", c)
		closeWatcher(h, c, func() {
			time.Sleep(10 * time.Millisecond)
			cleaned.Store(c.ID, true)
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Drain(ctx))

	for _, id := range []string{"a", "b", "c"} {
		_, ok := cleaned.Load(id)
		assert.True(t, ok, id)
	}
	assert.Equal(t, 0, h.SubscriberCount("group_chat_a_b_c"))
}

func TestHub_DrainEmpty(t *testing.T) {
	h := startHub(t)
	assert.NoError(t, h.Drain(context.Background()))
}

func TestHub_DrainDeadline(t *testing.T) {
	h := startHub(t)
	c := newTestClient("stuck", 4)
	h.Subscribe("group_chat_a_b_c", c)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Drain(ctx), context.DeadlineExceeded)
	assert.True(t, c.Closed())
}
