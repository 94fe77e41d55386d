package hub

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/config"
)

func newTestClient(h *Hub, id string, buffer int) *Client {
	c := NewClient(id, h, nil, config.WebSocketConfig{SendBuffer: buffer})
	h.Register(c)
	return c
}

func drain(c *Client) []map[string]string {
	var out []map[string]string
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return out
			}
			var m map[string]string
			_ = json.Unmarshal(data, &m)
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestHub_JoinRebindsToSingleRoom(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, "s1", 8)

	assert.Equal(t, "", h.Join(c, "lobby"))
	assert.Equal(t, "lobby", h.Join(c, "games"))

	assert.Equal(t, "games", h.RoomOf("s1"))
	assert.Equal(t, 0, h.Count("lobby"))
	assert.Equal(t, 1, h.Count("games"))
	assert.Equal(t, 1, h.RoomCount(), "empty room is dropped")
}

func TestHub_RepeatedJoinIsIdempotent(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, "s1", 8)

	h.Join(c, "lobby")
	assert.Equal(t, "lobby", h.Join(c, "lobby"))
	assert.Equal(t, []string{"s1"}, h.Members("lobby"))
}

func TestHub_BroadcastStaysInRoom(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a", 8)
	b := newTestClient(h, "b", 8)
	other := newTestClient(h, "other", 8)
	h.Join(a, "lobby")
	h.Join(b, "lobby")
	h.Join(other, "games")

	n, err := h.Broadcast("lobby", map[string]string{"type": "ping"}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
	assert.Empty(t, drain(other))
}

func TestHub_BroadcastExcludes(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a", 8)
	b := newTestClient(h, "b", 8)
	h.Join(a, "lobby")
	h.Join(b, "lobby")

	n, err := h.Broadcast("lobby", map[string]string{"type": "user_joined"}, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, drain(a))
	assert.Len(t, drain(b), 1)
}

func TestHub_UnregisterLeavesRoomAndClosesOnce(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a", 8)
	b := newTestClient(h, "b", 8)
	h.Join(a, "lobby")
	h.Join(b, "lobby")

	room, ok := h.Unregister(a)
	assert.True(t, ok)
	assert.Equal(t, "lobby", room)

	_, ok = h.Unregister(a)
	assert.False(t, ok)

	_, open := <-a.Send
	assert.False(t, open)

	h.Broadcast("lobby", map[string]string{"type": "x"}, "")
	assert.Len(t, drain(b), 1)
	assert.Equal(t, 1, h.ClientCount())
}

func TestHub_SendToUnregisteredClient(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a", 8)
	h.Unregister(a)

	assert.ErrorIs(t, a.SendMessage(map[string]string{"type": "x"}), ErrClientGone)
}

func TestHub_FullBufferDoesNotBlock(t *testing.T) {
	h := NewHub()
	slow := newTestClient(h, "slow", 1)
	fast := newTestClient(h, "fast", 8)
	h.Join(slow, "lobby")
	h.Join(fast, "lobby")

	h.Broadcast("lobby", map[string]string{"n": "1"}, "")
	n, err := h.Broadcast("lobby", map[string]string{"n": "2"}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, drain(fast), 2)
	assert.ErrorIs(t, slow.SendMessage(map[string]string{"n": "3"}), ErrSendBufferFull)
}

func TestHub_ConcurrentJoinLeaveBroadcast(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		c := newTestClient(h, fmt.Sprintf("s%d", i), 4)
		wg.Add(1)
		go func(c *Client, i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Join(c, fmt.Sprintf("room-%d", (i+j)%3))
				h.Broadcast(h.RoomOf(c.ID), map[string]int{"j": j}, "")
				if j%7 == 0 {
					h.Leave(c)
				}
				drain(c)
			}
			h.Unregister(c)
		}(c, i)
	}
	wg.Wait()

	assert.Equal(t, 0, h.ClientCount())
	assert.Equal(t, 0, h.RoomCount())
}

func TestHub_SlowConsumerHook(t *testing.T) {
	h := NewHub()
	var dropped []string
	h.OnSlowConsumer(func(c *Client) { dropped = append(dropped, c.ID) })

	slow := newTestClient(h, "slow", 1)
	h.Join(slow, "lobby")

	h.Broadcast("lobby", map[string]string{"n": "1"}, "")
	h.Broadcast("lobby", map[string]string{"n": "2"}, "")

	assert.Equal(t, []string{"slow"}, dropped)
}

func TestHub_CloseAllWithoutConnections(t *testing.T) {
	h := NewHub()
	newTestClient(h, "a", 1)
	newTestClient(h, "b", 1)

	assert.Equal(t, 2, h.CloseAll())
}
