package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/spacetime-relay/internal/model"
	"github.com/mcoot/spacetime-relay/internal/testutil"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []model.Message
	full     bool
}

func (c *fakeConn) Enqueue(msg model.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	c.messages = append(c.messages, msg)
	return true
}

func (c *fakeConn) received() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Message(nil), c.messages...)
}

func TestRegistryAssignsUniqueIDs(t *testing.T) {
	r := NewRegistry(NewMetrics(), testutil.NopLogger())

	seen := map[model.PlayerID]bool{}
	for i := 0; i < 100; i++ {
		id := r.Connect(&fakeConn{})
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Equal(t, 100, r.Count())
}

func TestRegistryRetriesOnIDCollision(t *testing.T) {
	r := NewRegistry(NewMetrics(), testutil.NopLogger())
	ids := []model.PlayerID{"same", "same", "other"}
	r.newID = func() model.PlayerID {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	assert.Equal(t, model.PlayerID("same"), r.Connect(&fakeConn{}))
	assert.Equal(t, model.PlayerID("other"), r.Connect(&fakeConn{}))
}

func TestRegistrySend(t *testing.T) {
	metrics := NewMetrics()
	r := NewRegistry(metrics, testutil.NopLogger())
	conn := &fakeConn{}
	id := r.Connect(conn)

	msg := model.NewMessage(model.EventAllReady, model.AllReadyPayload{Ready: true})
	r.Send(id, msg)
	r.Send("unknown", msg)

	assert.Equal(t, []model.Message{msg}, conn.received())
	assert.Equal(t, int64(1), metrics.MessagesSent.Load())
	assert.Equal(t, int64(1), metrics.MessagesDropped.Load())
}

func TestRegistrySendDropsWhenBufferFull(t *testing.T) {
	metrics := NewMetrics()
	r := NewRegistry(metrics, testutil.NopLogger())
	conn := &fakeConn{full: true}
	id := r.Connect(conn)

	r.Send(id, model.NewMessage(model.EventPlayerMoved, nil))

	assert.Empty(t, conn.received())
	assert.Equal(t, int64(1), metrics.MessagesDropped.Load())
}

func TestRegistryDisconnectRunsCallbacksOnce(t *testing.T) {
	r := NewRegistry(NewMetrics(), testutil.NopLogger())
	var calls []model.PlayerID
	r.OnDisconnect(func(id model.PlayerID) { calls = append(calls, id) })

	conn := &fakeConn{}
	id := r.Connect(conn)
	r.Disconnect(id)
	r.Disconnect(id)

	assert.Equal(t, []model.PlayerID{id}, calls)
	assert.Equal(t, 0, r.Count())

	// Messages to a disconnected id go nowhere
	r.Send(id, model.NewMessage(model.EventAllReady, nil))
	assert.Empty(t, conn.received())
}

func TestRegistryDisconnectCallbacksCanStillSend(t *testing.T) {
	r := NewRegistry(NewMetrics(), testutil.NopLogger())
	conn := &fakeConn{}
	id := r.Connect(conn)

	final := model.NewMessage(model.EventPlayerLeft, model.PlayerLeftPayload{PlayerID: id})
	r.OnDisconnect(func(id model.PlayerID) { r.Send(id, final) })
	r.Disconnect(id)

	assert.Equal(t, []model.Message{final}, conn.received())
	assert.Equal(t, 0, r.Count())
}
