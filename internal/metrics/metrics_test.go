package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SetConnections(3)
		m.SetRooms(1)
		m.MessageBroadcast("safe")
		m.MessageRejected("empty")
		m.ObserveModeration(time.Second)
		m.PersistFailed()
		m.PublishFailed()
		m.HistoryRead("cache")
		m.SlowConsumer()
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()

	m.MessageBroadcast("safe")
	m.MessageBroadcast("safe")
	m.MessageBroadcast("error")
	m.PersistFailed()
	m.SetConnections(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("safe")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.connections))
}

func TestHandler(t *testing.T) {
	m := New()
	m.MessageBroadcast("unsafe")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `moderated_chat_messages_total{moderation_status="unsafe"} 1`)
}
