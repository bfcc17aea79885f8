package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"separation/internal/adapters/out/broadcast"
	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, f *fixture, topic string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?topic=" + topic
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestSubscribe_ReceivesOrderEvents(t *testing.T) {
	f := newFixture(t)
	o := newOrder(t, 2)
	conn := dial(t, f, "order:"+o.ID().String())
	require.Eventually(t, func() bool {
		return f.hub.Subscribers(broadcast.OrderTopic(o.ID())) == 1
	}, time.Second, 10*time.Millisecond)

	line := o.Lines()[1]
	worker := actor(t, "worker-3")
	at := startedAt.Add(5 * time.Minute)
	require.NoError(t, line.Separate(worker, at))
	require.NoError(t, f.hub.Publish(t.Context(), order.NewLineTransitionedEvent(line, o.Progress(), worker, at)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg broadcast.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, string(order.EventLineTransitioned), msg.EventType)
	assert.Equal(t, o.ID().String(), msg.OrderID)
	require.NotNil(t, msg.LineID)
	assert.Equal(t, line.ID().String(), *msg.LineID)
	require.NotNil(t, msg.NewState)
	assert.Equal(t, "SEPARATED", *msg.NewState)
	assert.Equal(t, 1, msg.Progress.Resolved)
	assert.Equal(t, 2, msg.Progress.Total)
	assert.Equal(t, "worker-3", msg.Actor)
}

func TestSubscribe_OtherOrdersAreFiltered(t *testing.T) {
	f := newFixture(t)
	watched, other := newOrder(t, 1), newOrder(t, 1)
	conn := dial(t, f, "order:"+watched.ID().String())
	require.Eventually(t, func() bool {
		return f.hub.Subscribers(broadcast.OrderTopic(watched.ID())) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, f.hub.Publish(t.Context(), order.NewOrderCreatedEvent(other, "seller-1")))
	require.NoError(t, f.hub.Publish(t.Context(), order.NewOrderCreatedEvent(watched, "seller-1")))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg broadcast.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, watched.ID().String(), msg.OrderID)
}

func TestSubscribe_HubCloseEndsStream(t *testing.T) {
	f := newFixture(t)
	conn := dial(t, f, "fleet")
	require.Eventually(t, func() bool {
		return f.hub.Subscribers(broadcast.FleetTopic) == 1
	}, time.Second, 10*time.Millisecond)

	f.hub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.True(t, errors.As(err, &closeErr), "got %v", err)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)
}

func TestSubscribe_InvalidTopic(t *testing.T) {
	f := newFixture(t)

	for _, topic := range []string{"", "orders", "order:" + kernel.UUID{}.String(), "order:abc"} {
		rec := f.do(t, http.MethodGet, "/api/v1/ws?topic="+topic, "", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "topic %q", topic)
	}
	assert.Zero(t, f.hub.Subscribers(broadcast.FleetTopic))
}
