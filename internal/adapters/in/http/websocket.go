package http

import (
	"errors"
	"net/http"
	"time"

	"separation/internal/adapters/out/broadcast"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// LaggedEventType tells an observer that events were dropped on its
// subscription and its view must be re-fetched.
const LaggedEventType = "lagged"

// LaggedNotice precedes the next delivered event after a drop.
type LaggedNotice struct {
	EventType string `json:"event_type"`
	Topic     string `json:"topic"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients are served from other origins; access control is upstream.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Subscribe handles GET /api/v1/ws?topic=fleet|order:<id>. The socket is
// write-only: inbound frames are read only to notice the client leaving.
func (s *Server) Subscribe(ctx echo.Context) error {
	topic, err := broadcast.ParseTopic(ctx.QueryParam("topic"))
	if err != nil {
		return &RequestInvalidError{Cause: err}
	}

	sub, err := s.hub.Subscribe(topic)
	if err != nil {
		if errors.Is(err, broadcast.ErrHubClosed) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "server is shutting down")
		}
		return err
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// Upgrade has already answered the client.
		s.logger.Debug("websocket upgrade failed", "topic", topic, "error", err)
		return nil
	}
	defer conn.Close()

	s.logger.Debug("observer connected", "topic", topic)
	gone := readUntilClosed(conn)
	s.stream(conn, sub, gone)
	s.logger.Debug("observer disconnected", "topic", topic)
	return nil
}

func (s *Server) stream(conn *websocket.Conn, sub *broadcast.Subscription, gone <-chan struct{}) {
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case event, ok := <-sub.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(wsWriteWait),
				)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if sub.Lagged() {
				notice := LaggedNotice{EventType: LaggedEventType, Topic: sub.Topic()}
				if err := conn.WriteJSON(notice); err != nil {
					return
				}
			}
			if err := conn.WriteJSON(broadcast.NewMessage(event)); err != nil {
				s.logger.Debug("observer write failed", "topic", sub.Topic(), "error", err)
				return
			}
		}
	}
}

func readUntilClosed(conn *websocket.Conn) <-chan struct{} {
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	return gone
}
