package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tracker/internal/core"
	applog "tracker/internal/log"
	"tracker/internal/notify"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// EventSubscribed is the first frame on every stream. Events published
	// after it are guaranteed to reach the connection.
	EventSubscribed = "subscribed"
)

// handleEvents upgrades to a websocket and relays bus events until either
// side goes away. Frames are notify.Event JSON objects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !s.svc.HasBus() {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: core.CodeBusUnavailable})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.WarnContext(r.Context(), "Websocket upgrade failed", applog.FieldError, err.Error())
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(s.base)
	defer cancel()

	events, err := s.svc.Subscribe(ctx)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Event subscription failed", applog.FieldError, err.Error(), applog.FieldOperation, applog.OpSubscribe)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, core.CodeBusUnavailable),
			time.Now().Add(writeWait))
		return
	}

	n := s.wsClients.Add(1)
	defer s.wsClients.Add(-1)
	s.logger.InfoContext(r.Context(), "Event subscriber connected", applog.FieldOperation, applog.OpSubscribe, "subscribers", n)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The read loop only exists to notice the peer closing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeFrame(conn, notify.Event{Type: EventSubscribed, OccurredAt: time.Now().UTC()}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeFrame(conn, ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, ev notify.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
