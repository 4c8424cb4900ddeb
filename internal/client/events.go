package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"tracker/internal/core"
	"tracker/internal/notify"
)

// subscribedFrame opens every event stream.
const subscribedFrame = "subscribed"

// Events opens the change stream. It returns once the server has confirmed
// the subscription, so any mutation made afterwards is delivered. The
// channel closes when ctx ends or the connection drops.
func (c *Client) Events(ctx context.Context) (<-chan notify.Event, error) {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/events"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, &APIError{Status: resp.StatusCode, Code: core.CodeBusUnavailable}
		}
		return nil, fmt.Errorf("dial events: %w", err)
	}

	var first notify.Event
	if err := conn.ReadJSON(&first); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read subscription frame: %w", err)
	}
	if first.Type != subscribedFrame {
		conn.Close()
		return nil, fmt.Errorf("unexpected first frame %q", first.Type)
	}

	out := make(chan notify.Event, notify.DefaultBuffer)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		conn.Close()
	}()
	go func() {
		defer close(out)
		defer close(done)
		for {
			var ev notify.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
