package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(u.Host), strings.TrimSpace(r.Host))
	},
}

type wsMessage struct {
	Type string `json:"type"` // "snapshot" | "update"
	Data any    `json:"data"`
}

// handleWS streams live status to a dashboard connection: the full snapshot
// map on connect, then one message per settled probe.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	all, err := s.Snapshots.All(r.Context())
	if err != nil {
		return
	}
	if err := writeWS(conn, wsMessage{Type: "snapshot", Data: all}); err != nil {
		return
	}

	updates, unsub := s.Loop.Subscribe(64)
	defer unsub()

	// reader goroutine only detects the peer closing
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := writeWS(conn, wsMessage{Type: "update", Data: snap}); err != nil {
				s.Logger.Debug("ws_write_error", zap.Error(err))
				return
			}
		case <-closed:
			return
		}
	}
}

func writeWS(conn *websocket.Conn, msg wsMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(msg)
}
