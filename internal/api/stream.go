package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleLive streams every change applied to the cache, this client's
// own acknowledged writes and other clients' reconciled ones alike, to
// a websocket subscriber, so presentation code can repaint without
// polling.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	sub := s.cache.Subscribe()
	defer s.cache.Unsubscribe(sub)
	slog.Info("live stream connected", "remote", r.RemoteAddr)

	// Drain reads so close frames are processed.
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case ch, ok := <-sub:
			if !ok {
				return
			}
			if err := ws.WriteJSON(ch); err != nil {
				slog.Info("live stream disconnected", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	}
}
