package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is permissive per spec, so the WebSocket upgrade accepts any
	// origin rather than enforcing a same-origin check.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade: %v", err)
		return
	}
	if s.metrics != nil {
		s.metrics.WebSocketConnections.Inc()
		defer s.metrics.WebSocketConnections.Dec()
	}

	s.wsManager.Serve(conn, filter)
}
