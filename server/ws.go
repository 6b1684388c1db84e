package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/brensch/greedysnek/game"
)

// WSRequest is one websocket frame from the host.
type WSRequest struct {
	game.Wire
	Explain bool `json:"explain,omitempty"`
}

// handleWS upgrades the connection and serves rounds until the peer closes.
// The connection owns its session; nothing is shared with the HTTP routes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	sess, err := s.newSession()
	if err != nil {
		writeFrame(conn, ErrorResponse{Error: err.Error()}, s.log)
		return
	}
	e := &entry{id: uuid.NewString(), session: sess, lastUsed: time.Now()}
	log := s.log.With("game_id", e.id, "remote", r.RemoteAddr)
	log.Info("websocket session opened")

	rounds := 0
	for {
		if s.ttl > 0 {
			conn.SetReadDeadline(time.Now().Add(s.ttl))
		}
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("websocket session closed", "rounds", rounds)
			} else {
				log.Warn("websocket read", "rounds", rounds, "err", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			if !writeFrame(conn, ErrorResponse{Error: "text frames only"}, log) {
				return
			}
			continue
		}

		var req WSRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			if !writeFrame(conn, ErrorResponse{Error: fmt.Sprintf("decode frame: %v", err)}, log) {
				return
			}
			continue
		}
		if err := req.Wire.Validate(); err != nil {
			if !writeFrame(conn, ErrorResponse{Error: err.Error()}, log) {
				return
			}
			continue
		}

		resp := s.decideOn(e, req.Wire, req.Explain)
		rounds++
		if !writeFrame(conn, resp, log) {
			return
		}
	}
}

// writeFrame sends v as one JSON frame. It reports false once the
// connection can no longer be written to.
func writeFrame(conn *websocket.Conn, v any, log *slog.Logger) bool {
	if err := conn.WriteJSON(v); err != nil {
		log.Warn("websocket write", "err", err)
		return false
	}
	return true
}
