package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/observability"
	"draft-strategy-lab/internal/replay"
)

// Stream message types.
const (
	MessageSnapshot = "snapshot" // current graph, sent once on connect
	MessageStep     = "step"     // one applied replay step
)

const writeWait = 10 * time.Second

// StreamMessage is one frame of the replay stream.
type StreamMessage struct {
	Type     string                `json:"type"`
	Mode     domain.GraphMode      `json:"mode"`
	Index    int                   `json:"index,omitempty"`
	Total    int                   `json:"total,omitempty"`
	Won      bool                  `json:"won,omitempty"`
	Ignored  int                   `json:"ignored,omitempty"`
	Snapshot *domain.GraphSnapshot `json:"snapshot"`
}

func stepMessage(ev replay.StepEvent) StreamMessage {
	return StreamMessage{
		Type:     MessageStep,
		Mode:     ev.Mode,
		Index:    ev.Index,
		Total:    ev.Total,
		Won:      ev.Result.Won,
		Ignored:  len(ev.Result.Ignored),
		Snapshot: ev.Snapshot,
	}
}

// handleReplayStream upgrades to a WebSocket and streams every step of mode
// until the client disconnects or the session closes.
func (s *Server) handleReplayStream(w http.ResponseWriter, r *http.Request) {
	mode, err := modeVar(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	events, unsubscribe := s.session.Subscribe(0)
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log("ws: upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	observability.WebSocketConnected(1)
	defer observability.WebSocketConnected(-1)
	s.log("ws: %s stream connected from %s", mode, r.RemoteAddr)

	// Reader: detects client close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snap, err := s.session.Snapshot(mode)
	if err != nil {
		return
	}
	if err := s.send(conn, StreamMessage{Type: MessageSnapshot, Mode: mode, Snapshot: snap}); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			s.log("ws: %s stream closed by %s", mode, r.RemoteAddr)
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			if ev.Mode != mode {
				continue
			}
			if err := s.send(conn, stepMessage(ev)); err != nil {
				s.log("ws: write to %s: %v", r.RemoteAddr, err)
				return
			}
		}
	}
}

func (s *Server) send(conn *websocket.Conn, msg StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
