package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/roach88/feedline/internal/engine"
	"github.com/roach88/feedline/internal/ir"
)

const writeWait = 5 * time.Second

// StreamMessage is one websocket frame of GET /api/stream.
type StreamMessage struct {
	Seq       int64            `json:"seq"`
	Kind      string           `json:"kind"`
	Timelines []ir.TimelineKey `json:"timelines"`
}

func newStreamMessage(c engine.Change) StreamMessage {
	timelines := c.Timelines
	if timelines == nil {
		timelines = []ir.TimelineKey{}
	}
	return StreamMessage{Seq: c.Seq, Kind: string(c.Kind), Timelines: timelines}
}

// handleStream upgrades to a websocket and forwards every change until
// the client goes away. Clients only receive; anything they send is read
// and discarded so close frames are noticed.
func (s *Server) handleStream(c *gin.Context) {
	// Subscribe before the handshake completes so no change dispatched
	// after the client connects is missed.
	changes, cancel := s.engine.Subscribe(s.streamBuffer)
	defer cancel()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("stream client connected", "remote", c.Request.RemoteAddr)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			s.logger.Info("stream client disconnected", "remote", c.Request.RemoteAddr)
			return
		case <-c.Request.Context().Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(newStreamMessage(change)); err != nil {
				s.logger.Warn("stream write failed", "seq", change.Seq, "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
