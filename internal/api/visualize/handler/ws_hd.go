package visualizeHandler

import (
	"time"

	"DetectionViewer/internal/api/visualize"
	"DetectionViewer/internal/middleware"
	"DetectionViewer/pkg/log"

	"github.com/gofiber/websocket/v2"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// handleStateWebSocket streams the upload state of one session. The first
// message is the current state; after that every transition is forwarded
// until the client goes away.
func (h *VisualizeHandler) handleStateWebSocket(c *websocket.Conn) {
	sessionID, _ := c.Locals(middleware.SessionIDKey).(string)
	logger := h.log.WithFields(log.Fields{"session": sessionID})

	logger.Info("State WebSocket client connected")
	defer logger.Info("State WebSocket client disconnected")

	events, cancel := h.visualizeService.Subscribe(sessionID)
	defer cancel()

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			logger.Errorf("Error sending pong: %v", err)
		}
		return c.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if err := c.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
				return
			}
			if _, _, err := c.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warnf("State WebSocket error: %v", err)
				}
				return
			}
		}
	}()

	st := h.visualizeService.State(sessionID)
	initial := visualize.StateEvent{
		Session:    sessionID,
		Generation: st.Generation,
		State:      st.State,
		Loading:    st.IsLoading,
		Message:    st.LastMessage,
		At:         time.Now(),
	}
	if err := writeEvent(c, initial); err != nil {
		logger.Errorf("Error writing initial state: %v", err)
		return
	}

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(c, ev); err != nil {
				logger.Errorf("Error writing state event: %v", err)
				return
			}
		}
	}
}

func writeEvent(c *websocket.Conn, ev visualize.StateEvent) error {
	if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	if err := c.WriteJSON(ev); err != nil {
		return err
	}
	return c.SetWriteDeadline(time.Time{})
}
