package faceHandler

import (
	contextPkg "FaceDetect/pkg/context"
	"time"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

const (
	maxReadTimeout  = 60 * time.Second
	maxWriteTimeout = 10 * time.Second
)

// handleWebSocket answers every binary frame with its detections. Bad frames
// get an error message and the stream stays open.
func (h *FaceHandler) handleWebSocket(c *websocket.Conn) {
	requestID, _ := c.Locals(contextPkg.RequestIDHeader).(string)
	ctx := contextPkg.WithRequestID(context.Background(), requestID)

	h.log.WithField("request_id", requestID).Info("Face stream client connected")
	defer h.log.WithField("request_id", requestID).Info("Face stream client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Errorf("Face stream error: %v", err)
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			h.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		var reply interface{}
		result, err := h.faceService.DetectFrame(ctx, message)
		if err != nil {
			h.log.Warnf("Error processing face frame: %v", err)
			reply = map[string]string{"error": err.Error()}
		} else {
			reply = result
		}

		if err := c.SetWriteDeadline(time.Now().Add(maxWriteTimeout)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(reply); err != nil {
			h.log.Errorf("Error writing JSON response: %v", err)
			break
		}
	}
}
