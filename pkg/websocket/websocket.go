package websocketPkg

import (
	"FaceDetect/pkg/facepipeline"
	"FaceDetect/pkg/imagecodec"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// IFaceModel is a face-detection model served over a websocket. Calls to
// Detect are serialized over a single connection.
type IFaceModel interface {
	facepipeline.Detector
	IsConnected() bool
	Reconnect() error
	Close()
}

type Config struct {
	URL                    string
	ModelSelection         int
	MinDetectionConfidence float64
}

type detectRequest struct {
	ModelSelection         int     `json:"model_selection"`
	MinDetectionConfidence float64 `json:"min_detection_confidence"`
	Width                  int     `json:"width"`
	Height                 int     `json:"height"`
	Image                  string  `json:"image"`
}

type detectResponse struct {
	Detections []facepipeline.RelativeDetection `json:"detections"`
	Error      string                           `json:"error,omitempty"`
}

var ErrClosed = errors.New("face model client closed")

type faceModelClient struct {
	cfg          Config
	conn         *websocket.Conn
	mu           sync.Mutex
	closed       bool
	log          *logrus.Logger
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewFaceModelClient(cfg Config, log *logrus.Logger) IFaceModel {
	return &faceModelClient{
		cfg:          cfg,
		log:          log,
		pingInterval: 30 * time.Second,
		readTimeout:  15 * time.Second,
		writeTimeout: 5 * time.Second,
	}
}

// ConnectInBackground dials once without blocking boot; failures are retried
// lazily by Detect.
func ConnectInBackground(model IFaceModel, log *logrus.Logger) {
	go func() {
		if err := model.Reconnect(); err != nil {
			log.Warnf("Initial connection to face model failed: %v. Will retry on demand.", err)
			return
		}
		log.Info("Successfully connected to face model service")
	}()
}

func (c *faceModelClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *faceModelClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.dropLocked()
	_, err := c.dialLocked()
	return err
}

func (c *faceModelClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.dropLocked()
}

func (c *faceModelClient) Detect(ctx context.Context, img *imagecodec.PixelImage) ([]facepipeline.RelativeDetection, error) {
	frame, err := imagecodec.EncodeJPEG(img)
	if err != nil {
		return nil, err
	}

	payload, err := jsoniter.Marshal(detectRequest{
		ModelSelection:         c.cfg.ModelSelection,
		MinDetectionConfidence: c.cfg.MinDetectionConfidence,
		Width:                  img.Width,
		Height:                 img.Height,
		Image:                  base64.StdEncoding.EncodeToString(frame),
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding face model request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	conn := c.conn
	if conn == nil {
		if conn, err = c.dialLocked(); err != nil {
			return nil, fmt.Errorf("cannot connect to face model service: %w", err)
		}
	}

	_ = conn.SetWriteDeadline(c.deadline(ctx, c.writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("error sending face frame: %w", err)
	}

	_ = conn.SetReadDeadline(c.deadline(ctx, c.readTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("error reading face model response: %w", err)
	}

	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})

	var resp detectResponse
	if err := jsoniter.Unmarshal(message, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshaling face model response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("face model error: %s", resp.Error)
	}

	c.log.WithFields(logrus.Fields{
		"faces":  len(resp.Detections),
		"width":  img.Width,
		"height": img.Height,
	}).Debug("Received response from face model")

	return resp.Detections, nil
}

func (c *faceModelClient) deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

func (c *faceModelClient) dialLocked() (*websocket.Conn, error) {
	if c.cfg.URL == "" {
		return nil, errors.New("URL for face model not configured")
	}

	c.log.Infof("Connecting to face model at %s", c.cfg.URL)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.cfg.URL, err)
	}

	conn.SetPingHandler(func(appData string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout)); err != nil {
			c.log.Warnf("Error sending pong: %v", err)
		}
		return nil
	})

	c.conn = conn
	go c.keepAlive(conn)

	return conn, nil
}

func (c *faceModelClient) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *faceModelClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}

		if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout)); err != nil {
			c.log.Warnf("Ping failed for face model, marking connection as dead: %v", err)
			c.dropLocked()
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}
