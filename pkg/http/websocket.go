package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"duplex-server/pkg/bargein"
	"duplex-server/pkg/discourse"
	"duplex-server/pkg/errors"
	"duplex-server/pkg/metrics"
	"duplex-server/pkg/session"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameBytes  = 64 * 1024
	sendBufferSize = 256
)

// Client frame types
const (
	FrameUtterance = "utterance"
	FrameSpeaking  = "speaking"
	FrameDiscourse = "discourse"
	FrameToolCall  = "tool_call"
	FrameConfig    = "config"
)

// Server frame types
const (
	FrameEvent  = "event"
	FrameResult = "result"
	FrameError  = "error"
)

// ClientFrame is one request read from the session stream. Only the fields
// of its Type are read.
type ClientFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`

	// utterance
	Utterance *bargein.Utterance `json:"utterance,omitempty"`

	// speaking
	UserSpeaking  bool    `json:"user_speaking,omitempty"`
	AiSpeaking    bool    `json:"ai_speaking,omitempty"`
	VADConfidence float64 `json:"vad_confidence,omitempty"`
	Transcript    string  `json:"transcript,omitempty"`

	// discourse
	Text    string            `json:"text,omitempty"`
	Speaker discourse.Speaker `json:"speaker,omitempty"`

	// tool_call
	Active *bool `json:"active,omitempty"`

	// config
	Language        string          `json:"language,omitempty"`
	Config          *session.Config `json:"config,omitempty"`
	AiVolume        *float64        `json:"ai_volume,omitempty"`
	AiMuted         *bool           `json:"ai_muted,omitempty"`
	SidetoneEnabled *bool           `json:"sidetone_enabled,omitempty"`
	SidetoneVolume  *float64        `json:"sidetone_volume,omitempty"`
}

// ServerFrame is one message written to the session stream
type ServerFrame struct {
	Type      string                 `json:"type"`
	RequestID string                 `json:"request_id,omitempty"`
	Event     *session.Event         `json:"event,omitempty"`
	Result    interface{}            `json:"result,omitempty"`
	Error     map[string]interface{} `json:"error,omitempty"`
}

// streamClient is one connected WebSocket. Frames from the session and from
// request handling go through send so only writePump writes to conn.
type streamClient struct {
	conn    *websocket.Conn
	session *session.Session
	logger  *logrus.Entry
	send    chan []byte
	done    chan struct{}
	once    sync.Once
}

func (c *streamClient) stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *streamClient) queue(frame ServerFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.logger.WithError(err).Error("Failed to marshal stream frame")
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		c.logger.WithField("frame_type", frame.Type).Warn("Stream client too slow, dropping frame")
	}
}

// streamSession handles GET /sessions/{id}/stream
func (s *Server) streamSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.ErrorResponse(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error
		s.logger.WithError(err).Error("Failed to upgrade connection to WebSocket")
		return
	}

	client := &streamClient{
		conn:    conn,
		session: sess,
		logger:  s.logger.WithFields(logrus.Fields{"session_id": sess.ID, "remote_addr": r.RemoteAddr}),
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
	}

	untrack := metrics.TrackWebSocketClient()
	defer untrack()

	unsubscribe := sess.Subscribe(func(e session.Event) {
		event := e
		client.queue(ServerFrame{Type: FrameEvent, Event: &event})
		if e.Type == session.EventSessionClosed {
			client.stop()
		}
	})
	defer unsubscribe()

	client.logger.Info("Stream client connected")
	go client.writePump()
	client.readPump()
	client.logger.Info("Stream client disconnected")
}

// readPump reads and handles client frames until the connection or the
// session ends.
func (c *streamClient) readPump() {
	defer c.stop()

	c.conn.SetReadLimit(maxFrameBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithError(err).Warn("Stream read failed")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.queue(errorFrame("", errors.NewInvalidInput("malformed frame", map[string]interface{}{"cause": err.Error()})))
			continue
		}

		result, err := c.handle(frame)
		if err != nil {
			c.queue(errorFrame(frame.RequestID, err))
			if errors.IsErrorType(err, errors.ErrSessionNotFound) {
				return
			}
			continue
		}
		c.queue(ServerFrame{Type: FrameResult, RequestID: frame.RequestID, Result: result})
	}
}

func errorFrame(requestID string, err error) ServerFrame {
	body := map[string]interface{}{"message": err.Error()}
	if code := errors.GetErrorCode(err); code != "" {
		body["code"] = code
	}
	return ServerFrame{Type: FrameError, RequestID: requestID, Error: body}
}

// handle applies one client frame to the session and returns the reply
func (c *streamClient) handle(frame ClientFrame) (interface{}, error) {
	s := c.session
	switch frame.Type {
	case FrameUtterance:
		if frame.Utterance == nil {
			return nil, errors.NewInvalidInput("utterance frame without utterance")
		}
		return s.Classify(*frame.Utterance)

	case FrameSpeaking:
		return s.Speaking(frame.UserSpeaking, frame.AiSpeaking, frame.VADConfidence, frame.Transcript)

	case FrameDiscourse:
		return s.UpdateDiscourse(frame.Text, frame.Speaker)

	case FrameToolCall:
		if frame.Active == nil {
			return nil, errors.NewInvalidInput("tool_call frame without active flag")
		}
		var err error
		if *frame.Active {
			err = s.StartToolCall()
		} else {
			err = s.EndToolCall()
		}
		if err != nil {
			return nil, err
		}
		return map[string]bool{"tool_call_active": *frame.Active}, nil

	case FrameConfig:
		return c.applyConfig(frame)

	default:
		return nil, errors.NewInvalidInput("unknown frame type", map[string]interface{}{"type": frame.Type})
	}
}

func (c *streamClient) applyConfig(frame ClientFrame) (interface{}, error) {
	s := c.session
	if frame.Config != nil {
		if err := s.ApplyConfig(*frame.Config); err != nil {
			return nil, err
		}
	}
	if frame.Language != "" {
		if err := s.SetLanguage(frame.Language); err != nil {
			return nil, err
		}
	}
	if frame.AiVolume != nil {
		if err := s.SetAiVolume(*frame.AiVolume); err != nil {
			return nil, err
		}
	}
	if frame.AiMuted != nil {
		if err := s.SetAiMuted(*frame.AiMuted); err != nil {
			return nil, err
		}
	}
	if frame.SidetoneEnabled != nil || frame.SidetoneVolume != nil {
		snap, err := s.Snapshot()
		if err != nil {
			return nil, err
		}
		enabled := snap.Mixer.SidetoneEnabled
		if frame.SidetoneEnabled != nil {
			enabled = *frame.SidetoneEnabled
		}
		if err := s.SetSidetone(enabled, frame.SidetoneVolume); err != nil {
			return nil, err
		}
	}
	return s.Snapshot()
}

// writePump writes queued frames and keeps the connection alive with pings
func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				c.stop()
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.stop()
				return
			}

		case <-c.done:
			c.flush()
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes the frames that were queued before the client stopped
func (c *streamClient) flush() {
	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *streamClient) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}
