// Package simws subscribes to the simulation backend's per-case
// real-time channel over WebSocket.
package simws

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mkusuma/courtview/domain/repositories"
)

const (
	// Time allowed to write a control message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from the peer. Turn payloads are
	// text; anything beyond this is malformed.
	maxMessageSize = 256 * 1024

	// Buffered frames per subscription before the reader blocks.
	eventBuffer = 64
)

// Source implements repositories.StreamSource by dialing the backend's
// stream endpoint once per case.
type Source struct {
	streamURL string
	dialer    *websocket.Dialer
	logger    *zap.Logger
}

// Ensure Source implements the StreamSource interface
var _ repositories.StreamSource = (*Source)(nil)

// NewSource creates a stream source for the given endpoint, e.g.
// "ws://localhost:5000/stream".
func NewSource(streamURL string, logger *zap.Logger) (*Source, error) {
	if streamURL == "" {
		return nil, fmt.Errorf("stream URL is required")
	}
	if _, err := url.Parse(streamURL); err != nil {
		return nil, fmt.Errorf("invalid stream URL: %w", err)
	}
	return &Source{
		streamURL: streamURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		logger: logger,
	}, nil
}

// Subscribe implements repositories.StreamSource.
func (s *Source) Subscribe(ctx context.Context, caseID string) (repositories.Subscription, error) {
	if caseID == "" {
		return nil, fmt.Errorf("case ID is required")
	}

	endpoint := fmt.Sprintf("%s?case_id=%s", s.streamURL, url.QueryEscape(caseID))
	conn, _, err := s.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial stream for case %s: %w", caseID, err)
	}

	sub := &subscription{
		conn:   conn,
		events: make(chan []byte, eventBuffer),
		done:   make(chan struct{}),
		logger: s.logger.With(zap.String("caseID", caseID)),
	}

	go sub.readPump()
	go sub.pingLoop()

	s.logger.Info("Subscribed to case stream", zap.String("caseID", caseID))
	return sub, nil
}

// subscription is one live per-case feed.
type subscription struct {
	conn   *websocket.Conn
	events chan []byte
	done   chan struct{}
	logger *zap.Logger

	closeOnce sync.Once

	mu     sync.Mutex
	err    error
	closed bool
}

func (s *subscription) Events() <-chan []byte { return s.events }

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close releases the subscription. The events channel closes shortly
// after, once the read pump unwinds. Safe to call more than once.
func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)
		s.conn.Close()
	})
	return nil
}

// readPump pumps frames from the connection onto the events channel
// until the connection drops or Close is called.
func (s *subscription) readPump() {
	defer func() {
		s.conn.Close()
		close(s.events)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if !s.closed {
				s.err = err
			}
			s.mu.Unlock()
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("Stream read failed", zap.Error(err))
			}
			return
		}

		select {
		case s.events <- frame:
		case <-s.done:
			return
		}
	}
}

// pingLoop keeps the connection alive until the subscription ends.
func (s *subscription) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
