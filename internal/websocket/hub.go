package websocket

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mkusuma/courtview/domain/entities"
	"github.com/mkusuma/courtview/domain/repositories"
	"github.com/mkusuma/courtview/internal/stream"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Buffered frames per viewer before the hub drops the connection.
	sendBuffer = 64

	// How long an empty room survives before the janitor closes its
	// upstream subscription.
	idleRoomTTL = 2 * time.Minute

	archiveTimeout = 10 * time.Second
)

// Client is a single viewer connection attached to one case room.
type Client struct {
	ID     string
	CaseID string

	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	// set instead of a connection when the register channel is used
	// to service a one-shot state read
	snapshotOnly chan snapshotResult
}

type snapshotResult struct {
	session entities.SimulationSession
	err     error
}

// ErrHubClosed is returned for reads against a stopped hub.
var ErrHubClosed = errors.New("viewer hub is stopped")

// room groups every viewer of one case around a single upstream
// stream controller.
type room struct {
	caseID     string
	controller *stream.Controller
	clients    map[*Client]bool

	// last state broadcast, used to diff incoming snapshots into
	// incremental messages
	turnCount int
	phase     entities.Phase
	progress  int
	thinking  entities.TypingSignal
	archived  bool

	emptySince time.Time
}

type sessionUpdate struct {
	caseID  string
	session entities.SimulationSession
}

// Hub routes simulation state to viewer connections, one room per
// case. The first viewer of a case opens the upstream stream; the
// janitor tears it down once the room has been empty for a while.
type Hub struct {
	backend repositories.SimulationBackend
	source  repositories.StreamSource
	archive repositories.SessionArchive
	logger  *zap.Logger

	rooms      map[string]*room
	register   chan *Client
	unregister chan *Client
	updates    chan sessionUpdate
	done       chan struct{}
}

// NewHub creates a viewer hub.
func NewHub(backend repositories.SimulationBackend, source repositories.StreamSource, archive repositories.SessionArchive, logger *zap.Logger) *Hub {
	return &Hub{
		backend:    backend,
		source:     source,
		archive:    archive,
		logger:     logger,
		rooms:      make(map[string]*room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		updates:    make(chan sessionUpdate, 64),
		done:       make(chan struct{}),
	}
}

// Run processes registrations, departures and session updates until
// Stop is called. All room state is owned by this goroutine.
func (h *Hub) Run() {
	janitor := time.NewTicker(30 * time.Second)
	defer janitor.Stop()

	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case update := <-h.updates:
			h.handleUpdate(update)

		case <-janitor.C:
			h.sweepRooms()

		case <-h.done:
			for _, r := range h.rooms {
				h.closeRoom(r)
			}
			return
		}
	}
}

// Stop shuts the hub down, closing every room and viewer connection.
func (h *Hub) Stop() {
	close(h.done)
}

// Snapshot returns the current session state for a case, opening the
// upstream stream if no room exists yet. It is used by the REST
// surface so polling and streaming viewers see the same state.
func (h *Hub) Snapshot(ctx context.Context, caseID string) (entities.SimulationSession, error) {
	reply := make(chan snapshotResult, 1)

	select {
	case h.register <- &Client{CaseID: caseID, snapshotOnly: reply}:
	case <-h.done:
		return entities.SimulationSession{}, ErrHubClosed
	case <-ctx.Done():
		return entities.SimulationSession{}, ctx.Err()
	}

	select {
	case res := <-reply:
		return res.session, res.err
	case <-h.done:
		return entities.SimulationSession{}, ErrHubClosed
	case <-ctx.Done():
		return entities.SimulationSession{}, ctx.Err()
	}
}

func (h *Hub) handleRegister(client *Client) {
	r, err := h.roomFor(client.CaseID)

	if client.snapshotOnly != nil {
		if err != nil {
			client.snapshotOnly <- snapshotResult{err: err}
		} else {
			client.snapshotOnly <- snapshotResult{session: r.controller.Snapshot()}
		}
		return
	}

	if err != nil {
		h.logger.Error("failed to open case room",
			zap.String("case_id", client.CaseID),
			zap.Error(err))
		client.send <- marshal(NewErrorMessage("simulation unavailable"))
		close(client.send)
		return
	}

	r.clients[client] = true
	r.emptySince = time.Time{}

	session := r.controller.Snapshot()
	client.send <- marshal(NewSnapshotMessage(session))
	if session.Phase == entities.PhaseCompleted {
		client.send <- marshal(NewCompleteMessage(session))
	}

	h.logger.Info("viewer joined",
		zap.String("viewer_id", client.ID),
		zap.String("case_id", client.CaseID),
		zap.Int("room_size", len(r.clients)))
}

func (h *Hub) handleUnregister(client *Client) {
	r, ok := h.rooms[client.CaseID]
	if !ok {
		return
	}
	if _, ok := r.clients[client]; !ok {
		return
	}

	delete(r.clients, client)
	close(client.send)
	if len(r.clients) == 0 {
		r.emptySince = time.Now()
	}

	h.logger.Info("viewer left",
		zap.String("viewer_id", client.ID),
		zap.String("case_id", client.CaseID),
		zap.Int("room_size", len(r.clients)))
}

func (h *Hub) handleUpdate(update sessionUpdate) {
	r, ok := h.rooms[update.caseID]
	if !ok {
		return
	}

	session := update.session

	// New turns since the last broadcast, in order.
	for i := r.turnCount; i < len(session.Turns); i++ {
		r.broadcast(marshal(NewTurnMessage(session.Turns[i])))
	}
	r.turnCount = len(session.Turns)

	if session.TypingSignal.Active && session.TypingSignal != r.thinking {
		r.broadcast(marshal(NewThinkingMessage(session.TypingSignal)))
	}
	r.thinking = session.TypingSignal

	if session.Progress != r.progress || session.Phase != r.phase {
		r.broadcast(marshal(NewProgressMessage(session.Progress, session.Step)))
	}
	r.progress = session.Progress

	if session.Phase != r.phase {
		switch session.Phase {
		case entities.PhaseCompleted:
			r.broadcast(marshal(NewCompleteMessage(session)))
			h.archiveSession(session)
			r.archived = true
		case entities.PhaseErrored:
			r.broadcast(marshal(NewErrorMessage(session.ErrMessage)))
		}
	}
	r.phase = session.Phase
}

// roomFor returns the room for a case, creating it and opening the
// upstream stream on first use.
func (h *Hub) roomFor(caseID string) (*room, error) {
	if r, ok := h.rooms[caseID]; ok {
		return r, nil
	}

	controller := stream.NewController(caseID, h.backend, h.source, func(session entities.SimulationSession) {
		select {
		case h.updates <- sessionUpdate{caseID: caseID, session: session}:
		case <-h.done:
		}
	}, h.logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := controller.Open(ctx); err != nil {
		controller.Close()
		return nil, err
	}

	r := &room{
		caseID:     caseID,
		controller: controller,
		clients:    make(map[*Client]bool),
		emptySince: time.Now(),
	}

	session := controller.Snapshot()
	r.turnCount = len(session.Turns)
	r.phase = session.Phase
	r.progress = session.Progress
	if session.Phase == entities.PhaseCompleted {
		h.archiveSession(session)
		r.archived = true
	}

	h.rooms[caseID] = r
	h.logger.Info("case room opened", zap.String("case_id", caseID))
	return r, nil
}

func (h *Hub) sweepRooms() {
	now := time.Now()
	for _, r := range h.rooms {
		if len(r.clients) > 0 {
			continue
		}
		if r.emptySince.IsZero() || now.Sub(r.emptySince) < idleRoomTTL {
			continue
		}
		h.closeRoom(r)
		h.logger.Info("idle case room closed", zap.String("case_id", r.caseID))
	}
}

func (h *Hub) closeRoom(r *room) {
	r.controller.Close()
	for client := range r.clients {
		close(client.send)
	}
	delete(h.rooms, r.caseID)
}

func (h *Hub) archiveSession(session entities.SimulationSession) {
	if h.archive == nil {
		return
	}
	r := h.rooms[session.CaseID]
	if r != nil && r.archived {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	record := &repositories.ArchivedSession{
		CaseID:         session.CaseID,
		Turns:          session.Turns,
		SimulationText: session.TranscriptText,
		CompletedAt:    time.Now(),
	}
	if err := h.archive.Save(ctx, record); err != nil {
		h.logger.Error("failed to archive completed session",
			zap.String("case_id", session.CaseID),
			zap.Error(err))
		return
	}
	h.logger.Info("session archived", zap.String("case_id", session.CaseID))
}

func (r *room) broadcast(frame []byte) {
	for client := range r.clients {
		select {
		case client.send <- frame:
		default:
			// Slow consumer; drop the frame rather than stall the hub.
			client.logger.Warn("viewer send buffer full, dropping frame",
				zap.String("viewer_id", client.ID))
		}
	}
}

// NewClient creates a viewer client for an accepted WebSocket
// connection and registers it with the hub.
func NewClient(hub *Hub, conn *websocket.Conn, caseID string, logger *zap.Logger) *Client {
	return &Client{
		ID:     uuid.New().String(),
		CaseID: caseID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logger,
	}
}

// Serve registers the client and runs its pumps. It returns when the
// connection drops or the hub closes the room.
func (c *Client) Serve() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		c.conn.Close()
		return
	}
	go c.writePump()
	c.readPump()
}

// readPump reads control frames from the viewer until the connection
// closes, then unregisters the client.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("viewer connection error",
					zap.String("viewer_id", c.ID),
					zap.Error(err))
			}
			return
		}

		msgType, err := ParseViewerMessage(frame)
		if err != nil {
			c.logger.Debug("rejected viewer frame",
				zap.String("viewer_id", c.ID),
				zap.Error(err))
			continue
		}

		switch msgType {
		case MessageTypeSnapshotRequest:
			session, err := c.hub.Snapshot(context.Background(), c.CaseID)
			if err != nil {
				continue
			}
			select {
			case c.send <- marshal(NewSnapshotMessage(session)):
			default:
			}
		case MessageTypePing:
			select {
			case c.send <- marshal(BaseMessage{Type: MessageTypePong, Timestamp: time.Now().Format(time.RFC3339)}):
			default:
			}
		}
	}
}

// writePump forwards hub frames to the viewer and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
