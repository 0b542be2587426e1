package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkusuma/courtview/domain/entities"
	"github.com/mkusuma/courtview/transcript"
)

// MessageType defines the type of a viewer WebSocket message.
type MessageType string

// Messages sent to viewers.
const (
	MessageTypeSnapshot MessageType = "session_snapshot"
	MessageTypeTurn     MessageType = "turn"
	MessageTypeThinking MessageType = "thinking"
	MessageTypeProgress MessageType = "progress"
	MessageTypeComplete MessageType = "complete"
	MessageTypeError    MessageType = "error"
)

// Messages accepted from viewers.
const (
	MessageTypeSnapshotRequest MessageType = "snapshot_request"
	MessageTypePing            MessageType = "ping"
	MessageTypePong            MessageType = "pong"
)

// BaseMessage defines the common structure for all viewer messages.
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
}

func base(t MessageType) BaseMessage {
	return BaseMessage{
		Type:      t,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// SnapshotMessage carries the full current session state. Sent on join
// and on request.
type SnapshotMessage struct {
	BaseMessage
	Session entities.SimulationSession `json:"session"`
}

// TurnMessage carries one new turn as it arrives.
type TurnMessage struct {
	BaseMessage
	Turn entities.Turn `json:"turn"`
}

// ThinkingMessage mirrors the backend's typing indicator.
type ThinkingMessage struct {
	BaseMessage
	Role string `json:"role"`
	Text string `json:"text"`
}

// ProgressMessage carries a coarse progress update.
type ProgressMessage struct {
	BaseMessage
	Progress int `json:"progress"`
	Step     int `json:"step"`
}

// CompleteMessage closes out a live session: the authoritative session
// plus the transcript classified into renderable segments.
type CompleteMessage struct {
	BaseMessage
	Session  entities.SimulationSession `json:"session"`
	Segments []transcript.Segment       `json:"segments"`
}

// ErrorMessage surfaces a failed simulation to the viewer.
type ErrorMessage struct {
	BaseMessage
	Message string `json:"message"`
}

// NewSnapshotMessage creates a snapshot message for a session.
func NewSnapshotMessage(session entities.SimulationSession) *SnapshotMessage {
	return &SnapshotMessage{BaseMessage: base(MessageTypeSnapshot), Session: session}
}

// NewTurnMessage creates a turn message.
func NewTurnMessage(turn entities.Turn) *TurnMessage {
	return &TurnMessage{BaseMessage: base(MessageTypeTurn), Turn: turn}
}

// NewThinkingMessage creates a thinking message.
func NewThinkingMessage(signal entities.TypingSignal) *ThinkingMessage {
	return &ThinkingMessage{BaseMessage: base(MessageTypeThinking), Role: signal.Role, Text: signal.Text}
}

// NewProgressMessage creates a progress message.
func NewProgressMessage(progress, step int) *ProgressMessage {
	return &ProgressMessage{BaseMessage: base(MessageTypeProgress), Progress: progress, Step: step}
}

// NewCompleteMessage creates a completion message, formatting the
// finalized transcript for structured rendering.
func NewCompleteMessage(session entities.SimulationSession) *CompleteMessage {
	return &CompleteMessage{
		BaseMessage: base(MessageTypeComplete),
		Session:     session,
		Segments:    transcript.Format(session.TranscriptText),
	}
}

// NewErrorMessage creates an error message.
func NewErrorMessage(message string) *ErrorMessage {
	return &ErrorMessage{BaseMessage: base(MessageTypeError), Message: message}
}

// ParseViewerMessage validates an incoming viewer frame. Viewers only
// send control messages; anything else is rejected.
func ParseViewerMessage(frame []byte) (MessageType, error) {
	var msg BaseMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return "", fmt.Errorf("invalid JSON format: %w", err)
	}

	switch msg.Type {
	case MessageTypeSnapshotRequest, MessageTypePing:
		return msg.Type, nil
	default:
		return "", fmt.Errorf("unsupported viewer message type: %s", msg.Type)
	}
}

func marshal(v interface{}) []byte {
	payload, _ := json.Marshal(v)
	return payload
}
