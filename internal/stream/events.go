package stream

import (
	"encoding/json"
	"fmt"

	"github.com/mkusuma/courtview/domain/entities"
)

// EventType defines the type of a stream event.
type EventType string

// Event types emitted by the simulation backend's per-case channel.
const (
	EventTypeEvidenceProgress   EventType = "evidence_progress"
	EventTypeSimulationProgress EventType = "simulation_progress"
	EventTypeTurn               EventType = "turn"
	EventTypeThinking           EventType = "thinking"
	EventTypeComplete           EventType = "complete"
	EventTypeError              EventType = "error"
)

// Event is one parsed stream event. Exactly one of the pointer fields
// is set, matching Type.
type Event struct {
	Type     EventType
	Progress *ProgressEvent
	Turn     *entities.Turn
	Thinking *ThinkingEvent
	Error    *ErrorEvent
}

// ProgressEvent carries a coarse progress update. Step is -1 when the
// event did not include one.
type ProgressEvent struct {
	Progress int
	Step     int
}

// ThinkingEvent signals that a participant is composing a statement.
type ThinkingEvent struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// ErrorEvent carries a backend-supplied failure message.
type ErrorEvent struct {
	Message string `json:"message"`
}

type baseEvent struct {
	Type EventType `json:"type"`
}

type progressPayload struct {
	Progress *int `json:"progress"`
	Step     *int `json:"step"`
}

// ParseEvent validates and parses a raw frame from the per-case
// channel. Payload shapes are checked at this boundary so malformed
// frames are rejected with an error instead of folding garbage into
// session state.
func ParseEvent(frame []byte) (*Event, error) {
	var base baseEvent
	if err := json.Unmarshal(frame, &base); err != nil {
		return nil, fmt.Errorf("invalid event frame: %w", err)
	}

	switch base.Type {
	case EventTypeEvidenceProgress, EventTypeSimulationProgress:
		var payload progressPayload
		if err := json.Unmarshal(frame, &payload); err != nil {
			return nil, fmt.Errorf("invalid progress event: %w", err)
		}
		if payload.Progress == nil {
			return nil, fmt.Errorf("progress event missing progress field")
		}
		if *payload.Progress < 0 || *payload.Progress > 100 {
			return nil, fmt.Errorf("progress out of range: %d", *payload.Progress)
		}
		step := -1
		if payload.Step != nil {
			step = *payload.Step
		}
		return &Event{
			Type:     base.Type,
			Progress: &ProgressEvent{Progress: *payload.Progress, Step: step},
		}, nil

	case EventTypeTurn:
		var turn entities.Turn
		if err := json.Unmarshal(frame, &turn); err != nil {
			return nil, fmt.Errorf("invalid turn event: %w", err)
		}
		if err := turn.Validate(); err != nil {
			return nil, fmt.Errorf("invalid turn event: %w", err)
		}
		return &Event{Type: base.Type, Turn: &turn}, nil

	case EventTypeThinking:
		var thinking ThinkingEvent
		if err := json.Unmarshal(frame, &thinking); err != nil {
			return nil, fmt.Errorf("invalid thinking event: %w", err)
		}
		if thinking.Role == "" {
			return nil, fmt.Errorf("thinking event missing role field")
		}
		return &Event{Type: base.Type, Thinking: &thinking}, nil

	case EventTypeComplete:
		return &Event{Type: base.Type}, nil

	case EventTypeError:
		var errEvent ErrorEvent
		if err := json.Unmarshal(frame, &errEvent); err != nil {
			return nil, fmt.Errorf("invalid error event: %w", err)
		}
		if errEvent.Message == "" {
			errEvent.Message = "simulation failed"
		}
		return &Event{Type: base.Type, Error: &errEvent}, nil

	default:
		return nil, fmt.Errorf("unsupported event type: %s", base.Type)
	}
}
