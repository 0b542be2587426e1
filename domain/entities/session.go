package entities

import "errors"

// Phase is the lifecycle state of a simulation session as seen by a
// viewer. Completed and Errored are terminal.
type Phase string

const (
	PhaseConnecting Phase = "connecting"
	PhaseRunning    Phase = "running"
	PhaseCompleted  Phase = "completed"
	PhaseErrored    Phase = "errored"
)

// Terminal reports whether no further events should be folded in.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseErrored
}

// TypingSignal is the ephemeral "participant is thinking" indicator.
// It is cleared whenever a new turn arrives.
type TypingSignal struct {
	Active bool   `json:"active"`
	Role   string `json:"role"`
	Text   string `json:"text"`
}

// ErrTerminalPhase is returned when an event is applied to a session
// that has already completed or errored.
var ErrTerminalPhase = errors.New("session is in a terminal phase")

// SimulationSession aggregates the live view of one case's simulation.
// Turns are append-only while running and replaced wholesale with the
// authoritative server list on completion. TranscriptText is present
// only once the phase is Completed.
type SimulationSession struct {
	CaseID         string       `json:"case_id" bson:"case_id"`
	Phase          Phase        `json:"phase" bson:"phase"`
	Turns          []Turn       `json:"turns" bson:"turns"`
	Progress       int          `json:"progress" bson:"progress"`
	Step           int          `json:"step" bson:"step"`
	TypingSignal   TypingSignal `json:"typing_signal" bson:"-"`
	TranscriptText string       `json:"simulation_text,omitempty" bson:"simulation_text,omitempty"`
	ErrMessage     string       `json:"error,omitempty" bson:"-"`
}

// NewSimulationSession creates a session in the Connecting phase.
func NewSimulationSession(caseID string) *SimulationSession {
	return &SimulationSession{
		CaseID: caseID,
		Phase:  PhaseConnecting,
		Turns:  make([]Turn, 0),
	}
}

// Run moves the session from Connecting into Running.
func (s *SimulationSession) Run() error {
	if s.Phase.Terminal() {
		return ErrTerminalPhase
	}
	s.Phase = PhaseRunning
	return nil
}

// ApplyProgress records a progress update. The last applied value wins;
// monotonicity is not enforced. A negative step leaves Step untouched.
func (s *SimulationSession) ApplyProgress(progress, step int) error {
	if s.Phase.Terminal() {
		return ErrTerminalPhase
	}
	s.Progress = progress
	if step >= 0 {
		s.Step = step
	}
	return nil
}

// ApplyThinking sets the typing signal for a participant.
func (s *SimulationSession) ApplyThinking(role, text string) error {
	if s.Phase.Terminal() {
		return ErrTerminalPhase
	}
	s.TypingSignal = TypingSignal{Active: true, Role: role, Text: text}
	return nil
}

// AppendTurn appends a turn in arrival order, regardless of the turn's
// own TurnNumber. No reordering or de-duplication is performed. The
// typing signal is cleared.
func (s *SimulationSession) AppendTurn(turn Turn) error {
	if s.Phase.Terminal() {
		return ErrTerminalPhase
	}
	s.Turns = append(s.Turns, turn)
	s.TypingSignal = TypingSignal{}
	return nil
}

// Complete replaces the locally accumulated turns with the authoritative
// server list, records the finalized transcript, and moves the session
// into the Completed phase.
func (s *SimulationSession) Complete(turns []Turn, transcriptText string) error {
	if s.Phase.Terminal() {
		return ErrTerminalPhase
	}
	s.Turns = make([]Turn, len(turns))
	copy(s.Turns, turns)
	s.TranscriptText = transcriptText
	s.TypingSignal = TypingSignal{}
	s.Progress = 100
	s.Phase = PhaseCompleted
	return nil
}

// Fail moves the session into the Errored phase with a human-readable
// message. Failing an already terminal session is a no-op.
func (s *SimulationSession) Fail(message string) {
	if s.Phase.Terminal() {
		return
	}
	s.ErrMessage = message
	s.TypingSignal = TypingSignal{}
	s.Phase = PhaseErrored
}

// Snapshot returns a deep copy safe to hand to another goroutine.
func (s *SimulationSession) Snapshot() SimulationSession {
	out := *s
	out.Turns = make([]Turn, len(s.Turns))
	copy(out.Turns, s.Turns)
	return out
}

// Validate validates the session data.
func (s *SimulationSession) Validate() error {
	if s.CaseID == "" {
		return errors.New("case_id is required")
	}
	switch s.Phase {
	case PhaseConnecting, PhaseRunning, PhaseCompleted, PhaseErrored:
	default:
		return errors.New("invalid session phase")
	}
	if s.TranscriptText != "" && s.Phase != PhaseCompleted {
		return errors.New("transcript text present before completion")
	}
	return nil
}
