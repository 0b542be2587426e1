package entities

import "errors"

// Role identifies a simulated courtroom participant. The set is open
// ended; the four named roles get dedicated styling downstream.
type Role string

const (
	RoleJudge      Role = "Judge"
	RoleProsecutor Role = "Prosecutor"
	RoleDefense    Role = "Defense"
	RoleWitness    Role = "Witness"
	RoleCourt      Role = "Court"
)

// Turn is one utterance in a simulation. Turns are created by the
// backend, delivered once over the stream, and immutable afterwards.
// Ordering is by position in the turn list, never by Timestamp.
type Turn struct {
	TurnNumber      int    `json:"turn_number" bson:"turn_number"`
	Role            Role   `json:"role" bson:"role"`
	Message         string `json:"message" bson:"message"`
	ThinkingProcess string `json:"thinking_process,omitempty" bson:"thinking_process,omitempty"`
	Timestamp       string `json:"timestamp" bson:"timestamp"`
}

// Validate checks the fields required for a turn to be renderable.
func (t *Turn) Validate() error {
	if t.TurnNumber < 0 {
		return errors.New("turn_number must not be negative")
	}
	if t.Role == "" {
		return errors.New("role is required")
	}
	if t.Message == "" {
		return errors.New("message is required")
	}
	return nil
}
