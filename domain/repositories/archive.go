package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/mkusuma/courtview/domain/entities"
)

// ErrArchiveNotFound is returned when no archived session exists for a case.
var ErrArchiveNotFound = errors.New("archived session not found")

// ArchivedSession is a completed simulation kept for replay.
type ArchivedSession struct {
	CaseID         string          `json:"case_id" bson:"case_id"`
	Turns          []entities.Turn `json:"turns" bson:"turns"`
	SimulationText string          `json:"simulation_text" bson:"simulation_text"`
	CompletedAt    time.Time       `json:"completed_at" bson:"completed_at"`
}

// SessionArchive stores completed sessions so viewers can replay them
// after the live stream is gone.
type SessionArchive interface {
	Save(ctx context.Context, session *ArchivedSession) error
	Get(ctx context.Context, caseID string) (*ArchivedSession, error)
}
