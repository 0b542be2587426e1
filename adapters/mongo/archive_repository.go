package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mkusuma/courtview/domain/repositories"
)

// ArchiveRepository implements repositories.SessionArchive on MongoDB.
// One document per case, upserted when a simulation completes.
type ArchiveRepository struct {
	collection *mongo.Collection
}

// Ensure ArchiveRepository implements the SessionArchive interface
var _ repositories.SessionArchive = (*ArchiveRepository)(nil)

// NewArchiveRepository creates a MongoDB-backed session archive.
func NewArchiveRepository(db *mongo.Database) *ArchiveRepository {
	return &ArchiveRepository{
		collection: db.Collection("archived_sessions"),
	}
}

// Save implements repositories.SessionArchive.
func (r *ArchiveRepository) Save(ctx context.Context, session *repositories.ArchivedSession) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if session.CaseID == "" {
		return errors.New("case_id cannot be empty")
	}
	if session.CompletedAt.IsZero() {
		session.CompletedAt = time.Now()
	}

	filter := bson.M{"case_id": session.CaseID}
	update := bson.M{"$set": bson.M{
		"case_id":         session.CaseID,
		"turns":           session.Turns,
		"simulation_text": session.SimulationText,
		"completed_at":    session.CompletedAt,
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to archive session for case %s: %w", session.CaseID, err)
	}
	return nil
}

// Get implements repositories.SessionArchive.
func (r *ArchiveRepository) Get(ctx context.Context, caseID string) (*repositories.ArchivedSession, error) {
	if caseID == "" {
		return nil, errors.New("case ID cannot be empty")
	}

	var session repositories.ArchivedSession
	err := r.collection.FindOne(ctx, bson.M{"case_id": caseID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrArchiveNotFound
		}
		return nil, fmt.Errorf("failed to load archived session for case %s: %w", caseID, err)
	}

	return &session, nil
}
