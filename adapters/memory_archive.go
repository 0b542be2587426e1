package adapters

import (
	"context"
	"sync"

	"github.com/mkusuma/courtview/domain/repositories"
)

// MemoryArchive is an in-memory implementation of SessionArchive,
// used when no MongoDB connection is configured. Replays survive only
// for the lifetime of the process.
type MemoryArchive struct {
	mu       sync.RWMutex
	sessions map[string]*repositories.ArchivedSession // case_id -> session
}

// Ensure MemoryArchive implements the SessionArchive interface
var _ repositories.SessionArchive = (*MemoryArchive)(nil)

// NewMemoryArchive creates an empty in-memory session archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		sessions: make(map[string]*repositories.ArchivedSession),
	}
}

// Save implements SessionArchive. Saving a case twice overwrites the
// earlier entry, matching the upsert behavior of the MongoDB archive.
func (m *MemoryArchive) Save(ctx context.Context, session *repositories.ArchivedSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := *session
	kept.Turns = append(kept.Turns[:0:0], session.Turns...)
	m.sessions[session.CaseID] = &kept
	return nil
}

// Get implements SessionArchive.
func (m *MemoryArchive) Get(ctx context.Context, caseID string) (*repositories.ArchivedSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[caseID]
	if !exists {
		return nil, repositories.ErrArchiveNotFound
	}

	out := *session
	out.Turns = append(out.Turns[:0:0], session.Turns...)
	return &out, nil
}
