package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mkusuma/courtview/domain/entities"
	"github.com/mkusuma/courtview/domain/repositories"
)

func TestMemoryArchive_SaveAndGet(t *testing.T) {
	archive := NewMemoryArchive()
	ctx := context.Background()

	session := &repositories.ArchivedSession{
		CaseID: "case1",
		Turns: []entities.Turn{
			{TurnNumber: 0, Role: entities.RoleJudge, Message: "Begin"},
		},
		SimulationText: "JUDGE: Begin",
		CompletedAt:    time.Now(),
	}
	if err := archive.Save(ctx, session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := archive.Get(ctx, "case1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.SimulationText != "JUDGE: Begin" || len(loaded.Turns) != 1 {
		t.Errorf("Unexpected archived session: %+v", loaded)
	}

	// The archive keeps its own copy.
	loaded.Turns[0].Message = "mutated"
	again, _ := archive.Get(ctx, "case1")
	if again.Turns[0].Message != "Begin" {
		t.Error("Mutating a loaded session leaked into the archive")
	}
}

func TestMemoryArchive_SaveOverwrites(t *testing.T) {
	archive := NewMemoryArchive()
	ctx := context.Background()

	archive.Save(ctx, &repositories.ArchivedSession{CaseID: "case1", SimulationText: "first"})
	archive.Save(ctx, &repositories.ArchivedSession{CaseID: "case1", SimulationText: "second"})

	loaded, err := archive.Get(ctx, "case1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.SimulationText != "second" {
		t.Errorf("SimulationText = %q, want %q", loaded.SimulationText, "second")
	}
}

func TestMemoryArchive_GetMissing(t *testing.T) {
	archive := NewMemoryArchive()

	_, err := archive.Get(context.Background(), "unknown")
	if !errors.Is(err, repositories.ErrArchiveNotFound) {
		t.Errorf("Get() error = %v, want ErrArchiveNotFound", err)
	}
}
