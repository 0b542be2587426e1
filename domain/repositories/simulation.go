package repositories

import (
	"context"

	"github.com/mkusuma/courtview/domain/entities"
)

// SimulationStatus is the status endpoint response for a case.
// Field names follow the backend wire format exactly.
type SimulationStatus struct {
	CaseID      string `json:"case_id"`
	Completed   bool   `json:"completed"`
	Progress    int    `json:"progress"`
	Step        int    `json:"step"`
	HasEvidence bool   `json:"has_evidence"`
}

// SimulationResults is the authoritative result set for a completed
// simulation. On completion it replaces whatever was accumulated live.
type SimulationResults struct {
	Turns          []entities.Turn `json:"turns"`
	SimulationText string          `json:"simulation_text"`
}

// Report is a downloadable report artifact, typically a PDF.
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SimulationBackend is the REST contract of the simulation service.
type SimulationBackend interface {
	// Status checks whether the simulation for a case has completed.
	Status(ctx context.Context, caseID string) (*SimulationStatus, error)

	// Results fetches the authoritative turn list and finalized
	// transcript for a completed simulation.
	Results(ctx context.Context, caseID string) (*SimulationResults, error)

	// Report fetches the rendered report artifact for a case.
	Report(ctx context.Context, caseID string) (*Report, error)
}
