package api

import (
	"time"

	"github.com/mkusuma/courtview/domain/entities"
	"github.com/mkusuma/courtview/transcript"
)

// ViewerTokenRequest represents the request payload for viewer token issuance
type ViewerTokenRequest struct {
	Name string `json:"name"`
}

// ViewerTokenResponse represents the response payload for viewer token issuance
type ViewerTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ViewerID  string    `json:"viewer_id"`
}

// TranscriptResponse carries the finalized transcript classified into
// renderable segments.
type TranscriptResponse struct {
	CaseID   string               `json:"case_id"`
	Segments []transcript.Segment `json:"segments"`
}

// ReplayResponse carries an archived session for playback.
type ReplayResponse struct {
	CaseID      string               `json:"case_id"`
	Turns       []entities.Turn      `json:"turns"`
	Segments    []transcript.Segment `json:"segments"`
	CompletedAt time.Time            `json:"completed_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
