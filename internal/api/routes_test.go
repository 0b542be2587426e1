package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mkusuma/courtview/domain/entities"
	"github.com/mkusuma/courtview/domain/repositories"
	"github.com/mkusuma/courtview/internal/auth"
	"github.com/mkusuma/courtview/internal/websocket"
)

type stubSubscription struct {
	events chan []byte
}

func (s *stubSubscription) Events() <-chan []byte { return s.events }
func (s *stubSubscription) Err() error            { return nil }
func (s *stubSubscription) Close() error          { return nil }

type stubSource struct{}

func (s *stubSource) Subscribe(ctx context.Context, caseID string) (repositories.Subscription, error) {
	return &stubSubscription{events: make(chan []byte, 1)}, nil
}

// stubBackend reports "done-case" as completed and everything else as
// still running.
type stubBackend struct{}

func (b *stubBackend) Status(ctx context.Context, caseID string) (*repositories.SimulationStatus, error) {
	return &repositories.SimulationStatus{
		CaseID:    caseID,
		Completed: caseID == "done-case",
		Progress:  40,
	}, nil
}

func (b *stubBackend) Results(ctx context.Context, caseID string) (*repositories.SimulationResults, error) {
	return &repositories.SimulationResults{
		Turns: []entities.Turn{
			{TurnNumber: 1, Role: entities.RoleJudge, Message: "Adjourned.", Timestamp: "10:00:00"},
		},
		SimulationText: "COURT SESSION BEGINS\n\nJUDGE: Adjourned.\n\nCOURT SESSION ENDS",
	}, nil
}

func (b *stubBackend) Report(ctx context.Context, caseID string) (*repositories.Report, error) {
	return &repositories.Report{
		Filename:    "legal_report_" + caseID + ".pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4 fake"),
	}, nil
}

type stubArchive struct {
	sessions map[string]*repositories.ArchivedSession
}

func (a *stubArchive) Save(ctx context.Context, session *repositories.ArchivedSession) error {
	a.sessions[session.CaseID] = session
	return nil
}

func (a *stubArchive) Get(ctx context.Context, caseID string) (*repositories.ArchivedSession, error) {
	if s, ok := a.sessions[caseID]; ok {
		return s, nil
	}
	return nil, repositories.ErrArchiveNotFound
}

func newTestServer(t *testing.T) (*echo.Echo, *stubArchive, func()) {
	t.Helper()
	logger := zap.NewNop()

	archive := &stubArchive{sessions: make(map[string]*repositories.ArchivedSession)}
	backend := &stubBackend{}
	hub := websocket.NewHub(backend, &stubSource{}, archive, logger)
	go hub.Run()

	e := echo.New()
	InitRoutes(e, hub, backend, archive, logger)
	return e, archive, hub.Stop
}

func viewerToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateViewerToken("viewer-1", "Test Viewer")
	if err != nil {
		t.Fatalf("GenerateViewerToken: %v", err)
	}
	return token
}

func doRequest(e *echo.Echo, method, path, token string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	e, _, stop := newTestServer(t)
	defer stop()

	rec := doRequest(e, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestViewerTokenIssuance(t *testing.T) {
	e, _, stop := newTestServer(t)
	defer stop()

	rec := doRequest(e, http.MethodPost, "/api/v1/viewers/token", "", `{"name":"Maya"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp ViewerTokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response: %v", err)
	}
	if resp.Token == "" || resp.ViewerID == "" {
		t.Error("token or viewer_id missing")
	}

	claims, err := auth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.ViewerID != resp.ViewerID {
		t.Errorf("claims viewer_id = %q, want %q", claims.ViewerID, resp.ViewerID)
	}
}

func TestCaseEndpointsRequireToken(t *testing.T) {
	e, _, stop := newTestServer(t)
	defer stop()

	for _, path := range []string{
		"/api/v1/cases/case-1/session",
		"/api/v1/cases/case-1/transcript",
		"/api/v1/cases/case-1/replay",
		"/api/v1/cases/case-1/report",
	} {
		rec := doRequest(e, http.MethodGet, path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: status = %d, want 401", path, rec.Code)
		}

		rec = doRequest(e, http.MethodGet, path, "not-a-jwt", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s with bad token: status = %d, want 401", path, rec.Code)
		}
	}
}

func TestGetSessionRunningCase(t *testing.T) {
	e, _, stop := newTestServer(t)
	defer stop()

	rec := doRequest(e, http.MethodGet, "/api/v1/cases/live-case/session", viewerToken(t), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var session entities.SimulationSession
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("session: %v", err)
	}
	if session.Phase != entities.PhaseRunning {
		t.Errorf("phase = %q, want running", session.Phase)
	}
	if session.CaseID != "live-case" {
		t.Errorf("case_id = %q", session.CaseID)
	}
}

func TestTranscriptConflictWhileRunning(t *testing.T) {
	e, _, stop := newTestServer(t)
	defer stop()

	rec := doRequest(e, http.MethodGet, "/api/v1/cases/live-case/transcript", viewerToken(t), "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestTranscriptForCompletedCase(t *testing.T) {
	e, _, stop := newTestServer(t)
	defer stop()

	rec := doRequest(e, http.MethodGet, "/api/v1/cases/done-case/transcript", viewerToken(t), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp TranscriptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response: %v", err)
	}
	if len(resp.Segments) == 0 {
		t.Error("no transcript segments")
	}
}

func TestReplayEndpoint(t *testing.T) {
	e, archive, stop := newTestServer(t)
	defer stop()

	archive.sessions["old-case"] = &repositories.ArchivedSession{
		CaseID:         "old-case",
		SimulationText: "JUDGE: Court is in session.\nPROSECUTOR: We will show negligence.",
		CompletedAt:    time.Now(),
	}

	rec := doRequest(e, http.MethodGet, "/api/v1/cases/old-case/replay", viewerToken(t), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp ReplayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response: %v", err)
	}
	// Turns reconstructed from the raw transcript.
	if len(resp.Turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(resp.Turns))
	}
	if resp.Turns[0].Role != entities.RoleJudge {
		t.Errorf("first role = %q, want JUDGE", resp.Turns[0].Role)
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/cases/missing/replay", viewerToken(t), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing replay: status = %d, want 404", rec.Code)
	}
}

func TestReportDownload(t *testing.T) {
	e, _, stop := newTestServer(t)
	defer stop()

	rec := doRequest(e, http.MethodGet, "/api/v1/cases/case-7/report", viewerToken(t), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "legal_report_case-7.pdf") {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("report body is not the backend artifact")
	}
}

func TestViewerSocketRejectsMissingToken(t *testing.T) {
	e, _, stop := newTestServer(t)
	defer stop()

	rec := doRequest(e, http.MethodGet, "/ws/cases/case-1", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
