package simapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestClient_Status(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simulation/status/case1" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"case_id": "case1", "completed": true, "progress": 100, "step": 4, "has_evidence": true}`))
	}))

	status, err := client.Status(context.Background(), "case1")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !status.Completed || status.Progress != 100 || status.Step != 4 || !status.HasEvidence {
		t.Errorf("Unexpected status: %+v", status)
	}
}

func TestClient_Results(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simulation/results/case1" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"turns": [
				{"turn_number": 0, "role": "Judge", "message": "Begin", "timestamp": "09:00:00"},
				{"turn_number": 1, "role": "Prosecutor", "message": "Statement", "thinking_process": "weighing", "timestamp": "09:15:00"}
			],
			"simulation_text": "JUDGE: Begin\nPROSECUTOR: Statement"
		}`))
	}))

	results, err := client.Results(context.Background(), "case1")
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}
	if len(results.Turns) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(results.Turns))
	}
	if results.Turns[1].ThinkingProcess != "weighing" {
		t.Errorf("thinking_process not decoded: %+v", results.Turns[1])
	}
	if results.SimulationText == "" {
		t.Error("simulation_text not decoded")
	}
}

func TestClient_BackendErrorMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "Case not found"}`))
	}))

	_, err := client.Status(context.Background(), "missing")
	if err == nil {
		t.Fatal("Expected error")
	}
	if got := err.Error(); !strings.Contains(got, "Case not found") {
		t.Errorf("Error %q should carry the backend message", got)
	}
}

func TestClient_Report(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake report")
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simulation/report/case1" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="simulation_report_case1.pdf"`)
		w.Write(pdf)
	}))

	report, err := client.Report(context.Background(), "case1")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.ContentType != "application/pdf" {
		t.Errorf("ContentType = %s", report.ContentType)
	}
	if report.Filename != "simulation_report_case1.pdf" {
		t.Errorf("Filename = %s", report.Filename)
	}
	if string(report.Data) != string(pdf) {
		t.Error("Report bytes do not round-trip")
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}, zap.NewNop()); err == nil {
		t.Fatal("Expected error for missing base URL")
	}
}
