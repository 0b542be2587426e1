package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/mkusuma/courtview/domain/entities"
	"github.com/mkusuma/courtview/internal/auth"
	"github.com/mkusuma/courtview/transcript"
)

// ViewerProtocolTest exercises the viewer-facing protocol pieces
// without a running server.
func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	fmt.Println("=== Courtview Viewer Protocol Test ===")

	fmt.Println("\n1. Testing Session Entity...")
	testSessionEntity()

	fmt.Println("\n2. Testing Viewer Authentication...")
	testViewerAuth()

	fmt.Println("\n3. Testing Message Protocol...")
	testMessageProtocol()

	fmt.Println("\n4. Testing Transcript Formatter...")
	testTranscriptFormatter()

	fmt.Println("\n=== All Tests Completed Successfully! ===")
}

func testSessionEntity() {
	caseID := "case-demo-001"
	session := entities.NewSimulationSession(caseID)

	fmt.Printf("✓ Created session for case: %s\n", caseID)
	fmt.Printf("  Phase: %s\n", session.Phase)

	session.Run()
	session.AppendTurn(entities.Turn{
		TurnNumber: 1,
		Role:       entities.RoleJudge,
		Message:    "Court is now in session.",
		Timestamp:  "09:00:00",
	})
	session.AppendTurn(entities.Turn{
		TurnNumber: 2,
		Role:       entities.RoleProsecutor,
		Message:    "The evidence will show a clear breach of contract.",
		Timestamp:  "09:00:15",
	})

	fmt.Printf("✓ Appended %d turns to session\n", len(session.Turns))

	session.Complete(session.Turns, "JUDGE: Court is now in session.")
	fmt.Printf("✓ Session completed, phase: %s, progress: %d\n", session.Phase, session.Progress)
}

func testViewerAuth() {
	token, err := auth.GenerateViewerToken("viewer-demo", "Demo Viewer")
	if err != nil {
		log.Fatalf("Failed to generate viewer token: %v", err)
	}

	fmt.Printf("✓ Generated JWT token for viewer\n")
	fmt.Printf("  Token: %s...\n", token[:50])

	claims, err := auth.ValidateToken(token)
	if err != nil {
		log.Fatalf("Failed to validate token: %v", err)
	}

	fmt.Printf("✓ Validated token successfully\n")
	fmt.Printf("  Viewer ID: %s\n", claims.ViewerID)
	fmt.Printf("  Name: %s\n", claims.Name)
}

func testMessageProtocol() {
	messages := []map[string]interface{}{
		{
			"type": "snapshot_request",
		},
		{
			"type": "ping",
		},
		{
			"type":        "turn",
			"turn_number": 1,
			"role":        "JUDGE",
			"message":     "Court is now in session.",
			"timestamp":   "09:00:00",
		},
		{
			"type":     "progress",
			"progress": 60,
			"step":     3,
		},
	}

	fmt.Println("✓ Testing message protocol formats:")
	for _, msg := range messages {
		msgBytes, err := json.Marshal(msg)
		if err != nil {
			log.Fatalf("Failed to marshal message: %v", err)
		}
		fmt.Printf("  %s: %s\n", msg["type"], string(msgBytes))
	}

	errorMsg := map[string]interface{}{
		"type":      "error",
		"timestamp": time.Now().Unix(),
		"message":   "Example error message",
	}
	errorBytes, _ := json.Marshal(errorMsg)
	fmt.Printf("  error: %s\n", string(errorBytes))
}

func testTranscriptFormatter() {
	text := "COURT SESSION BEGINS\n\n" +
		"JUDGE: We will hear opening statements.\n\n" +
		"■■ Weighing admissibility of exhibit A\n" +
		"PROSECUTOR: The contract terms were unambiguous.\n\n" +
		"KEY FINDINGS\n" +
		"- Breach occurred on delivery\n" +
		"- Damages are quantifiable\n\n" +
		"COURT SESSION ENDS"

	segments := transcript.Format(text)
	fmt.Printf("✓ Classified transcript into %d segments:\n", len(segments))
	for _, seg := range segments {
		fmt.Printf("  %-13s %s\n", seg.Kind, seg.Text)
	}
}
