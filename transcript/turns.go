package transcript

import (
	"fmt"
	"strings"

	"github.com/mkusuma/courtview/domain/entities"
)

// roleMarkers maps recognized role markers to the role recorded on the
// resulting turn. Checked in order; the first marker found in a line
// wins.
var roleMarkers = []struct {
	marker string
	role   entities.Role
}{
	{"JUDGE:", entities.RoleJudge},
	{"PROSECUTOR", entities.RoleProsecutor},
	{"DEFENSE", entities.RoleDefense},
	{"WITNESS", entities.RoleWitness},
	{"COURT:", entities.RoleCourt},
}

// ParseTurns splits a raw transcript into replay turns by role marker,
// matching how the backend derives its own turn list. Blank lines and
// lines opening with '=' or '-' runs are skipped; continuation lines
// space-join into the current turn's message. Timestamps are the
// backend's synthetic HH:MM:SS clock.
func ParseTurns(text string) []entities.Turn {
	turns := make([]entities.Turn, 0)

	var currentRole entities.Role
	var currentMessage []string

	emit := func() {
		message := strings.TrimSpace(strings.Join(currentMessage, " "))
		if currentRole == "" || message == "" {
			return
		}
		n := len(turns)
		turns = append(turns, entities.Turn{
			TurnNumber: n,
			Role:       currentRole,
			Message:    message,
			Timestamp:  turnTimestamp(n),
		})
	}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "=") || strings.HasPrefix(line, "-") {
			continue
		}

		role, rest, found := matchRoleMarker(line)
		if found {
			emit()
			currentRole = role
			currentMessage = currentMessage[:0]
			if rest != "" {
				currentMessage = append(currentMessage, rest)
			}
			continue
		}

		if currentRole != "" {
			currentMessage = append(currentMessage, line)
		}
	}

	emit()
	return turns
}

// matchRoleMarker looks for a role marker anywhere in the line and
// returns the role plus the text after the marker.
func matchRoleMarker(line string) (entities.Role, string, bool) {
	upper := strings.ToUpper(line)
	for _, rm := range roleMarkers {
		idx := strings.Index(upper, rm.marker)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(line[idx+len(rm.marker):])
		return rm.role, rest, true
	}
	return "", "", false
}

// turnTimestamp is the synthetic courtroom clock: four turns per hour
// starting at 09:00, fifteen minutes apart.
func turnTimestamp(turnNumber int) string {
	return fmt.Sprintf("%02d:%02d:00", 9+turnNumber/4, (turnNumber*15)%60)
}
