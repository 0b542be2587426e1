package transcript

import "testing"

func TestRoleBand(t *testing.T) {
	tests := []struct {
		role string
		want Band
	}{
		{"JUDGE", BandJudge},
		{"Court", BandJudge},
		{"prosecutor", BandProsecutor},
		{"DEFENSE", BandDefense},
		{"WITNESS", BandNeutral},
		{"Bailiff", BandNeutral},
		{"", BandNeutral},
	}

	for _, tt := range tests {
		if got := RoleBand(tt.role); got != tt.want {
			t.Errorf("RoleBand(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestThinkingBand(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{4, 4},
		{5, 1}, // levels beyond four wrap back to the first band
		{6, 2},
		{9, 1},
	}

	for _, tt := range tests {
		if got := ThinkingBand(tt.level); got != tt.want {
			t.Errorf("ThinkingBand(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestThinkingIndentPx(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{0, 0},
		{1, 0},
		{2, 16},
		{4, 48},
	}

	for _, tt := range tests {
		if got := ThinkingIndentPx(tt.level); got != tt.want {
			t.Errorf("ThinkingIndentPx(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}
