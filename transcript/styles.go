package transcript

import "strings"

// Band is a rendering color band. The exact colors belong to the UI;
// the mapping from content to band is part of the display contract.
type Band int

const (
	BandNeutral Band = iota
	BandJudge
	BandProsecutor
	BandDefense
)

// RoleBand maps a speaker role to its color band. Judge and Court share
// a band; unknown roles render neutral.
func RoleBand(role string) Band {
	switch strings.ToUpper(role) {
	case "JUDGE", "COURT":
		return BandJudge
	case "PROSECUTOR":
		return BandProsecutor
	case "DEFENSE":
		return BandDefense
	default:
		return BandNeutral
	}
}

// thinkingBands is the number of distinct color bands for thinking
// asides. Levels beyond it wrap back to band 1, matching the observed
// rendering.
const thinkingBands = 4

// ThinkingBand maps a thinking level to its color band, 1 through 4.
// Levels below 1 are clamped to 1.
func ThinkingBand(level int) int {
	if level < 1 {
		return 1
	}
	return (level-1)%thinkingBands + 1
}

// ThinkingIndentPx is the left indent in pixels for a thinking level:
// 16 per level beyond the first.
func ThinkingIndentPx(level int) int {
	if level < 1 {
		return 0
	}
	return 16 * (level - 1)
}
