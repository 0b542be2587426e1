// Package transcript classifies finalized courtroom-simulation
// transcripts into typed segments for structured rendering. The
// classifier is a greedy single pass over lines with no backtracking;
// it is total over arbitrary input and never returns an error.
package transcript

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// SegmentKind tags the variant of a Segment.
type SegmentKind string

const (
	SegmentHeader       SegmentKind = "header"
	SegmentSectionTitle SegmentKind = "section_title"
	SegmentSpeaker      SegmentKind = "speaker"
	SegmentThinking     SegmentKind = "thinking"
	SegmentBulletList   SegmentKind = "bullet_list"
	SegmentPlainText    SegmentKind = "plain_text"
)

// Segment is one classified chunk of a transcript. Which fields are set
// depends on Kind: Role for speaker segments, Level for thinking
// segments, Items for bullet lists, Text for everything else.
type Segment struct {
	Kind  SegmentKind `json:"kind"`
	Text  string      `json:"text,omitempty"`
	Role  string      `json:"role,omitempty"`
	Level int         `json:"level,omitempty"`
	Items []string    `json:"items,omitempty"`
}

// Session boundary lines emitted by the simulation backend.
const (
	headerSessionBegins = "COURT SESSION BEGINS"
	headerSessionEnds   = "COURT SESSION ENDS"
)

// thinkingMarker is the glyph the backend prefixes internal-reasoning
// asides with. The repeat count is the nesting level.
const thinkingMarker = '■'

var (
	speakerPattern  = regexp.MustCompile(`(?i)^(JUDGE|PROSECUTOR|DEFENSE|COURT|WITNESS):\s*(.+)$`)
	thinkingPattern = regexp.MustCompile(`^(■+)\s+(.+)$`)
	bulletPattern   = regexp.MustCompile(`^[-*•]\s+(.+)$`)
)

// Format classifies a flat transcript into an ordered segment list.
// Lines are classified by a fixed priority: separator, header,
// thinking marker, speaker, section title, bullet, plain text.
// Consecutive bullet lines group into one BulletList; consecutive
// plain lines space-join into one PlainText. Empty input yields an
// empty slice.
func Format(text string) []Segment {
	segments := make([]Segment, 0)

	var plain []string
	var bullets []string

	flushPlain := func() {
		if len(plain) > 0 {
			segments = append(segments, Segment{Kind: SegmentPlainText, Text: strings.Join(plain, " ")})
			plain = nil
		}
	}
	flushBullets := func() {
		if len(bullets) > 0 {
			segments = append(segments, Segment{Kind: SegmentBulletList, Items: bullets})
			bullets = nil
		}
	}
	flush := func() {
		flushBullets()
		flushPlain()
	}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)

		if isSeparator(line) {
			flush()
			continue
		}

		if line == headerSessionBegins || line == headerSessionEnds {
			flush()
			segments = append(segments, Segment{Kind: SegmentHeader, Text: line})
			continue
		}

		if m := thinkingPattern.FindStringSubmatch(line); m != nil {
			flush()
			segments = append(segments, Segment{
				Kind:  SegmentThinking,
				Level: utf8.RuneCountInString(m[1]),
				Text:  m[2],
			})
			continue
		}

		if m := speakerPattern.FindStringSubmatch(line); m != nil {
			flush()
			segments = append(segments, Segment{
				Kind: SegmentSpeaker,
				Role: strings.ToUpper(m[1]),
				Text: m[2],
			})
			continue
		}

		if isSectionTitle(line) {
			flush()
			segments = append(segments, Segment{Kind: SegmentSectionTitle, Text: line})
			continue
		}

		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			flushPlain()
			bullets = append(bullets, m[1])
			continue
		}

		flushBullets()
		plain = append(plain, line)
	}

	flush()
	return segments
}

// isSeparator reports whether a trimmed line is blank or consists
// solely of repeated '=' characters.
func isSeparator(line string) bool {
	if line == "" {
		return true
	}
	for _, r := range line {
		if r != '=' {
			return false
		}
	}
	return true
}

// isSectionTitle reports whether a trimmed line is entirely upper-case,
// longer than 5 characters, and free of colons.
func isSectionTitle(line string) bool {
	return utf8.RuneCountInString(line) > 5 &&
		!strings.Contains(line, ":") &&
		line == strings.ToUpper(line) &&
		line != strings.ToLower(line)
}
