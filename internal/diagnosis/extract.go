package diagnosis

import "strings"

// The advisor is prompted to answer with numbered sections (DISEASE,
// IMMEDIATE ACTIONS, ...) but its output is still free prose. Everything in
// this file is best-effort text mining: unmatched patterns yield zero values
// (nil for lists), never errors.

// DefaultTimeline is returned when the advisory never states a recovery
// timeline; an explicit default reads better to farmers than missing data.
const DefaultTimeline = "2-3 weeks"

// plantPartVocabulary is the fixed set of plant parts scanned for anywhere
// in the advisory text.
var plantPartVocabulary = []string{"leaf", "leaves", "stem", "root", "fruit", "flower", "seed", "pod"}

// ExtractField returns the trimmed text after the first colon on the first
// line mentioning marker (case-insensitive), or "" when no line matches.
func ExtractField(text, marker string) string {
	marker = strings.ToUpper(marker)
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(strings.ToUpper(line), marker) {
			continue
		}
		if _, rest, ok := strings.Cut(line, ":"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// ExtractActions collects list items from the section whose heading mentions
// marker. The section ends at the first blank line or '#' heading; within it
// only lines starting with a digit or a dash count as items, with the leading
// numbering and punctuation stripped. Returns nil, not an empty slice, when
// no items were found, so callers can distinguish "no list" from "empty list".
func ExtractActions(text, marker string) []string {
	marker = strings.ToUpper(marker)
	var actions []string
	inSection := false

	for _, line := range strings.Split(text, "\n") {
		if !inSection {
			if strings.Contains(strings.ToUpper(line), marker) {
				inSection = true
			}
			continue
		}
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			break
		}
		trimmed := strings.TrimSpace(line)
		if !isListItem(trimmed) {
			continue
		}
		action := strings.TrimSpace(strings.TrimLeft(trimmed, "0123456789.-) "))
		if action != "" {
			actions = append(actions, action)
		}
	}
	return actions
}

func isListItem(line string) bool {
	return (line[0] >= '0' && line[0] <= '9') || strings.HasPrefix(line, "-")
}

// ExtractPlantParts returns the deduplicated vocabulary words found anywhere
// in the text (case-insensitive), in vocabulary order, or nil.
func ExtractPlantParts(text string) []string {
	lower := strings.ToLower(text)
	var parts []string
	for _, kw := range plantPartVocabulary {
		if strings.Contains(lower, kw) {
			parts = append(parts, kw)
		}
	}
	return parts
}

// ExtractTimeline finds a line mentioning both a time unit (day/week) and a
// timeline keyword (timeline/improvement) and returns the text after its
// first colon. Falls back to DefaultTimeline.
func ExtractTimeline(text string) string {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "week") && !strings.Contains(lower, "day") {
			continue
		}
		if !strings.Contains(lower, "timeline") && !strings.Contains(lower, "improvement") {
			continue
		}
		if _, rest, ok := strings.Cut(line, ":"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return DefaultTimeline
}
