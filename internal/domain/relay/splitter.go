package relay

import (
	"strings"
	"unicode"
)

// Split breaks text into chunks of at most limit characters each, for
// platforms that reject longer messages. Text within the limit passes
// through as a single chunk.
//
// Longer text is cut iteratively. Each cut searches a window of limit-margin
// characters for the last newline, then the last space, then falls back to a
// hard cut at the window end. A candidate chunk that would close over an odd
// number of ``` markers is re-cut at an earlier newline when one exists, so
// fenced code blocks survive splitting whenever a safe boundary is
// available. Chunks are trimmed at emission; empty ones are dropped.
//
// Characters are counted in runes, matching how chat platforms measure
// message length.
func Split(text string, limit, margin int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}

	window := limit - margin
	if window < 1 {
		window = 1
	}

	var chunks []string
	cursor := 0
	for cursor < len(runes) {
		windowEnd := cursor + window
		if windowEnd > len(runes) {
			windowEnd = len(runes)
		}

		split := lastRune(runes, '\n', cursor, windowEnd)
		if split <= cursor {
			if sp := lastRune(runes, ' ', cursor, windowEnd); sp > cursor {
				split = sp
			} else {
				split = windowEnd
			}
		}

		// Re-cut when the candidate chunk would end inside an open code
		// fence. A single fallback attempt: when no safe newline exists the
		// fence splits anyway.
		if fenceCount(runes[cursor:split])%2 == 1 {
			if nl := lastRune(runes, '\n', cursor, split-1); nl > cursor {
				split = nl
			}
		}

		if chunk := strings.TrimSpace(string(runes[cursor:split])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		// Every split lands strictly after the cursor, so the loop always
		// advances.
		cursor = split
		for cursor < len(runes) && unicode.IsSpace(runes[cursor]) {
			cursor++
		}
	}
	return chunks
}

// lastRune returns the absolute index of the last occurrence of r in
// runes[lo:hi), or -1 when the range holds none.
func lastRune(runes []rune, r rune, lo, hi int) int {
	if lo < 0 {
		lo = 0
	}
	if hi > len(runes) {
		hi = len(runes)
	}
	for i := hi - 1; i >= lo; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

// fenceCount counts non-overlapping ``` markers. An odd count means the
// slice ends inside an open fence.
func fenceCount(runes []rune) int {
	count := 0
	for i := 0; i+3 <= len(runes); {
		if runes[i] == '`' && runes[i+1] == '`' && runes[i+2] == '`' {
			count++
			i += 3
			continue
		}
		i++
	}
	return count
}
