package edit

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// locate resolves the span inst refers to, trying four strategies in strictly
// decreasing precision and stopping at the first success. anchor is the end
// offset of the previously accepted span; it biases occurrence selection
// toward the part of the file the model was looking at.
func locate(original string, inst Instruction, anchor int, opts Options) MatchOutcome {
	if inst.Search == "" {
		return locateInsertion(original, inst, anchor)
	}
	if out, ok := exactMatch(original, inst.Search, anchor); ok {
		return out
	}
	if out, ok := normalizedMatch(original, inst.Search, anchor); ok {
		return out
	}
	if out, ok := fuzzyMatch(original, inst.Search, opts); ok {
		return out
	}
	if out, ok := lineRangeMatch(original, inst); ok {
		return out
	}
	return MatchOutcome{Status: StatusNotFound, Reason: FailNoMatch}
}

// locateInsertion resolves a pure-insertion instruction (empty search).
// With a line hint the insertion point is the start of the hinted line;
// without one the text is appended at the cursor, meaning the end of the
// previously accepted span, or the end of the file when nothing anchors it.
func locateInsertion(text string, inst Instruction, anchor int) MatchOutcome {
	if inst.LineHint > 0 {
		offsets := lineOffsets(text)
		at := len(text)
		if inst.LineHint-1 < len(offsets) {
			at = offsets[inst.LineHint-1]
		}
		return MatchOutcome{Status: StatusLineRange, Span: Span{Start: at, End: at}, HasSpan: true}
	}
	at := anchor
	if at <= 0 || at > len(text) {
		at = len(text)
	}
	return MatchOutcome{Status: StatusExact, Span: Span{Start: at, End: at}, HasSpan: true}
}

// exactMatch finds a literal occurrence of search, preferring the first one
// starting at or after anchor and falling back to the first overall.
func exactMatch(text, search string, anchor int) (MatchOutcome, bool) {
	first := strings.Index(text, search)
	if first < 0 {
		return MatchOutcome{}, false
	}
	start := first
	if anchor > 0 && anchor <= len(text) {
		if at := strings.Index(text[anchor:], search); at >= 0 {
			start = anchor + at
		}
	}
	return MatchOutcome{
		Status:  StatusExact,
		Span:    Span{Start: start, End: start + len(search)},
		HasSpan: true,
	}, true
}

// normalizedMatch re-runs the exact search in whitespace-normalized space and
// maps the hit back to the corresponding un-normalized span via the index map.
func normalizedMatch(text, search string, anchor int) (MatchOutcome, bool) {
	normText, idx := normalizeText(text)
	normSearch, _ := normalizeText(search)
	if normSearch == "" {
		return MatchOutcome{}, false
	}
	first := strings.Index(normText, normSearch)
	if first < 0 {
		return MatchOutcome{}, false
	}
	start := first
	if anchor > 0 {
		normAnchor := normIdxAtOrAfter(idx, anchor)
		if normAnchor <= len(normText) {
			if at := strings.Index(normText[normAnchor:], normSearch); at >= 0 {
				start = normAnchor + at
			}
		}
	}
	origStart := mapNormToOrig(idx, start, len(normText), len(text))
	origEnd := mapNormToOrig(idx, start+len(normSearch), len(normText), len(text))
	if origStart < 0 || origEnd < 0 || origStart > origEnd || origEnd > len(text) {
		return MatchOutcome{}, false
	}
	return MatchOutcome{
		Status:  StatusNormalized,
		Span:    Span{Start: origStart, End: origEnd},
		HasSpan: true,
	}, true
}

// fuzzyMatch slides line-aligned candidate windows whose line count is within
// WindowSlack of the search text's, scores each by normalized edit distance,
// and accepts the best window at or above the threshold. Ties go to the
// smallest start offset.
func fuzzyMatch(text, search string, opts Options) (MatchOutcome, bool) {
	threshold := opts.FuzzyThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultOptions().FuzzyThreshold
	}
	slack := opts.WindowSlack
	if slack < 0 {
		slack = DefaultOptions().WindowSlack
	}

	needle := strings.TrimSuffix(search, "\n")
	if needle == "" {
		return MatchOutcome{}, false
	}
	needleLines := strings.Count(needle, "\n") + 1
	needleRunes := utf8.RuneCountInString(needle)

	offsets := lineOffsets(text)
	total := len(offsets)
	dmp := diffmatchpatch.New()

	var (
		bestSpan  Span
		bestScore float64
		found     bool
	)
	for size := needleLines - slack; size <= needleLines+slack; size++ {
		if size < 1 || size > total {
			continue
		}
		for i := 0; i+size <= total; i++ {
			span := spanForLineWindow(text, offsets, i, size)
			window := text[span.Start:span.End]
			windowRunes := utf8.RuneCountInString(window)

			// The score cannot reach the threshold when the length gap alone
			// exceeds the allowed edit distance.
			maxRunes := needleRunes
			if windowRunes > maxRunes {
				maxRunes = windowRunes
			}
			gap := windowRunes - needleRunes
			if gap < 0 {
				gap = -gap
			}
			if maxRunes == 0 || float64(gap) > (1-threshold)*float64(maxRunes) {
				continue
			}

			score := similarity(dmp, window, needle, maxRunes)
			// Within one window size starts ascend, so the tie-break only
			// fires for equal scores across different sizes.
			if score > bestScore || (score == bestScore && found && span.Start < bestSpan.Start) {
				bestScore = score
				bestSpan = span
				found = true
			}
		}
	}
	if !found || bestScore < threshold {
		return MatchOutcome{}, false
	}
	return MatchOutcome{
		Status:     StatusFuzzy,
		Span:       bestSpan,
		HasSpan:    true,
		Confidence: bestScore,
	}, true
}

// similarity computes 1 - editDistance/maxRunes for two strings.
func similarity(dmp *diffmatchpatch.DiffMatchPatch, a, b string, maxRunes int) float64 {
	if a == b {
		return 1
	}
	diffs := dmp.DiffMain(a, b, false)
	dist := dmp.DiffLevenshtein(diffs)
	return 1 - float64(dist)/float64(maxRunes)
}

// lineRangeMatch takes the instruction's line hint literally: the span covers
// as many lines as the search text has, starting at the hinted line, clamped
// to the file. Last-resort tier, reported distinctly so callers can warn.
func lineRangeMatch(text string, inst Instruction) (MatchOutcome, bool) {
	if inst.LineHint <= 0 {
		return MatchOutcome{}, false
	}
	offsets := lineOffsets(text)
	first := inst.LineHint - 1
	if first >= len(offsets) {
		first = len(offsets) - 1
	}
	needle := strings.TrimSuffix(inst.Search, "\n")
	count := strings.Count(needle, "\n") + 1
	if first+count > len(offsets) {
		count = len(offsets) - first
	}
	return MatchOutcome{
		Status:  StatusLineRange,
		Span:    spanForLineWindow(text, offsets, first, count),
		HasSpan: true,
	}, true
}
