package edit

import "sort"

// normalizeText rewrites s with runs of spaces and tabs collapsed to a single
// space, trailing whitespace trimmed from every line, and CR bytes dropped so
// CRLF and LF input compare equal. The returned slice maps each normalized
// byte back to the index of the original byte it came from, which lets a hit
// in normalized space be translated to the un-normalized span.
func normalizeText(s string) (string, []int) {
	buf := make([]byte, 0, len(s))
	idx := make([]int, 0, len(s))
	prevSpace := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\r' {
			continue
		}
		if ch == ' ' || ch == '\t' {
			if prevSpace {
				continue
			}
			prevSpace = true
			buf = append(buf, ' ')
			idx = append(idx, i)
			continue
		}
		if ch == '\n' && prevSpace {
			// The collapsed space was trailing whitespace; drop it.
			buf = buf[:len(buf)-1]
			idx = idx[:len(idx)-1]
		}
		prevSpace = false
		buf = append(buf, ch)
		idx = append(idx, i)
	}
	if prevSpace {
		buf = buf[:len(buf)-1]
		idx = idx[:len(idx)-1]
	}
	return string(buf), idx
}

// mapNormToOrig converts a normalized index back to the original index.
// normIdx == normLen maps to origLen (exclusive end).
func mapNormToOrig(idx []int, normIdx, normLen, origLen int) int {
	if normIdx == normLen {
		return origLen
	}
	if normIdx < 0 || normIdx >= len(idx) {
		return -1
	}
	return idx[normIdx]
}

// normIdxAtOrAfter returns the first normalized index whose original byte
// sits at or past orig. The index map is strictly increasing, so this is a
// binary search.
func normIdxAtOrAfter(idx []int, orig int) int {
	return sort.SearchInts(idx, orig)
}

// lineOffsets returns the byte offset of the start of each line in s.
// Empty input counts as a single empty line.
func lineOffsets(s string) []int {
	offsets := []int{0}
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' && i+1 < len(s) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// spanForLineWindow returns the span covering count lines starting at line
// index first (0-based). The trailing newline of the last line is excluded
// so replacements swap line content without eating the line break.
func spanForLineWindow(text string, offsets []int, first, count int) Span {
	start := offsets[first]
	last := first + count - 1
	var end int
	if last+1 < len(offsets) {
		end = offsets[last+1] - 1
	} else {
		end = len(text)
		if end > start && text[end-1] == '\n' {
			end--
		}
	}
	return Span{Start: start, End: end}
}
