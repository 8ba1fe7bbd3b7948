// Package parse extracts edit instructions from a model's free-form reply.
// Blocks are scanned in emission order; that order becomes the instruction's
// OrderIndex and later the default application and tie-break order. Malformed
// blocks are dropped with a diagnostic rather than aborting the whole reply.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"restitch/edit"
)

// Block delimiters. Each marker must sit on its own line; surrounding
// whitespace is tolerated.
const (
	SearchMarker  = "<<<SEARCH>>>"
	ReplaceMarker = "<<<REPLACE>>>"
	EndMarker     = "<<<END>>>"
)

// hintRE matches the optional leading comment carrying a line hint,
// e.g. "# near line 42".
var hintRE = regexp.MustCompile(`^#\s*near\s+line\s+(\d+)\s*$`)

// Diagnostic records a block the parser had to drop.
type Diagnostic struct {
	// Line is the 1-based reply line of the offending SEARCH marker.
	Line   int    `json:"line" yaml:"line"`
	Reason string `json:"reason" yaml:"reason"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Reason)
}

// Reply scans a model reply for search/replace blocks. Prose, markdown
// fences, and anything else between blocks is ignored. An empty reply yields
// an empty instruction list: "no changes" is a legitimate outcome, not an
// error.
func Reply(text string) ([]edit.Instruction, []Diagnostic) {
	lines := strings.Split(text, "\n")
	var (
		insts []edit.Instruction
		diags []Diagnostic
	)
	pendingHint := 0
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "" || strings.HasPrefix(line, "```"):
			continue
		case hintRE.MatchString(line):
			// The hint binds to the next block only.
			pendingHint = parseHint(line)
			continue
		case line != SearchMarker:
			// Prose between the hint and its block breaks the binding.
			pendingHint = 0
			continue
		}

		markerLine := i + 1
		searchBody, j, ok := collectUntil(lines, i+1, ReplaceMarker)
		if !ok {
			diags = append(diags, Diagnostic{
				Line:   markerLine,
				Reason: "missing " + ReplaceMarker + " marker",
			})
			pendingHint = 0
			i = j
			continue
		}
		replaceBody, k, ok := collectUntil(lines, j+1, EndMarker)
		if !ok {
			diags = append(diags, Diagnostic{
				Line:   markerLine,
				Reason: "unterminated block, missing " + EndMarker,
			})
			pendingHint = 0
			i = k
			continue
		}

		insts = append(insts, edit.Instruction{
			Search:     strings.Join(searchBody, "\n"),
			Replace:    strings.Join(replaceBody, "\n"),
			OrderIndex: len(insts),
			LineHint:   pendingHint,
		})
		pendingHint = 0
		i = k
	}
	return insts, diags
}

// collectUntil gathers raw body lines from index from until it meets marker.
// Hitting a new SEARCH marker or the end of input means the current block is
// malformed; the returned index then points just before where the outer scan
// should resume.
func collectUntil(lines []string, from int, marker string) ([]string, int, bool) {
	body := []string{}
	for i := from; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		if t == marker {
			return body, i, true
		}
		if t == SearchMarker {
			return nil, i - 1, false
		}
		body = append(body, lines[i])
	}
	return nil, len(lines), false
}

func parseHint(line string) int {
	m := hintRE.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0
	}
	return n
}
