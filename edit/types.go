// Package edit implements the patch-application engine: given the original
// text of a file and an ordered list of search/replace instructions proposed
// by a language model, it locates the span each instruction refers to,
// applies the replacements, and reports per-instruction how confidently the
// match was made. The engine is pure: it performs no I/O, holds no shared
// state, and always returns a Result even when every instruction fails.
package edit

// Status classifies how an instruction's search text was located.
type Status int

const (
	// StatusPending means the instruction has not been matched yet.
	StatusPending Status = iota
	// StatusExact is a literal substring hit.
	StatusExact
	// StatusNormalized is a hit after whitespace normalization, mapped back
	// to the un-normalized span in the original text.
	StatusNormalized
	// StatusFuzzy is the best-scoring candidate window above the similarity
	// threshold.
	StatusFuzzy
	// StatusLineRange means the span was taken from an approximate line
	// hint, regardless of textual similarity. Lowest confidence.
	StatusLineRange
	// StatusNotFound means no tier located the search text; the instruction
	// was not applied.
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusExact:
		return "exact"
	case StatusNormalized:
		return "normalized"
	case StatusFuzzy:
		return "fuzzy"
	case StatusLineRange:
		return "line_range"
	case StatusNotFound:
		return "not_found"
	}
	return "unknown"
}

// MarshalText makes Status render as its name in JSON reports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MarshalYAML makes Status render as its name in YAML reports.
func (s Status) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// FailReason records why an instruction was not applied.
type FailReason string

const (
	// FailNone marks an applied instruction.
	FailNone FailReason = ""
	// FailNoMatch means no tier located the search text.
	FailNoMatch FailReason = "no_match"
	// FailOverlap means the resolved span collided with an earlier accepted
	// span and was downgraded (first-writer-wins).
	FailOverlap FailReason = "overlap_conflict"
)

// Span is a half-open [Start, End) byte range in the original text.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Overlaps reports whether two spans consume a common byte. Zero-width
// insertion spans at a shared boundary do not overlap.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	return s.End - s.Start
}

// Instruction is one search/replace pair proposed by the model.
// An empty Search means pure insertion; an empty Replace means deletion.
type Instruction struct {
	Search     string `json:"search" yaml:"search"`
	Replace    string `json:"replace" yaml:"replace"`
	OrderIndex int    `json:"order_index" yaml:"order_index"`
	// LineHint is the 1-based line number carried by the block's leading
	// comment, 0 when absent. Only the line-range tier consumes it.
	LineHint int `json:"line_hint,omitempty" yaml:"line_hint,omitempty"`
}

// MatchOutcome is the result of locating one instruction's search text.
// HasSpan is true exactly when Status is one of the four accepted tiers.
type MatchOutcome struct {
	Status  Status `json:"status" yaml:"status"`
	Span    Span   `json:"span" yaml:"span"`
	HasSpan bool   `json:"has_span" yaml:"has_span"`
	// Confidence is the similarity score in [0,1]; meaningful only for
	// fuzzy matches.
	Confidence float64    `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Reason     FailReason `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// AppliedBlock pairs an instruction with its final outcome, for reporting
// and diff preview.
type AppliedBlock struct {
	Instruction Instruction  `json:"instruction" yaml:"instruction"`
	Outcome     MatchOutcome `json:"outcome" yaml:"outcome"`
}

// Result is the output of one full Apply run. Applied preserves the input
// instruction order regardless of the internal application order.
type Result struct {
	NewContent     string         `json:"new_content" yaml:"new_content"`
	Applied        []AppliedBlock `json:"applied_blocks" yaml:"applied_blocks"`
	TotalApplied   int            `json:"total_applied" yaml:"total_applied"`
	TotalFailed    int            `json:"total_failed" yaml:"total_failed"`
	IsFullyApplied bool           `json:"is_fully_applied" yaml:"is_fully_applied"`
	StatusMessage  string         `json:"status_message" yaml:"status_message"`
}

// Options tunes the looser match tiers. The defaults were chosen against
// typical model output; both knobs are surfaced as CLI flags and config keys.
type Options struct {
	// FuzzyThreshold is the minimum similarity score (1 - editDistance/maxLen)
	// for the fuzzy tier to accept a candidate window.
	FuzzyThreshold float64
	// WindowSlack widens fuzzy candidate windows by up to this many lines in
	// either direction of the search text's line count.
	WindowSlack int
}

// DefaultOptions returns the engine defaults: threshold 0.80, slack 1 line.
func DefaultOptions() Options {
	return Options{FuzzyThreshold: 0.80, WindowSlack: 1}
}
