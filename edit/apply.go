package edit

import (
	"fmt"
	"sort"
	"strings"
)

// Apply runs every instruction against original with the default options.
// See ApplyWithOptions.
func Apply(original string, insts []Instruction) Result {
	return ApplyWithOptions(original, insts, DefaultOptions())
}

// ApplyWithOptions resolves every instruction's span, arbitrates overlaps
// first-writer-wins, applies the accepted replacements, and assembles the
// patched text. Failures are local: an unmatched or conflicting instruction
// is recorded in its AppliedBlock and the surrounding text is untouched.
// The function never fails; an empty instruction list returns the original
// text as a fully-applied no-op.
func ApplyWithOptions(original string, insts []Instruction, opts Options) Result {
	blocks := make([]AppliedBlock, len(insts))

	// Matching is sequential: each accepted span anchors occurrence
	// selection for the instructions after it, so the anchor is threaded
	// through the fold rather than kept as shared state.
	anchor := 0
	var accepted []int
	for i, inst := range insts {
		out := locate(original, inst, anchor, opts)
		if out.HasSpan {
			conflict := false
			for _, j := range accepted {
				if out.Span.Overlaps(blocks[j].Outcome.Span) {
					conflict = true
					break
				}
			}
			if conflict {
				out = MatchOutcome{Status: StatusNotFound, Reason: FailOverlap}
			} else {
				accepted = append(accepted, i)
				anchor = out.Span.End
			}
		}
		blocks[i] = AppliedBlock{Instruction: inst, Outcome: out}
	}

	// Replace from the end of the text toward the beginning so earlier
	// offsets stay valid without re-matching after each edit. At equal
	// starts the longer span goes first: a zero-width insertion at the
	// start of a replacement span must be spliced in only after the
	// replacement has consumed its original bytes, or the replacement
	// would eat the inserted text instead. Zero-width insertions at the
	// same point apply the later instruction first, leaving the earlier
	// one's text in front.
	order := make([]int, len(accepted))
	copy(order, accepted)
	sort.Slice(order, func(a, b int) bool {
		sa := blocks[order[a]].Outcome.Span
		sb := blocks[order[b]].Outcome.Span
		if sa.Start != sb.Start {
			return sa.Start > sb.Start
		}
		if sa.End != sb.End {
			return sa.End > sb.End
		}
		return blocks[order[a]].Instruction.OrderIndex > blocks[order[b]].Instruction.OrderIndex
	})
	content := original
	for _, i := range order {
		sp := blocks[i].Outcome.Span
		content = content[:sp.Start] + blocks[i].Instruction.Replace + content[sp.End:]
	}

	applied := len(accepted)
	failed := len(insts) - applied
	return Result{
		NewContent:     content,
		Applied:        blocks,
		TotalApplied:   applied,
		TotalFailed:    failed,
		IsFullyApplied: failed == 0,
		StatusMessage:  statusMessage(len(insts), applied, blocks),
	}
}

// statusMessage builds the human-readable summary line, e.g.
// "4/5 edits applied (1 not found)".
func statusMessage(total, applied int, blocks []AppliedBlock) string {
	if total == 0 {
		return "no changes"
	}
	msg := fmt.Sprintf("%d/%d edits applied", applied, total)
	notFound, conflicts := 0, 0
	for _, b := range blocks {
		if b.Outcome.Status != StatusNotFound {
			continue
		}
		if b.Outcome.Reason == FailOverlap {
			conflicts++
		} else {
			notFound++
		}
	}
	var parts []string
	if notFound > 0 {
		parts = append(parts, fmt.Sprintf("%d not found", notFound))
	}
	if conflicts > 0 {
		parts = append(parts, fmt.Sprintf("%d conflicting", conflicts))
	}
	if len(parts) > 0 {
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	return msg
}
