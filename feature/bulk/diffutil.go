package bulk

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Format selects how FormatDiffs renders.
type Format string

const (
	FormatSummary  Format = "summary"
	FormatCompact  Format = "compact"
	FormatDetailed Format = "detailed"
)

// inlineDiffMin is the length from which string changes render as an inline diff.
const inlineDiffMin = 40

// ParseFormat maps s to a Format. Unknown values fall back to FormatSummary.
func ParseFormat(s string) Format {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCompact, FormatDetailed:
		return f
	default:
		return FormatSummary
	}
}

// FormatDiffs renders diffs as text.
func FormatDiffs(diffs []EntityDiff, format Format) string {
	switch format {
	case FormatCompact:
		return formatCompact(diffs)
	case FormatDetailed:
		return formatDetailed(diffs)
	default:
		return formatSummary(diffs)
	}
}

func formatSummary(diffs []EntityDiff) string {
	var changed, total, significant int
	counts := map[Operation]int{}
	for _, d := range diffs {
		if d.HasChanges {
			changed++
		}
		total += d.ChangeCount
		significant += len(d.SignificantChanges)
		for _, op := range d.Operations {
			counts[op.Operation]++
		}
	}
	return fmt.Sprintf("%d entities, %d with changes, %d changes (%d added, %d changed, %d removed), %d significant",
		len(diffs), changed, total, counts[OpAdd], counts[OpChange], counts[OpRemove], significant)
}

func formatCompact(diffs []EntityDiff) string {
	var b strings.Builder
	for _, d := range diffs {
		if !d.HasChanges {
			continue
		}
		fmt.Fprintf(&b, "%s: %d changes", d.ID, d.ChangeCount)
		if len(d.SignificantChanges) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(d.SignificantChanges, ", "))
		}
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return "No changes"
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatDetailed(diffs []EntityDiff) string {
	var b strings.Builder
	for _, d := range diffs {
		if !d.HasChanges {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s (%d changes)\n", d.ID, d.ChangeCount)
		for _, op := range d.Operations {
			marker := " "
			if IsSignificant(op.Path) {
				marker = "*"
			}
			switch op.Operation {
			case OpAdd:
				fmt.Fprintf(&b, "%s + %s: %s\n", marker, op.Path, render(op.NewValue))
			case OpRemove:
				fmt.Fprintf(&b, "%s - %s: %s\n", marker, op.Path, render(op.OldValue))
			case OpChange:
				fmt.Fprintf(&b, "%s ~ %s: %s\n", marker, op.Path, renderChange(op.OldValue, op.NewValue))
			}
		}
	}
	if b.Len() == 0 {
		return "No changes"
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func render(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

// renderChange shows "old -> new", or an inline diff when both sides are long strings.
func renderChange(from, to any) string {
	a, ok1 := from.(string)
	b, ok2 := to.(string)
	if !ok1 || !ok2 || max(len(a), len(b)) < inlineDiffMin {
		return render(from) + " -> " + render(to)
	}
	return InlineDiff(a, b)
}

// InlineDiff marks deletions as [-text-] and insertions as {+text+}.
func InlineDiff(from, to string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(from, to, false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

// EntityOperation is a DiffOperation tagged with its entity id.
type EntityOperation struct {
	ID string `json:"id"`
	DiffOperation
}

// GroupByOperation collects operations of all diffs by operation kind.
func GroupByOperation(diffs []EntityDiff) map[Operation][]EntityOperation {
	groups := make(map[Operation][]EntityOperation)
	for _, d := range diffs {
		for _, op := range d.Operations {
			groups[op.Operation] = append(groups[op.Operation], EntityOperation{ID: d.ID, DiffOperation: op})
		}
	}
	return groups
}

// FilterSignificant keeps the diffs with at least one significant change.
func FilterSignificant(diffs []EntityDiff) []EntityDiff {
	out := make([]EntityDiff, 0, len(diffs))
	for _, d := range diffs {
		if len(d.SignificantChanges) > 0 {
			out = append(out, d)
		}
	}
	return out
}
