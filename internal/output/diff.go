package output

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffResult holds the line changes between two renders of a panel.
type DiffResult struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Empty reports whether nothing changed.
func (d *DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// String renders the changes as "+ line" / "- line", removals first.
func (d *DiffResult) String() string {
	var sb strings.Builder
	for _, l := range d.Removed {
		sb.WriteString("- ")
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	for _, l := range d.Added {
		sb.WriteString("+ ")
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ComputeDiff compares two renders line by line.
func ComputeDiff(before, after string) *DiffResult {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	res := &DiffResult{}
	for _, d := range diffs {
		var dst *[]string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			dst = &res.Added
		case diffmatchpatch.DiffDelete:
			dst = &res.Removed
		default:
			continue
		}
		for _, l := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			*dst = append(*dst, l)
		}
	}
	return res
}
