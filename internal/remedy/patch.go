package remedy

import (
	"fmt"
	"sort"
)

// Patch is one byte-range replacement in a file. A zero-width range is an
// insertion. Patches for the same file must not overlap; overlap is a
// conflict detected before application, never silently merged.
type Patch struct {
	File        string `json:"file"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Replacement string `json:"replacement"`
	CheckID     string `json:"check_id"`
}

// Overlaps reports whether two patches touch the same bytes. Two
// insertions at the same offset also conflict: their application order
// would be ambiguous.
func Overlaps(a, b Patch) bool {
	if a.Start == b.Start {
		return true
	}
	return a.Start < b.End && b.Start < a.End
}

// Apply rewrites content with the given non-overlapping patches. Patches
// are applied in descending offset order so that each splice leaves every
// lower-offset range untouched; ascending order would shift and corrupt
// the ranges of later patches.
func Apply(content string, patches []Patch) (string, error) {
	sorted := make([]Patch, len(patches))
	copy(sorted, patches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	for i := 1; i < len(sorted); i++ {
		if Overlaps(sorted[i-1], sorted[i]) {
			return "", fmt.Errorf("overlapping patches at [%d,%d) and [%d,%d)",
				sorted[i].Start, sorted[i].End, sorted[i-1].Start, sorted[i-1].End)
		}
	}

	for _, p := range sorted {
		if p.Start < 0 || p.End > len(content) || p.Start > p.End {
			return "", fmt.Errorf("patch range [%d,%d) out of bounds for %d bytes", p.Start, p.End, len(content))
		}
		content = content[:p.Start] + p.Replacement + content[p.End:]
	}
	return content, nil
}
