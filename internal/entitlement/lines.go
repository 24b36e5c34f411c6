package entitlement

import "sort"

// LineResolver maps a byte offset into source to a 1-based line number in
// O(log n) via binary search over precomputed newline offsets (spec.md
// §4.5).
type LineResolver struct {
	newlines []int
}

// NewLineResolver precomputes the offset of every '\n' in source.
func NewLineResolver(source string) *LineResolver {
	var offsets []int
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			offsets = append(offsets, i)
		}
	}
	return &LineResolver{newlines: offsets}
}

// Line returns the 1-based line number containing byte offset.
func (l *LineResolver) Line(offset int) int {
	n := sort.SearchInts(l.newlines, offset)
	return n + 1
}
