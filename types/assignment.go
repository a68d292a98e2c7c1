package types

import "fmt"

// Assignment is one contiguous range of the workload handed to one rank.
//
// Offset is zero-based; the range covers [Offset, Offset+Size).
type Assignment struct {
	// Worker is the rank that owns the range (the coordinator for local execution).
	Worker Rank

	// Offset is the zero-based index of the first item.
	Offset int

	// Size is the number of items in the range.
	Size int

	// Local is true when the coordinator executed the range itself.
	Local bool
}

// End returns the exclusive end index of the range.
func (a Assignment) End() int {
	return a.Offset + a.Size
}

// String renders the assignment as a 1-based inclusive range.
func (a Assignment) String() string {
	kind := "remote"
	if a.Local {
		kind = "local"
	}

	return fmt.Sprintf("%s[%d..%d]@%d", kind, a.Offset+1, a.End(), a.Worker)
}

// Hit is one matched workload position.
type Hit struct {
	// Owner is the rank whose kernel produced the match.
	Owner Rank

	// Position is the 1-based workload position.
	Position int
}
