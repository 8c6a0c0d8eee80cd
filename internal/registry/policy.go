package registry

import "fmt"

// Policy selects how converging traces are resolved.
type Policy int

const (
	// PriorityMerge resolves convergence by criticality weight.
	PriorityMerge Policy = iota
	// FirstClaim lets the first registered path own a shared route.
	FirstClaim
	// AllowDuplicates disables convergence checks.
	AllowDuplicates
)

// PolicyFromFlags maps the duplicate_paths and first_point flags onto a
// policy. duplicatePaths wins over firstPoint.
func PolicyFromFlags(duplicatePaths, firstPoint bool) Policy {
	switch {
	case duplicatePaths:
		return AllowDuplicates
	case firstPoint:
		return FirstClaim
	}
	return PriorityMerge
}

func (p Policy) String() string {
	switch p {
	case PriorityMerge:
		return "priority_merge"
	case FirstClaim:
		return "first_claim"
	case AllowDuplicates:
		return "allow_duplicates"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}
