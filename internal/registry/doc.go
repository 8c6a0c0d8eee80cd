// Package registry owns the finalized critical paths of one analysis run
// and resolves conflicts when a new trace converges onto a path that is
// already registered.
//
// The Registry implements flow.Arbiter. Three policies are available:
//
//   - AllowDuplicates never checks for convergence; every critical trace is
//     registered on its own.
//   - FirstClaim stops a trace as soon as it touches any registered path.
//     The trace is registered on its own if it is already critical; earlier
//     entries are never altered.
//   - PriorityMerge (default) compares weights with the first registered
//     entry holding the tail cell. A lighter trace may take over the
//     heavier entry's downstream suffix when that suffix still holds hazard
//     evidence; the heavier entry is then truncated at the junction or, if
//     all of its evidence lay downstream, removed.
//
// A Registry is not safe for concurrent use. The analysis commits traces
// one at a time in ascending candidate id because the outcome depends on
// that order.
package registry
