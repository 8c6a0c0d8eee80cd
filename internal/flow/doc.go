// Package flow walks surface water downstream over a grid.Grid.
//
// Tracing a candidate happens in two parts:
//
//  1. Tracer.Walk follows the D8 directions from the start cell until a
//     terminal cell, a sentinel direction, the grid edge, or a loop. The
//     resulting Route depends only on the grid, so routes for different
//     candidates can be walked concurrently.
//  2. Trace replays a Route one cell at a time through an Arbiter. Before
//     every terminal check the Arbiter may stop the trace because the path
//     converged onto a path it already owns; at the last cell it finalizes
//     the trace.
//
// The registry package provides the Arbiter used by the analysis.
package flow
