// Package md provides core primitives shared across the simulator.
//
// The package defines the simulation box geometry (orthogonal and
// triclinic), the energy/virial request flags passed into force
// evaluations, the domain error values, and a small parallel-loop
// helper used by the host-side force kernels.
//
// # Thread Safety
//
// Box values are treated as immutable between reneighboring steps.
// ParallelFor callers must ensure their chunk function only writes
// disjoint data or reduces into per-chunk partials.
package md
