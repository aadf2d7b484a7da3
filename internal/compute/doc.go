// Package compute provides the accelerator backends behind the pair
// dispatcher.
//
// Backends implement the pair.Backend contract: they take the leading
// [0, hostStart) slice of a force evaluation and leave the rest to the
// host fallback kernel.
//
//   - CPU: reference backend running the identical kernel on host
//     threads; the split fraction sets hostStart.
//   - CUDA: GPU backend, built with the cuda tag.
//   - OpenGL: compute-shader backend for GL 4.3 contexts.
//
// Build with CUDA support:
//
//	go build -tags cuda ./...
package compute
