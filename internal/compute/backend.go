package compute

import (
	"fmt"

	"github.com/san-kum/mdsim/internal/pair"
)

// AutoSelect returns the best available backend: CUDA when a device is
// present, otherwise the CPU reference backend with the given split.
func AutoSelect(split float64) pair.Backend {
	cuda := NewCUDABackend(split)
	if cuda.Available() {
		return cuda
	}
	return NewCPUBackend(split)
}

// Select resolves a backend by name: "auto", "cpu", "cuda" or "opengl".
func Select(name string, split float64) (pair.Backend, error) {
	switch name {
	case "", "auto":
		return AutoSelect(split), nil
	case "cpu":
		return NewCPUBackend(split), nil
	case "cuda":
		return NewCUDABackend(split), nil
	case "opengl":
		return NewGLBackend(split), nil
	default:
		return nil, fmt.Errorf("compute: unknown backend %q", name)
	}
}
