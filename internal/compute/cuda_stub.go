//go:build !cuda

package compute

import (
	"fmt"

	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/pair"
)

// CUDABackend stub for builds without the cuda tag. Selecting it
// explicitly fails at setup; AutoSelect skips it via Available.
type CUDABackend struct{}

func NewCUDABackend(split float64) *CUDABackend {
	return &CUDABackend{}
}

func (c *CUDABackend) Name() string    { return "cuda (not available)" }
func (c *CUDABackend) Available() bool { return false }
func (c *CUDABackend) Cleanup()        {}

func (c *CUDABackend) Init(args pair.InitArgs) error {
	return fmt.Errorf("%w: cuda support not compiled in (build with -tags cuda)", md.ErrDeviceInit)
}

func (c *CUDABackend) Compute(args pair.ComputeArgs, list *neighbor.List) (int, bool) {
	return 0, false
}

func (c *CUDABackend) ComputeNeigh(args pair.ComputeArgs) (*neighbor.List, int, bool) {
	return nil, 0, false
}

func (c *CUDABackend) Bytes() int64 { return 0 }
