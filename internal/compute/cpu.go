package compute

import (
	"math"

	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/pair"
)

// CPUBackend is the reference backend. It runs the identical pair
// kernel on host threads over its share of the atom range, so a split
// run must agree with a pure-host run to summation order. split is the
// fraction of local atoms this backend claims: 0 leaves everything to
// the host fallback, 1 handles everything here.
type CPUBackend struct {
	split    float64
	table    *pair.Table
	cellSize float64
	nall     int
	maxNbors int
}

// NewCPUBackend returns a CPU backend claiming the given fraction of
// each force evaluation. The fraction is clamped to [0, 1].
func NewCPUBackend(split float64) *CPUBackend {
	if split < 0 {
		split = 0
	}
	if split > 1 {
		split = 1
	}
	return &CPUBackend{split: split}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        { c.table = nil }

func (c *CPUBackend) Init(args pair.InitArgs) error {
	c.table = args.Table
	c.cellSize = args.CellSize
	c.nall = args.NAll
	c.maxNbors = args.MaxNeighbors
	return nil
}

// Split returns the configured work fraction.
func (c *CPUBackend) Split() float64 { return c.split }

func (c *CPUBackend) Compute(args pair.ComputeArgs, list *neighbor.List) (int, bool) {
	hostStart := c.hostStart(args.Inum)
	if hostStart > 0 {
		pair.ComputeRange(0, hostStart, list, args.Atoms, c.table, args.Acc)
	}
	if args.Atoms.Nall() > c.nall {
		c.nall = args.Atoms.Nall()
	}
	return hostStart, true
}

func (c *CPUBackend) ComputeNeigh(args pair.ComputeArgs) (*neighbor.List, int, bool) {
	b := neighbor.Builder{Cutoff: c.cellSize}
	list := b.Build(args.Atoms)
	list.Ago = args.Ago

	hostStart, ok := c.Compute(args, list)
	return list, hostStart, ok
}

func (c *CPUBackend) hostStart(inum int) int {
	return int(math.Round(c.split * float64(inum)))
}

func (c *CPUBackend) Bytes() int64 {
	// Positions, charge, type plus the neighbor list estimate.
	perAtom := int64(3*8 + 8 + 4)
	return int64(c.nall)*perAtom + int64(c.nall)*int64(c.maxNbors)*4
}
