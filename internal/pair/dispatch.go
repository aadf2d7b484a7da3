package pair

import (
	"time"

	"github.com/san-kum/mdsim/internal/atom"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/neighbor"
)

// Mode selects how much work the backend takes on.
type Mode int

const (
	// ModeForce: the backend computes forces using the host-built
	// neighbor list.
	ModeForce Mode = iota
	// ModeForceNeigh: the backend builds its own neighbor list from the
	// sub-domain bounds and computes forces in one call.
	ModeForceNeigh
)

func (m Mode) String() string {
	if m == ModeForceNeigh {
		return "force/neigh"
	}
	return "force"
}

// InitArgs is the one-time backend setup request.
type InitArgs struct {
	Table        *Table
	NLocal       int
	NAll         int
	MaxNeighbors int
	MaxSpecial   int
	CellSize     float64
	Mode         Mode
}

// ComputeArgs is the per-call input a backend receives. The backend
// processes atoms [0, hostStart) of the list, writing forces and tallies
// into Acc, and returns hostStart with a success flag. CPUTime is the
// wall-clock seconds the host fallback spent last call, for the
// backend's load-balance heuristic.
type ComputeArgs struct {
	Ago          int
	Inum         int
	Atoms        *atom.Set
	Box          *md.Box
	SubLo, SubHi [3]float64
	Eflag, Vflag md.Flags
	CPUTime      float64
	Acc          *Accumulator
}

// Backend executes the pair kernel for a leading slice of the atom
// range on an accelerator (or stands in for one). A false success flag
// means device resource exhaustion and is fatal to the run.
type Backend interface {
	Name() string
	Available() bool
	Init(args InitArgs) error
	Compute(args ComputeArgs, list *neighbor.List) (hostStart int, ok bool)
	ComputeNeigh(args ComputeArgs) (list *neighbor.List, hostStart int, ok bool)
	Bytes() int64
	Cleanup()
}

// maxNeighborEstimate bounds per-atom neighbor counts for device buffer
// sizing, 5% of the conventional one-atom page.
const maxNeighborEstimate = 100

// Style dispatches one force evaluation between a backend and the host
// fallback kernel and merges the accounting.
type Style struct {
	table   *Table
	backend Backend
	mode    Mode

	cpuTime float64
	ready   bool
}

// NewStyle wires a parameter table to a compute backend.
func NewStyle(t *Table, b Backend, mode Mode) *Style {
	return &Style{table: t, backend: b, mode: mode}
}

// Setup validates the configuration and initializes the backend. Must
// run once before any Compute call; every error here is fatal to the
// run. newtonPair mirrors the engine's global force-summation setting:
// the split-range device path assumes full neighbor lists, so
// newton-pair summation is rejected outright.
func (p *Style) Setup(s *atom.Set, skin float64, newtonPair bool) error {
	if !s.HasCharge() {
		return md.ErrMissingCharge
	}
	if newtonPair {
		return md.ErrNewtonPair
	}

	cellSize := p.table.MaxCut + skin

	err := p.backend.Init(InitArgs{
		Table:        p.table,
		NLocal:       s.N,
		NAll:         s.Nall(),
		MaxNeighbors: maxNeighborEstimate,
		CellSize:     cellSize,
		Mode:         p.mode,
	})
	if err != nil {
		return &md.DeviceError{Backend: p.backend.Name(), Op: "init", Wrapped: err}
	}

	p.ready = true
	return nil
}

// Compute runs one force evaluation. The backend handles atoms
// [0, hostStart); the host kernel covers [hostStart, inum) on the same
// list, so the two ranges are disjoint and exhaustive and the shared
// accumulator sees each pair visit exactly once. In ModeForceNeigh the
// host list may be nil; the backend's own list view is scanned instead.
func (p *Style) Compute(acc *Accumulator, s *atom.Set, box *md.Box, list *neighbor.List, ago int, eflag, vflag md.Flags) error {
	if !p.ready {
		return md.ErrNotSetup
	}

	inum := s.N
	if p.mode == ModeForce {
		inum = list.Inum
	}

	acc.Prepare(s.Nall(), eflag, vflag)

	args := ComputeArgs{
		Ago:     ago,
		Inum:    inum,
		Atoms:   s,
		Box:     box,
		Eflag:   eflag,
		Vflag:   vflag,
		CPUTime: p.cpuTime,
		Acc:     acc,
	}

	var hostStart int
	var ok bool
	if p.mode == ModeForceNeigh {
		args.SubLo, args.SubHi = box.SubBounds()
		list, hostStart, ok = p.backend.ComputeNeigh(args)
	} else {
		hostStart, ok = p.backend.Compute(args, list)
	}
	if !ok {
		return &md.DeviceError{Backend: p.backend.Name(), Op: "compute", Wrapped: md.ErrDeviceMemory}
	}

	if hostStart < inum {
		start := time.Now()
		ComputeRange(hostStart, inum, list, s, p.table, acc)
		p.cpuTime = time.Since(start).Seconds()
	}

	return nil
}

// Table returns the immutable parameter table.
func (p *Style) Table() *Table { return p.table }

// CPUTime returns the host-fallback seconds of the last Compute call.
func (p *Style) CPUTime() float64 { return p.cpuTime }

// Bytes reports backend memory use.
func (p *Style) Bytes() int64 { return p.backend.Bytes() }

// Close tears the backend down. The style cannot compute afterwards.
func (p *Style) Close() {
	p.backend.Cleanup()
	p.ready = false
}
