package metrics

import (
	"math"

	"github.com/san-kum/mdsim/internal/sim"
)

// PairEnergy averages the pair potential energy per atom over a run.
type PairEnergy struct {
	name    string
	total   float64
	samples int
}

func NewPairEnergy() *PairEnergy {
	return &PairEnergy{name: "pair_energy"}
}

func (e *PairEnergy) Name() string { return e.name }

func (e *PairEnergy) Observe(s sim.Sample) {
	if s.Natoms == 0 {
		return
	}
	e.total += (s.Evdwl + s.Ecoul) / float64(s.Natoms)
	e.samples++
}

func (e *PairEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *PairEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift tracks the worst relative deviation of total energy from
// its initial value. Microcanonical runs should keep this small.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s sim.Sample) {
	total := s.Etotal()
	if e.samples == 0 {
		e.initial = total
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(total-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
