package pair

import (
	"sync"

	"github.com/san-kum/mdsim/internal/md"
)

// Accumulator collects per-atom forces and, when requested, energy and
// virial sums from one force evaluation. Forces are only ever added to,
// never overwritten; the engine zeroes them between steps.
type Accumulator struct {
	F []float64 // 3 per atom

	Evdwl  float64
	Ecoul  float64
	Virial [6]float64

	Eatom []float64
	Vatom [][6]float64

	Eflag md.Flags
	Vflag md.Flags

	mu sync.Mutex
}

// NewAccumulator returns an accumulator sized for nall atoms.
func NewAccumulator(nall int) *Accumulator {
	a := &Accumulator{}
	a.Resize(nall)
	return a
}

// Resize grows the force array to cover nall atoms, zeroing new slots.
func (a *Accumulator) Resize(nall int) {
	if cap(a.F) >= 3*nall {
		a.F = a.F[:3*nall]
		return
	}
	f := make([]float64, 3*nall)
	copy(f, a.F)
	a.F = f
}

// ZeroForces clears the force array. Called by the engine once per step
// before any pair style runs.
func (a *Accumulator) ZeroForces() {
	for i := range a.F {
		a.F[i] = 0
	}
}

// Prepare records the accounting request for one force evaluation and
// zeroes the energy/virial sums. Forces are left untouched.
func (a *Accumulator) Prepare(nall int, eflag, vflag md.Flags) {
	a.Resize(nall)
	a.Eflag = eflag
	a.Vflag = vflag
	a.Evdwl = 0
	a.Ecoul = 0
	a.Virial = [6]float64{}

	if eflag.PerAtom {
		if cap(a.Eatom) < nall {
			a.Eatom = make([]float64, nall)
		}
		a.Eatom = a.Eatom[:nall]
		for i := range a.Eatom {
			a.Eatom[i] = 0
		}
	}
	if vflag.PerAtom {
		if cap(a.Vatom) < nall {
			a.Vatom = make([][6]float64, nall)
		}
		a.Vatom = a.Vatom[:nall]
		for i := range a.Vatom {
			a.Vatom[i] = [6]float64{}
		}
	}
}

// AddForce accumulates a force on atom i. Safe for concurrent use as
// long as callers touch disjoint atoms.
func (a *Accumulator) AddForce(i int, fx, fy, fz float64) {
	a.F[3*i] += fx
	a.F[3*i+1] += fy
	a.F[3*i+2] += fz
}

// PotentialEnergy returns the accumulated pair energy.
func (a *Accumulator) PotentialEnergy() float64 { return a.Evdwl + a.Ecoul }

// tally holds one kernel chunk's scalar partial sums. Per-atom and
// force writes go straight to the accumulator (disjoint per atom i);
// only these shared scalars need a reduction.
type tally struct {
	evdwl  float64
	ecoul  float64
	virial [6]float64
}

// pairFull records one ordered visit of a pair from atom i's row using
// full-neighbor-list semantics: every unordered pair is visited from
// both endpoints, so each visit carries half the pair's energy and
// virial.
func (a *Accumulator) pairFull(g *tally, i int, evdwl, ecoul, fpair, delx, dely, delz float64) {
	if a.Eflag.Global {
		g.evdwl += 0.5 * evdwl
		g.ecoul += 0.5 * ecoul
	}
	if a.Eflag.PerAtom {
		a.Eatom[i] += 0.5 * (evdwl + ecoul)
	}

	if a.Vflag.Global || a.Vflag.PerAtom {
		v := [6]float64{
			0.5 * delx * delx * fpair,
			0.5 * dely * dely * fpair,
			0.5 * delz * delz * fpair,
			0.5 * delx * dely * fpair,
			0.5 * delx * delz * fpair,
			0.5 * dely * delz * fpair,
		}
		if a.Vflag.Global {
			for k := 0; k < 6; k++ {
				g.virial[k] += v[k]
			}
		}
		if a.Vflag.PerAtom {
			for k := 0; k < 6; k++ {
				a.Vatom[i][k] += v[k]
			}
		}
	}
}

// reduce folds one chunk's partial sums into the global totals.
func (a *Accumulator) reduce(g *tally) {
	a.mu.Lock()
	a.Evdwl += g.evdwl
	a.Ecoul += g.ecoul
	for k := 0; k < 6; k++ {
		a.Virial[k] += g.virial[k]
	}
	a.mu.Unlock()
}
