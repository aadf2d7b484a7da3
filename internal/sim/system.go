package sim

import (
	"math"
	"math/rand"

	"github.com/san-kum/mdsim/internal/atom"
	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/md"
)

// buildSystem places atoms on a simple cubic lattice at the configured
// density and draws velocities for the initial temperature. Two-type
// systems alternate types and charges in a rocksalt pattern.
func buildSystem(cfg *config.Config, rng *rand.Rand) (*atom.Set, *md.Box, []float64) {
	n := cfg.System.Atoms
	l := math.Cbrt(float64(n) / cfg.System.Density)

	box := md.NewCubic(l)
	if cfg.System.Triclinic {
		box.Triclinic = true
		box.Xy = cfg.System.Tilt * l
		box.SubLo = [3]float64{0, 0, 0}
		box.SubHi = [3]float64{1, 1, 1}
	}

	s := atom.New(n)
	ncell := int(math.Ceil(math.Cbrt(float64(n))))
	a := l / float64(ncell)

	i := 0
	for iz := 0; iz < ncell && i < n; iz++ {
		for iy := 0; iy < ncell && i < n; iy++ {
			for ix := 0; ix < ncell && i < n; ix++ {
				s.SetPos(i, (float64(ix)+0.5)*a, (float64(iy)+0.5)*a, (float64(iz)+0.5)*a)
				s.Tag[i] = int64(i + 1)

				parity := (ix + iy + iz) % 2
				if cfg.System.Types == 2 {
					s.Type[i] = int32(1 + parity)
					if parity == 0 {
						s.Q[i] = cfg.System.Charge
					} else {
						s.Q[i] = -cfg.System.Charge
					}
				} else {
					s.Type[i] = 1
					s.Q[i] = cfg.System.Charge
				}
				i++
			}
		}
	}

	vel := initVelocities(n, cfg.Run.Temp, cfg.System.Mass, rng)
	return s, box, vel
}

// initVelocities draws Maxwell-Boltzmann velocities, removes net
// momentum and rescales to the exact target temperature.
func initVelocities(n int, temp, mass float64, rng *rand.Rand) []float64 {
	vel := make([]float64, 3*n)
	if temp <= 0 {
		return vel
	}

	sigma := math.Sqrt(temp / mass)
	var px, py, pz float64
	for i := 0; i < n; i++ {
		vel[3*i] = rng.NormFloat64() * sigma
		vel[3*i+1] = rng.NormFloat64() * sigma
		vel[3*i+2] = rng.NormFloat64() * sigma
		px += vel[3*i]
		py += vel[3*i+1]
		pz += vel[3*i+2]
	}

	for i := 0; i < n; i++ {
		vel[3*i] -= px / float64(n)
		vel[3*i+1] -= py / float64(n)
		vel[3*i+2] -= pz / float64(n)
	}

	ke := 0.0
	for i := range vel {
		ke += 0.5 * mass * vel[i] * vel[i]
	}
	current := 2.0 * ke / (3.0 * float64(n))
	if current > 0 {
		scale := math.Sqrt(temp / current)
		for i := range vel {
			vel[i] *= scale
		}
	}
	return vel
}

// ghostShifts enumerates the 26 periodic image shifts of a box,
// including tilt for triclinic cells.
func ghostShifts(box *md.Box) [][3]float64 {
	p := box.Prd()
	var shifts [][3]float64
	for iz := -1; iz <= 1; iz++ {
		for iy := -1; iy <= 1; iy++ {
			for ix := -1; ix <= 1; ix++ {
				if ix == 0 && iy == 0 && iz == 0 {
					continue
				}
				shifts = append(shifts, [3]float64{
					float64(ix)*p[0] + float64(iy)*box.Xy + float64(iz)*box.Xz,
					float64(iy)*p[1] + float64(iz)*box.Yz,
					float64(iz) * p[2],
				})
			}
		}
	}
	return shifts
}
