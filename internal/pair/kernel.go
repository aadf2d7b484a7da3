package pair

import (
	"math"

	"github.com/san-kum/mdsim/internal/atom"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/neighbor"
)

// minChunk keeps small ranges serial; below this many atoms the
// goroutine fan-out costs more than the pair loop.
const minChunk = 64

// ComputeRange evaluates the lj/cut/coul/debye kernel over neighbor-list
// rows [start, inum). Forces land on atom i only: full lists visit every
// pair from both endpoints, so the reciprocal update is the other
// endpoint's own visit. Rows are independent, so the range runs as a
// parallel loop with per-chunk scalar partials reduced at the end.
func ComputeRange(start, inum int, list *neighbor.List, s *atom.Set, t *Table, acc *Accumulator) {
	n := inum - start
	if n <= 0 {
		return
	}

	evflag := acc.Eflag.Any() || acc.Vflag.Any()
	eflag := acc.Eflag.Any()

	md.ParallelFor(n, minChunk, func(cs, ce int) {
		var g tally

		for ii := start + cs; ii < start+ce; ii++ {
			i := int(list.Ilist[ii])
			qtmp := s.Q[i]
			xtmp := s.X[3*i]
			ytmp := s.X[3*i+1]
			ztmp := s.X[3*i+2]
			itype := int(s.Type[i])
			jlist := list.Firstneigh[i]
			jnum := int(list.Numneigh[i])

			var fxi, fyi, fzi float64

			for jj := 0; jj < jnum; jj++ {
				j, sb := neighbor.Decode(jlist[jj])
				factorLJ := t.SpecialLJ[sb]
				factorCoul := t.SpecialCoul[sb]

				delx := xtmp - s.X[3*j]
				dely := ytmp - s.X[3*j+1]
				delz := ztmp - s.X[3*j+2]
				rsq := delx*delx + dely*dely + delz*delz
				jtype := int(s.Type[j])

				if rsq >= t.Cutsq[itype][jtype] {
					continue
				}

				r2inv := 1.0 / rsq

				var forcecoul, rinv, screening float64
				if rsq < t.CutCoulsq[itype][jtype] {
					r := math.Sqrt(rsq)
					rinv = 1.0 / r
					screening = math.Exp(-t.Kappa * r)
					forcecoul = t.QQRd2e * qtmp * s.Q[j] * screening * (t.Kappa + rinv)
				}

				var forcelj, r6inv float64
				if rsq < t.CutLJsq[itype][jtype] {
					r6inv = r2inv * r2inv * r2inv
					forcelj = r6inv * (t.LJ1[itype][jtype]*r6inv - t.LJ2[itype][jtype])
				}

				fpair := (factorCoul*forcecoul + factorLJ*forcelj) * r2inv

				fxi += delx * fpair
				fyi += dely * fpair
				fzi += delz * fpair

				if evflag {
					var evdwl, ecoul float64
					if eflag {
						if rsq < t.CutCoulsq[itype][jtype] {
							ecoul = factorCoul * t.QQRd2e * qtmp * s.Q[j] * rinv * screening
						}
						if rsq < t.CutLJsq[itype][jtype] {
							evdwl = r6inv*(t.LJ3[itype][jtype]*r6inv-t.LJ4[itype][jtype]) - t.Offset[itype][jtype]
							evdwl *= factorLJ
						}
					}
					acc.pairFull(&g, i, evdwl, ecoul, fpair, delx, dely, delz)
				}
			}

			acc.AddForce(i, fxi, fyi, fzi)
		}

		acc.reduce(&g)
	})
}
