// Package pair implements the lj/cut/coul/debye pairwise interaction:
// a Lennard-Jones 12-6 term and a Debye-screened Coulomb term, each
// with its own cutoff, evaluated over full neighbor lists and split
// between a compute backend and a host fallback kernel.
package pair

import (
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/md"
)

// Params holds the global settings a table is built from.
type Params struct {
	NTypes      int
	Kappa       float64 // inverse Debye screening length
	QQRd2e      float64 // Coulomb unit conversion
	CutLJ       float64 // default LJ cutoff
	CutCoul     float64 // default Coulomb cutoff
	Shift       bool    // shift LJ energy to zero at the cutoff
	SpecialLJ   [4]float64
	SpecialCoul [4]float64
}

// Coeff sets epsilon/sigma for one type pair. Zero cutoffs fall back to
// the global defaults. I==J entries are required; missing cross pairs
// are mixed geometrically for epsilon and arithmetically for sigma.
type Coeff struct {
	I, J           int
	Epsilon, Sigma float64
	CutLJ, CutCoul float64
}

// Table carries the precomputed per-type-pair coefficients. Immutable
// after Build; all 2D slices are symmetric and indexed [1..NTypes].
type Table struct {
	NTypes int

	Cutsq     [][]float64
	CutLJsq   [][]float64
	CutCoulsq [][]float64
	LJ1       [][]float64
	LJ2       [][]float64
	LJ3       [][]float64
	LJ4       [][]float64
	Offset    [][]float64

	Kappa       float64
	QQRd2e      float64
	SpecialLJ   [4]float64
	SpecialCoul [4]float64

	// MaxCut is the largest pair cutoff, used to size device cell bins.
	MaxCut float64
}

// Build produces an immutable Table from global params and per-pair
// coefficients.
func Build(p Params, coeffs []Coeff) (*Table, error) {
	if p.NTypes < 1 {
		return nil, fmt.Errorf("pair: ntypes must be >= 1, got %d", p.NTypes)
	}

	t := &Table{
		NTypes:      p.NTypes,
		Kappa:       p.Kappa,
		QQRd2e:      p.QQRd2e,
		SpecialLJ:   p.SpecialLJ,
		SpecialCoul: p.SpecialCoul,
	}
	// Code 0 is an ordinary non-bonded pair: always full strength.
	t.SpecialLJ[0] = 1.0
	t.SpecialCoul[0] = 1.0

	n := p.NTypes + 1
	alloc := func() [][]float64 {
		m := make([][]float64, n)
		for i := range m {
			m[i] = make([]float64, n)
		}
		return m
	}
	t.Cutsq = alloc()
	t.CutLJsq = alloc()
	t.CutCoulsq = alloc()
	t.LJ1 = alloc()
	t.LJ2 = alloc()
	t.LJ3 = alloc()
	t.LJ4 = alloc()
	t.Offset = alloc()

	eps := alloc()
	sig := alloc()
	cutLJ := alloc()
	cutCoul := alloc()
	set := make([][]bool, n)
	for i := range set {
		set[i] = make([]bool, n)
	}

	for _, c := range coeffs {
		i, j := c.I, c.J
		if i < 1 || j < 1 || i > p.NTypes || j > p.NTypes {
			return nil, fmt.Errorf("%w: pair (%d,%d) with ntypes %d", md.ErrBadTypePair, i, j, p.NTypes)
		}
		if j < i {
			i, j = j, i
		}
		eps[i][j] = c.Epsilon
		sig[i][j] = c.Sigma
		cutLJ[i][j] = c.CutLJ
		cutCoul[i][j] = c.CutCoul
		set[i][j] = true
	}

	for i := 1; i <= p.NTypes; i++ {
		if !set[i][i] {
			return nil, fmt.Errorf("pair: coefficients for type %d not set", i)
		}
	}

	for i := 1; i <= p.NTypes; i++ {
		for j := i; j <= p.NTypes; j++ {
			e, s := eps[i][j], sig[i][j]
			clj, ccoul := cutLJ[i][j], cutCoul[i][j]
			if !set[i][j] {
				e = math.Sqrt(eps[i][i] * eps[j][j])
				s = 0.5 * (sig[i][i] + sig[j][j])
			}
			if clj == 0 {
				clj = p.CutLJ
			}
			if ccoul == 0 {
				ccoul = p.CutCoul
			}

			sig6 := math.Pow(s, 6)
			sig12 := sig6 * sig6
			lj1 := 48.0 * e * sig12
			lj2 := 24.0 * e * sig6
			lj3 := 4.0 * e * sig12
			lj4 := 4.0 * e * sig6

			offset := 0.0
			if p.Shift && clj > 0 {
				ratio := s / clj
				r6 := math.Pow(ratio, 6)
				offset = 4.0 * e * (r6*r6 - r6)
			}

			cut := math.Max(clj, ccoul)
			if cut > t.MaxCut {
				t.MaxCut = cut
			}

			sym := func(m [][]float64, v float64) {
				m[i][j] = v
				m[j][i] = v
			}
			sym(t.Cutsq, cut*cut)
			sym(t.CutLJsq, clj*clj)
			sym(t.CutCoulsq, ccoul*ccoul)
			sym(t.LJ1, lj1)
			sym(t.LJ2, lj2)
			sym(t.LJ3, lj3)
			sym(t.LJ4, lj4)
			sym(t.Offset, offset)
		}
	}

	return t, nil
}
