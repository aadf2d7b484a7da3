package md

// Flags selects energy or virial accumulation for one force evaluation.
type Flags struct {
	Global  bool
	PerAtom bool
}

// Any reports whether any accumulation was requested.
func (f Flags) Any() bool { return f.Global || f.PerAtom }

// Box describes the simulation cell. Lo/Hi are the corner coordinates;
// for a triclinic cell the tilt factors Xy, Xz, Yz skew the y and z
// edges. SubLo/SubHi bound this process's sub-domain: in box coordinates
// when orthogonal, in fractional (lamda) coordinates when triclinic.
type Box struct {
	Lo, Hi       [3]float64
	Xy, Xz, Yz   float64
	Triclinic    bool
	SubLo, SubHi [3]float64
	Periodic     [3]bool
}

// NewCubic returns an orthogonal periodic box spanning [0,l) on each axis
// with the sub-domain covering the whole box.
func NewCubic(l float64) *Box {
	b := &Box{
		Hi:       [3]float64{l, l, l},
		Periodic: [3]bool{true, true, true},
	}
	b.SubLo = b.Lo
	b.SubHi = b.Hi
	return b
}

// Prd returns the box period along each axis.
func (b *Box) Prd() [3]float64 {
	return [3]float64{b.Hi[0] - b.Lo[0], b.Hi[1] - b.Lo[1], b.Hi[2] - b.Lo[2]}
}

// Volume returns the cell volume. Tilt does not change the volume.
func (b *Box) Volume() float64 {
	p := b.Prd()
	return p[0] * p[1] * p[2]
}

// ToBox converts fractional (lamda) coordinates to box coordinates.
func (b *Box) ToBox(la [3]float64) [3]float64 {
	p := b.Prd()
	return [3]float64{
		p[0]*la[0] + b.Xy*la[1] + b.Xz*la[2] + b.Lo[0],
		p[1]*la[1] + b.Yz*la[2] + b.Lo[1],
		p[2]*la[2] + b.Lo[2],
	}
}

// SubBounds returns an axis-aligned bound on this process's sub-domain,
// suitable for handing to an accelerator's spatial binning. Orthogonal
// sub-domains are already axis-aligned; a triclinic sub-domain is a
// parallelepiped in lamda coordinates, so the bound is taken over its
// eight transformed corners.
func (b *Box) SubBounds() (lo, hi [3]float64) {
	if !b.Triclinic {
		return b.SubLo, b.SubHi
	}

	lo = b.ToBox(b.SubLo)
	hi = lo
	for corner := 1; corner < 8; corner++ {
		var la [3]float64
		for d := 0; d < 3; d++ {
			if corner&(1<<d) != 0 {
				la[d] = b.SubHi[d]
			} else {
				la[d] = b.SubLo[d]
			}
		}
		x := b.ToBox(la)
		for d := 0; d < 3; d++ {
			if x[d] < lo[d] {
				lo[d] = x[d]
			}
			if x[d] > hi[d] {
				hi[d] = x[d]
			}
		}
	}
	return lo, hi
}

// Wrap remaps a coordinate into the primary cell along periodic axes.
func (b *Box) Wrap(x [3]float64) [3]float64 {
	p := b.Prd()
	for d := 0; d < 3; d++ {
		if !b.Periodic[d] {
			continue
		}
		for x[d] < b.Lo[d] {
			x[d] += p[d]
		}
		for x[d] >= b.Hi[d] {
			x[d] -= p[d]
		}
	}
	return x
}
