// Package neighbor builds and represents full neighbor lists.
//
// A full list holds, for every local atom, all atoms within the
// neighbor cutoff; each unordered pair therefore appears twice, once
// from each endpoint. The two high bits of a stored neighbor index
// carry the special-bond code selecting scale factors for bonded
// pairs; Decode strips and returns them.
package neighbor

import "github.com/san-kum/mdsim/internal/atom"

// Special-bond encoding. Bits 30-31 of a neighbor index hold a 2-bit
// code indexing the special scale tables; the low 30 bits are the atom
// index.
const (
	SBBits = 30
	Mask   = 1<<SBBits - 1
)

// Encode packs a special-bond code into a neighbor index.
func Encode(j int32, sb int) int32 {
	return j | int32(sb)<<SBBits
}

// Decode splits an encoded neighbor entry into the true atom index and
// the 2-bit special-bond code. This is the single place the packing is
// undone; kernels must not mask indices themselves.
func Decode(j int32) (int32, int) {
	return j & Mask, int(uint32(j) >> SBBits & 3)
}

// List is a full neighbor list over local atoms. Ago counts steps since
// the list was built: 0 on the step it was rebuilt.
type List struct {
	Inum       int
	Ilist      []int32
	Numneigh   []int32
	Firstneigh [][]int32
	Ago        int
}

// Builder produces full lists by cell binning. Cutoff is the force
// cutoff; Skin extends the neighbor radius so the list survives a few
// steps of motion. Special, when set, returns the 2-bit special-bond
// code for a tag pair (0 for an ordinary pair).
type Builder struct {
	Cutoff  float64
	Skin    float64
	Special func(ti, tj int64) int
}

// Build constructs a full list for the local atoms of s, with ghosts
// included as neighbor candidates.
func (b *Builder) Build(s *atom.Set) *List {
	cut := b.Cutoff + b.Skin
	cutsq := cut * cut

	bins, nbin, lo := binAtoms(s, cut)

	list := &List{
		Inum:       s.N,
		Ilist:      make([]int32, s.N),
		Numneigh:   make([]int32, s.N),
		Firstneigh: make([][]int32, s.N),
	}

	for i := 0; i < s.N; i++ {
		list.Ilist[i] = int32(i)
		xi, yi, zi := s.Pos(i)

		bx := binIndex(xi, lo[0], cut, nbin[0])
		by := binIndex(yi, lo[1], cut, nbin[1])
		bz := binIndex(zi, lo[2], cut, nbin[2])

		var neigh []int32
		for dz := -1; dz <= 1; dz++ {
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					cx, cy, cz := bx+dx, by+dy, bz+dz
					if cx < 0 || cx >= nbin[0] || cy < 0 || cy >= nbin[1] || cz < 0 || cz >= nbin[2] {
						continue
					}
					for _, j := range bins[(cz*nbin[1]+cy)*nbin[0]+cx] {
						if int(j) == i {
							continue
						}
						xj, yj, zj := s.Pos(int(j))
						delx := xi - xj
						dely := yi - yj
						delz := zi - zj
						if delx*delx+dely*dely+delz*delz < cutsq {
							neigh = append(neigh, b.encode(s, i, int(j)))
						}
					}
				}
			}
		}

		list.Numneigh[i] = int32(len(neigh))
		list.Firstneigh[i] = neigh
	}

	return list
}

func (b *Builder) encode(s *atom.Set, i, j int) int32 {
	if b.Special == nil {
		return int32(j)
	}
	return Encode(int32(j), b.Special(s.Tag[i], s.Tag[j]))
}

// binAtoms maps every atom (local and ghost) into cells of side cut
// covering the bounding box of all coordinates.
func binAtoms(s *atom.Set, cut float64) (bins [][]int32, nbin [3]int, lo [3]float64) {
	nall := s.Nall()
	hi := [3]float64{}
	if nall > 0 {
		lo = [3]float64{s.X[0], s.X[1], s.X[2]}
		hi = lo
	}
	for i := 1; i < nall; i++ {
		for d := 0; d < 3; d++ {
			v := s.X[3*i+d]
			if v < lo[d] {
				lo[d] = v
			}
			if v > hi[d] {
				hi[d] = v
			}
		}
	}

	for d := 0; d < 3; d++ {
		nbin[d] = int((hi[d]-lo[d])/cut) + 1
		if nbin[d] < 1 {
			nbin[d] = 1
		}
	}

	bins = make([][]int32, nbin[0]*nbin[1]*nbin[2])
	for i := 0; i < nall; i++ {
		bx := binIndex(s.X[3*i], lo[0], cut, nbin[0])
		by := binIndex(s.X[3*i+1], lo[1], cut, nbin[1])
		bz := binIndex(s.X[3*i+2], lo[2], cut, nbin[2])
		idx := (bz*nbin[1]+by)*nbin[0] + bx
		bins[idx] = append(bins[idx], int32(i))
	}
	return bins, nbin, lo
}

func binIndex(v, lo, cut float64, n int) int {
	i := int((v - lo) / cut)
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return i
}
