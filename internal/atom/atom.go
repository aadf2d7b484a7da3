// Package atom holds the particle data a force evaluation reads:
// positions, charges, types and tags for local atoms plus their
// periodic ghost images.
package atom

// Set stores per-atom data. The first N entries are local atoms; Nghost
// ghost images follow. All slices have length Nall (or 3*Nall for X).
// Force evaluation treats a Set as read-only.
type Set struct {
	N      int
	Nghost int

	X    []float64 // 3 per atom
	Q    []float64 // nil when atoms carry no charge
	Type []int32   // 1-based
	Tag  []int64
}

// New allocates a charged Set for n local atoms with room for ghosts
// appended later.
func New(n int) *Set {
	return &Set{
		N:    n,
		X:    make([]float64, 3*n),
		Q:    make([]float64, n),
		Type: make([]int32, n),
		Tag:  make([]int64, n),
	}
}

// Nall returns the total atom count including ghosts.
func (s *Set) Nall() int { return s.N + s.Nghost }

// HasCharge reports whether per-atom charges are present.
func (s *Set) HasCharge() bool { return s.Q != nil }

// Pos returns the position of atom i.
func (s *Set) Pos(i int) (x, y, z float64) {
	return s.X[3*i], s.X[3*i+1], s.X[3*i+2]
}

// SetPos stores the position of atom i.
func (s *Set) SetPos(i int, x, y, z float64) {
	s.X[3*i] = x
	s.X[3*i+1] = y
	s.X[3*i+2] = z
}

// AddGhost appends one ghost image and returns its index. The ghost
// copies the charge, type and tag of the source atom.
func (s *Set) AddGhost(src int, x, y, z float64) int {
	i := s.Nall()
	s.X = append(s.X, x, y, z)
	if s.Q != nil {
		s.Q = append(s.Q, s.Q[src])
	}
	s.Type = append(s.Type, s.Type[src])
	s.Tag = append(s.Tag, s.Tag[src])
	s.Nghost++
	return i
}

// TrimGhosts discards all ghost images, keeping local atoms intact.
func (s *Set) TrimGhosts() {
	s.X = s.X[:3*s.N]
	if s.Q != nil {
		s.Q = s.Q[:s.N]
	}
	s.Type = s.Type[:s.N]
	s.Tag = s.Tag[:s.N]
	s.Nghost = 0
}

// MaxType returns the largest atom type present, 0 for an empty set.
func (s *Set) MaxType() int {
	max := int32(0)
	for _, t := range s.Type {
		if t > max {
			max = t
		}
	}
	return int(max)
}
