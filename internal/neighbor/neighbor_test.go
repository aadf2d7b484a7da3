package neighbor

import (
	"math/rand"
	"testing"

	"github.com/san-kum/mdsim/internal/atom"
)

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		j  int32
		sb int
	}{
		{0, 0},
		{1, 1},
		{12345, 2},
		{Mask, 3},
	}
	for _, tt := range tests {
		enc := Encode(tt.j, tt.sb)
		j, sb := Decode(enc)
		if j != tt.j || sb != tt.sb {
			t.Errorf("encode(%d,%d): decoded to (%d,%d)", tt.j, tt.sb, j, sb)
		}
	}
}

func TestDecodePlainIndex(t *testing.T) {
	// An untagged index decodes to itself with code 0.
	j, sb := Decode(42)
	if j != 42 || sb != 0 {
		t.Errorf("expected (42,0), got (%d,%d)", j, sb)
	}
}

func randomSet(n int, l float64, seed int64) *atom.Set {
	rng := rand.New(rand.NewSource(seed))
	s := atom.New(n)
	for i := 0; i < n; i++ {
		s.SetPos(i, rng.Float64()*l, rng.Float64()*l, rng.Float64()*l)
		s.Type[i] = 1
		s.Tag[i] = int64(i + 1)
	}
	return s
}

func TestBuildMatchesBruteForce(t *testing.T) {
	s := randomSet(80, 6.0, 7)
	cutoff := 1.5

	b := Builder{Cutoff: cutoff}
	list := b.Build(s)

	if list.Inum != s.N {
		t.Fatalf("inum: expected %d, got %d", s.N, list.Inum)
	}

	cutsq := cutoff * cutoff
	for i := 0; i < s.N; i++ {
		want := make(map[int32]bool)
		xi, yi, zi := s.Pos(i)
		for j := 0; j < s.Nall(); j++ {
			if j == i {
				continue
			}
			xj, yj, zj := s.Pos(j)
			dx, dy, dz := xi-xj, yi-yj, zi-zj
			if dx*dx+dy*dy+dz*dz < cutsq {
				want[int32(j)] = true
			}
		}

		got := make(map[int32]bool)
		for _, enc := range list.Firstneigh[i] {
			j, _ := Decode(enc)
			got[j] = true
		}

		if len(got) != len(want) {
			t.Errorf("atom %d: expected %d neighbors, got %d", i, len(want), len(got))
		}
		for j := range want {
			if !got[j] {
				t.Errorf("atom %d: missing neighbor %d", i, j)
			}
		}
	}
}

func TestBuildFullListSymmetry(t *testing.T) {
	s := randomSet(50, 5.0, 11)
	b := Builder{Cutoff: 1.8}
	list := b.Build(s)

	// Full lists: if j is in i's row, i is in j's row.
	for i := 0; i < s.N; i++ {
		for _, enc := range list.Firstneigh[i] {
			j, _ := Decode(enc)
			found := false
			for _, enc2 := range list.Firstneigh[j] {
				k, _ := Decode(enc2)
				if int(k) == i {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("pair (%d,%d) present in one direction only", i, j)
			}
		}
	}
}

func TestBuildSpecialTagging(t *testing.T) {
	s := atom.New(2)
	s.SetPos(0, 0, 0, 0)
	s.SetPos(1, 1, 0, 0)
	s.Type[0], s.Type[1] = 1, 1
	s.Tag[0], s.Tag[1] = 1, 2

	b := Builder{
		Cutoff: 2.0,
		Special: func(ti, tj int64) int {
			if ti == 1 && tj == 2 || ti == 2 && tj == 1 {
				return 3
			}
			return 0
		},
	}
	list := b.Build(s)

	if len(list.Firstneigh[0]) != 1 {
		t.Fatalf("expected 1 neighbor, got %d", len(list.Firstneigh[0]))
	}
	j, sb := Decode(list.Firstneigh[0][0])
	if j != 1 || sb != 3 {
		t.Errorf("expected (1,3), got (%d,%d)", j, sb)
	}
}

func TestBuildSkinExtendsRadius(t *testing.T) {
	s := atom.New(2)
	s.SetPos(0, 0, 0, 0)
	s.SetPos(1, 1.1, 0, 0)
	s.Type[0], s.Type[1] = 1, 1
	s.Tag[0], s.Tag[1] = 1, 2

	tight := Builder{Cutoff: 1.0}
	if got := len(tight.Build(s).Firstneigh[0]); got != 0 {
		t.Errorf("expected no neighbors without skin, got %d", got)
	}

	skinned := Builder{Cutoff: 1.0, Skin: 0.3}
	if got := len(skinned.Build(s).Firstneigh[0]); got != 1 {
		t.Errorf("expected neighbor inside skin radius, got %d", got)
	}
}

func TestGhostsAppearAsNeighbors(t *testing.T) {
	s := atom.New(1)
	s.SetPos(0, 0, 0, 0)
	s.Type[0] = 1
	s.Tag[0] = 1
	s.AddGhost(0, 1.0, 0, 0)

	b := Builder{Cutoff: 1.5}
	list := b.Build(s)

	if list.Inum != 1 {
		t.Fatalf("ghosts must not get their own rows, inum=%d", list.Inum)
	}
	if len(list.Firstneigh[0]) != 1 {
		t.Errorf("expected ghost as neighbor, got %d entries", len(list.Firstneigh[0]))
	}
}
