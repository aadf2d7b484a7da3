package pair_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mdsim/internal/atom"
	"github.com/san-kum/mdsim/internal/compute"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/pair"
)

// jittered 4x4x4 lattice of alternating charges, dense enough that
// every atom has neighbors in both cutoff windows.
func clusterSystem(seed int64) *atom.Set {
	rng := rand.New(rand.NewSource(seed))
	s := atom.New(64)

	i := 0
	for iz := 0; iz < 4; iz++ {
		for iy := 0; iy < 4; iy++ {
			for ix := 0; ix < 4; ix++ {
				s.SetPos(i,
					1.2*float64(ix)+0.3*(rng.Float64()-0.5),
					1.2*float64(iy)+0.3*(rng.Float64()-0.5),
					1.2*float64(iz)+0.3*(rng.Float64()-0.5))
				s.Type[i] = 1
				s.Tag[i] = int64(i + 1)
				if (ix+iy+iz)%2 == 0 {
					s.Q[i] = 1.0
				} else {
					s.Q[i] = -1.0
				}
				i++
			}
		}
	}
	return s
}

var _ = Describe("split-range dispatch", func() {
	var (
		s     *atom.Set
		list  *neighbor.List
		table *pair.Table
		box   *md.Box
		eflag md.Flags
		vflag md.Flags
	)

	BeforeEach(func() {
		var err error
		table, err = pair.Build(pair.Params{
			NTypes:  1,
			Kappa:   0.5,
			QQRd2e:  1.0,
			CutLJ:   2.5,
			CutCoul: 4.0,
		}, []pair.Coeff{{I: 1, J: 1, Epsilon: 1.0, Sigma: 1.0}})
		Expect(err).NotTo(HaveOccurred())

		s = clusterSystem(42)
		b := neighbor.Builder{Cutoff: table.MaxCut}
		list = b.Build(s)
		box = md.NewCubic(50)

		eflag = md.Flags{Global: true}
		vflag = md.Flags{Global: true}
	})

	reference := func() *pair.Accumulator {
		acc := pair.NewAccumulator(s.Nall())
		acc.Prepare(s.Nall(), eflag, vflag)
		pair.ComputeRange(0, list.Inum, list, s, table, acc)
		return acc
	}

	runSplit := func(split float64, mode pair.Mode) *pair.Accumulator {
		style := pair.NewStyle(table, compute.NewCPUBackend(split), mode)
		Expect(style.Setup(s, 0.0, false)).To(Succeed())
		defer style.Close()

		acc := pair.NewAccumulator(s.Nall())
		Expect(style.Compute(acc, s, box, list, 0, eflag, vflag)).To(Succeed())
		return acc
	}

	It("produces identical forces for any work split", func() {
		ref := reference()

		for _, split := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
			acc := runSplit(split, pair.ModeForce)

			for i := range ref.F {
				Expect(acc.F[i]).To(BeNumerically("~", ref.F[i], 1e-12),
					"force component %d at split %v", i, split)
			}
		}
	})

	It("tallies each pair's energy and virial exactly once for any split", func() {
		ref := reference()

		for _, split := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
			acc := runSplit(split, pair.ModeForce)

			Expect(acc.Evdwl).To(BeNumerically("~", ref.Evdwl, 1e-9))
			Expect(acc.Ecoul).To(BeNumerically("~", ref.Ecoul, 1e-9))
			for k := 0; k < 6; k++ {
				Expect(acc.Virial[k]).To(BeNumerically("~", ref.Virial[k], 1e-9))
			}
		}
	})

	It("matches the host reference when the backend builds its own list", func() {
		ref := reference()
		acc := runSplit(0.5, pair.ModeForceNeigh)

		for i := range ref.F {
			Expect(acc.F[i]).To(BeNumerically("~", ref.F[i], 1e-12))
		}
		Expect(acc.Evdwl).To(BeNumerically("~", ref.Evdwl, 1e-9))
		Expect(acc.Ecoul).To(BeNumerically("~", ref.Ecoul, 1e-9))
	})

	It("sums ordered visits into pairwise-antisymmetric forces", func() {
		acc := reference()

		// The cluster is isolated, so total force must vanish.
		var fx, fy, fz float64
		for i := 0; i < s.N; i++ {
			fx += acc.F[3*i]
			fy += acc.F[3*i+1]
			fz += acc.F[3*i+2]
		}
		Expect(fx).To(BeNumerically("~", 0.0, 1e-10))
		Expect(fy).To(BeNumerically("~", 0.0, 1e-10))
		Expect(fz).To(BeNumerically("~", 0.0, 1e-10))
	})
})
