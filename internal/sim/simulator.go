package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/mdsim/internal/atom"
	"github.com/san-kum/mdsim/internal/compute"
	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/pair"
)

// Simulator runs velocity-Verlet dynamics with the pair style supplying
// forces. It owns the periodic ghost images and the reneighboring
// cadence; the pair style owns the device/host work split.
type Simulator struct {
	cfg   *config.Config
	atoms *atom.Set
	box   *md.Box
	style *pair.Style
	acc   *pair.Accumulator
	mode  pair.Mode

	builder neighbor.Builder
	list    *neighbor.List
	ago     int

	vel  []float64
	mass float64

	shifts     [][3]float64
	ghostShift []int

	metrics   []Metric
	observers []Observer
}

// New assembles a simulator from a config: parameter table, backend,
// lattice system and neighbor builder.
func New(cfg *config.Config) (*Simulator, error) {
	table, err := pair.Build(cfg.PairParams(), cfg.PairCoeffs())
	if err != nil {
		return nil, err
	}

	mode, err := cfg.DispatchMode()
	if err != nil {
		return nil, err
	}

	backend, err := compute.Select(cfg.Device.Backend, cfg.Device.Split)
	if err != nil {
		return nil, err
	}

	seed := cfg.Run.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	atoms, box, vel := buildSystem(cfg, rng)

	s := &Simulator{
		cfg:   cfg,
		atoms: atoms,
		box:   box,
		style: pair.NewStyle(table, backend, mode),
		acc:   pair.NewAccumulator(atoms.Nall()),
		mode:  mode,
		builder: neighbor.Builder{
			Cutoff: table.MaxCut,
			Skin:   cfg.Run.Skin,
		},
		vel:    vel,
		mass:   cfg.System.Mass,
		shifts: ghostShifts(box),
	}
	return s, nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Style exposes the pair style for memory queries.
func (s *Simulator) Style() *pair.Style { return s.style }

// Atoms exposes the particle set (read-only use expected).
func (s *Simulator) Atoms() *atom.Set { return s.atoms }

// Close releases the compute backend.
func (s *Simulator) Close() { s.style.Close() }

// Run advances the system cfg.Run.Steps steps. Any pair-style error is
// fatal and aborts the run immediately.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	cfg := s.cfg.Run

	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("sim: dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Steps < 0 {
		return nil, fmt.Errorf("sim: steps must be non-negative, got %d", cfg.Steps)
	}

	s.reneighbor()
	if err := s.style.Setup(s.atoms, cfg.Skin, cfg.NewtonPair); err != nil {
		return nil, err
	}

	result := &Result{Metrics: make(map[string]float64)}
	for _, m := range s.metrics {
		m.Reset()
	}

	flags := md.Flags{Global: true}
	if err := s.computeForces(flags, flags); err != nil {
		return nil, err
	}
	result.FallbackSec += s.style.CPUTime()
	s.sample(result, 0)

	dtm := cfg.Dt / s.mass
	for step := 1; step <= cfg.Steps; step++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		s.kick(0.5 * dtm)
		s.drift(cfg.Dt)

		if cfg.Every > 0 && step%cfg.Every == 0 {
			s.reneighbor()
		} else {
			s.ago++
			s.refreshGhosts()
		}

		thermo := cfg.Thermo > 0 && (step%cfg.Thermo == 0 || step == cfg.Steps)
		var want md.Flags
		if thermo {
			want = md.Flags{Global: true}
		}
		if err := s.computeForces(want, want); err != nil {
			return result, err
		}
		result.FallbackSec += s.style.CPUTime()

		s.kick(0.5 * dtm)
		result.StepsTaken = step

		if thermo {
			s.sample(result, step)
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func (s *Simulator) computeForces(eflag, vflag md.Flags) error {
	s.acc.Resize(s.atoms.Nall())
	s.acc.ZeroForces()
	return s.style.Compute(s.acc, s.atoms, s.box, s.list, s.ago, eflag, vflag)
}

func (s *Simulator) kick(dtm float64) {
	f := s.acc.F
	for i := 0; i < 3*s.atoms.N; i++ {
		s.vel[i] += dtm * f[i]
	}
}

func (s *Simulator) drift(dt float64) {
	for i := 0; i < 3*s.atoms.N; i++ {
		s.atoms.X[i] += dt * s.vel[i]
	}
}

// reneighbor rewraps local atoms, rebuilds ghost images and, unless the
// backend builds its own lists, the host neighbor list. Resets ago.
func (s *Simulator) reneighbor() {
	if !s.box.Triclinic {
		for i := 0; i < s.atoms.N; i++ {
			x, y, z := s.atoms.Pos(i)
			w := s.box.Wrap([3]float64{x, y, z})
			s.atoms.SetPos(i, w[0], w[1], w[2])
		}
	}

	s.buildGhosts()
	s.ago = 0
	if s.mode == pair.ModeForce {
		s.list = s.builder.Build(s.atoms)
	}
}

// buildGhosts appends periodic images of local atoms falling within one
// neighbor cutoff of the cell bound.
func (s *Simulator) buildGhosts() {
	s.atoms.TrimGhosts()
	s.ghostShift = s.ghostShift[:0]

	cut := s.builder.Cutoff + s.builder.Skin
	var lo, hi [3]float64
	for d := 0; d < 3; d++ {
		lo[d] = s.box.Lo[d] - cut
		hi[d] = s.box.Hi[d] + cut
	}
	// Tilt skews x and y bounds.
	lo[0] -= math.Abs(s.box.Xy) + math.Abs(s.box.Xz)
	hi[0] += math.Abs(s.box.Xy) + math.Abs(s.box.Xz)
	lo[1] -= math.Abs(s.box.Yz)
	hi[1] += math.Abs(s.box.Yz)

	n := s.atoms.N
	for i := 0; i < n; i++ {
		x, y, z := s.atoms.Pos(i)
		for k, sh := range s.shifts {
			gx, gy, gz := x+sh[0], y+sh[1], z+sh[2]
			if gx < lo[0] || gx > hi[0] || gy < lo[1] || gy > hi[1] || gz < lo[2] || gz > hi[2] {
				continue
			}
			s.atoms.AddGhost(i, gx, gy, gz)
			s.ghostShift = append(s.ghostShift, k)
		}
	}
}

// refreshGhosts updates ghost coordinates from their source atoms
// between reneighboring steps.
func (s *Simulator) refreshGhosts() {
	n := s.atoms.N
	g := 0
	for idx := n; idx < s.atoms.Nall(); idx++ {
		src := ghostSource(s.atoms, idx)
		sh := s.shifts[s.ghostShift[g]]
		x, y, z := s.atoms.Pos(src)
		s.atoms.SetPos(idx, x+sh[0], y+sh[1], z+sh[2])
		g++
	}
}

// ghostSource maps a ghost index to its owning local atom via the tag.
func ghostSource(s *atom.Set, ghost int) int {
	return int(s.Tag[ghost] - 1)
}

func (s *Simulator) sample(result *Result, step int) {
	n := s.atoms.N
	ke := 0.0
	for i := 0; i < 3*n; i++ {
		ke += 0.5 * s.mass * s.vel[i] * s.vel[i]
	}
	temp := 0.0
	if n > 0 {
		temp = 2.0 * ke / (3.0 * float64(n))
	}

	vol := s.box.Volume()
	trace := s.acc.Virial[0] + s.acc.Virial[1] + s.acc.Virial[2]
	press := (2.0*ke + trace) / (3.0 * vol)

	smp := Sample{
		Step:    step,
		Time:    float64(step) * s.cfg.Run.Dt,
		Temp:    temp,
		Evdwl:   s.acc.Evdwl,
		Ecoul:   s.acc.Ecoul,
		Kinetic: ke,
		Press:   press,
		Natoms:  n,
		Volume:  vol,
	}

	result.Steps = append(result.Steps, step)
	result.Times = append(result.Times, smp.Time)
	result.Temp = append(result.Temp, temp)
	result.Evdwl = append(result.Evdwl, smp.Evdwl)
	result.Ecoul = append(result.Ecoul, smp.Ecoul)
	result.Etotal = append(result.Etotal, smp.Etotal())
	result.Press = append(result.Press, press)

	for _, m := range s.metrics {
		m.Observe(smp)
	}
	for _, o := range s.observers {
		o.OnSample(smp)
	}
}
