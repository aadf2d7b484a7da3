package pair

import (
	"errors"
	"testing"

	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/neighbor"
)

// fakeBackend scripts backend responses for dispatcher tests.
type fakeBackend struct {
	initErr   error
	hostStart int
	ok        bool

	initCalls    int
	computeCalls int
	lastCPUTime  float64
	cleaned      bool
}

func (f *fakeBackend) Name() string    { return "fake" }
func (f *fakeBackend) Available() bool { return true }
func (f *fakeBackend) Cleanup()        { f.cleaned = true }
func (f *fakeBackend) Bytes() int64    { return 1024 }

func (f *fakeBackend) Init(args InitArgs) error {
	f.initCalls++
	return f.initErr
}

func (f *fakeBackend) Compute(args ComputeArgs, list *neighbor.List) (int, bool) {
	f.computeCalls++
	f.lastCPUTime = args.CPUTime
	return f.hostStart, f.ok
}

func (f *fakeBackend) ComputeNeigh(args ComputeArgs) (*neighbor.List, int, bool) {
	f.computeCalls++
	f.lastCPUTime = args.CPUTime
	b := neighbor.Builder{Cutoff: 10}
	return b.Build(args.Atoms), f.hostStart, f.ok
}

func TestSetupRejectsMissingCharge(t *testing.T) {
	s, _ := pairSystem(t, 1.5)
	s.Q = nil

	style := NewStyle(debyeTable(t), &fakeBackend{ok: true}, ModeForce)
	err := style.Setup(s, 0.3, false)
	if !errors.Is(err, md.ErrMissingCharge) {
		t.Errorf("expected ErrMissingCharge, got %v", err)
	}
}

func TestSetupRejectsNewtonPair(t *testing.T) {
	s, _ := pairSystem(t, 1.5)

	style := NewStyle(debyeTable(t), &fakeBackend{ok: true}, ModeForce)
	err := style.Setup(s, 0.3, true)
	if !errors.Is(err, md.ErrNewtonPair) {
		t.Errorf("expected ErrNewtonPair, got %v", err)
	}
}

func TestSetupReportsInitFailure(t *testing.T) {
	s, _ := pairSystem(t, 1.5)

	backend := &fakeBackend{initErr: errors.New("out of device memory")}
	style := NewStyle(debyeTable(t), backend, ModeForce)
	err := style.Setup(s, 0.3, false)
	if err == nil {
		t.Fatal("expected setup error")
	}

	var devErr *md.DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected DeviceError, got %T", err)
	}
	if devErr.Op != "init" {
		t.Errorf("expected init op, got %q", devErr.Op)
	}
}

func TestComputeBeforeSetup(t *testing.T) {
	s, list := pairSystem(t, 1.5)

	style := NewStyle(debyeTable(t), &fakeBackend{ok: true}, ModeForce)
	acc := NewAccumulator(2)
	err := style.Compute(acc, s, md.NewCubic(20), list, 0, md.Flags{}, md.Flags{})
	if !errors.Is(err, md.ErrNotSetup) {
		t.Errorf("expected ErrNotSetup, got %v", err)
	}
}

func TestDeviceFailureIsFatal(t *testing.T) {
	s, list := pairSystem(t, 1.5)

	style := NewStyle(debyeTable(t), &fakeBackend{hostStart: 0, ok: false}, ModeForce)
	if err := style.Setup(s, 0.3, false); err != nil {
		t.Fatalf("setup: %v", err)
	}

	acc := NewAccumulator(2)
	err := style.Compute(acc, s, md.NewCubic(20), list, 0, md.Flags{}, md.Flags{})
	if !errors.Is(err, md.ErrDeviceMemory) {
		t.Errorf("expected ErrDeviceMemory, got %v", err)
	}
}

func TestHostFallbackCoversRemainder(t *testing.T) {
	s, list := pairSystem(t, 1.5)

	// Device claims nothing; the host kernel must produce the full result.
	backend := &fakeBackend{hostStart: 0, ok: true}
	style := NewStyle(debyeTable(t), backend, ModeForce)
	if err := style.Setup(s, 0.3, false); err != nil {
		t.Fatalf("setup: %v", err)
	}

	acc := NewAccumulator(2)
	eflag := md.Flags{Global: true}
	if err := style.Compute(acc, s, md.NewCubic(20), list, 0, eflag, md.Flags{}); err != nil {
		t.Fatalf("compute: %v", err)
	}

	want := NewAccumulator(2)
	want.Prepare(2, eflag, md.Flags{})
	ComputeRange(0, 2, list, s, debyeTable(t), want)

	for i := range want.F {
		if acc.F[i] != want.F[i] {
			t.Errorf("force[%d]: expected %v, got %v", i, want.F[i], acc.F[i])
		}
	}
	if acc.Evdwl != want.Evdwl || acc.Ecoul != want.Ecoul {
		t.Errorf("energies differ: got (%v,%v), want (%v,%v)", acc.Evdwl, acc.Ecoul, want.Evdwl, want.Ecoul)
	}

	if style.CPUTime() <= 0 {
		t.Error("expected host fallback time to be recorded")
	}
}

func TestNoFallbackWhenDeviceTakesAll(t *testing.T) {
	s, list := pairSystem(t, 1.5)

	backend := &fakeBackend{hostStart: 2, ok: true}
	style := NewStyle(debyeTable(t), backend, ModeForce)
	if err := style.Setup(s, 0.3, false); err != nil {
		t.Fatalf("setup: %v", err)
	}

	acc := NewAccumulator(2)
	if err := style.Compute(acc, s, md.NewCubic(20), list, 0, md.Flags{}, md.Flags{}); err != nil {
		t.Fatalf("compute: %v", err)
	}

	// The fake adds nothing and the fallback range is empty.
	for i, f := range acc.F {
		if f != 0 {
			t.Errorf("force[%d]: expected zero, got %v", i, f)
		}
	}
	if style.CPUTime() != 0 {
		t.Errorf("expected zero fallback time, got %v", style.CPUTime())
	}
}

func TestCPUTimeHintFeedsNextCall(t *testing.T) {
	s, list := pairSystem(t, 1.5)

	backend := &fakeBackend{hostStart: 0, ok: true}
	style := NewStyle(debyeTable(t), backend, ModeForce)
	if err := style.Setup(s, 0.3, false); err != nil {
		t.Fatalf("setup: %v", err)
	}

	acc := NewAccumulator(2)
	if err := style.Compute(acc, s, md.NewCubic(20), list, 0, md.Flags{}, md.Flags{}); err != nil {
		t.Fatalf("first compute: %v", err)
	}
	if backend.lastCPUTime != 0 {
		t.Errorf("first call should carry zero hint, got %v", backend.lastCPUTime)
	}

	if err := style.Compute(acc, s, md.NewCubic(20), list, 1, md.Flags{}, md.Flags{}); err != nil {
		t.Fatalf("second compute: %v", err)
	}
	if backend.lastCPUTime <= 0 {
		t.Error("expected second call to carry the fallback time of the first")
	}
}

func TestCloseTearsDownBackend(t *testing.T) {
	backend := &fakeBackend{ok: true}
	style := NewStyle(debyeTable(t), backend, ModeForce)

	if style.Bytes() != 1024 {
		t.Errorf("expected bytes passthrough, got %d", style.Bytes())
	}

	style.Close()
	if !backend.cleaned {
		t.Error("expected backend cleanup on close")
	}

	s, list := pairSystem(t, 1.5)
	acc := NewAccumulator(2)
	err := style.Compute(acc, s, md.NewCubic(20), list, 0, md.Flags{}, md.Flags{})
	if !errors.Is(err, md.ErrNotSetup) {
		t.Errorf("expected ErrNotSetup after close, got %v", err)
	}
}
