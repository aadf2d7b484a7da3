package config

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/san-kum/mdsim/internal/pair"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.System.Atoms != DefaultAtoms {
		t.Errorf("expected %d atoms, got %d", DefaultAtoms, cfg.System.Atoms)
	}
	if cfg.Pair.CutLJ != DefaultCutLJ || cfg.Pair.CutCoul != DefaultCutCoul {
		t.Errorf("unexpected default cutoffs: %g %g", cfg.Pair.CutLJ, cfg.Pair.CutCoul)
	}
	if cfg.Device.Backend != "auto" || cfg.Device.Split != 1.0 {
		t.Errorf("unexpected device defaults: %q %g", cfg.Device.Backend, cfg.Device.Split)
	}
	if len(cfg.Pair.Coeffs) != 1 {
		t.Fatalf("expected one default coeff entry, got %d", len(cfg.Pair.Coeffs))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.System.Atoms = 123
	cfg.System.Triclinic = true
	cfg.Pair.Kappa = 1.25
	cfg.Device.Mode = "neigh"
	cfg.Run.Seed = 99

	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.System.Atoms != 123 || !got.System.Triclinic {
		t.Errorf("system section lost: %+v", got.System)
	}
	if got.Pair.Kappa != 1.25 {
		t.Errorf("expected kappa 1.25, got %g", got.Pair.Kappa)
	}
	if got.Device.Mode != "neigh" || got.Run.Seed != 99 {
		t.Errorf("device/run sections lost: %+v %+v", got.Device, got.Run)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	partial := "system:\n  atoms: 64\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.System.Atoms != 64 {
		t.Errorf("expected atoms 64, got %d", got.System.Atoms)
	}
	if got.Run.Steps != DefaultSteps || got.Pair.Kappa != DefaultKappa {
		t.Errorf("unset fields should keep defaults: steps=%d kappa=%g", got.Run.Steps, got.Pair.Kappa)
	}
}

func TestPairParamsConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.System.Types = 2
	cfg.Pair.Shift = true
	cfg.Pair.SpecialLJ = [4]float64{0, 0, 0.5, 1}

	p := cfg.PairParams()
	if p.NTypes != 2 || !p.Shift {
		t.Errorf("unexpected params: %+v", p)
	}
	if p.SpecialLJ[2] != 0.5 {
		t.Errorf("expected special_lj[2]=0.5, got %g", p.SpecialLJ[2])
	}

	cfg.Pair.Coeffs = []PairCoeff{{I: 1, J: 2, Epsilon: 2, Sigma: 1.5, CutLJ: 3}}
	coeffs := cfg.PairCoeffs()
	if len(coeffs) != 1 {
		t.Fatalf("expected 1 coeff, got %d", len(coeffs))
	}
	want := pair.Coeff{I: 1, J: 2, Epsilon: 2, Sigma: 1.5, CutLJ: 3}
	if coeffs[0] != want {
		t.Errorf("expected %+v, got %+v", want, coeffs[0])
	}
}

func TestDispatchMode(t *testing.T) {
	cfg := DefaultConfig()

	m, err := cfg.DispatchMode()
	if err != nil || m != pair.ModeForce {
		t.Errorf("expected force mode, got %v %v", m, err)
	}

	cfg.Device.Mode = "neigh"
	m, err = cfg.DispatchMode()
	if err != nil || m != pair.ModeForceNeigh {
		t.Errorf("expected neigh mode, got %v %v", m, err)
	}

	cfg.Device.Mode = "hybrid"
	if _, err := cfg.DispatchMode(); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	sort.Strings(names)
	want := []string{"cpu", "melt", "salt", "salt_triclinic", "split"}
	if len(names) != len(want) {
		t.Fatalf("expected %d presets, got %v", len(want), names)
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("expected preset %q, got %q", n, names[i])
		}
	}

	if GetPreset("nope") != nil {
		t.Error("unknown preset should return nil")
	}

	salt := GetPreset("salt")
	if salt.System.Types != 2 || salt.System.Charge != 1.0 {
		t.Errorf("salt preset: %+v", salt.System)
	}
	if len(salt.Pair.Coeffs) != 2 {
		t.Errorf("salt preset should set both diagonals, got %d coeffs", len(salt.Pair.Coeffs))
	}

	tri := GetPreset("salt_triclinic")
	if !tri.System.Triclinic || tri.Device.Mode != "neigh" {
		t.Errorf("salt_triclinic preset: %+v %+v", tri.System, tri.Device)
	}

	cpu := GetPreset("cpu")
	if cpu.Device.Backend != "cpu" || cpu.Device.Split != 0 {
		t.Errorf("cpu preset: %+v", cpu.Device)
	}
}

func TestCompositePresetsInheritBase(t *testing.T) {
	// Composite presets layer on their base preset's settings.
	melt := GetPreset("melt")
	for _, name := range []string{"cpu", "split"} {
		p := GetPreset(name)
		if p.System.Atoms != melt.System.Atoms || p.System.Density != melt.System.Density {
			t.Errorf("%s preset should inherit melt system: %+v", name, p.System)
		}
		if p.Run.Temp != melt.Run.Temp {
			t.Errorf("%s preset should inherit melt temp, got %g", name, p.Run.Temp)
		}
	}

	split := GetPreset("split")
	if split.Device.Split != 0.5 {
		t.Errorf("split preset: expected split 0.5, got %g", split.Device.Split)
	}

	salt := GetPreset("salt")
	tri := GetPreset("salt_triclinic")
	if tri.System.Types != salt.System.Types || tri.Pair.Kappa != salt.Pair.Kappa {
		t.Errorf("salt_triclinic should inherit salt: %+v %+v", tri.System, tri.Pair)
	}
}
