package storage

import (
	"math"
	"testing"

	"github.com/san-kum/mdsim/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Steps:      []int{0, 10, 20},
		Times:      []float64{0, 0.05, 0.1},
		Temp:       []float64{1.44, 1.38, 1.31},
		Evdwl:      []float64{-6.1, -6.0, -5.9},
		Ecoul:      []float64{0.2, 0.21, 0.22},
		Etotal:     []float64{-3.7, -3.7, -3.69},
		Press:      []float64{4.2, 4.1, 4.0},
		Metrics:    map[string]float64{"temperature": 1.37},
		StepsTaken: 20,
	}
}

func TestSaveLoad(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	meta := RunMetadata{
		Preset:  "melt",
		Atoms:   500,
		Dt:      0.005,
		Backend: "cpu",
		Mode:    "force",
		Split:   0.5,
		Seed:    42,
	}

	runID, err := store.Save(meta, sampleResult())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if runID == "" {
		t.Fatal("expected nonempty run ID")
	}

	loaded, err := store.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ID != runID || loaded.Preset != "melt" {
		t.Errorf("metadata mismatch: %+v", loaded)
	}
	if loaded.Steps != 20 {
		t.Errorf("expected steps from result, got %d", loaded.Steps)
	}
	if loaded.Metrics["temperature"] != 1.37 {
		t.Errorf("metrics not persisted: %v", loaded.Metrics)
	}
}

func TestList(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatalf("list empty store: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	if _, err := store.Save(RunMetadata{Preset: "melt"}, sampleResult()); err != nil {
		t.Fatalf("save: %v", err)
	}

	runs, err = store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
}

func TestListMissingDir(t *testing.T) {
	store := New("/nonexistent/mdsim-test")
	runs, err := store.List()
	if err != nil {
		t.Fatalf("missing base dir should not error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestLoadThermo(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	result := sampleResult()
	runID, err := store.Save(RunMetadata{Preset: "melt"}, result)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	th, err := store.LoadThermo(runID)
	if err != nil {
		t.Fatalf("load thermo: %v", err)
	}

	if len(th.Steps) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(th.Steps))
	}
	if th.Steps[2] != 20 {
		t.Errorf("expected final step 20, got %d", th.Steps[2])
	}
	for _, col := range []string{"time", "temp", "evdwl", "ecoul", "etotal", "press"} {
		if len(th.Series[col]) != 3 {
			t.Errorf("column %q: expected 3 values, got %d", col, len(th.Series[col]))
		}
	}
	if math.Abs(th.Series["temp"][0]-1.44) > 1e-6 {
		t.Errorf("expected temp 1.44, got %g", th.Series["temp"][0])
	}
}
