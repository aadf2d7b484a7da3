// Package storage persists run results as a per-run directory holding
// metadata.json and a thermo.csv time series.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/mdsim/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	Atoms     int                `json:"atoms"`
	Steps     int                `json:"steps"`
	Dt        float64            `json:"dt"`
	Backend   string             `json:"backend"`
	Mode      string             `json:"mode"`
	Split     float64            `json:"split"`
	Seed      int64              `json:"seed"`
	Metrics   map[string]float64 `json:"metrics"`
}

var thermoHeader = []string{"step", "time", "temp", "evdwl", "ecoul", "etotal", "press"}

// Save writes a run directory and returns its ID.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Preset, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Steps = result.StepsTaken
	meta.Metrics = result.Metrics

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "thermo.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(thermoHeader); err != nil {
		return "", err
	}

	for i := range result.Steps {
		row := []string{
			strconv.Itoa(result.Steps[i]),
			strconv.FormatFloat(result.Times[i], 'f', 6, 64),
			strconv.FormatFloat(result.Temp[i], 'f', 6, 64),
			strconv.FormatFloat(result.Evdwl[i], 'f', 6, 64),
			strconv.FormatFloat(result.Ecoul[i], 'f', 6, 64),
			strconv.FormatFloat(result.Etotal[i], 'f', 6, 64),
			strconv.FormatFloat(result.Press[i], 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Thermo is a loaded thermo series, one slice per column.
type Thermo struct {
	Steps  []int
	Series map[string][]float64
}

// LoadThermo reads a run's thermo.csv back into column series.
func (s *Store) LoadThermo(runID string) (*Thermo, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "thermo.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("storage: empty thermo file for %s", runID)
	}

	header := records[0]
	th := &Thermo{Series: make(map[string][]float64)}

	for _, record := range records[1:] {
		if len(record) != len(header) {
			continue
		}
		step, err := strconv.Atoi(record[0])
		if err != nil {
			continue
		}
		th.Steps = append(th.Steps, step)
		for j := 1; j < len(record); j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			th.Series[header[j]] = append(th.Series[header[j]], v)
		}
	}

	return th, nil
}
