package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mdsim/internal/pair"
)

const (
	DefaultAtoms   = 500
	DefaultDensity = 0.8
	DefaultDt      = 0.005
	DefaultSteps   = 1000
	DefaultSkin    = 0.3
	DefaultEvery   = 10
	DefaultThermo  = 50
	DefaultTemp    = 1.0
	DefaultCutLJ   = 2.5
	DefaultCutCoul = 5.0
	DefaultKappa   = 0.5
)

type Config struct {
	System SystemConfig `yaml:"system"`
	Pair   PairConfig   `yaml:"pair"`
	Device DeviceConfig `yaml:"device"`
	Run    RunConfig    `yaml:"run"`
}

type SystemConfig struct {
	Atoms     int     `yaml:"atoms"`
	Types     int     `yaml:"types"`
	Density   float64 `yaml:"density"`
	Charge    float64 `yaml:"charge"` // alternating +/- when types == 2
	Mass      float64 `yaml:"mass"`
	Triclinic bool    `yaml:"triclinic"`
	Tilt      float64 `yaml:"tilt"`
}

type PairCoeff struct {
	I       int     `yaml:"i"`
	J       int     `yaml:"j"`
	Epsilon float64 `yaml:"epsilon"`
	Sigma   float64 `yaml:"sigma"`
	CutLJ   float64 `yaml:"cut_lj"`
	CutCoul float64 `yaml:"cut_coul"`
}

type PairConfig struct {
	Kappa       float64     `yaml:"kappa"`
	QQRd2e      float64     `yaml:"qqrd2e"`
	CutLJ       float64     `yaml:"cut_lj"`
	CutCoul     float64     `yaml:"cut_coul"`
	Shift       bool        `yaml:"shift"`
	SpecialLJ   [4]float64  `yaml:"special_lj"`
	SpecialCoul [4]float64  `yaml:"special_coul"`
	Coeffs      []PairCoeff `yaml:"coeffs"`
}

type DeviceConfig struct {
	Backend string  `yaml:"backend"` // auto, cpu, cuda, opengl
	Mode    string  `yaml:"mode"`    // force, neigh
	Split   float64 `yaml:"split"`   // device work fraction (cpu/opengl)
}

type RunConfig struct {
	Steps      int     `yaml:"steps"`
	Dt         float64 `yaml:"dt"`
	Skin       float64 `yaml:"skin"`
	Every      int     `yaml:"every"`  // reneighbor cadence
	Thermo     int     `yaml:"thermo"` // thermo sample cadence
	Temp       float64 `yaml:"temp"`   // initial temperature
	Seed       int64   `yaml:"seed"`
	NewtonPair bool    `yaml:"newton_pair"`
}

func DefaultConfig() *Config {
	return &Config{
		System: SystemConfig{
			Atoms:   DefaultAtoms,
			Types:   1,
			Density: DefaultDensity,
			Mass:    1.0,
		},
		Pair: PairConfig{
			Kappa:   DefaultKappa,
			QQRd2e:  1.0,
			CutLJ:   DefaultCutLJ,
			CutCoul: DefaultCutCoul,
			Coeffs: []PairCoeff{
				{I: 1, J: 1, Epsilon: 1.0, Sigma: 1.0},
			},
		},
		Device: DeviceConfig{
			Backend: "auto",
			Mode:    "force",
			Split:   1.0,
		},
		Run: RunConfig{
			Steps:  DefaultSteps,
			Dt:     DefaultDt,
			Skin:   DefaultSkin,
			Every:  DefaultEvery,
			Thermo: DefaultThermo,
			Temp:   DefaultTemp,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// PairParams converts the pair section into table-build inputs.
func (c *Config) PairParams() pair.Params {
	return pair.Params{
		NTypes:      c.System.Types,
		Kappa:       c.Pair.Kappa,
		QQRd2e:      c.Pair.QQRd2e,
		CutLJ:       c.Pair.CutLJ,
		CutCoul:     c.Pair.CutCoul,
		Shift:       c.Pair.Shift,
		SpecialLJ:   c.Pair.SpecialLJ,
		SpecialCoul: c.Pair.SpecialCoul,
	}
}

// PairCoeffs converts the coefficient entries.
func (c *Config) PairCoeffs() []pair.Coeff {
	out := make([]pair.Coeff, len(c.Pair.Coeffs))
	for i, pc := range c.Pair.Coeffs {
		out[i] = pair.Coeff{
			I: pc.I, J: pc.J,
			Epsilon: pc.Epsilon, Sigma: pc.Sigma,
			CutLJ: pc.CutLJ, CutCoul: pc.CutCoul,
		}
	}
	return out
}

// DispatchMode parses the device mode string.
func (c *Config) DispatchMode() (pair.Mode, error) {
	switch c.Device.Mode {
	case "", "force":
		return pair.ModeForce, nil
	case "neigh":
		return pair.ModeForceNeigh, nil
	default:
		return 0, fmt.Errorf("config: unknown dispatch mode %q", c.Device.Mode)
	}
}
