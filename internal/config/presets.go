package config

// Presets are ready-to-run systems. Each starts from DefaultConfig so
// unmentioned fields keep their defaults. Composite presets build on the
// named base functions rather than the map, which must not refer to
// itself during initialization.
var Presets = map[string]func(*Config){
	"melt":           meltPreset,
	"salt":           saltPreset,
	"salt_triclinic": saltTriclinicPreset,
	"cpu":            cpuPreset,
	"split":          splitPreset,
}

// meltPreset is a neutral Lennard-Jones melt; charges present but zero,
// so the Coulomb window contributes nothing.
func meltPreset(c *Config) {
	c.System.Atoms = 500
	c.System.Density = 0.8442
	c.Run.Temp = 1.44
	c.Pair.CutCoul = DefaultCutLJ
}

// saltPreset is a screened binary electrolyte, alternating +/- charges.
func saltPreset(c *Config) {
	c.System.Atoms = 512
	c.System.Types = 2
	c.System.Charge = 1.0
	c.System.Density = 0.5
	c.Pair.Kappa = 0.8
	c.Pair.Coeffs = []PairCoeff{
		{I: 1, J: 1, Epsilon: 1.0, Sigma: 1.0},
		{I: 2, J: 2, Epsilon: 1.0, Sigma: 1.0},
	}
}

// saltTriclinicPreset is salt in a sheared (triclinic) cell.
func saltTriclinicPreset(c *Config) {
	saltPreset(c)
	c.System.Triclinic = true
	c.System.Tilt = 0.2
	c.Device.Mode = "neigh"
}

// cpuPreset runs everything on the host fallback path; reference for
// split runs.
func cpuPreset(c *Config) {
	meltPreset(c)
	c.Device.Backend = "cpu"
	c.Device.Split = 0.0
}

// splitPreset runs half on the device, half on the host fallback.
func splitPreset(c *Config) {
	meltPreset(c)
	c.Device.Backend = "cpu"
	c.Device.Split = 0.5
}

// GetPreset returns a config for a named preset, nil when unknown.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	fn(cfg)
	return cfg
}

// ListPresets returns the preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
