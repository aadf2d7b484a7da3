package sim

// Sample is one thermodynamic observation of the running system.
type Sample struct {
	Step    int
	Time    float64
	Temp    float64
	Evdwl   float64
	Ecoul   float64
	Kinetic float64
	Press   float64
	Natoms  int
	Volume  float64
}

// Etotal returns kinetic plus pair potential energy.
func (s Sample) Etotal() float64 {
	return s.Kinetic + s.Evdwl + s.Ecoul
}

// Metric observes thermo samples and reduces them to one value.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Observer receives every thermo sample as it is produced.
type Observer interface {
	OnSample(s Sample)
}

// Result collects the thermo series of one run.
type Result struct {
	Steps   []int
	Times   []float64
	Temp    []float64
	Evdwl   []float64
	Ecoul   []float64
	Etotal  []float64
	Press   []float64
	Metrics map[string]float64

	StepsTaken  int
	FallbackSec float64 // total host-fallback kernel time
}
