package metrics

import "github.com/san-kum/mdsim/internal/sim"

// Temperature averages the instantaneous temperature over a run.
type Temperature struct {
	name    string
	total   float64
	samples int
}

func NewTemperature() *Temperature {
	return &Temperature{name: "temperature"}
}

func (t *Temperature) Name() string { return t.name }

func (t *Temperature) Observe(s sim.Sample) {
	t.total += s.Temp
	t.samples++
}

func (t *Temperature) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.total / float64(t.samples)
}

func (t *Temperature) Reset() {
	t.total = 0
	t.samples = 0
}

// Pressure averages the virial pressure over a run.
type Pressure struct {
	name    string
	total   float64
	samples int
}

func NewPressure() *Pressure {
	return &Pressure{name: "pressure"}
}

func (p *Pressure) Name() string { return p.name }

func (p *Pressure) Observe(s sim.Sample) {
	p.total += s.Press
	p.samples++
}

func (p *Pressure) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.total / float64(p.samples)
}

func (p *Pressure) Reset() {
	p.total = 0
	p.samples = 0
}
