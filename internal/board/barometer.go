package board

import (
	"github.com/joeycumines/go-flightcore/datasource"
	"github.com/joeycumines/go-flightcore/measurement"
	"github.com/joeycumines/go-flightcore/schedule"
)

// Barometer is the pressure sensor driver, polled as a task. It reports not
// ready for the first warmup polls, after power on.
type Barometer struct {
	out         *datasource.Singular[measurement.Pressure]
	pressure    func() measurement.Pressure
	rate        schedule.Rate
	warmup      int
	conversions int
}

var (
	_ schedule.Schedulable = (*Barometer)(nil)
	_ schedule.Namer       = (*Barometer)(nil)
)

// NewBarometer initializes a new Barometer. If pressure is nil, the
// barometer senses the standard sea level pressure.
func NewBarometer(rate schedule.Rate, warmup int, pressure func() measurement.Pressure) *Barometer {
	if pressure == nil {
		pressure = func() measurement.Pressure { return measurement.StandardPressure }
	}
	return &Barometer{
		out:      datasource.NewSingular[measurement.Pressure](),
		pressure: pressure,
		rate:     rate,
		warmup:   warmup,
	}
}

// Pressure returns a new reader, for pressure samples.
func (x *Barometer) Pressure() *datasource.SingularReader[measurement.Pressure] {
	return x.out.Reader()
}

func (x *Barometer) Rate() schedule.Rate { return x.rate }

func (x *Barometer) Name() string { return `baro` }

// Schedule returns false until the warm-up conversions have completed.
func (x *Barometer) Schedule() bool {
	if x.conversions < x.warmup {
		x.conversions++
		return false
	}
	x.out.Write(x.pressure())
	return true
}
