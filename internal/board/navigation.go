package board

import (
	"github.com/joeycumines/go-flightcore/datasource"
	"github.com/joeycumines/go-flightcore/measurement"
	"github.com/joeycumines/go-flightcore/schedule"
)

// Navigation derives altitude, relative to the first pressure sample, and
// vertical speed, along with the heading.
type Navigation struct {
	pressure   *datasource.SingularReader[measurement.Pressure]
	attitude   *datasource.OverwritingReader[measurement.Attitude]
	out        *datasource.Singular[measurement.Navigation]
	state      measurement.Navigation
	ground     measurement.Altitude
	rate       schedule.Rate
	referenced bool
}

var (
	_ schedule.Schedulable = (*Navigation)(nil)
	_ schedule.Namer       = (*Navigation)(nil)
)

// NewNavigation initializes a new Navigation task.
func NewNavigation(rate schedule.Rate, baro *Barometer, estimator *Estimator) *Navigation {
	return &Navigation{
		pressure: baro.Pressure(),
		attitude: estimator.Attitude(),
		out:      datasource.NewSingular[measurement.Navigation](),
		rate:     rate,
	}
}

// Navigation returns a new reader, for the navigation state.
func (x *Navigation) Navigation() *datasource.SingularReader[measurement.Navigation] {
	return x.out.Reader()
}

func (x *Navigation) Rate() schedule.Rate { return x.rate }

func (x *Navigation) Name() string { return `navigation` }

// Schedule returns false until the first pressure sample is available.
func (x *Navigation) Schedule() bool {
	if x.pressure.Changed() {
		pressure, _ := x.pressure.Read()
		altitude := pressure.Altitude()
		if !x.referenced {
			x.ground = altitude
			x.referenced = true
		}
		altitude -= x.ground
		x.state.VerticalSpeed = int32(altitude-x.state.Altitude) * int32(x.rate)
		x.state.Altitude = altitude
	} else if !x.referenced {
		return false
	}
	x.state.Heading = x.attitude.Latest().Heading()
	x.out.Write(x.state)
	return true
}
