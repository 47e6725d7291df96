package board

import (
	"fmt"
	"math"
	"strings"

	"github.com/joeycumines/go-flightcore/config"
	"github.com/joeycumines/go-flightcore/datasource"
	"github.com/joeycumines/go-flightcore/logging"
	"github.com/joeycumines/go-flightcore/measurement"
	"github.com/joeycumines/go-flightcore/schedule"
)

// Character display dimensions, of a PAL on-screen display.
const (
	OSDColumns = 30
	OSDRows    = 16
)

const (
	horizonCenterRow    = OSDRows / 2
	horizonCenterColumn = OSDColumns/2 - 1
	horizonHalfWidth    = 11
	// degrees of pitch per row
	horizonPitchScale = 10
	// character height, relative to width
	horizonAspect = 0.5
)

// Screen is a character frame buffer, as drawn by the OSD.
type Screen [OSDRows][OSDColumns]byte

// Row returns row i, without trailing blanks.
func (x *Screen) Row(i int) string {
	return strings.TrimRight(string(x[i][:]), ` `)
}

// String returns every row, separated by newlines.
func (x *Screen) String() string {
	var b strings.Builder
	for i := range x {
		if i != 0 {
			b.WriteByte('\n')
		}
		b.WriteString(x.Row(i))
	}
	return b.String()
}

// OSD is the on-screen display task, drawing an ASCII heads up display of
// the attitude, altitude, link quality, and battery state.
type OSD struct {
	attitude   *datasource.OverwritingReader[measurement.Attitude]
	navigation *datasource.SingularReader[measurement.Navigation]
	rssi       *datasource.SingularReader[measurement.RSSI]
	voltage    *datasource.SingularReader[measurement.Voltage]
	out        *datasource.Singular[Screen]
	logger     *logging.Logger
	limits     batteryLimits
	battery    BatteryStatus
	screen     Screen
	rate       schedule.Rate
}

var (
	_ schedule.Schedulable = (*OSD)(nil)
	_ schedule.Namer       = (*OSD)(nil)
)

// OSDSources are the inputs of the OSD task.
type OSDSources struct {
	Estimator  *Estimator
	Navigation *Navigation
	Receiver   *Receiver
	Battery    *Battery
}

// NewOSD initializes a new OSD task.
func NewOSD(rate schedule.Rate, src OSDSources, battery config.BatteryConfig, logger *logging.Logger) *OSD {
	return &OSD{
		attitude:   src.Estimator.Attitude(),
		navigation: src.Navigation.Navigation(),
		rssi:       src.Receiver.RSSI(),
		voltage:    src.Battery.Voltage(),
		out:        datasource.NewSingular[Screen](),
		logger:     logger,
		limits:     newBatteryLimits(battery),
		rate:       rate,
	}
}

// Screen returns a new reader, for drawn frames.
func (x *OSD) Screen() *datasource.SingularReader[Screen] {
	return x.out.Reader()
}

// Battery returns the battery state, as of the last frame. It must only be
// called from task context.
func (x *OSD) Battery() BatteryStatus {
	return x.battery
}

func (x *OSD) Rate() schedule.Rate { return x.rate }

func (x *OSD) Name() string { return `osd` }

func (x *OSD) Schedule() bool {
	battery := x.limits.status(x.voltage.Latest())
	switch {
	case battery.Low && !x.battery.Low:
		x.logger.Warning().
			Int(`millivolts`, int(battery.Voltage)).
			Int(`cell_millivolts`, int(battery.Cell)).
			Int(`cells`, int(battery.Cells)).
			Log(`battery low`)
	case !battery.Low && x.battery.Low:
		x.logger.Notice().
			Int(`cell_millivolts`, int(battery.Cell)).
			Log(`battery recovered`)
	}
	x.battery = battery

	x.draw(x.attitude.Latest(), x.navigation.Latest(), x.rssi.Latest(), battery)
	x.out.Write(x.screen)
	return true
}

// draw redraws the whole screen.
func (x *OSD) draw(attitude measurement.Attitude, nav measurement.Navigation, rssi measurement.RSSI, battery BatteryStatus) {
	roll, pitch, _ := attitude.Degrees()

	for i := range x.screen {
		for j := range x.screen[i] {
			x.screen[i][j] = ' '
		}
	}

	x.horizon(attitude.Roll, pitch)
	x.text(horizonCenterRow, horizonCenterColumn-1, `<+>`)

	x.text(0, 0, fmt.Sprintf(`RSSI %3d`, rssi))
	x.right(0, fmt.Sprintf(`%5.2fV`, battery.Voltage.Volts()))
	if battery.Cells != 0 {
		x.right(1, fmt.Sprintf(`%dS %4.2fV`, battery.Cells, battery.Cell.Volts()))
	}
	if battery.Low {
		const warning = `LOW BATTERY`
		x.text(OSDRows-5, (OSDColumns-len(warning))/2, warning)
	}

	x.text(OSDRows-2, 0, fmt.Sprintf(`R%+4d P%+4d`, int(math.Round(roll)), int(math.Round(pitch))))
	x.text(OSDRows-1, 0, fmt.Sprintf(`ALT %.1fM`, nav.Altitude.Meters()))
	x.text(OSDRows-1, 12, fmt.Sprintf(`HDG %03d`, nav.Heading))
	x.right(OSDRows-1, fmt.Sprintf(`%+.1fM/S`, float64(nav.VerticalSpeed)/100))
}

// horizon draws the artificial horizon, which moves down as the nose
// pitches up, and rotates against the roll.
func (x *OSD) horizon(roll, pitch float64) {
	offset := math.Round(pitch / horizonPitchScale)
	slope := math.Tan(roll) * horizonAspect
	for col := horizonCenterColumn - horizonHalfWidth; col <= horizonCenterColumn+horizonHalfWidth; col++ {
		row := horizonCenterRow + int(offset-math.Round(float64(col-horizonCenterColumn)*slope))
		if row < 2 || row > OSDRows-3 {
			continue
		}
		x.screen[row][col] = '-'
	}
}

// text draws s at row, col, clipped to the screen.
func (x *OSD) text(row, col int, s string) {
	if row < 0 || row >= OSDRows || col >= OSDColumns {
		return
	}
	for i := 0; i < len(s); i++ {
		if c := col + i; c >= 0 && c < OSDColumns {
			x.screen[row][c] = s[i]
		}
	}
}

// right draws s right aligned, on row.
func (x *OSD) right(row int, s string) {
	x.text(row, OSDColumns-len(s), s)
}
