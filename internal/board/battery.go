package board

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-flightcore/config"
	"github.com/joeycumines/go-flightcore/datasource"
	"github.com/joeycumines/go-flightcore/measurement"
)

// Battery voltage ADC, sampling a resistor divider.
const (
	ADCSamples   = 16    // conversions per DMA transfer
	ADCReference = 3300  // millivolts
	ADCMax       = 0xFFF // 12 bit
	// divider ratio, multiplied by 100
	voltageScale = 1100
)

// ADC performs a single raw conversion of the battery voltage divider.
type ADC func() uint16

// Battery is the battery voltage driver. Transfer runs in interrupt context
// (DMA transfer complete), averaging a buffer of conversions, and publishing
// the voltage.
type Battery struct {
	out       *datasource.Singular[measurement.Voltage]
	adc       ADC
	rate      uint
	buffer    [ADCSamples]uint16
	transfers atomic.Uint64
}

// NewBattery initializes a new Battery, transferring at rate. If adc is nil,
// a 3 cell pack at 11.1V is sensed.
func NewBattery(rate uint, adc ADC) *Battery {
	if adc == nil {
		adc = ConstantPack(11100)
	}
	return &Battery{
		out:  datasource.NewSingular[measurement.Voltage](),
		adc:  adc,
		rate: rate,
	}
}

// Voltage returns a new reader, for the battery voltage.
func (x *Battery) Voltage() *datasource.SingularReader[measurement.Voltage] {
	return x.out.Reader()
}

// Transfers returns the number of completed transfers.
func (x *Battery) Transfers() uint64 {
	return x.transfers.Load()
}

// Transfer fills the buffer, and publishes the averaged voltage. It must
// only be called from a single context.
func (x *Battery) Transfer() {
	for i := range x.buffer {
		x.buffer[i] = x.adc()
	}
	x.out.Write(Millivolts(x.buffer[:]))
	x.transfers.Add(1)
}

// Run transfers at the configured rate, until ctx is done.
func (x *Battery) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(x.rate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			x.Transfer()
		}
	}
}

// Millivolts converts the average of raw conversions to the battery voltage.
func Millivolts(samples []uint16) measurement.Voltage {
	if len(samples) == 0 {
		return 0
	}
	var sum int
	for _, v := range samples {
		sum += int(v)
	}
	mv := (sum / len(samples)) * ADCReference / ADCMax * voltageScale / 100
	return measurement.Voltage(min(mv, math.MaxUint16))
}

// RawSample is the inverse of Millivolts, for a single conversion,
// saturating to the ADC range.
func RawSample(v measurement.Voltage) uint16 {
	raw := math.Round(float64(v) * 100 / voltageScale * ADCMax / ADCReference)
	return uint16(min(raw, ADCMax))
}

// ConstantPack returns an ADC sensing a battery at a fixed voltage.
func ConstantPack(v measurement.Voltage) ADC {
	raw := RawSample(v)
	return func() uint16 { return raw }
}

// BatteryStatus is the state of the battery, derived from a voltage sample.
type BatteryStatus struct {
	Voltage measurement.Voltage
	// Cell is the average cell voltage.
	Cell measurement.Voltage
	// Cells is zero until detected, see config.BatteryConfig.
	Cells   uint8
	Percent uint8
	Low     bool
}

type batteryLimits struct {
	cells   uint8
	min     measurement.Voltage
	warning measurement.Voltage
	max     measurement.Voltage
}

func newBatteryLimits(cfg config.BatteryConfig) batteryLimits {
	return batteryLimits{
		cells:   cfg.Cells,
		min:     measurement.FromVolts(cfg.MinCellVoltage),
		warning: measurement.FromVolts(cfg.WarningCellVoltage),
		max:     measurement.FromVolts(cfg.MaxCellVoltage),
	}
}

// status derives the battery state, detecting the cell count from the first
// non-zero sample, if it was not configured.
func (x *batteryLimits) status(v measurement.Voltage) BatteryStatus {
	if x.cells == 0 && v > 0 {
		x.cells = uint8((int(v) + int(x.max) - 1) / int(x.max))
	}
	if x.cells == 0 {
		return BatteryStatus{Voltage: v}
	}
	cell := v / measurement.Voltage(x.cells)
	percent := measurement.Clamp((int(cell)-int(x.min))*100/(int(x.max)-int(x.min)), 0, 100)
	return BatteryStatus{
		Voltage: v,
		Cell:    cell,
		Cells:   x.cells,
		Percent: uint8(percent),
		Low:     cell < x.warning,
	}
}
