// Package datasource implements lock-free, single-writer data channels, used
// to hand values from interrupt context (DMA completion, UART reception, pin
// edges) to periodic tasks.
//
// Two channel variants are provided:
//
//   - [Overwriting]: a multi-slot ring, where each reader holds a private
//     cursor, and readers that fall behind silently skip lost values
//   - [Singular]: a single slot, where readers always see the most recent
//     value
//
// # Thread Safety
//
// Each channel supports exactly one producer, which must not be re-entrant,
// and any number of readers. Individual reader values are NOT safe for
// concurrent use, but any number of readers may be derived from the same
// channel, via Reader or Clone.
//
// Values are published via a pair of sequence counters, write and written.
// The producer increments write before filling a slot, then stores written
// (release), after the slot is filled. Readers load written (acquire) before
// trusting any slot below it.
//
// The producer never waits for readers. An [Overwriting] channel must be
// sized such that a reader cannot fall an entire capacity behind while it is
// copying a single slot. This is a contract of each instantiation, and is not
// enforced by the types.
//
// # Usage
//
//	gyro, newReader := datasource.NewOverwritingChannel[int32](32)
//
//	// interrupt context
//	gyro.Write(sample)
//
//	// task context
//	reader := newReader()
//	for {
//	    v, ok := reader.Read()
//	    if !ok {
//	        break
//	    }
//	    process(v)
//	}
package datasource
