package board

import (
	"errors"
	"fmt"
)

// SBUS frame layout.
const (
	FrameSize     = 25
	FrameChannels = 16
	frameBegin    = 0x0F
	frameEnd      = 0x00
	channelBits   = 11
	channelMask   = 1<<channelBits - 1

	flagFrameLost = 1 << 2
	flagFailsafe  = 1 << 3
)

var (
	// ErrFrameSize is returned when decoding a frame of the wrong length.
	ErrFrameSize = errors.New("board: invalid sbus frame size")

	// ErrFrameDelimiter is returned when decoding a frame with an invalid
	// start or end byte.
	ErrFrameDelimiter = errors.New("board: invalid sbus frame delimiter")
)

// Frame is a decoded SBUS frame. Each channel is within [0, 2047], centered
// on 1024.
type Frame struct {
	Channels  [FrameChannels]uint16
	FrameLost bool
	Failsafe  bool
}

// DecodeFrame decodes a complete SBUS frame.
func DecodeFrame(b []byte) (Frame, error) {
	var f Frame
	if len(b) != FrameSize {
		return f, fmt.Errorf(`%w: %d`, ErrFrameSize, len(b))
	}
	if b[0] != frameBegin || b[FrameSize-1] != frameEnd {
		return f, fmt.Errorf(`%w: %#02x ... %#02x`, ErrFrameDelimiter, b[0], b[FrameSize-1])
	}
	var (
		bits  uint32
		nbits uint
		ch    int
	)
	for _, v := range b[1 : 1+FrameChannels*channelBits/8] {
		bits |= uint32(v) << nbits
		nbits += 8
		if nbits >= channelBits {
			f.Channels[ch] = uint16(bits & channelMask)
			ch++
			bits >>= channelBits
			nbits -= channelBits
		}
	}
	flags := b[FrameSize-2]
	f.FrameLost = flags&flagFrameLost != 0
	f.Failsafe = flags&flagFailsafe != 0
	return f, nil
}

// AppendFrame appends the encoding of f to b. Channel values are truncated
// to 11 bits.
func AppendFrame(b []byte, f Frame) []byte {
	b = append(b, frameBegin)
	var (
		bits  uint32
		nbits uint
	)
	for _, v := range f.Channels {
		bits |= uint32(v&channelMask) << nbits
		nbits += channelBits
		for nbits >= 8 {
			b = append(b, byte(bits))
			bits >>= 8
			nbits -= 8
		}
	}
	var flags byte
	if f.FrameLost {
		flags |= flagFrameLost
	}
	if f.Failsafe {
		flags |= flagFailsafe
	}
	return append(b, flags, frameEnd)
}
