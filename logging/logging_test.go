package logging

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelInfo)
	logger.Info().Str(`task`, `imu`).Log(`hello`)
	logger.Debug().Log(`filtered`)

	out := buf.String()
	assert.Contains(t, out, `"lvl":"info"`)
	assert.Contains(t, out, `"task":"imu"`)
	assert.Contains(t, out, `"msg":"hello"`)
	assert.NotContains(t, out, `filtered`)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() {
		logger.Err().Str(`k`, `v`).Log(`nothing`)
	})
}

func TestParseLevel(t *testing.T) {
	for _, tc := range [...]struct {
		in   string
		want Level
	}{
		{`info`, LevelInfo},
		{` INFO `, LevelInfo},
		{`warn`, LevelWarning},
		{`warning`, LevelWarning},
		{`error`, LevelError},
		{`err`, LevelError},
		{`debug`, LevelDebug},
		{`trace`, LevelTrace},
		{`notice`, LevelNotice},
		{`off`, LevelDisabled},
	} {
		got, err := ParseLevel(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseLevel(`loud`)
	assert.Error(t, err)
}

func TestParseLevel_roundTripsString(t *testing.T) {
	for _, level := range []Level{LevelError, LevelWarning, LevelNotice, LevelInfo, LevelDebug, LevelTrace, LevelDisabled} {
		got, err := ParseLevel(level.String())
		require.NoError(t, err, level)
		assert.Equal(t, level, got)
	}
}

func TestThrottle(t *testing.T) {
	throttle := NewThrottle(time.Hour, 2)
	assert.True(t, throttle.Allow(`a`))
	assert.True(t, throttle.Allow(`a`))
	assert.False(t, throttle.Allow(`a`))
	assert.True(t, throttle.Allow(`b`))

	var disabled *Throttle
	assert.True(t, disabled.Allow(`a`))
}
