//go:build !race

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-flightcore/internal/board"
	"github.com/joeycumines/go-flightcore/measurement"
)

func TestRunCmd_duration(t *testing.T) {
	stdout, stderr, err := execute(t, `run`, `--duration`, `300ms`, `--log-level`, `info`, `--rocking`, `0.1`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, `session=`), stdout)
	assert.Contains(t, stdout, ` uptime=`)
	assert.Contains(t, stdout, ` battery=11.09V `)
	assert.Contains(t, stderr, `"msg":"board stopped"`)
}

func TestRunSimulation_panic(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := runSimulation(ctx, &stdout, &stderr, runOptions{logLevel: `info`},
		board.WithPilot(nil),
		board.WithPressure(func() measurement.Pressure { panic(`baro fault`) }),
	)
	assert.EqualError(t, err, `flightsim: panic: baro fault`)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), `"msg":"board panicked"`)
	assert.Contains(t, stderr.String(), `"msg":"simulation panicked"`)
}
