package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOptions_defaults(t *testing.T) {
	cfg, err := resolveOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, `scheduler`, cfg.name)
	assert.Nil(t, cfg.logger)
	assert.False(t, cfg.clampRates)
}

func TestResolveOptions_nilSkipped(t *testing.T) {
	cfg, err := resolveOptions([]Option{nil, WithName(`x`), nil, WithClampRates(true)})
	require.NoError(t, err)
	assert.Equal(t, `x`, cfg.name)
	assert.True(t, cfg.clampRates)
}

func TestResolveOptions_error(t *testing.T) {
	e := errors.New(`some error`)
	_, err := New(nil, 1, &optionImpl{func(*schedulerOptions) error { return e }})
	assert.Same(t, e, err)
}
