package theme

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

func TestResolveIsPure(t *testing.T) {
	assert.Equal(t, Resolve(true), Resolve(true))
	assert.Equal(t, Resolve(false), Resolve(false))
	assert.True(t, Resolve(true).Dark)
	assert.False(t, Resolve(false).Dark)
	assert.Equal(t, "dark", Resolve(true).Name())
	assert.Equal(t, "light", Resolve(false).Name())
}

func TestPalettesAreDisjoint(t *testing.T) {
	darkColors := Resolve(true).Colors()
	lightColors := Resolve(false).Colors()

	seen := make(map[drawing.Color]bool, len(darkColors))
	for _, c := range darkColors {
		seen[c] = true
	}
	for _, c := range lightColors {
		assert.False(t, seen[c], "colour %v shared between palettes", c)
	}

	assert.NotEqual(t, Resolve(true).Background, Resolve(false).Background)
	assert.NotEqual(t, Resolve(true).Text, Resolve(false).Text)
}

func TestPalettesAreComplete(t *testing.T) {
	for _, th := range []Theme{Resolve(true), Resolve(false)} {
		for i, c := range th.Colors() {
			assert.NotZero(t, c.A, "%s colour %d is transparent", th.Name(), i)
		}
	}
}

func TestSwitchNotifiesOnlyOnChange(t *testing.T) {
	s := NewSwitch(false)
	var calls atomic.Int32
	var last Theme
	unsubscribe := s.Subscribe(func(th Theme) {
		calls.Add(1)
		last = th
	})

	assert.False(t, s.Set(false))
	assert.EqualValues(t, 0, calls.Load())

	assert.True(t, s.Set(true))
	assert.EqualValues(t, 1, calls.Load())
	assert.True(t, last.Dark)
	assert.True(t, s.Dark())

	unsubscribe()
	assert.False(t, s.Toggle())
	assert.EqualValues(t, 1, calls.Load())
	require.False(t, s.Current().Dark)
}
