package types

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityIn(t *testing.T) {
	e, err := Q(4.184, KilojoulePerMole).In(KilocaloriePerMole)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, e.Value, 1e-12)
	assert.Equal(t, KilocaloriePerMole, e.Unit)

	l, err := Q(12.5, Angstrom).ValueIn(Nanometer)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, l, 1e-12)

	dt, err := Q(1, Femtosecond).ValueIn(Picosecond)
	require.NoError(t, err)
	assert.InDelta(t, 0.001, dt, 1e-15)
}

func TestQuantityInIncompatible(t *testing.T) {
	_, err := Q(1, Kelvin).In(Nanometer)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Q(1, Unit("furlong")).In(Nanometer)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestQuantityFinite(t *testing.T) {
	assert.True(t, Q(-1e6, KilojoulePerMole).IsFinite())
	assert.False(t, Q(math.NaN(), KilojoulePerMole).IsFinite())
	assert.False(t, Q(math.Inf(1), KilojoulePerMole).IsFinite())
}

func TestInstabilityError(t *testing.T) {
	err := Instability(StageDynamics, 1, Q(math.NaN(), KilojoulePerMole), nil)
	assert.True(t, errors.Is(err, ErrNumericalInstability))
	assert.False(t, errors.Is(err, ErrInvalidArgument))

	var ie *InstabilityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 1, ie.Block)
	assert.Contains(t, err.Error(), "块=1")

	cause := errors.New("integrator exploded")
	err = Instability(StageMinimization, -1, Quantity{}, cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrNumericalInstability)
	assert.NotContains(t, err.Error(), "块=")
}

func TestIncompatibleIsInvalidArgument(t *testing.T) {
	assert.ErrorIs(t, ErrIncompatibleSystem, ErrInvalidArgument)
}

func TestParseQuantity(t *testing.T) {
	cases := map[string]Quantity{
		"300 K":         Q(300, Kelvin),
		"1fs":           Q(1, Femtosecond),
		" 90 1/ps ":     Q(90, PerPicosecond),
		"-1.5e2 kJ/mol": Q(-150, KilojoulePerMole),
		"0.9 nm":        Q(0.9, Nanometer),
	}
	for in, want := range cases {
		got, err := ParseQuantity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "K", "300", "300 parsec", "1..2 nm"} {
		_, err := ParseQuantity(in)
		assert.ErrorIs(t, err, ErrInvalidArgument, in)
	}
}
