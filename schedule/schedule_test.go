package schedule

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alchemy/types"
)

func TestBuildLength(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 25, 100} {
		s, err := Build(n)
		require.NoError(t, err)
		assert.Len(t, s, 2*n+1, "n=%d 状态数量错误", n)
		assert.Equal(t, CouplingParameters{Sterics: 1, Electrostatics: 1}, s[0])
		assert.Equal(t, CouplingParameters{Sterics: 0, Electrostatics: 0}, s[len(s)-1])
		require.NoError(t, s.Validate())
	}
}

func TestBuildInvalid(t *testing.T) {
	for _, n := range []int{0, -1, -25} {
		s, err := Build(n)
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		assert.Nil(t, s)
	}
}

func TestAdjacentDistinct(t *testing.T) {
	s, err := Build(25)
	require.NoError(t, err)
	for i := 0; i+1 < len(s); i++ {
		assert.Greater(t, s.Distance(i), 0.0, "状态 %d 与 %d 重复", i, i+1)
	}
}

func TestPhaseConstancy(t *testing.T) {
	n := 25
	s, err := Build(n)
	require.NoError(t, err)
	for i := 0; i <= n; i++ {
		assert.Equal(t, 1.0, s[i].Sterics)
		assert.Equal(t, PhaseElectrostatics, s.Phase(i))
	}
	for i := n + 1; i < len(s); i++ {
		assert.Equal(t, 0.0, s[i].Electrostatics)
		assert.Equal(t, PhaseSterics, s.Phase(i))
	}
}

func TestReferenceLadder(t *testing.T) {
	s := Default()
	require.Len(t, s, 51)
	for state := 0; state <= 25; state++ {
		assert.Equal(t, 1.0, s[state].Sterics)
		assert.InDelta(t, 1.0-0.04*float64(state), s[state].Electrostatics, 1e-12, "state %d", state)
	}
	for state := 26; state <= 50; state++ {
		assert.Equal(t, 0.0, s[state].Electrostatics)
		assert.InDelta(t, 1.0-0.04*float64(state-25), s[state].Sterics, 1e-12, "state %d", state)
	}
	assert.InDelta(t, 0.96, s[1].Electrostatics, 1e-12)
	assert.InDelta(t, 0.96, s[26].Sterics, 1e-12)
	assert.InDelta(t, 0.92, s[27].Sterics, 1e-12)
}

func TestParameters(t *testing.T) {
	s, err := Build(2)
	require.NoError(t, err)
	params := s.Parameters()
	require.Len(t, params, 5)
	assert.Equal(t, map[string]float64{types.LambdaSterics: 1, types.LambdaElectrostatics: 0.5}, params[1])
	assert.Equal(t, map[string]float64{types.LambdaSterics: 0.5, types.LambdaElectrostatics: 0}, params[3])
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]Schedule{
		"empty":        {},
		"out of range": {{Sterics: 1, Electrostatics: 1}, {Sterics: 1.2, Electrostatics: 0}},
		"not coupled":  {{Sterics: 0.5, Electrostatics: 1}},
		"duplicate":    {{Sterics: 1, Electrostatics: 1}, {Sterics: 1, Electrostatics: 1}},
		"increasing":   {{Sterics: 1, Electrostatics: 1}, {Sterics: 1, Electrostatics: 0.5}, {Sterics: 1, Electrostatics: 0.7}},
		"simultaneous": {{Sterics: 1, Electrostatics: 1}, {Sterics: 0.5, Electrostatics: 0.5}},
		"wrong order":  {{Sterics: 1, Electrostatics: 1}, {Sterics: 0.5, Electrostatics: 1}, {Sterics: 0.5, Electrostatics: 0}},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.Validate(), types.ErrInvalidArgument)
		})
	}
}

func TestCouplingValidate(t *testing.T) {
	assert.NoError(t, CouplingParameters{Sterics: 0, Electrostatics: 1}.Validate())
	assert.ErrorIs(t, CouplingParameters{Sterics: -0.1, Electrostatics: 1}.Validate(), types.ErrInvalidArgument)
	assert.ErrorIs(t, CouplingParameters{Sterics: 1, Electrostatics: 1.01}.Validate(), types.ErrInvalidArgument)
}

func TestRenderTable(t *testing.T) {
	s, err := Build(2)
	require.NoError(t, err)
	var buf bytes.Buffer
	RenderTable(&buf, s)
	out := buf.String()
	assert.Contains(t, out, types.LambdaSterics)
	assert.Contains(t, out, types.LambdaElectrostatics)
	assert.NotContains(t, out, "LAMBDA_STERICS")
	assert.Contains(t, out, "electrostatics")
	assert.Contains(t, out, "0.5000")
	assert.Contains(t, out, "total")
}
