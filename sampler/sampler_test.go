package sampler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"alchemy/minimize"
	"alchemy/schedule"
	"alchemy/types"
)

func TestNewStates(t *testing.T) {
	states, err := NewStates(schedule.Default(), types.Q(300, types.Kelvin))
	require.NoError(t, err)
	require.Len(t, states, 51)
	for i, st := range states {
		assert.Equal(t, i, st.Index)
		assert.Equal(t, types.Q(300, types.Kelvin), st.Temperature)
	}
	assert.Equal(t, schedule.CouplingParameters{Sterics: 1, Electrostatics: 1}, states[0].Parameters)
	assert.Equal(t, schedule.CouplingParameters{Sterics: 1, Electrostatics: 0}, states[25].Parameters)
	assert.Equal(t, schedule.CouplingParameters{Sterics: 0, Electrostatics: 0}, states[50].Parameters)
}

func TestNewStatesInvalid(t *testing.T) {
	_, err := NewStates(nil, types.Q(300, types.Kelvin))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	// 静电关闭前先关闭范德华
	bad := schedule.Schedule{{Sterics: 1, Electrostatics: 1}, {Sterics: 0.5, Electrostatics: 1}}
	_, err = NewStates(bad, types.Q(300, types.Kelvin))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = NewStates(schedule.Default(), types.Q(0, types.Kelvin))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = NewStates(schedule.Default(), types.Q(300, types.Nanometer))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestNewSamplerState(t *testing.T) {
	cfg := minimize.Configuration{Positions: []r3.Vec{{X: 10, Y: 5}}, Unit: types.Angstrom}
	st, err := NewSamplerState(cfg)
	require.NoError(t, err)
	assert.Equal(t, types.Nanometer, st.Unit)
	assert.InDelta(t, 1.0, st.Positions[0].X, 1e-12)
	assert.InDelta(t, 0.5, st.Positions[0].Y, 1e-12)

	st.Positions[0].X = 99
	assert.Equal(t, 10.0, cfg.Positions[0].X)
}

func TestSettingsValidate(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate(51))

	cases := map[string]func(s *Settings){
		"scheme":   func(s *Settings) { s.UpdateScheme = "random" },
		"method":   func(s *Settings) { s.UpdateMethod = "best" },
		"locality": func(s *Settings) { s.Locality = 0 },
		"mcmc":     func(s *Settings) { s.MCMCSteps = -5 },
		"iter":     func(s *Settings) { s.NIterations = -1 },
		"initial":  func(s *Settings) { s.InitialState = 51 },
	}
	for name, mutate := range cases {
		s := DefaultSettings()
		mutate(&s)
		assert.ErrorIs(t, s.Validate(51), types.ErrInvalidArgument, name)
	}
	s := DefaultSettings()
	s.UpdateScheme, s.UpdateMethod = RestrictedRange, UpdateDefault
	assert.NoError(t, s.Validate(1))
}

func TestManifestRoundTrip(t *testing.T) {
	states, err := NewStates(schedule.Default(), types.Q(300, types.Kelvin))
	require.NoError(t, err)
	res := &minimize.Result{
		Initial:   types.Q(120, types.KilojoulePerMole),
		Minimized: types.Q(-30, types.KilojoulePerMole),
		Trace:     minimize.EnergyTrace{types.Q(-20, types.KilojoulePerMole), types.Q(-21, types.KilojoulePerMole)},
	}
	m, err := NewManifest("run-1", states, DefaultSettings(), res, 42)
	require.NoError(t, err)
	m.Structure = "minimized.pdb"

	var buf bytes.Buffer
	require.NoError(t, m.WriteYAML(&buf))
	assert.Contains(t, buf.String(), "lambda_sterics: 1")
	assert.Contains(t, buf.String(), "update_scheme: global-jump")

	back, err := ReadYAML(&buf)
	require.NoError(t, err)
	assert.True(t, m.Created.Equal(back.Created))
	back.Created = m.Created
	assert.Equal(t, m, back)
}

func TestReadYAMLInvalid(t *testing.T) {
	_, err := ReadYAML(strings.NewReader("run_id: x\nstates: []\n"))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = ReadYAML(strings.NewReader("unknown_field: 1\n"))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	doc := `
states:
  - index: 0
    temperature: {value: 300, unit: K}
    parameters: {lambda_sterics: 1, lambda_electrostatics: 1}
settings:
  update_scheme: global-jump
  locality: 10
  mcmc_steps: 5000
  update_method: optimal
  n_iterations: 10
  initial_state: 3
`
	_, err = ReadYAML(strings.NewReader(doc))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestNewManifestRejectsSettings(t *testing.T) {
	states, err := NewStates(schedule.Default(), types.Q(300, types.Kelvin))
	require.NoError(t, err)
	s := DefaultSettings()
	s.InitialState = len(states)
	_, err = NewManifest("x", states, s, nil, 0)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
