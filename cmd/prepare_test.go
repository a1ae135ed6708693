package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alchemy/config"
	"alchemy/debug"
	"alchemy/forcefield"
	"alchemy/sampler"
	"alchemy/utils"
)

// toyComplex 两个环境原子与残基 2 中的一个炼金原子
const toyComplex = `3
toy complex
C   0.000  0.000  0.000  0.2 1
O   4.200  0.500  0.000 -0.2 1
N   1.000  4.500 -0.300  0.0 2
`

func toyConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	structure := filepath.Join(dir, "complex.xyz")
	require.NoError(t, os.WriteFile(structure, []byte(toyComplex), 0o644))

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	cfg.Protocol.NIterations = 2
	cfg.Protocol.NStepsPerIteration = 5
	cfg.System.Structure = structure
	cfg.System.AlchemicalResidues = forcefield.Selection{{2, 2}}
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Output.Format = "xyz"
	return cfg
}

func readManifest(t *testing.T, dir string) *sampler.Manifest {
	t.Helper()
	file, err := os.Open(filepath.Join(dir, "handoff.yaml"))
	require.NoError(t, err)
	defer file.Close()
	m, err := sampler.ReadYAML(file)
	require.NoError(t, err)
	return m
}

var artifacts = []string{"minimized.xyz", "initial.xyz", "trace.json", "trace.html", "trace.png", "handoff.yaml", "metrics.prom"}

func TestPrepare(t *testing.T) {
	cfg := toyConfig(t)
	var stdout bytes.Buffer
	require.NoError(t, prepare(context.Background(), &stdout, cfg, utils.NewNop()))
	assert.Contains(t, stdout.String(), "Final energy is")
	assert.Contains(t, stdout.String(), "Energy after iteration 1 of 5 steps")

	for _, name := range artifacts {
		info, err := os.Stat(filepath.Join(cfg.Output.Dir, name))
		require.NoError(t, err, name)
		assert.NotZero(t, info.Size(), name)
	}

	m := readManifest(t, cfg.Output.Dir)
	assert.Equal(t, "minimized.xyz", m.Structure)
	assert.Len(t, m.States, 51)
	assert.Len(t, m.Trace, 2)

	// 清单与能量记录使用同一个运行编号
	data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "trace.json"))
	require.NoError(t, err)
	var trace debug.Record
	require.NoError(t, json.Unmarshal(data, &trace))
	assert.Equal(t, m.RunID, trace.RunID)
}

func TestPrepareWithoutDynamics(t *testing.T) {
	cfg := toyConfig(t)
	cfg.Protocol.NIterations = 0
	var stdout bytes.Buffer
	require.NoError(t, prepare(context.Background(), &stdout, cfg, utils.NewNop()))
	assert.Contains(t, stdout.String(), "Final energy is")
	assert.NotContains(t, stdout.String(), "Energy after iteration")

	for _, name := range artifacts {
		_, err := os.Stat(filepath.Join(cfg.Output.Dir, name))
		require.NoError(t, err, name)
	}
	assert.Empty(t, readManifest(t, cfg.Output.Dir).Trace)
}

func TestScheduleCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"schedule", "--steps", "2", "--view", "yaml"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "lambda_electrostatics: 0.5")

	rootCmd.SetArgs([]string{"schedule", "--view", "svg"})
	assert.Error(t, rootCmd.Execute())
}
