package debug

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alchemy/schedule"
	"alchemy/types"
)

// feed 模拟一次完整运行
func feed(d types.Debug, blocks int) {
	d.Init(types.RunInfo{Particles: 3, NIterations: blocks, NStepsPerIteration: 50, TimeStep: types.Q(1, types.Femtosecond)})
	d.Update(types.Sample{Stage: types.StageInitial, Block: -1, Energy: types.Q(418.4, types.KilojoulePerMole)})
	d.Update(types.Sample{Stage: types.StageMinimization, Block: -1, Energy: types.Q(41.84, types.KilojoulePerMole)})
	for i := 0; i < blocks; i++ {
		d.Update(types.Sample{Stage: types.StageDynamics, Block: i, Steps: 50, Energy: types.Q(4.184*float64(20+i), types.KilojoulePerMole)})
	}
}

func TestRecord(t *testing.T) {
	rec := &Record{}
	feed(rec, 4)
	assert.NotEmpty(t, rec.RunID)
	assert.Equal(t, []int{0, 1, 2, 3}, rec.Block)
	require.Len(t, rec.Energy, 4)
	assert.InDelta(t, 20, rec.Energy[0], 1e-9)
	assert.InDelta(t, 100, kcal(*rec.Initial), 1e-9)

	var buf bytes.Buffer
	require.NoError(t, rec.Render(&buf))
	var back Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, rec.RunID, back.RunID)
	assert.Equal(t, rec.Energy, back.Energy)

	// 再次运行时重置历史并生成新编号
	first := rec.RunID
	feed(rec, 2)
	assert.NotEqual(t, first, rec.RunID)
	assert.Len(t, rec.Energy, 2)

	// 错误只记录，不经过默认日志输出
	var logged bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logged, nil)))
	defer slog.SetDefault(prev)
	rec.Error(errors.New("boom"))
	assert.Equal(t, []string{"boom"}, rec.Errors)
	assert.Empty(t, logged.String())

	// 驱动提供的运行编号原样保留
	rec.Init(types.RunInfo{RunID: "run-7"})
	assert.Equal(t, "run-7", rec.RunID)
	assert.Equal(t, "run-7", rec.Info.RunID)
}

func TestSummary(t *testing.T) {
	rec := &Record{}
	assert.Equal(t, Stats{}, rec.Summary())
	feed(rec, 1)
	one := rec.Summary()
	assert.Equal(t, 1, one.N)
	assert.InDelta(t, 20, one.Mean, 1e-9)
	assert.Zero(t, one.StdDev)
	assert.Equal(t, one.Min, one.Max)
	feed(rec, 3)
	s := rec.Summary()
	assert.Equal(t, 3, s.N)
	assert.InDelta(t, 21, s.Mean, 1e-9)
	assert.InDelta(t, 1, s.StdDev, 1e-9)
	assert.InDelta(t, 20, s.Min, 1e-9)
	assert.InDelta(t, 22, s.Max, 1e-9)
	assert.Contains(t, s.String(), "n=3")
}

func TestCharts(t *testing.T) {
	c := &Charts{Schedule: schedule.Default()}
	feed(c, 5)
	var buf bytes.Buffer
	require.NoError(t, c.Render(&buf))
	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "lambda_sterics")
	assert.Contains(t, html, "lambda_electrostatics")
}

func TestPlot(t *testing.T) {
	p := &Plot{}
	assert.ErrorIs(t, p.Render(&bytes.Buffer{}), errNoData)
	feed(p, 5)
	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	// 没有动力学块时只画最小化前后的能量
	feed(p, 0)
	buf.Reset()
	require.NoError(t, p.Render(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	p.Format = "svg"
	buf.Reset()
	require.NoError(t, p.Render(&buf))
	assert.Contains(t, buf.String(), "<svg")
}

func TestLog(t *testing.T) {
	var out bytes.Buffer
	l := &Log{Logger: slog.New(slog.NewTextHandler(&out, nil))}
	feed(l, 2)
	text := out.String()
	assert.Contains(t, text, "Initial energy is      100.000 kcal/mol")
	assert.Contains(t, text, "Final energy is         10.000 kcal/mol")
	assert.Contains(t, text, "Energy after iteration 0 of 50 steps : 20.000")
	assert.Equal(t, 2, strings.Count(text, "Energy after iteration"))

	var final bytes.Buffer
	require.NoError(t, l.Render(&final))
	assert.Equal(t, "Final energy is         10.000 kcal/mol\nEnergy after iteration 1 of 50 steps : 21.000\n", final.String())

	// 没有动力学块时只输出最小化结果
	feed(l, 0)
	final.Reset()
	require.NoError(t, l.Render(&final))
	assert.Equal(t, "Final energy is         10.000 kcal/mol\n", final.String())

	l.Error(types.ErrResourceExhaustion)
	assert.Contains(t, out.String(), "level=ERROR")

	// 未开始运行时没有输出
	final.Reset()
	require.NoError(t, (&Log{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}).Render(&final))
	assert.Empty(t, final.String())
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	feed(m, 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.blocks))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.steps))
	assert.InDelta(t, 22, testutil.ToFloat64(m.energy.WithLabelValues(string(types.StageDynamics))), 1e-9)

	m.Error(types.Instability(types.StageDynamics, 2, types.Quantity{}, nil))
	m.Error(fmt.Errorf("%w: x", types.ErrIncompatibleSystem))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("numerical_instability")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("incompatible_system")))

	var buf bytes.Buffer
	require.NoError(t, m.Render(&buf))
	assert.Contains(t, buf.String(), "alchemy_dynamics_blocks_total 3")

	path := filepath.Join(t.TempDir(), "alchemy.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "alchemy_runs_total 1")
}

func TestKind(t *testing.T) {
	assert.Equal(t, "invalid_argument", Kind(types.ErrInvalidArgument))
	assert.Equal(t, "resource_exhaustion", Kind(fmt.Errorf("wrap: %w", types.ErrResourceExhaustion)))
	assert.Equal(t, "other", Kind(errors.New("x")))
}

func TestMulti(t *testing.T) {
	a, b := &Record{}, &Record{}
	m := Multi{a, b}
	feed(m, 2)
	assert.Equal(t, a.Energy, b.Energy)
	m.Error(errors.New("x"))
	assert.Len(t, a.Errors, 1)
	assert.Len(t, b.Errors, 1)

	var buf bytes.Buffer
	require.NoError(t, m.Render(&buf))
	assert.Equal(t, 2, strings.Count(buf.String(), `"run_id"`))
}
