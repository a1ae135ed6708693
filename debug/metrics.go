package debug

import (
	"errors"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"alchemy/types"
)

// Metrics Prometheus 指标
// 使用独立的注册表，可输出为 node-exporter 文本文件
type Metrics struct {
	Registry *prometheus.Registry
	runs     prometheus.Counter
	blocks   prometheus.Counter
	steps    prometheus.Counter
	failures *prometheus.CounterVec
	energy   *prometheus.GaugeVec
}

// NewMetrics 创建并注册指标
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alchemy_runs_total",
			Help: "Total number of minimization/equilibration runs",
		}),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alchemy_dynamics_blocks_total",
			Help: "Total number of completed dynamics blocks",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alchemy_dynamics_steps_total",
			Help: "Total number of integration steps",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alchemy_run_failures_total",
			Help: "Failed runs by error kind",
		}, []string{"kind"}),
		energy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "alchemy_potential_energy_kcal_per_mol",
			Help: "Last reported potential energy by stage",
		}, []string{"stage"}),
	}
	m.Registry.MustRegister(m.runs, m.blocks, m.steps, m.failures, m.energy)
	return m
}

// Init 计数
func (m *Metrics) Init(types.RunInfo) { m.runs.Inc() }

// Update 更新能量
func (m *Metrics) Update(sample types.Sample) {
	m.energy.WithLabelValues(string(sample.Stage)).Set(kcal(sample.Energy))
	if sample.Stage == types.StageDynamics {
		m.blocks.Inc()
		m.steps.Add(float64(sample.Steps))
	}
}

// Render 以文本格式输出
func (m *Metrics) Render(w io.Writer) error {
	families, err := m.Registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// WriteTextfile 写入 node-exporter 文本文件
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func (m *Metrics) Error(err error) { m.failures.WithLabelValues(Kind(err)).Inc() }

// Kind 错误类别
func Kind(err error) string {
	switch {
	case errors.Is(err, types.ErrIncompatibleSystem):
		return "incompatible_system"
	case errors.Is(err, types.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, types.ErrNumericalInstability):
		return "numerical_instability"
	case errors.Is(err, types.ErrResourceExhaustion):
		return "resource_exhaustion"
	}
	return "other"
}
