package types

import "io"

// RunInfo 一次最小化/平衡运行的基本信息
type RunInfo struct {
	RunID              string   `json:"run_id,omitempty"`      // 运行编号，为空时由观察者生成
	Particles          int      `json:"particles"`             // 粒子数量
	NIterations        int      `json:"n_iterations"`          // 动力学块数量
	NStepsPerIteration int      `json:"n_steps_per_iteration"` // 每块步数
	TimeStep           Quantity `json:"time_step"`             // 积分步长
	Tolerance          float64  `json:"tolerance"`             // 最小化容差
	MaxSteps           int      `json:"max_steps"`             // 最小化最大步数
}

// Sample 一次能量报告
type Sample struct {
	Stage  Stage    `json:"stage"`  // 阶段
	Block  int      `json:"block"`  // 动力学块索引，非动力学阶段为 -1
	Steps  int      `json:"steps"`  // 本块步数
	Energy Quantity `json:"energy"` // 势能
}

// Debug 调试接口
// 驱动只通过该接口输出诊断信息，不依赖其返回值
type Debug interface {
	Init(run RunInfo)
	Update(sample Sample)
	Render(w io.Writer) error
	Error(err error)
}

// NopDebug 空实现
type NopDebug struct{}

func (NopDebug) Init(RunInfo)           {}
func (NopDebug) Update(Sample)          {}
func (NopDebug) Render(io.Writer) error { return nil }
func (NopDebug) Error(error)            {}
