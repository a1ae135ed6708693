// Package schedule 构建炼金耦合参数阶梯。
//
// 阶梯分两个阶段：先在范德华完全耦合的情况下线性关闭静电，再在静电完全关闭的
// 情况下线性关闭范德华。带电但范德华已关闭的粒子可以无限接近其他电荷，
// 因此阶段顺序不可交换。
package schedule

import (
	"fmt"
	"math"

	"alchemy/types"
)

// CouplingParameters 一个热力学状态的耦合系数
type CouplingParameters struct {
	Sterics        float64 `json:"lambda_sterics" yaml:"lambda_sterics"`               // 范德华耦合系数
	Electrostatics float64 `json:"lambda_electrostatics" yaml:"lambda_electrostatics"` // 静电耦合系数
}

// Parameters 转为采样框架使用的参数映射
func (p CouplingParameters) Parameters() map[string]float64 {
	return map[string]float64{
		types.LambdaSterics:        p.Sterics,
		types.LambdaElectrostatics: p.Electrostatics,
	}
}

// Validate 检查两个系数都在 [0,1] 内
func (p CouplingParameters) Validate() error {
	if !inUnit(p.Sterics) {
		return fmt.Errorf("%w: %s=%v 超出 [0,1]", types.ErrInvalidArgument, types.LambdaSterics, p.Sterics)
	}
	if !inUnit(p.Electrostatics) {
		return fmt.Errorf("%w: %s=%v 超出 [0,1]", types.ErrInvalidArgument, types.LambdaElectrostatics, p.Electrostatics)
	}
	return nil
}

// String 格式化
func (p CouplingParameters) String() string {
	return fmt.Sprintf("{%s: %.2f, %s: %.2f}", types.LambdaSterics, p.Sterics, types.LambdaElectrostatics, p.Electrostatics)
}

func inUnit(v float64) bool { return v >= 0 && v <= 1 }

// Phase 阶梯阶段
type Phase int

const (
	PhaseElectrostatics Phase = iota + 1 // 关闭静电
	PhaseSterics                         // 关闭范德华
)

// String 阶段名称
func (p Phase) String() string {
	switch p {
	case PhaseElectrostatics:
		return "electrostatics"
	case PhaseSterics:
		return "sterics"
	}
	return "unknown"
}

// Schedule 有序的耦合参数列表，从完全耦合到完全解耦
type Schedule []CouplingParameters

// Build 生成两阶段阶梯，共 2*nSteps+1 个状态
func Build(nSteps int) (Schedule, error) {
	if nSteps <= 0 {
		return nil, fmt.Errorf("%w: 阶梯步数必须大于0, 实际 %d", types.ErrInvalidArgument, nSteps)
	}
	n := float64(nSteps)
	s := make(Schedule, 0, 2*nSteps+1)
	// 关闭静电，包含两端
	for state := 0; state <= nSteps; state++ {
		s = append(s, CouplingParameters{Sterics: 1.0, Electrostatics: 1.0 - float64(state)/n})
	}
	// 关闭范德华，从1开始避免重复边界状态
	for state := 1; state <= nSteps; state++ {
		s = append(s, CouplingParameters{Sterics: 1.0 - float64(state)/n, Electrostatics: 0.0})
	}
	return s, nil
}

// Default 默认阶梯(51个状态)
func Default() Schedule {
	s, _ := Build(types.DefaultScheduleSteps)
	return s
}

// Len 状态数量
func (s Schedule) Len() int { return len(s) }

// Phase 返回第 i 个状态所属阶段，状态0属于静电阶段
func (s Schedule) Phase(i int) Phase {
	if i < 0 || i >= len(s) {
		return 0
	}
	if s[i].Sterics == 1.0 {
		return PhaseElectrostatics
	}
	return PhaseSterics
}

// Distance 第 i 与 i+1 个状态之间的欧氏距离
func (s Schedule) Distance(i int) float64 {
	if i < 0 || i+1 >= len(s) {
		return 0
	}
	return math.Hypot(s[i+1].Sterics-s[i].Sterics, s[i+1].Electrostatics-s[i].Electrostatics)
}

// Parameters 全部状态的参数映射
func (s Schedule) Parameters() []map[string]float64 {
	list := make([]map[string]float64, len(s))
	for i, p := range s {
		list[i] = p.Parameters()
	}
	return list
}

// Validate 检查阶梯结构
// 每个相邻状态只有一个系数下降，另一个保持不变；范德华开始下降前静电必须已为0
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: 阶梯为空", types.ErrInvalidArgument)
	}
	for i, p := range s {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("状态 %d: %w", i, err)
		}
	}
	if s[0].Sterics != 1.0 || s[0].Electrostatics != 1.0 {
		return fmt.Errorf("%w: 首个状态必须完全耦合, 实际 %s", types.ErrInvalidArgument, s[0])
	}
	for i := 0; i+1 < len(s); i++ {
		a, b := s[i], s[i+1]
		dSterics, dElec := b.Sterics-a.Sterics, b.Electrostatics-a.Electrostatics
		switch {
		case s.Distance(i) == 0:
			return fmt.Errorf("%w: 状态 %d 与 %d 重复", types.ErrInvalidArgument, i, i+1)
		case dSterics > 0 || dElec > 0:
			return fmt.Errorf("%w: 状态 %d -> %d 耦合增加", types.ErrInvalidArgument, i, i+1)
		case dSterics != 0 && dElec != 0:
			return fmt.Errorf("%w: 状态 %d -> %d 两个系数同时变化", types.ErrInvalidArgument, i, i+1)
		case dSterics != 0 && a.Electrostatics != 0:
			return fmt.Errorf("%w: 状态 %d 静电未关闭就开始关闭范德华", types.ErrInvalidArgument, i)
		}
	}
	return nil
}
