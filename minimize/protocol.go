// Package minimize 最小化与平衡驱动：在给定势能函数下对初始构型做局部能量最小化，
// 随后分块执行恒温随机动力学，每块记录一次势能，返回平衡后的构型与能量轨迹。
package minimize

import (
	"fmt"
	"math"

	"alchemy/engine"
	"alchemy/types"
)

// Protocol 最小化与平衡参数
type Protocol struct {
	Tolerance          float64        `json:"tolerance" yaml:"tolerance" koanf:"tolerance"`                                     // 最小化容差(kJ/mol/nm)
	MaxSteps           int            `json:"max_steps" yaml:"max_steps" koanf:"max_steps"`                                     // 最小化最大步数
	Temperature        types.Quantity `json:"temperature" yaml:"temperature" koanf:"temperature"`                               // 温度
	Friction           types.Quantity `json:"friction" yaml:"friction" koanf:"friction"`                                        // 碰撞频率
	TimeStep           types.Quantity `json:"time_step" yaml:"time_step" koanf:"time_step"`                                     // 积分步长
	NIterations        int            `json:"n_iterations" yaml:"n_iterations" koanf:"n_iterations"`                            // 动力学块数量
	NStepsPerIteration int            `json:"n_steps_per_iteration" yaml:"n_steps_per_iteration" koanf:"n_steps_per_iteration"` // 每块步数
	Seed               uint64         `json:"seed" yaml:"seed" koanf:"seed"`                                                    // 随机种子
}

// DefaultProtocol 默认参数
func DefaultProtocol() Protocol {
	return Protocol{
		Tolerance:          types.Tolerance,
		MaxSteps:           types.MaxSteps,
		Temperature:        types.Q(types.Temperature, types.Kelvin),
		Friction:           types.Q(types.Friction, types.PerPicosecond),
		TimeStep:           types.Q(types.TimeStep, types.Femtosecond),
		NIterations:        types.NIterations,
		NStepsPerIteration: types.NStepsPerIteration,
	}
}

// Validate 检查参数
func (p Protocol) Validate() error {
	switch {
	case !(p.Tolerance > 0) || math.IsInf(p.Tolerance, 0):
		return fmt.Errorf("%w: 最小化容差必须为正有限值: %v", types.ErrInvalidArgument, p.Tolerance)
	case p.MaxSteps <= 0:
		return fmt.Errorf("%w: 最小化最大步数必须为正: %d", types.ErrInvalidArgument, p.MaxSteps)
	case p.NIterations < 0:
		return fmt.Errorf("%w: 动力学块数量不能为负: %d", types.ErrInvalidArgument, p.NIterations)
	case p.NStepsPerIteration <= 0:
		return fmt.Errorf("%w: 每块步数必须为正: %d", types.ErrInvalidArgument, p.NStepsPerIteration)
	}
	// 温度、碰撞频率与步长的范围由积分器检查
	_, err := p.Integrator()
	return err
}

// Integrator 根据参数创建积分器
func (p Protocol) Integrator() (*engine.Langevin, error) {
	integrator, err := engine.NewLangevin(p.Temperature, p.Friction, p.TimeStep)
	if err != nil {
		return nil, err
	}
	integrator.SetSeed(p.Seed)
	return integrator, nil
}

// runInfo 转为调试信息
func (p Protocol) runInfo(runID string, particles int) types.RunInfo {
	return types.RunInfo{
		RunID:              runID,
		Particles:          particles,
		NIterations:        p.NIterations,
		NStepsPerIteration: p.NStepsPerIteration,
		TimeStep:           p.TimeStep,
		Tolerance:          p.Tolerance,
		MaxSteps:           p.MaxSteps,
	}
}
