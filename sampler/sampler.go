// Package sampler 整理交给扩展系综/SAMS 采样器的输入：热力学态、采样起点与运行设置。
package sampler

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"alchemy/minimize"
	"alchemy/schedule"
	"alchemy/types"
)

// ThermodynamicState 热力学态：同一势能函数在给定温度与耦合系数下的状态
type ThermodynamicState struct {
	Index       int                         `json:"index" yaml:"index"`             // 在阶梯中的位置
	Temperature types.Quantity              `json:"temperature" yaml:"temperature"` // 温度
	Parameters  schedule.CouplingParameters `json:"parameters" yaml:"parameters"`   // 耦合系数
}

// NewStates 根据阶梯生成热力学态，所有状态使用同一温度
func NewStates(s schedule.Schedule, temperature types.Quantity) ([]ThermodynamicState, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	kelvin, err := temperature.ValueIn(types.Kelvin)
	if err != nil {
		return nil, err
	}
	if !(kelvin > 0) || !temperature.IsFinite() {
		return nil, fmt.Errorf("%w: 温度必须大于0, 实际 %v", types.ErrInvalidArgument, temperature)
	}
	states := make([]ThermodynamicState, len(s))
	for i, p := range s {
		states[i] = ThermodynamicState{
			Index:       i,
			Temperature: types.Q(kelvin, types.Kelvin),
			Parameters:  p,
		}
	}
	return states, nil
}

// SamplerState 采样起点
type SamplerState struct {
	Positions []r3.Vec   `json:"positions" yaml:"positions"` // 坐标
	Unit      types.Unit `json:"unit" yaml:"unit"`           // 坐标单位
}

// NewSamplerState 从最小化后的构型创建采样起点，坐标被复制
func NewSamplerState(c minimize.Configuration) (SamplerState, error) {
	pos, err := c.Nanometers()
	if err != nil {
		return SamplerState{}, err
	}
	return SamplerState{Positions: pos, Unit: types.Nanometer}, nil
}

// UpdateScheme 扩展系综的状态更新方式
type UpdateScheme string

const (
	GlobalJump      UpdateScheme = "global-jump"
	LocalJump       UpdateScheme = "local-jump"
	RestrictedRange UpdateScheme = "restricted-range"
)

// UpdateMethod SAMS 对数权重的更新方式
type UpdateMethod string

const (
	UpdateDefault UpdateMethod = "default"
	UpdateOptimal UpdateMethod = "optimal"
)

// Settings 扩展系综/SAMS 运行设置
type Settings struct {
	UpdateScheme UpdateScheme `json:"update_scheme" yaml:"update_scheme" koanf:"update_scheme"` // 状态更新方式
	Locality     int          `json:"locality" yaml:"locality" koanf:"locality"`                // 局部跳跃范围
	MCMCSteps    int          `json:"mcmc_steps" yaml:"mcmc_steps" koanf:"mcmc_steps"`          // 每次迭代的动力学步数
	UpdateMethod UpdateMethod `json:"update_method" yaml:"update_method" koanf:"update_method"` // 权重更新方式
	NIterations  int          `json:"n_iterations" yaml:"n_iterations" koanf:"n_iterations"`    // 迭代次数
	InitialState int          `json:"initial_state" yaml:"initial_state" koanf:"initial_state"` // 起始热力学态
}

// DefaultSettings 默认设置
func DefaultSettings() Settings {
	return Settings{
		UpdateScheme: GlobalJump,
		Locality:     10,
		MCMCSteps:    5000,
		UpdateMethod: UpdateOptimal,
		NIterations:  10000,
		InitialState: 0,
	}
}

// Validate 检查设置，nStates 为热力学态数量
func (s Settings) Validate(nStates int) error {
	if !slices.Contains([]UpdateScheme{GlobalJump, LocalJump, RestrictedRange}, s.UpdateScheme) {
		return fmt.Errorf("%w: 未知更新方式 %q", types.ErrInvalidArgument, s.UpdateScheme)
	}
	if !slices.Contains([]UpdateMethod{UpdateDefault, UpdateOptimal}, s.UpdateMethod) {
		return fmt.Errorf("%w: 未知权重更新方式 %q", types.ErrInvalidArgument, s.UpdateMethod)
	}
	switch {
	case s.Locality <= 0:
		return fmt.Errorf("%w: locality 必须为正: %d", types.ErrInvalidArgument, s.Locality)
	case s.MCMCSteps <= 0:
		return fmt.Errorf("%w: mcmc_steps 必须为正: %d", types.ErrInvalidArgument, s.MCMCSteps)
	case s.NIterations < 0:
		return fmt.Errorf("%w: n_iterations 不能为负: %d", types.ErrInvalidArgument, s.NIterations)
	case s.InitialState < 0 || s.InitialState >= nStates:
		return fmt.Errorf("%w: 起始状态 %d 超出 [0,%d)", types.ErrInvalidArgument, s.InitialState, nStates)
	}
	return nil
}
