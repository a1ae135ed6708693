package engine

import (
	"errors"
	"fmt"
	"math"

	"alchemy/types"
)

// BoltzmannKJ 玻尔兹曼常数(kJ/mol/K)
const BoltzmannKJ = 0.008314462618

// 常量定义（通用配置阈值）
const (
	minValidStep = 1e-6 // 最小有效步长(ps)
	maxValidStep = 0.01 // 最大有效步长(ps)，超过后普通分子体系必然发散
)

// Langevin 随机动力学积分器设置
// 内部统一使用 K、1/ps、ps
type Langevin struct {
	temperature float64 // 热浴温度
	friction    float64 // 摩擦系数
	timeStep    float64 // 积分步长
	seed        uint64  // 随机数种子
}

// NewLangevin 创建积分器设置
// 参数：temperature - 温度，friction - 摩擦系数，timeStep - 步长，均需带单位
func NewLangevin(temperature, friction, timeStep types.Quantity) (*Langevin, error) {
	temp, err := temperature.ValueIn(types.Kelvin)
	if err != nil {
		return nil, err
	}
	gamma, err := friction.ValueIn(types.PerPicosecond)
	if err != nil {
		return nil, err
	}
	dt, err := timeStep.ValueIn(types.Picosecond)
	if err != nil {
		return nil, err
	}
	l := &Langevin{}
	if err := l.SetTemperature(temp); err != nil {
		return nil, err
	}
	if err := l.SetFriction(gamma); err != nil {
		return nil, err
	}
	if err := l.SetTimeStep(dt); err != nil {
		return nil, err
	}
	return l, nil
}

// SetTemperature 设置温度(K)
func (l *Langevin) SetTemperature(temp float64) error {
	if !(temp > 0) || math.IsInf(temp, 0) {
		return fmt.Errorf("%w: 温度必须大于0, 实际 %v", types.ErrInvalidArgument, temp)
	}
	l.temperature = temp
	return nil
}

// SetFriction 设置摩擦系数(1/ps)，0 表示无热浴
func (l *Langevin) SetFriction(gamma float64) error {
	if !(gamma >= 0) || math.IsInf(gamma, 0) {
		return fmt.Errorf("%w: 摩擦系数不能为负, 实际 %v", types.ErrInvalidArgument, gamma)
	}
	l.friction = gamma
	return nil
}

// SetTimeStep 设置步长(ps)
func (l *Langevin) SetTimeStep(dt float64) error {
	if !(dt >= minValidStep && dt <= maxValidStep) {
		return fmt.Errorf("%w: 步长 %v ps 超出 [%v, %v]", types.ErrInvalidArgument, dt, minValidStep, maxValidStep)
	}
	l.timeStep = dt
	return nil
}

// SetSeed 设置随机数种子
func (l *Langevin) SetSeed(seed uint64) { l.seed = seed }

// Seed 随机数种子
func (l *Langevin) Seed() uint64 { return l.seed }

// Temperature 温度
func (l *Langevin) Temperature() types.Quantity { return types.Q(l.temperature, types.Kelvin) }

// Friction 摩擦系数
func (l *Langevin) Friction() types.Quantity { return types.Q(l.friction, types.PerPicosecond) }

// TimeStep 步长
func (l *Langevin) TimeStep() types.Quantity { return types.Q(l.timeStep, types.Picosecond) }

// coefficients 返回速度缩放、力缩放和噪声幅度(乘以 1/sqrt(m) 前)
//
//	v' = a*v + b*F/m + c*R/sqrt(m)
func (l *Langevin) coefficients() (a, b, c float64) {
	if l.friction == 0 {
		return 1, l.timeStep, 0
	}
	a = math.Exp(-l.friction * l.timeStep)
	b = (1 - a) / l.friction
	c = math.Sqrt(BoltzmannKJ * l.temperature * (1 - a*a))
	return a, b, c
}

// errNilIntegrator 未提供积分器
var errNilIntegrator = errors.New("积分器为空")
