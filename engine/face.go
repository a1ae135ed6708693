// Package engine 定义模拟引擎抽象：势能函数、执行上下文与积分器设置，
// 并提供一个进程内参考实现。
package engine

import (
	"gonum.org/v1/gonum/spatial/r3"

	"alchemy/types"
)

// System 势能函数
// 坐标为扁平数组 x[3*i+d]，单位 nm；能量单位 kJ/mol
type System interface {
	NumParticles() int                                             // 粒子数量
	Masses() []float64                                             // 粒子质量(amu)
	Fingerprint() uint64                                           // 参数指纹，用于判断构型是否属于该势能函数
	DefaultParameters() map[string]float64                         // 全局参数默认值
	Evaluate(x, grad []float64, params map[string]float64) float64 // 计算能量，grad 非空时写入梯度
}

// Engine 执行上下文工厂
type Engine interface {
	NewContext(system System, integrator *Langevin, positions []r3.Vec) (Context, error)
}

// Context 绑定势能函数、积分器与坐标的执行上下文
// 每次驱动调用独占一个上下文，结束时必须 Release
type Context interface {
	PotentialEnergy() (types.Quantity, error)       // 当前势能
	Minimize(tolerance float64, maxSteps int) error // 局部最小化
	Step(n int) error                               // 执行 n 步随机动力学
	Positions() ([]r3.Vec, error)                   // 当前坐标(nm)
	SetParameter(name string, value float64) error  // 设置全局参数
	Release() error                                 // 释放上下文
}
