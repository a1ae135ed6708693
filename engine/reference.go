package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r3"

	"alchemy/types"
)

// Reference 进程内参考引擎
// 同时存在的上下文数量受 capacity 限制，超过时返回 ErrResourceExhaustion
type Reference struct {
	mu       sync.Mutex
	capacity int // 上下文容量，<=0 表示不限制
	live     int // 当前存活上下文
	opened   int // 累计创建的上下文
}

// NewReference 创建参考引擎
func NewReference(capacity int) *Reference {
	return &Reference{capacity: capacity}
}

// Live 当前存活上下文数量
func (r *Reference) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// Opened 累计创建的上下文数量
func (r *Reference) Opened() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened
}

// NewContext 创建上下文
func (r *Reference) NewContext(system System, integrator *Langevin, positions []r3.Vec) (Context, error) {
	if system == nil {
		return nil, fmt.Errorf("%w: 势能函数为空", types.ErrInvalidArgument)
	}
	if integrator == nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidArgument, errNilIntegrator)
	}
	n := system.NumParticles()
	if len(positions) != n {
		return nil, fmt.Errorf("%w: 坐标数量 %d, 粒子数量 %d", types.ErrIncompatibleSystem, len(positions), n)
	}
	r.mu.Lock()
	if r.capacity > 0 && r.live >= r.capacity {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: 上下文容量 %d 已用尽", types.ErrResourceExhaustion, r.capacity)
	}
	r.live++
	r.opened++
	r.mu.Unlock()

	ctx := &referenceContext{
		engine:     r,
		system:     system,
		integrator: integrator,
		params:     make(map[string]float64),
		x:          make([]float64, 3*n),
		v:          make([]float64, 3*n),
		grad:       make([]float64, 3*n),
		invMass:    make([]float64, n),
		rng:        rand.New(rand.NewPCG(integrator.Seed(), 0x9e3779b97f4a7c15)),
	}
	for k, v := range system.DefaultParameters() {
		ctx.params[k] = v
	}
	for i, p := range positions {
		ctx.x[3*i], ctx.x[3*i+1], ctx.x[3*i+2] = p.X, p.Y, p.Z
	}
	for i, m := range system.Masses() {
		if m > 0 {
			ctx.invMass[i] = 1 / m
		}
	}
	return ctx, nil
}

// referenceContext 参考上下文，速度初始为0
type referenceContext struct {
	engine     *Reference
	system     System
	integrator *Langevin
	params     map[string]float64
	x          []float64 // 坐标(nm)
	v          []float64 // 速度(nm/ps)
	grad       []float64 // 梯度缓存
	invMass    []float64 // 质量倒数，0 表示固定粒子
	rng        *rand.Rand
	released   bool
}

func (c *referenceContext) check() error {
	if c.released {
		return fmt.Errorf("%w: 上下文已释放", types.ErrInvalidArgument)
	}
	return nil
}

// PotentialEnergy 当前势能(kJ/mol)
func (c *referenceContext) PotentialEnergy() (types.Quantity, error) {
	if err := c.check(); err != nil {
		return types.Quantity{}, err
	}
	return types.Q(c.system.Evaluate(c.x, nil, c.params), types.KilojoulePerMole), nil
}

// Minimize L-BFGS 局部最小化
// 梯度无穷范数小于 tolerance 或达到 maxSteps 次主迭代即停止
func (c *referenceContext) Minimize(tolerance float64, maxSteps int) error {
	if err := c.check(); err != nil {
		return err
	}
	if !(tolerance > 0) || maxSteps <= 0 {
		return fmt.Errorf("%w: 容差 %v, 最大步数 %d", types.ErrInvalidArgument, tolerance, maxSteps)
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 { return c.system.Evaluate(x, nil, c.params) },
		Grad: func(grad, x []float64) { c.system.Evaluate(x, grad, c.params) },
	}
	settings := &optimize.Settings{
		GradientThreshold: tolerance,
		MajorIterations:   maxSteps,
		FuncEvaluations:   maxSteps * 25, // 线搜索也必须有上限
	}
	result, err := optimize.Minimize(problem, c.x, settings, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("%w: 最小化失败: %v", types.ErrNumericalInstability, err)
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) || !allFinite(result.X) {
		return fmt.Errorf("%w: 最小化得到非有限能量 %v", types.ErrNumericalInstability, result.F)
	}
	// 线搜索失败等情况仍保留已找到的最优点
	copy(c.x, result.X)
	return nil
}

// Step 执行 n 步 Langevin 蛙跳积分
func (c *referenceContext) Step(n int) error {
	if err := c.check(); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("%w: 步数 %d", types.ErrInvalidArgument, n)
	}
	a, b, noise := c.integrator.coefficients()
	dt := c.integrator.timeStep
	for step := 0; step < n; step++ {
		e := c.system.Evaluate(c.x, c.grad, c.params)
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return fmt.Errorf("%w: 第 %d 步能量 %v", types.ErrNumericalInstability, step, e)
		}
		for i, invMass := range c.invMass {
			if invMass == 0 {
				continue
			}
			sigma := noise * math.Sqrt(invMass)
			for d := 0; d < 3; d++ {
				k := 3*i + d
				c.v[k] = a*c.v[k] - b*c.grad[k]*invMass + sigma*c.rng.NormFloat64()
				c.x[k] += c.v[k] * dt
			}
		}
	}
	if !allFinite(c.x) {
		return fmt.Errorf("%w: 坐标出现非有限值", types.ErrNumericalInstability)
	}
	return nil
}

// Positions 当前坐标
func (c *referenceContext) Positions() ([]r3.Vec, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	pos := make([]r3.Vec, len(c.x)/3)
	for i := range pos {
		pos[i] = r3.Vec{X: c.x[3*i], Y: c.x[3*i+1], Z: c.x[3*i+2]}
	}
	return pos, nil
}

// SetParameter 设置全局参数，只接受势能函数声明过的参数
func (c *referenceContext) SetParameter(name string, value float64) error {
	if err := c.check(); err != nil {
		return err
	}
	if _, ok := c.params[name]; !ok {
		return fmt.Errorf("%w: 未知参数 %q", types.ErrInvalidArgument, name)
	}
	c.params[name] = value
	return nil
}

// Release 释放上下文，重复调用无效果
func (c *referenceContext) Release() error {
	if c.released {
		return nil
	}
	c.released = true
	c.engine.mu.Lock()
	c.engine.live--
	c.engine.mu.Unlock()
	return nil
}

func allFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
