package minimize

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"alchemy/engine"
	"alchemy/types"
)

// Configuration 构型：坐标及其所属的势能函数
type Configuration struct {
	Positions []r3.Vec      // 坐标
	Unit      types.Unit    // 坐标单位，nm 或埃
	System    engine.System // 生成该构型的势能函数，为空表示未绑定
}

// NewConfiguration 创建以 nm 为单位的构型
func NewConfiguration(system engine.System, positions []r3.Vec) Configuration {
	return Configuration{Positions: positions, Unit: types.Nanometer, System: system}
}

// Nanometers 返回以 nm 为单位的坐标副本
func (c Configuration) Nanometers() ([]r3.Vec, error) {
	unit := c.Unit
	if unit == "" {
		unit = types.Nanometer
	}
	scale, err := types.Q(1, unit).ValueIn(types.Nanometer)
	if err != nil {
		return nil, err
	}
	out := make([]r3.Vec, len(c.Positions))
	for i, p := range c.Positions {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return nil, fmt.Errorf("%w: 第 %d 个坐标非有限", types.ErrInvalidArgument, i)
		}
		out[i] = r3.Scale(scale, p)
	}
	return out, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// EnergyTrace 能量轨迹，每个动力学块一个值
type EnergyTrace []types.Quantity

// Values 以指定单位返回数值
func (t EnergyTrace) Values(unit types.Unit) ([]float64, error) {
	out := make([]float64, len(t))
	for i, q := range t {
		v, err := q.ValueIn(unit)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Result 一次运行的结果
type Result struct {
	Configuration Configuration  // 平衡后的构型，单位 nm
	Trace         EnergyTrace    // 动力学能量轨迹
	Initial       types.Quantity // 初始能量
	Minimized     types.Quantity // 最小化后能量
}

// Driver 最小化与平衡驱动
// 引擎调用严格串行，不重试
type Driver struct {
	Engine     engine.Engine      // 引擎
	Debug      types.Debug        // 调试观察者，可为空
	RunID      string             // 运行编号，传给调试观察者
	Parameters map[string]float64 // 最小化与平衡所在热力学态的全局参数，为空时使用势能函数默认值
}

// NewDriver 创建驱动
func NewDriver(eng engine.Engine, debug types.Debug) *Driver {
	return &Driver{Engine: eng, Debug: debug}
}

func (d *Driver) debug() types.Debug {
	if d.Debug == nil {
		return types.NopDebug{}
	}
	return d.Debug
}

// Run 最小化并平衡构型
// 参数：
//
//	ctx: 只在动力学块之间检查取消
//	system: 势能函数
//	initial: 初始构型，必须属于 system
//	protocol: 最小化与平衡参数
func (d *Driver) Run(ctx context.Context, system engine.System, initial Configuration, protocol Protocol) (*Result, error) {
	debug := d.debug()
	res, err := d.run(ctx, debug, system, initial, protocol)
	if err != nil {
		debug.Error(err)
		return nil, err
	}
	return res, nil
}

// validate 检查输入，全部发生在引擎调用之前
func (d *Driver) validate(system engine.System, initial Configuration, protocol Protocol) (*engine.Langevin, []r3.Vec, error) {
	if d.Engine == nil {
		return nil, nil, fmt.Errorf("%w: 引擎为空", types.ErrInvalidArgument)
	}
	if system == nil {
		return nil, nil, fmt.Errorf("%w: 势能函数为空", types.ErrInvalidArgument)
	}
	if err := protocol.Validate(); err != nil {
		return nil, nil, err
	}
	defaults := system.DefaultParameters()
	for name, v := range d.Parameters {
		if _, ok := defaults[name]; !ok {
			return nil, nil, fmt.Errorf("%w: 势能函数没有参数 %q", types.ErrInvalidArgument, name)
		}
		if !finite(v) {
			return nil, nil, fmt.Errorf("%w: 参数 %s=%v 非有限", types.ErrInvalidArgument, name, v)
		}
	}
	integrator, err := protocol.Integrator()
	if err != nil {
		return nil, nil, err
	}
	if initial.System != nil && initial.System.Fingerprint() != system.Fingerprint() {
		return nil, nil, fmt.Errorf("%w: 构型属于另一个势能函数", types.ErrIncompatibleSystem)
	}
	if n := system.NumParticles(); len(initial.Positions) != n {
		return nil, nil, fmt.Errorf("%w: 坐标数量 %d, 粒子数量 %d", types.ErrIncompatibleSystem, len(initial.Positions), n)
	}
	positions, err := initial.Nanometers()
	if err != nil {
		return nil, nil, err
	}
	return integrator, positions, nil
}

func (d *Driver) run(ctx context.Context, debug types.Debug, system engine.System, initial Configuration, protocol Protocol) (res *Result, err error) {
	integrator, positions, err := d.validate(system, initial, protocol)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	debug.Init(protocol.runInfo(d.RunID, len(positions)))

	// 获取上下文，任何退出路径都释放一次
	simCtx, err := d.Engine.NewContext(system, integrator, positions)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := simCtx.Release(); rerr != nil && err == nil {
			res, err = nil, fmt.Errorf("释放上下文失败: %w", rerr)
		}
	}()

	// 切换到指定热力学态
	for _, name := range slices.Sorted(maps.Keys(d.Parameters)) {
		if err := simCtx.SetParameter(name, d.Parameters[name]); err != nil {
			return nil, err
		}
	}

	res = &Result{Trace: make(EnergyTrace, 0, protocol.NIterations)}
	// 初始能量
	if res.Initial, err = energy(simCtx, types.StageInitial, -1); err != nil {
		return nil, err
	}
	debug.Update(types.Sample{Stage: types.StageInitial, Block: -1, Energy: res.Initial})

	// 局部最小化
	if err := simCtx.Minimize(protocol.Tolerance, protocol.MaxSteps); err != nil {
		return nil, classify(types.StageMinimization, -1, err)
	}
	if res.Minimized, err = energy(simCtx, types.StageMinimization, -1); err != nil {
		return nil, err
	}
	debug.Update(types.Sample{Stage: types.StageMinimization, Block: -1, Energy: res.Minimized})

	// 分块动力学
	for block := 0; block < protocol.NIterations; block++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := simCtx.Step(protocol.NStepsPerIteration); err != nil {
			return nil, classify(types.StageDynamics, block, err)
		}
		e, err := energy(simCtx, types.StageDynamics, block)
		if err != nil {
			return nil, err
		}
		res.Trace = append(res.Trace, e)
		debug.Update(types.Sample{Stage: types.StageDynamics, Block: block, Steps: protocol.NStepsPerIteration, Energy: e})
	}

	final, err := simCtx.Positions()
	if err != nil {
		return nil, classify(types.StageDynamics, protocol.NIterations-1, err)
	}
	res.Configuration = NewConfiguration(system, final)
	return res, nil
}

// energy 读取势能，非有限值视为数值不稳定
func energy(simCtx engine.Context, stage types.Stage, block int) (types.Quantity, error) {
	e, err := simCtx.PotentialEnergy()
	if err != nil {
		return types.Quantity{}, classify(stage, block, err)
	}
	if !e.IsFinite() {
		return types.Quantity{}, types.Instability(stage, block, e, types.ErrNumericalInstability)
	}
	return e, nil
}

// classify 以驱动的阶段和块索引标记引擎的数值不稳定错误，其他错误原样返回
func classify(stage types.Stage, block int, err error) error {
	var ie *types.InstabilityError
	switch {
	case errors.As(err, &ie):
		return types.Instability(stage, block, ie.Energy, err)
	case errors.Is(err, types.ErrNumericalInstability):
		return types.Instability(stage, block, types.Quantity{}, err)
	}
	return err
}
