package alchemy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"alchemy/config"
	"alchemy/engine"
	"alchemy/forcefield"
	"alchemy/load"
	"alchemy/minimize"
	"alchemy/sampler"
	"alchemy/schedule"
	"alchemy/types"
)

// Alchemy 炼金自由能准备流程
type Alchemy struct {
	Config   *config.Config
	Molecule *forcefield.Molecule   // 读入的结构
	System   *forcefield.Nonbonded  // 参考势能函数
	Initial  minimize.Configuration // 初始构型(nm)
	Engine   engine.Engine          // 模拟引擎
	Debug    types.Debug            // 调试观察者
	Logger   *slog.Logger
}

// Option 流程选项
type Option func(a *Alchemy)

// WithEngine 指定引擎，默认使用参考引擎
func WithEngine(eng engine.Engine) Option { return func(a *Alchemy) { a.Engine = eng } }

// WithDebug 指定调试观察者
func WithDebug(debug types.Debug) Option { return func(a *Alchemy) { a.Debug = debug } }

// WithLogger 指定日志
func WithLogger(logger *slog.Logger) Option { return func(a *Alchemy) { a.Logger = logger } }

// New 初始化
func New(cfg *config.Config, opts ...Option) (*Alchemy, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: 配置为空", types.ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Alchemy{Config: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.Engine == nil {
		a.Engine = engine.NewReference(cfg.System.Capacity)
	}
	if a.Debug == nil {
		a.Debug = types.NopDebug{}
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	return a, nil
}

// Load 读取结构文件并建立体系
func (a *Alchemy) Load(filename string) error {
	mol, err := load.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("读取结构 %s 失败: %w", filename, err)
	}
	return a.SetMolecule(mol)
}

// SetMolecule 根据分子结构建立体系与初始构型
func (a *Alchemy) SetMolecule(mol *forcefield.Molecule) error {
	sys := a.Config.System
	nb, positions, err := forcefield.FromMolecule(mol, mol.Coords, sys.AlchemicalResidues, sys.Options()...)
	if err != nil {
		return err
	}
	alchemical := nb.Alchemical()
	if len(alchemical) == 0 && len(sys.AlchemicalResidues) > 0 {
		a.Logger.Warn("炼金残基没有匹配到原子", "residues", sys.AlchemicalResidues.String())
	}
	a.Logger.Info("体系已建立",
		"title", mol.Title,
		"particles", nb.NumParticles(),
		"alchemical", len(alchemical),
		"fingerprint", fmt.Sprintf("%016x", nb.Fingerprint()))
	a.Molecule, a.System = mol, nb
	a.Initial = minimize.NewConfiguration(nb, positions)
	return nil
}

// Report 一次准备的结果
type Report struct {
	RunID        string                       // 运行编号
	Schedule     schedule.Schedule            // 炼金路径
	States       []sampler.ThermodynamicState // 热力学态
	Result       *minimize.Result             // 最小化与平衡结果
	SamplerState sampler.SamplerState         // 采样器初始状态
	Manifest     *sampler.Manifest            // 交给采样器的清单
}

// Prepare 生成炼金路径与热力学态，最小化并平衡初始构型
func (a *Alchemy) Prepare(ctx context.Context) (*Report, error) {
	if a.System == nil {
		return nil, fmt.Errorf("%w: 尚未读取结构", types.ErrInvalidArgument)
	}
	cfg := a.Config
	sched, err := cfg.BuildSchedule()
	if err != nil {
		return nil, err
	}
	states, err := sampler.NewStates(sched, cfg.Protocol.Temperature)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	a.Logger.Info("开始最小化与平衡", "run", runID, "states", len(states))

	driver := minimize.NewDriver(a.Engine, a.Debug)
	driver.RunID = runID
	// 在采样起始状态上平衡
	driver.Parameters = sched[cfg.Sampler.InitialState].Parameters()
	res, err := driver.Run(ctx, a.System, a.Initial, cfg.Protocol)
	if err != nil {
		a.Logger.Error("最小化与平衡失败", "run", runID, "err", err)
		return nil, err
	}
	state, err := sampler.NewSamplerState(res.Configuration)
	if err != nil {
		return nil, err
	}
	manifest, err := sampler.NewManifest(runID, states, cfg.Sampler, res, cfg.Protocol.Seed)
	if err != nil {
		return nil, err
	}
	a.Logger.Info("准备完成", "run", runID, "minimized", res.Minimized.String())
	return &Report{
		RunID:        runID,
		Schedule:     sched,
		States:       states,
		Result:       res,
		SamplerState: state,
		Manifest:     manifest,
	}, nil
}

// Export 按扩展名导出结构，positions 单位为 nm，为空时导出初始结构
func (a *Alchemy) Export(filename string, positions []r3.Vec) error {
	if a.Molecule == nil {
		return fmt.Errorf("%w: 尚未读取结构", types.ErrInvalidArgument)
	}
	var coords []r3.Vec
	if positions != nil {
		coords = forcefield.ToCoords(positions)
	}
	return load.WriteFile(filename, a.Molecule, coords)
}
