// Package config 分层读取运行配置：默认值、YAML 文件、ALCHEMY_ 环境变量、命令行参数，
// 后者覆盖前者。
package config

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"alchemy/forcefield"
	"alchemy/minimize"
	"alchemy/sampler"
	"alchemy/schedule"
	"alchemy/types"
	"alchemy/utils"
)

// EnvPrefix 环境变量前缀，"__" 表示层级，如 ALCHEMY_PROTOCOL__MAX_STEPS
const EnvPrefix = "ALCHEMY_"

// Config 运行配置
type Config struct {
	Schedule ScheduleConfig    `koanf:"schedule"`
	Protocol minimize.Protocol `koanf:"protocol"`
	System   SystemConfig      `koanf:"system"`
	Sampler  sampler.Settings  `koanf:"sampler"`
	Output   OutputConfig      `koanf:"output"`
	Log      LogConfig         `koanf:"log"`
}

// ScheduleConfig 炼金路径
type ScheduleConfig struct {
	Steps int `koanf:"steps"` // 每个阶段的步数
}

// SystemConfig 体系与参考引擎
type SystemConfig struct {
	Structure                string               `koanf:"structure"`                 // 结构文件(pdb/xyz/gro)
	AlchemicalResidues       forcefield.Selection `koanf:"alchemical_residues"`       // 炼金残基区间
	Cutoff                   float64              `koanf:"cutoff"`                    // 非键截断(nm)
	SoftcoreAlpha            float64              `koanf:"softcore_alpha"`            // 软核 alpha
	AnnihilateSterics        bool                 `koanf:"annihilate_sterics"`        // 解耦炼金原子之间的范德华
	AnnihilateElectrostatics bool                 `koanf:"annihilate_electrostatics"` // 解耦炼金原子之间的静电
	Capacity                 int                  `koanf:"capacity"`                  // 引擎上下文容量
}

// OutputConfig 输出
type OutputConfig struct {
	Dir    string `koanf:"dir"`    // 输出目录
	Format string `koanf:"format"` // 平衡后结构格式，pdb 或 xyz
}

// LogConfig 日志
type LogConfig struct {
	Level  string `koanf:"level"`  // debug/info/warn/error
	Format string `koanf:"format"` // text/json
}

// flagKeys 命令行参数到配置键的映射，未列出的参数不参与配置
var flagKeys = map[string]string{
	"steps":               "schedule.steps",
	"tolerance":           "protocol.tolerance",
	"max-steps":           "protocol.max_steps",
	"temperature":         "protocol.temperature",
	"friction":            "protocol.friction",
	"timestep":            "protocol.time_step",
	"iterations":          "protocol.n_iterations",
	"steps-per-iteration": "protocol.n_steps_per_iteration",
	"seed":                "protocol.seed",
	"structure":           "system.structure",
	"residues":            "system.alchemical_residues",
	"cutoff":              "system.cutoff",
	"capacity":            "system.capacity",
	"output":              "output.dir",
	"format":              "output.format",
	"log-level":           "log.level",
	"log-format":          "log.format",
}

// Defaults 默认配置
func Defaults() map[string]any {
	p := minimize.DefaultProtocol()
	s := sampler.DefaultSettings()
	return map[string]any{
		"schedule.steps":                   types.DefaultScheduleSteps,
		"protocol.tolerance":               p.Tolerance,
		"protocol.max_steps":               p.MaxSteps,
		"protocol.temperature":             quantity(p.Temperature),
		"protocol.friction":                quantity(p.Friction),
		"protocol.time_step":               quantity(p.TimeStep),
		"protocol.n_iterations":            p.NIterations,
		"protocol.n_steps_per_iteration":   p.NStepsPerIteration,
		"protocol.seed":                    p.Seed,
		"system.cutoff":                    types.DefaultCutoff,
		"system.softcore_alpha":            types.DefaultSoftcoreAlpha,
		"system.annihilate_sterics":        true,
		"system.annihilate_electrostatics": true,
		"system.capacity":                  types.DefaultEngineCapacity,
		"sampler.update_scheme":            string(s.UpdateScheme),
		"sampler.locality":                 s.Locality,
		"sampler.mcmc_steps":               s.MCMCSteps,
		"sampler.update_method":            string(s.UpdateMethod),
		"sampler.n_iterations":             s.NIterations,
		"sampler.initial_state":            s.InitialState,
		"output.dir":                       types.DefaultOutputDir,
		"output.format":                    "pdb",
		"log.level":                        "info",
		"log.format":                       types.DefaultLogFormat,
	}
}

func quantity(q types.Quantity) string { return fmt.Sprintf("%g %s", q.Value, q.Unit) }

// Load 读取配置，path 为空时跳过文件，flags 中只有显式设置的参数生效
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	// 1. 默认值
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("加载默认配置失败: %w", err)
	}
	// 2. 配置文件
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: 读取配置文件 %s 失败: %v", types.ErrInvalidArgument, path, err)
		}
	}
	// 3. 环境变量
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("加载环境变量失败: %w", err)
	}
	// 4. 命令行参数
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("加载命令行参数失败: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				quantityHook(),
				selectionHook(),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("%w: 配置解析失败: %v", types.ErrInvalidArgument, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// quantityHook 将 "300 K" 形式的字符串解析为 types.Quantity
func quantityHook() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(types.Quantity{})
	return func(from, to reflect.Type, data any) (any, error) {
		if to != target || from.Kind() != reflect.String {
			return data, nil
		}
		return types.ParseQuantity(data.(string))
	}
}

// selectionHook 将 "403-483,1052-1109" 形式的字符串解析为残基选择
func selectionHook() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(forcefield.Selection{})
	return func(from, to reflect.Type, data any) (any, error) {
		if to != target || from.Kind() != reflect.String {
			return data, nil
		}
		return forcefield.ParseSelection(data.(string))
	}
}

// Validate 检查配置
func (c *Config) Validate() error {
	if c.Schedule.Steps <= 0 {
		return fmt.Errorf("%w: schedule.steps 必须为正: %d", types.ErrInvalidArgument, c.Schedule.Steps)
	}
	if err := c.Protocol.Validate(); err != nil {
		return err
	}
	if err := c.System.Validate(); err != nil {
		return err
	}
	if err := c.Sampler.Validate(2*c.Schedule.Steps + 1); err != nil {
		return err
	}
	if !slices.Contains([]string{"pdb", "xyz"}, c.Output.Format) {
		return fmt.Errorf("%w: 未知结构格式 %q", types.ErrInvalidArgument, c.Output.Format)
	}
	if _, err := utils.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if !slices.Contains([]string{"text", "json"}, c.Log.Format) {
		return fmt.Errorf("%w: 日志格式 %q", types.ErrInvalidArgument, c.Log.Format)
	}
	return nil
}

// Validate 检查体系配置
func (s SystemConfig) Validate() error {
	switch {
	case !(s.Cutoff >= 0):
		return fmt.Errorf("%w: cutoff 不能为负: %v", types.ErrInvalidArgument, s.Cutoff)
	case !(s.SoftcoreAlpha > 0):
		return fmt.Errorf("%w: softcore_alpha 必须为正: %v", types.ErrInvalidArgument, s.SoftcoreAlpha)
	case s.Capacity < 0:
		return fmt.Errorf("%w: capacity 不能为负: %d", types.ErrInvalidArgument, s.Capacity)
	}
	return s.AlchemicalResidues.Validate()
}

// BuildSchedule 根据配置生成炼金路径
func (c *Config) BuildSchedule() (schedule.Schedule, error) {
	return schedule.Build(c.Schedule.Steps)
}

// Options 参考势能函数选项
func (s SystemConfig) Options() []forcefield.Option {
	return []forcefield.Option{
		forcefield.WithCutoff(s.Cutoff),
		forcefield.WithSoftcoreAlpha(s.SoftcoreAlpha),
		forcefield.WithAnnihilation(s.AnnihilateSterics, s.AnnihilateElectrostatics),
	}
}
