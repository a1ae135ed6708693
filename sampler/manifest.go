package sampler

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"alchemy/minimize"
	"alchemy/types"
)

// Manifest 交给采样器的清单
type Manifest struct {
	RunID       string               `yaml:"run_id"`              // 准备运行编号
	Created     time.Time            `yaml:"created"`             // 生成时间
	Structure   string               `yaml:"structure,omitempty"` // 平衡后结构文件
	Fingerprint string               `yaml:"fingerprint"`         // 势能函数指纹(十六进制)
	Seed        uint64               `yaml:"seed"`                // 平衡使用的随机种子
	Initial     types.Quantity       `yaml:"initial_energy"`      // 初始能量
	Minimized   types.Quantity       `yaml:"minimized_energy"`    // 最小化后能量
	Trace       []types.Quantity     `yaml:"trace"`               // 平衡能量轨迹
	Settings    Settings             `yaml:"settings"`            // 采样设置
	States      []ThermodynamicState `yaml:"states"`              // 热力学态
}

// NewManifest 汇总热力学态、设置与平衡结果
func NewManifest(runID string, states []ThermodynamicState, settings Settings, res *minimize.Result, seed uint64) (*Manifest, error) {
	if err := settings.Validate(len(states)); err != nil {
		return nil, err
	}
	m := &Manifest{
		RunID:    runID,
		Created:  time.Now().UTC().Truncate(time.Second),
		Seed:     seed,
		Settings: settings,
		States:   states,
	}
	if res != nil {
		m.Initial, m.Minimized = res.Initial, res.Minimized
		m.Trace = append([]types.Quantity{}, res.Trace...)
		if res.Configuration.System != nil {
			m.Fingerprint = fmt.Sprintf("%016x", res.Configuration.System.Fingerprint())
		}
	}
	return m, nil
}

// Validate 检查清单
func (m *Manifest) Validate() error {
	if len(m.States) == 0 {
		return fmt.Errorf("%w: 清单没有热力学态", types.ErrInvalidArgument)
	}
	for i, st := range m.States {
		if st.Index != i {
			return fmt.Errorf("%w: 第 %d 个热力学态的编号为 %d", types.ErrInvalidArgument, i, st.Index)
		}
		if err := st.Parameters.Validate(); err != nil {
			return err
		}
	}
	return m.Settings.Validate(len(m.States))
}

// WriteYAML 输出 YAML
func (m *Manifest) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}

// ReadYAML 读取并检查清单
func ReadYAML(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: 清单解析失败: %v", types.ErrInvalidArgument, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
