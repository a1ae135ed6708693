// Package debug 提供驱动的调试观察者：历史记录、曲线、日志与指标。
package debug

import (
	"encoding/json"
	"io"
	"math"

	"github.com/google/uuid"

	"alchemy/types"
)

// Record 记录历史状态
type Record struct {
	RunID     string          `json:"run_id"`           // 运行编号
	Info      types.RunInfo   `json:"info"`             // 运行信息
	Initial   *types.Quantity `json:"initial"`          // 初始能量
	Minimized *types.Quantity `json:"minimized"`        // 最小化后能量
	Block     []int           `json:"block"`            // 块索引列
	Energy    []float64       `json:"energy"`           // 能量列(kcal/mol)
	Errors    []string        `json:"errors,omitempty"` // 错误信息
}

// Init 初始化并清空历史，没有运行编号时生成新的编号
func (list *Record) Init(run types.RunInfo) {
	*list = Record{
		RunID: run.RunID,
		Info:  run,
	}
	if list.RunID == "" {
		list.RunID = uuid.NewString()
	}
}

// Render 格式和输出内容
func (list *Record) Render(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}

// Update 记录数据
func (list *Record) Update(sample types.Sample) {
	e := sample.Energy
	switch sample.Stage {
	case types.StageInitial:
		list.Initial = &e
	case types.StageMinimization:
		list.Minimized = &e
	case types.StageDynamics:
		v, err := e.ValueIn(types.KilocaloriePerMole)
		if err != nil {
			list.Error(err)
			return
		}
		list.Block = append(list.Block, sample.Block)
		list.Energy = append(list.Energy, v)
	}
}

func (list *Record) Error(err error) {
	list.Errors = append(list.Errors, err.Error())
}

// kcal 转为 kcal/mol，单位错误时返回 NaN
func kcal(q types.Quantity) float64 {
	v, err := q.ValueIn(types.KilocaloriePerMole)
	if err != nil {
		return math.NaN()
	}
	return v
}
