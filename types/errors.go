package types

import (
	"errors"
	"fmt"
)

// 错误类型定义，调用方通过 errors.Is 判断
var (
	// ErrInvalidArgument 参数非法，在任何引擎调用之前返回
	ErrInvalidArgument = errors.New("alchemy: 参数非法")
	// ErrNumericalInstability 最小化或积分出现非有限/发散能量
	ErrNumericalInstability = errors.New("alchemy: 数值不稳定")
	// ErrResourceExhaustion 引擎无法分配执行上下文
	ErrResourceExhaustion = errors.New("alchemy: 资源耗尽")
	// ErrIncompatibleSystem 构型与势能函数不匹配，属于参数非法
	ErrIncompatibleSystem = fmt.Errorf("%w: 构型与势能函数不匹配", ErrInvalidArgument)
)

// Stage 出错阶段
type Stage string

// 驱动阶段
const (
	StageInitial      Stage = "initial"
	StageMinimization Stage = "minimization"
	StageDynamics     Stage = "dynamics"
)

// InstabilityError 数值不稳定错误，携带出错阶段与动力学块索引
type InstabilityError struct {
	Stage  Stage    // 阶段
	Block  int      // 动力学块索引，非动力学阶段为 -1
	Energy Quantity // 出错时读取的能量(若有)
	Err    error    // 引擎原始错误
}

// Error 格式化
func (e *InstabilityError) Error() string {
	msg := fmt.Sprintf("数值不稳定 [%s", e.Stage)
	if e.Stage == StageDynamics {
		msg += fmt.Sprintf(" 块=%d", e.Block)
	}
	msg += "]"
	if e.Energy.Unit != "" {
		msg += " 能量=" + e.Energy.String()
	}
	if e.Err != nil && !errors.Is(e.Err, ErrNumericalInstability) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is 匹配 ErrNumericalInstability
func (e *InstabilityError) Is(target error) bool { return target == ErrNumericalInstability }

// Unwrap 返回引擎原始错误
func (e *InstabilityError) Unwrap() error { return e.Err }

// Instability 创建数值不稳定错误
func Instability(stage Stage, block int, energy Quantity, err error) error {
	return &InstabilityError{Stage: stage, Block: block, Energy: energy, Err: err}
}
