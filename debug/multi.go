package debug

import (
	"errors"
	"io"

	"alchemy/types"
)

// Multi 将调试信息分发给多个观察者
type Multi []types.Debug

func (m Multi) Init(run types.RunInfo) {
	for _, d := range m {
		d.Init(run)
	}
}

func (m Multi) Update(sample types.Sample) {
	for _, d := range m {
		d.Update(sample)
	}
}

// Render 依次输出，返回所有错误
func (m Multi) Render(w io.Writer) error {
	var errs []error
	for _, d := range m {
		errs = append(errs, d.Render(w))
	}
	return errors.Join(errs...)
}

func (m Multi) Error(err error) {
	for _, d := range m {
		d.Error(err)
	}
}
