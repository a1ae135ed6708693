package debug

import (
	"fmt"
	"io"
	"log/slog"

	"alchemy/types"
)

// Log 通过 slog 输出每次能量报告
type Log struct {
	Logger    *slog.Logger // 为空时使用 slog.Default()
	minimized *types.Quantity
	last      *types.Sample
}

func (l *Log) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// Init 输出运行信息
func (l *Log) Init(run types.RunInfo) {
	l.minimized, l.last = nil, nil
	l.logger().Info("开始最小化与平衡",
		"run", run.RunID,
		"particles", run.Particles,
		"blocks", run.NIterations,
		"steps_per_block", run.NStepsPerIteration,
		"timestep", run.TimeStep.String(),
	)
}

// Update 输出能量
func (l *Log) Update(sample types.Sample) {
	log := l.logger()
	switch sample.Stage {
	case types.StageInitial:
		log.Info(fmt.Sprintf("Initial energy is %12.3f kcal/mol", kcal(sample.Energy)))
	case types.StageMinimization:
		e := sample.Energy
		l.minimized = &e
		log.Info(minimizedLine(e))
	case types.StageDynamics:
		s := sample
		l.last = &s
		log.Info(blockLine(sample))
	}
}

// Render 输出最小化后与最后一块的能量
func (l *Log) Render(w io.Writer) error {
	if l.minimized != nil {
		if _, err := fmt.Fprintln(w, minimizedLine(*l.minimized)); err != nil {
			return err
		}
	}
	if l.last != nil {
		if _, err := fmt.Fprintln(w, blockLine(*l.last)); err != nil {
			return err
		}
	}
	return nil
}

func (l *Log) Error(err error) { l.logger().Error("运行失败", "err", err) }

func minimizedLine(e types.Quantity) string {
	return fmt.Sprintf("Final energy is   %12.3f kcal/mol", kcal(e))
}

func blockLine(s types.Sample) string {
	return fmt.Sprintf("Energy after iteration %d of %d steps : %.3f", s.Block, s.Steps, kcal(s.Energy))
}
