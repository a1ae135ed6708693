package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"alchemy"
	"alchemy/config"
	"alchemy/debug"
	"alchemy/utils"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare [structure]",
	Short: "最小化并平衡初始构型，输出清单",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path, cmd.Flags())
		if err != nil {
			return err
		}
		if len(args) > 0 {
			cfg.System.Structure = args[0]
		}
		if cfg.System.Structure == "" {
			return fmt.Errorf("没有指定结构文件")
		}
		level, err := utils.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logger, err := utils.NewLogger(cmd.ErrOrStderr(), level, cfg.Log.Format)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return prepare(ctx, cmd.OutOrStdout(), cfg, logger)
	},
}

func init() {
	f := prepareCmd.Flags()
	f.String("structure", "", "结构文件(pdb/xyz/gro)")
	f.String("residues", "", "炼金残基，如 403-483,1052-1109")
	f.Float64("cutoff", 0.9, "非键截断(nm)")
	f.Int("capacity", 1, "参考引擎上下文容量")
	f.Float64("tolerance", 0.9, "最小化容差(kJ/mol/nm)")
	f.Int("max-steps", 200, "最小化最大步数")
	f.String("temperature", "300 K", "温度")
	f.String("friction", "90 1/ps", "碰撞频率")
	f.String("timestep", "1 fs", "积分步长")
	f.Int("iterations", 10, "动力学块数量")
	f.Int("steps-per-iteration", 50, "每块动力学步数")
	f.Uint64("seed", 0, "随机种子")
	f.StringP("output", "o", ".", "输出目录")
	f.String("format", "pdb", "平衡后结构格式 pdb/xyz")
}

func prepare(ctx context.Context, stdout io.Writer, cfg *config.Config, logger *slog.Logger) error {
	charts := &debug.Charts{}
	fig := &debug.Plot{}
	log := &debug.Log{Logger: logger}
	metrics := debug.NewMetrics()

	a, err := alchemy.New(cfg,
		alchemy.WithDebug(debug.Multi{charts, fig, log, metrics}),
		alchemy.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := a.Load(cfg.System.Structure); err != nil {
		return err
	}
	report, err := a.Prepare(ctx)
	if err != nil {
		return err
	}
	charts.Schedule = report.Schedule

	dir := cfg.Output.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	minimized := "minimized." + cfg.Output.Format
	report.Manifest.Structure = minimized

	g := new(errgroup.Group)
	g.Go(func() error {
		return a.Export(filepath.Join(dir, minimized), report.Result.Configuration.Positions)
	})
	g.Go(func() error { return a.Export(filepath.Join(dir, "initial."+cfg.Output.Format), nil) })
	g.Go(func() error { return writeFile(filepath.Join(dir, "trace.json"), charts.Record.Render) })
	g.Go(func() error { return writeFile(filepath.Join(dir, "trace.html"), charts.Render) })
	g.Go(func() error { return writeFile(filepath.Join(dir, "trace.png"), fig.Render) })
	g.Go(func() error { return writeFile(filepath.Join(dir, "handoff.yaml"), report.Manifest.WriteYAML) })
	g.Go(func() error { return metrics.WriteTextfile(filepath.Join(dir, "metrics.prom")) })
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("输出完成", "dir", dir, "run", report.RunID)

	if err := log.Render(stdout); err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, charts.Summary())
	return err
}

// writeFile 创建文件并写入
func writeFile(path string, render func(w io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(file); err != nil {
		file.Close()
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return file.Close()
}
