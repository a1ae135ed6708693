package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "alchemy",
	Short:         "炼金自由能计算的准备工具",
	Long:          `构建静电/范德华两阶段炼金路径，最小化并平衡初始构型，输出交给采样器的清单。`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML 配置文件")
	rootCmd.PersistentFlags().String("log-level", "info", "日志级别 debug/info/warn/error")
	rootCmd.PersistentFlags().String("log-format", "text", "日志格式 text/json")
	rootCmd.PersistentFlags().Int("steps", 25, "每个阶段的步数")
	rootCmd.AddCommand(scheduleCmd, prepareCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}
