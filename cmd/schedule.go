package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"alchemy/config"
	"alchemy/debug"
	"alchemy/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "输出炼金路径",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path, cmd.Flags())
		if err != nil {
			return err
		}
		s, err := cfg.BuildSchedule()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		view, _ := cmd.Flags().GetString("view")
		switch view {
		case "table":
			schedule.RenderTable(out, s)
			return nil
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(s); err != nil {
				return err
			}
			return enc.Close()
		case "html":
			return debug.ScheduleLine(s).Render(out)
		}
		return fmt.Errorf("未知输出方式 %q", view)
	},
}

func init() {
	scheduleCmd.Flags().String("view", "table", "输出方式 table/yaml/html")
}
