package schedule

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"alchemy/types"
)

// RenderTable 以表格形式输出阶梯
func RenderTable(w io.Writer, s Schedule) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	// 表头保持采样器使用的参数名
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"state", "phase", types.LambdaSterics, types.LambdaElectrostatics})
	for i, p := range s {
		t.AppendRow(table.Row{i, s.Phase(i), fmt.Sprintf("%.4f", p.Sterics), fmt.Sprintf("%.4f", p.Electrostatics)})
	}
	t.AppendFooter(table.Row{"", "total", len(s), ""})
	t.Render()
}
