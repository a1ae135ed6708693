package debug

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"alchemy/schedule"
)

// Charts 曲线绘制
type Charts struct {
	Record
	Schedule schedule.Schedule // 炼金路径，可为空
}

// lineOptions 曲线公共配置
func lineOptions(title, subtitle string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithAnimation(true),
	}
}

// EnergyLine 能量轨迹曲线
func (c *Charts) EnergyLine() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(lineOptions("能量曲线", "平衡阶段每块结束时的势能(kcal/mol)")...)
	x := make([]string, 0, len(c.Block)+2)
	items := make([]opts.LineData, 0, len(c.Energy)+2)
	if c.Initial != nil {
		x = append(x, "初始")
		items = append(items, opts.LineData{Value: kcal(*c.Initial)})
	}
	if c.Minimized != nil {
		x = append(x, "最小化")
		items = append(items, opts.LineData{Value: kcal(*c.Minimized)})
	}
	for i, b := range c.Block {
		x = append(x, fmt.Sprintf("%d", b))
		items = append(items, opts.LineData{Value: c.Energy[i]})
	}
	line.SetXAxis(x).AddSeries("势能", items)
	return line
}

// ScheduleLine 炼金路径曲线
func ScheduleLine(s schedule.Schedule) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(lineOptions("炼金路径", "各热力学态的耦合系数")...)
	x := make([]int, s.Len())
	sterics := make([]opts.LineData, s.Len())
	electrostatics := make([]opts.LineData, s.Len())
	for i, st := range s {
		x[i] = i
		sterics[i] = opts.LineData{Value: st.Sterics}
		electrostatics[i] = opts.LineData{Value: st.Electrostatics}
	}
	line.SetXAxis(x).
		AddSeries("lambda_sterics", sterics).
		AddSeries("lambda_electrostatics", electrostatics)
	return line
}

// Render 格式化
func (c *Charts) Render(w io.Writer) error {
	// 构建界面
	page := components.NewPage()
	page.AddCharts(c.EnergyLine())
	if c.Schedule.Len() > 0 {
		page.AddCharts(ScheduleLine(c.Schedule))
	}
	return page.Render(w)
}

// Handler 发布到网页面
func (c *Charts) Handler(w http.ResponseWriter, _ *http.Request) {
	if err := c.Render(w); err != nil {
		slog.Error("曲线输出失败", "err", err)
	}
}
