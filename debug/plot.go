package debug

import (
	"errors"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg" // png
	_ "gonum.org/v1/plot/vg/vgpdf" // pdf
	_ "gonum.org/v1/plot/vg/vgsvg" // svg
)

// errNoData 没有可绘制的数据
var errNoData = errors.New("没有动力学能量数据")

// Plot 静态图片输出
type Plot struct {
	Record
	Width  vg.Length // 宽度，0 使用默认值
	Height vg.Length // 高度，0 使用默认值
	Format string    // 图片格式，png/svg/pdf，空为 png
}

// Figure 生成能量轨迹图
// 没有动力学块时只标出最小化前后的能量
func (p *Plot) Figure() (*plot.Plot, error) {
	if len(p.Energy) == 0 && p.Initial == nil && p.Minimized == nil {
		return nil, errNoData
	}
	pl := plot.New()
	pl.Title.Text = "equilibration energy"
	pl.X.Label.Text = "block"
	pl.Y.Label.Text = "energy (kcal/mol)"
	pl.Add(plotter.NewGrid())
	if len(p.Energy) > 0 {
		pts := make(plotter.XYs, len(p.Energy))
		for i, e := range p.Energy {
			pts[i].X = float64(p.Block[i])
			pts[i].Y = e
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, err
		}
		pl.Add(line, points)
		pl.Legend.Add("dynamics", line, points)
	}
	if p.Minimized != nil {
		// 最小化后的能量作为参考线
		ref := plotter.NewFunction(func(float64) float64 { return kcal(*p.Minimized) })
		ref.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		pl.Add(ref)
		pl.Legend.Add("minimized", ref)
	}
	if len(p.Energy) == 0 {
		var pts plotter.XYs
		if p.Initial != nil {
			pts = append(pts, plotter.XY{X: -1, Y: kcal(*p.Initial)})
		}
		if p.Minimized != nil {
			pts = append(pts, plotter.XY{X: 0, Y: kcal(*p.Minimized)})
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		pl.Add(scatter)
		pl.Legend.Add("minimization", scatter)
	}
	return pl, nil
}

// Render 输出图片
func (p *Plot) Render(w io.Writer) error {
	pl, err := p.Figure()
	if err != nil {
		return err
	}
	width, height, format := p.Width, p.Height, p.Format
	if width == 0 {
		width = 6 * vg.Inch
	}
	if height == 0 {
		height = 4 * vg.Inch
	}
	if format == "" {
		format = "png"
	}
	wt, err := pl.WriterTo(width, height, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
