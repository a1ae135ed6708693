package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit 物理单位标记
type Unit string

// 支持的单位
const (
	KilojoulePerMole   Unit = "kJ/mol"
	KilocaloriePerMole Unit = "kcal/mol"
	Nanometer          Unit = "nm"
	Angstrom           Unit = "A"
	Kelvin             Unit = "K"
	PerPicosecond      Unit = "1/ps"
	Picosecond         Unit = "ps"
	Femtosecond        Unit = "fs"
)

// dimension 量纲
type dimension uint8

const (
	dimEnergy dimension = iota + 1
	dimLength
	dimTemperature
	dimRate
	dimTime
)

// unitTable 单位 -> 量纲与换算到基准单位的系数
var unitTable = map[Unit]struct {
	dim    dimension
	factor float64
}{
	KilojoulePerMole:   {dimEnergy, 1},
	KilocaloriePerMole: {dimEnergy, 4.184},
	Nanometer:          {dimLength, 1},
	Angstrom:           {dimLength, 0.1},
	Kelvin:             {dimTemperature, 1},
	PerPicosecond:      {dimRate, 1},
	Picosecond:         {dimTime, 1},
	Femtosecond:        {dimTime, 1e-3},
}

// Quantity 带单位的浮点数值
type Quantity struct {
	Value float64 `json:"value" yaml:"value"` // 数值
	Unit  Unit    `json:"unit" yaml:"unit"`   // 单位
}

// Q 创建数值
func Q(value float64, unit Unit) Quantity { return Quantity{Value: value, Unit: unit} }

// In 换算到指定单位
func (q Quantity) In(unit Unit) (Quantity, error) {
	from, ok := unitTable[q.Unit]
	if !ok {
		return Quantity{}, fmt.Errorf("%w: 未知单位 %q", ErrInvalidArgument, q.Unit)
	}
	to, ok := unitTable[unit]
	if !ok {
		return Quantity{}, fmt.Errorf("%w: 未知单位 %q", ErrInvalidArgument, unit)
	}
	if from.dim != to.dim {
		return Quantity{}, fmt.Errorf("%w: 单位不兼容 %s -> %s", ErrInvalidArgument, q.Unit, unit)
	}
	return Quantity{Value: q.Value * from.factor / to.factor, Unit: unit}, nil
}

// ValueIn 换算后的数值
func (q Quantity) ValueIn(unit Unit) (float64, error) {
	v, err := q.In(unit)
	return v.Value, err
}

// IsFinite 数值是否有限
func (q Quantity) IsFinite() bool {
	return !math.IsNaN(q.Value) && !math.IsInf(q.Value, 0)
}

// String 格式化输出
func (q Quantity) String() string {
	return fmt.Sprintf("%.3f %s", q.Value, q.Unit)
}

// ParseQuantity 解析 "300 K"、"1fs" 形式的数值
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r == '.' || r == '-' || r == '+' || r == 'e' || r == 'E')
	})
	if i <= 0 {
		return Quantity{}, fmt.Errorf("%w: 无法解析数值 %q", ErrInvalidArgument, s)
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("%w: 无法解析数值 %q: %v", ErrInvalidArgument, s, err)
	}
	unit := Unit(strings.TrimSpace(s[i:]))
	if _, ok := unitTable[unit]; !ok {
		return Quantity{}, fmt.Errorf("%w: 未知单位 %q", ErrInvalidArgument, unit)
	}
	return Q(v, unit), nil
}
