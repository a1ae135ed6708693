package forcefield

import (
	"fmt"
	"strings"

	"alchemy/types"
)

// Element 元素的默认参数
type Element struct {
	Mass    float64 // 质量(amu)
	Sigma   float64 // nm
	Epsilon float64 // kJ/mol
}

// Elements 粗略的元素 LJ 参数表，只用于参考引擎
var Elements = map[string]Element{
	"H":  {Mass: 1.008, Sigma: 0.1069, Epsilon: 0.0657},
	"C":  {Mass: 12.011, Sigma: 0.3400, Epsilon: 0.3598},
	"N":  {Mass: 14.007, Sigma: 0.3250, Epsilon: 0.7113},
	"O":  {Mass: 15.999, Sigma: 0.2960, Epsilon: 0.8786},
	"F":  {Mass: 18.998, Sigma: 0.3118, Epsilon: 0.2552},
	"P":  {Mass: 30.974, Sigma: 0.3742, Epsilon: 0.8368},
	"S":  {Mass: 32.06, Sigma: 0.3564, Epsilon: 1.0460},
	"Cl": {Mass: 35.45, Sigma: 0.3471, Epsilon: 1.1087},
	"Br": {Mass: 79.904, Sigma: 0.3956, Epsilon: 1.3389},
	"Na": {Mass: 22.990, Sigma: 0.3328, Epsilon: 0.0116},
	"K":  {Mass: 39.098, Sigma: 0.4736, Epsilon: 0.0014},
	"Mg": {Mass: 24.305, Sigma: 0.1412, Epsilon: 3.6610},
	"Zn": {Mass: 65.38, Sigma: 0.1960, Epsilon: 0.0523},
}

// NormalizeSymbol 元素符号规范化，如 "CL" -> "Cl"
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ""
	}
	return strings.ToUpper(symbol[:1]) + strings.ToLower(symbol[1:])
}

// Lookup 查找元素参数
func Lookup(symbol string) (Element, error) {
	el, ok := Elements[NormalizeSymbol(symbol)]
	if !ok {
		return Element{}, fmt.Errorf("%w: 未知元素 %q", types.ErrInvalidArgument, symbol)
	}
	return el, nil
}
