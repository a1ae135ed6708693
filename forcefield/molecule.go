package forcefield

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"alchemy/types"
)

// Atom 结构文件中的原子
type Atom struct {
	Serial  int     // 序号
	Name    string  // 原子名
	Symbol  string  // 元素符号
	ResName string  // 残基名
	Residue int     // 残基编号
	Chain   string  // 链
	Charge  float64 // 电荷(e)
	Mass    float64 // 质量(amu)，0 表示按元素取值
}

// Molecule 分子结构，坐标单位为埃
type Molecule struct {
	Title  string
	Atoms  []Atom
	Coords []r3.Vec
}

// Atom 第 i 个原子
func (m *Molecule) Atom(i int) *Atom { return &m.Atoms[i] }

// Len 原子数量
func (m *Molecule) Len() int { return len(m.Atoms) }

// AtomSource 原子列表
type AtomSource interface {
	Atom(i int) *Atom
	Len() int
}

// angstromToNm 结构文件坐标单位为埃
var angstromToNm, _ = types.Q(1, types.Angstrom).ValueIn(types.Nanometer)

// FromMolecule 根据原子列表与坐标(埃)生成参考势能函数与坐标(nm)
// 质量优先使用原子自带的值，LJ 参数取自元素表，电荷取自原子
func FromMolecule(mol AtomSource, coords []r3.Vec, sel Selection, opts ...Option) (*Nonbonded, []r3.Vec, error) {
	if mol == nil || coords == nil {
		return nil, nil, fmt.Errorf("%w: 分子或坐标为空", types.ErrInvalidArgument)
	}
	if err := sel.Validate(); err != nil {
		return nil, nil, err
	}
	n := mol.Len()
	if len(coords) != n {
		return nil, nil, fmt.Errorf("%w: 坐标数量 %d, 原子数量 %d", types.ErrIncompatibleSystem, len(coords), n)
	}
	particles := make([]Particle, n)
	positions := make([]r3.Vec, n)
	for i := 0; i < n; i++ {
		at := mol.Atom(i)
		el, err := Lookup(at.Symbol)
		if err != nil {
			return nil, nil, fmt.Errorf("原子 %d (%s): %w", i, at.Name, err)
		}
		mass := el.Mass
		if at.Mass > 0 {
			mass = at.Mass
		}
		particles[i] = Particle{
			Symbol:  NormalizeSymbol(at.Symbol),
			Residue: at.Residue,
			Mass:    mass,
			Charge:  at.Charge,
			Sigma:   el.Sigma,
			Epsilon: el.Epsilon,
		}
		positions[i] = r3.Scale(angstromToNm, coords[i])
	}
	sel.Apply(particles)
	return NewNonbonded(particles, opts...), positions, nil
}

// ToCoords 坐标(nm)转为埃
func ToCoords(positions []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(positions))
	for i, p := range positions {
		out[i] = r3.Scale(1/angstromToNm, p)
	}
	return out
}
