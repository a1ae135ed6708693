package forcefield

import (
	"fmt"
	"strconv"
	"strings"

	"alchemy/types"
)

// ResidueRange 残基编号区间，两端都包含，顺序无关
type ResidueRange [2]int

// Bounds 返回有序的区间端点
func (r ResidueRange) Bounds() (lo, hi int) {
	if r[0] <= r[1] {
		return r[0], r[1]
	}
	return r[1], r[0]
}

// Selection 炼金原子选择，多个残基区间的并集
type Selection []ResidueRange

// Validate 检查区间
func (s Selection) Validate() error {
	for i, r := range s {
		if lo, _ := r.Bounds(); lo < 0 {
			return fmt.Errorf("%w: 第 %d 个残基区间 %v 含负编号", types.ErrInvalidArgument, i, r)
		}
	}
	return nil
}

// Contains 残基是否被选中
func (s Selection) Contains(residue int) bool {
	for _, r := range s {
		if lo, hi := r.Bounds(); residue >= lo && residue <= hi {
			return true
		}
	}
	return false
}

// Indices 根据每个粒子的残基编号返回被选中的粒子索引(升序)
func (s Selection) Indices(residues []int) []int {
	var list []int
	for i, res := range residues {
		if s.Contains(res) {
			list = append(list, i)
		}
	}
	return list
}

// Apply 标记粒子是否为炼金原子，返回被选中的数量
func (s Selection) Apply(particles []Particle) int {
	residues := make([]int, len(particles))
	for i, p := range particles {
		residues[i] = p.Residue
		particles[i].Alchemical = false
	}
	idx := s.Indices(residues)
	for _, i := range idx {
		particles[i].Alchemical = true
	}
	return len(idx)
}

// ParseSelection 解析 "403-483,1052-1109" 形式的残基区间，单个编号表示只含一个残基
func ParseSelection(text string) (Selection, error) {
	var sel Selection
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, found := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("%w: 残基区间 %q", types.ErrInvalidArgument, part)
		}
		b := a
		if found {
			if b, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("%w: 残基区间 %q", types.ErrInvalidArgument, part)
			}
		}
		sel = append(sel, ResidueRange{a, b})
	}
	return sel, sel.Validate()
}

// String 格式化为 ParseSelection 可解析的形式
func (s Selection) String() string {
	parts := make([]string, len(s))
	for i, r := range s {
		lo, hi := r.Bounds()
		if lo == hi {
			parts[i] = strconv.Itoa(lo)
		} else {
			parts[i] = fmt.Sprintf("%d-%d", lo, hi)
		}
	}
	return strings.Join(parts, ",")
}
