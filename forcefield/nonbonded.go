// Package forcefield 提供参考引擎使用的炼金非键势能：
// 环境之间为普通 LJ + 库仑，炼金原子与环境之间的范德华使用 Beutler 软核并按
// lambda_sterics 缩放，静电按 lambda_electrostatics 线性缩放（不使用软核静电）。
package forcefield

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"alchemy/types"
)

// CoulombConstant 库仑常数(kJ/mol·nm/e²)
const CoulombConstant = 138.935458

// Particle 粒子参数
type Particle struct {
	Symbol     string  `json:"symbol" yaml:"symbol"`         // 元素符号
	Residue    int     `json:"residue" yaml:"residue"`       // 残基编号
	Mass       float64 `json:"mass" yaml:"mass"`             // 质量(amu)
	Charge     float64 `json:"charge" yaml:"charge"`         // 电荷(e)
	Sigma      float64 `json:"sigma" yaml:"sigma"`           // LJ sigma(nm)
	Epsilon    float64 `json:"epsilon" yaml:"epsilon"`       // LJ epsilon(kJ/mol)
	Alchemical bool    `json:"alchemical" yaml:"alchemical"` // 是否为炼金原子
}

// Nonbonded 炼金非键势能，实现 engine.System
type Nonbonded struct {
	Particles                []Particle
	Cutoff                   float64 // 截断(nm)，<=0 表示不截断
	SoftcoreAlpha            float64 // 软核 alpha
	AnnihilateSterics        bool    // 炼金原子之间的范德华也解耦
	AnnihilateElectrostatics bool    // 炼金原子之间的静电也解耦
}

// NewNonbonded 创建势能函数
func NewNonbonded(particles []Particle, opts ...Option) *Nonbonded {
	nb := &Nonbonded{
		Particles:                particles,
		Cutoff:                   types.DefaultCutoff,
		SoftcoreAlpha:            types.DefaultSoftcoreAlpha,
		AnnihilateSterics:        true,
		AnnihilateElectrostatics: true,
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// Option 势能函数配置
type Option func(nb *Nonbonded)

// WithCutoff 设置截断(nm)
func WithCutoff(cutoff float64) Option { return func(nb *Nonbonded) { nb.Cutoff = cutoff } }

// WithSoftcoreAlpha 设置软核 alpha
func WithSoftcoreAlpha(alpha float64) Option {
	return func(nb *Nonbonded) { nb.SoftcoreAlpha = alpha }
}

// WithAnnihilation 设置炼金原子内部相互作用是否解耦
func WithAnnihilation(sterics, electrostatics bool) Option {
	return func(nb *Nonbonded) {
		nb.AnnihilateSterics = sterics
		nb.AnnihilateElectrostatics = electrostatics
	}
}

// NumParticles 粒子数量
func (nb *Nonbonded) NumParticles() int { return len(nb.Particles) }

// Masses 粒子质量
func (nb *Nonbonded) Masses() []float64 {
	m := make([]float64, len(nb.Particles))
	for i, p := range nb.Particles {
		m[i] = p.Mass
	}
	return m
}

// Alchemical 炼金原子索引
func (nb *Nonbonded) Alchemical() []int {
	var list []int
	for i, p := range nb.Particles {
		if p.Alchemical {
			list = append(list, i)
		}
	}
	return list
}

// DefaultParameters 全局参数默认值，完全耦合
func (nb *Nonbonded) DefaultParameters() map[string]float64 {
	return map[string]float64{
		types.LambdaSterics:        1,
		types.LambdaElectrostatics: 1,
	}
}

// Fingerprint 所有参数的哈希
func (nb *Nonbonded) Fingerprint() uint64 {
	buf := make([]byte, 0, 8*(4+6*len(nb.Particles)))
	f := func(v float64) { buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v)) }
	b := func(v bool) {
		if v {
			f(1)
		} else {
			f(0)
		}
	}
	f(nb.Cutoff)
	f(nb.SoftcoreAlpha)
	b(nb.AnnihilateSterics)
	b(nb.AnnihilateElectrostatics)
	for _, p := range nb.Particles {
		f(p.Mass)
		f(p.Charge)
		f(p.Sigma)
		f(p.Epsilon)
		b(p.Alchemical)
		buf = append(buf, p.Symbol...)
	}
	return xxhash.Sum64(buf)
}

// pairScale 一对粒子的缩放
type pairScale struct {
	sterics        float64 // 范德华系数
	electrostatics float64 // 静电系数
	soft           bool    // 范德华是否使用软核
}

func (nb *Nonbonded) scale(a, b bool, lambdaS, lambdaE float64) pairScale {
	switch {
	case !a && !b:
		return pairScale{sterics: 1, electrostatics: 1}
	case a != b:
		return pairScale{sterics: lambdaS, electrostatics: lambdaE, soft: true}
	}
	s := pairScale{sterics: 1, electrostatics: 1}
	if nb.AnnihilateSterics {
		s.sterics, s.soft = lambdaS, true
	}
	if nb.AnnihilateElectrostatics {
		s.electrostatics = lambdaE
	}
	return s
}

func param(params map[string]float64, name string) float64 {
	if v, ok := params[name]; ok {
		return v
	}
	return 1
}

// Evaluate 计算势能(kJ/mol)，grad 非空时写入梯度(kJ/mol/nm)
func (nb *Nonbonded) Evaluate(x, grad []float64, params map[string]float64) float64 {
	lambdaS := param(params, types.LambdaSterics)
	lambdaE := param(params, types.LambdaElectrostatics)
	for i := range grad {
		grad[i] = 0
	}
	rc2 := nb.Cutoff * nb.Cutoff
	energy := 0.0
	n := len(nb.Particles)
	for i := 0; i < n; i++ {
		pi := &nb.Particles[i]
		for j := i + 1; j < n; j++ {
			pj := &nb.Particles[j]
			dx := x[3*i] - x[3*j]
			dy := x[3*i+1] - x[3*j+1]
			dz := x[3*i+2] - x[3*j+2]
			r2 := dx*dx + dy*dy + dz*dz
			if nb.Cutoff > 0 && r2 > rc2 {
				continue
			}
			s := nb.scale(pi.Alchemical, pj.Alchemical, lambdaS, lambdaE)
			r := math.Sqrt(r2)
			u, dudr := 0.0, 0.0
			// 范德华
			sigma := 0.5 * (pi.Sigma + pj.Sigma)
			eps := math.Sqrt(pi.Epsilon * pj.Epsilon)
			if eps > 0 && s.sterics > 0 {
				if s.soft {
					e, d := softcoreLJ(r, sigma, eps, s.sterics, nb.SoftcoreAlpha)
					u += e
					dudr += d
				} else {
					e, d := lennardJones(r, sigma, eps)
					u += s.sterics * e
					dudr += s.sterics * d
				}
			}
			// 静电
			if qq := pi.Charge * pj.Charge; qq != 0 && s.electrostatics > 0 {
				e := s.electrostatics * CoulombConstant * qq / r
				u += e
				dudr -= e / r
			}
			energy += u
			if grad != nil && r > 0 && dudr != 0 {
				g := dudr / r
				grad[3*i] += g * dx
				grad[3*i+1] += g * dy
				grad[3*i+2] += g * dz
				grad[3*j] -= g * dx
				grad[3*j+1] -= g * dy
				grad[3*j+2] -= g * dz
			}
		}
	}
	return energy
}

// lennardJones 4ε[(σ/r)^12-(σ/r)^6] 及其对 r 的导数
func lennardJones(r, sigma, eps float64) (u, dudr float64) {
	s2 := sigma * sigma / (r * r)
	s6 := s2 * s2 * s2
	s12 := s6 * s6
	return 4 * eps * (s12 - s6), 4 * eps * (-12*s12 + 6*s6) / r
}

// softcoreLJ λ·4ε[1/D²-1/D]，D = α(1-λ) + (r/σ)^6
func softcoreLJ(r, sigma, eps, lambda, alpha float64) (u, dudr float64) {
	rs := r / sigma
	rs6 := rs * rs * rs * rs * rs * rs
	d := alpha*(1-lambda) + rs6
	inv := 1 / d
	u = lambda * 4 * eps * (inv*inv - inv)
	dudd := lambda * 4 * eps * (-2*inv*inv*inv + inv*inv)
	if r > 0 {
		dudr = dudd * 6 * rs6 / r
	}
	return u, dudr
}
