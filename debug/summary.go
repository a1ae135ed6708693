package debug

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats 能量轨迹统计(kcal/mol)
type Stats struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary 统计动力学能量，少于两个样本时标准差为 0
func (list *Record) Summary() Stats {
	s := Stats{N: len(list.Energy)}
	switch s.N {
	case 0:
		return s
	case 1:
		s.Mean = list.Energy[0]
	default:
		s.Mean, s.StdDev = stat.MeanStdDev(list.Energy, nil)
	}
	s.Min, s.Max = floats.Min(list.Energy), floats.Max(list.Energy)
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("n=%d mean=%.3f std=%.3f min=%.3f max=%.3f kcal/mol", s.N, s.Mean, s.StdDev, s.Min, s.Max)
}
