package load

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"alchemy/forcefield"
	"alchemy/types"
)

// WriteFile 按扩展名写出结构，coords 单位为埃，为空时使用分子自带坐标
func WriteFile(filename string, mol *forcefield.Molecule, coords []r3.Vec) error {
	format, err := FormatOf(filename)
	if err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := Write(file, format, mol, coords); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Write 按格式写出结构
func Write(w io.Writer, format Format, mol *forcefield.Molecule, coords []r3.Vec) error {
	if coords == nil {
		coords = mol.Coords
	}
	if len(coords) != mol.Len() {
		return fmt.Errorf("%w: 坐标数量 %d, 原子数量 %d", types.ErrIncompatibleSystem, len(coords), mol.Len())
	}
	writer := bufio.NewWriter(w)
	switch format {
	case XYZ:
		writeXYZ(writer, mol, coords)
	case PDB:
		writePDB(writer, mol, coords)
	default:
		return fmt.Errorf("%w: 不支持写出 %q", types.ErrInvalidArgument, format)
	}
	return writer.Flush()
}

func writeXYZ(w *bufio.Writer, mol *forcefield.Molecule, coords []r3.Vec) {
	fmt.Fprintf(w, "%d\n%s\n", mol.Len(), mol.Title)
	for i, at := range mol.Atoms {
		p := coords[i]
		fmt.Fprintf(w, "%-2s %14.6f %14.6f %14.6f %9.4f %d\n", at.Symbol, p.X, p.Y, p.Z, at.Charge, at.Residue)
	}
}

func writePDB(w *bufio.Writer, mol *forcefield.Molecule, coords []r3.Vec) {
	if mol.Title != "" {
		fmt.Fprintf(w, "TITLE     %s\n", mol.Title)
	}
	for i, at := range mol.Atoms {
		p := coords[i]
		// 单字母元素的原子名从第 14 列开始
		name := at.Name
		if len(name) < 4 && len(at.Symbol) == 1 {
			name = " " + name
		}
		resName := at.ResName
		if resName == "" {
			resName = "UNK"
		}
		fmt.Fprintf(w, "HETATM%5d %-4s %3s %1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s%2s\n",
			(i+1)%100000, name, resName, at.Chain, at.Residue%10000, p.X, p.Y, p.Z, 1.0, 0.0, at.Symbol, chargeField(at.Charge))
	}
	w.WriteString("END\n")
}

// chargeField 形式电荷字段，非整数电荷不写出
func chargeField(charge float64) string {
	v := int(charge)
	if float64(v) != charge || v == 0 || v > 9 || v < -9 {
		return ""
	}
	if v < 0 {
		return fmt.Sprintf("%d-", -v)
	}
	return fmt.Sprintf("%d+", v)
}
