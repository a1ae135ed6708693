// Package load 读写结构文件(xyz/pdb/gro)。
// 坐标统一以埃保存，gro 文件读入时由 nm 换算。
package load

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/spatial/r3"

	"alchemy/forcefield"
	"alchemy/types"
)

// Format 结构文件格式
type Format string

const (
	XYZ Format = "xyz"
	PDB Format = "pdb"
	GRO Format = "gro"
)

// FormatOf 按扩展名判断格式
func FormatOf(filename string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))); f {
	case XYZ, PDB, GRO:
		return f, nil
	}
	return "", fmt.Errorf("%w: 未知结构文件格式 %s", types.ErrInvalidArgument, filename)
}

// ReadFile 读取结构文件
func ReadFile(filename string) (*forcefield.Molecule, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file, format)
}

// Read 按格式读取结构
func Read(r io.Reader, format Format) (*forcefield.Molecule, error) {
	switch format {
	case XYZ:
		return ReadXYZ(r)
	case PDB:
		return ReadPDB(r)
	case GRO:
		return ReadGRO(r)
	}
	return nil, fmt.Errorf("%w: 未知结构文件格式 %q", types.ErrInvalidArgument, format)
}

// ReadXYZ 读取 xyz 文件，只读第一帧
// 原子行为 "元素 x y z [电荷 [残基]]"
func ReadXYZ(r io.Reader) (*forcefield.Molecule, error) {
	scanner := bufio.NewScanner(r)
	line := 0
	next := func() (string, bool) {
		line++
		if !scanner.Scan() {
			return "", false
		}
		return scanner.Text(), true
	}
	head, ok := next()
	if !ok {
		return nil, readError(scanner.Err(), "xyz 文件为空")
	}
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%w: 第 1 行: 原子数量无效 %q", types.ErrInvalidArgument, head)
	}
	title, _ := next()
	mol := &forcefield.Molecule{Title: strings.TrimSpace(title)}
	for len(mol.Atoms) < n {
		text, ok := next()
		if !ok {
			return nil, readError(scanner.Err(), fmt.Sprintf("原子数量不足，需要 %d，得到 %d", n, len(mol.Atoms)))
		}
		fields := strings.Fields(text)
		if len(fields) < 4 {
			return nil, fmt.Errorf("%w: 第 %d 行: 字段不足 %q", types.ErrInvalidArgument, line, text)
		}
		var v [5]float64
		for i, f := range fields[1:min(len(fields), 6)] {
			if v[i], err = strconv.ParseFloat(f, 64); err != nil {
				return nil, fmt.Errorf("%w: 第 %d 行: 数值无效 %q", types.ErrInvalidArgument, line, f)
			}
		}
		mol.Atoms = append(mol.Atoms, forcefield.Atom{
			Serial:  len(mol.Atoms) + 1,
			Name:    fields[0],
			Symbol:  forcefield.NormalizeSymbol(fields[0]),
			Charge:  v[3],
			Residue: int(v[4]),
		})
		mol.Coords = append(mol.Coords, r3.Vec{X: v[0], Y: v[1], Z: v[2]})
	}
	return mol, nil
}

// ReadPDB 读取 pdb 文件的 ATOM/HETATM 记录，遇到 ENDMDL 停止
func ReadPDB(r io.Reader) (*forcefield.Molecule, error) {
	scanner := bufio.NewScanner(r)
	mol := &forcefield.Molecule{}
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()
		record := strings.TrimSpace(column(text, 0, 6))
		switch record {
		case "TITLE":
			mol.Title = strings.TrimSpace(mol.Title + " " + strings.TrimSpace(column(text, 10, 80)))
			continue
		case "ENDMDL":
			return finish(mol, "pdb")
		case "ATOM", "HETATM":
		default:
			continue
		}
		if len(text) < 54 {
			return nil, fmt.Errorf("%w: 第 %d 行: 原子记录过短", types.ErrInvalidArgument, line)
		}
		var xyz [3]float64
		for i := range xyz {
			v, err := strconv.ParseFloat(strings.TrimSpace(column(text, 30+8*i, 38+8*i)), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: 第 %d 行: 坐标无效", types.ErrInvalidArgument, line)
			}
			xyz[i] = v
		}
		serial, _ := strconv.Atoi(strings.TrimSpace(column(text, 6, 11)))
		residue, err := strconv.Atoi(strings.TrimSpace(column(text, 22, 26)))
		if err != nil {
			return nil, fmt.Errorf("%w: 第 %d 行: 残基编号无效", types.ErrInvalidArgument, line)
		}
		name := column(text, 12, 16)
		symbol := strings.TrimSpace(column(text, 76, 78))
		if symbol == "" {
			symbol = symbolFromName(name)
		}
		mol.Atoms = append(mol.Atoms, forcefield.Atom{
			Serial:  serial,
			Name:    strings.TrimSpace(name),
			Symbol:  forcefield.NormalizeSymbol(symbol),
			ResName: strings.TrimSpace(column(text, 17, 20)),
			Residue: residue,
			Chain:   strings.TrimSpace(column(text, 21, 22)),
			Charge:  formalCharge(column(text, 78, 80)),
		})
		mol.Coords = append(mol.Coords, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return finish(mol, "pdb")
}

// ReadGRO 读取 gro 文件，坐标由 nm 换算为埃
func ReadGRO(r io.Reader) (*forcefield.Molecule, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, readError(scanner.Err(), "gro 文件为空")
	}
	mol := &forcefield.Molecule{Title: strings.TrimSpace(scanner.Text())}
	if !scanner.Scan() {
		return nil, readError(scanner.Err(), "gro 文件缺少原子数量")
	}
	n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%w: 第 2 行: 原子数量无效", types.ErrInvalidArgument)
	}
	for line := 3; len(mol.Atoms) < n; line++ {
		if !scanner.Scan() {
			return nil, readError(scanner.Err(), fmt.Sprintf("原子数量不足，需要 %d，得到 %d", n, len(mol.Atoms)))
		}
		text := scanner.Text()
		if len(text) < 44 {
			return nil, fmt.Errorf("%w: 第 %d 行: 原子记录过短", types.ErrInvalidArgument, line)
		}
		var xyz [3]float64
		for i := range xyz {
			v, err := strconv.ParseFloat(strings.TrimSpace(column(text, 20+8*i, 28+8*i)), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: 第 %d 行: 坐标无效", types.ErrInvalidArgument, line)
			}
			xyz[i] = v * 10
		}
		residue, err := strconv.Atoi(strings.TrimSpace(column(text, 0, 5)))
		if err != nil {
			return nil, fmt.Errorf("%w: 第 %d 行: 残基编号无效", types.ErrInvalidArgument, line)
		}
		serial, _ := strconv.Atoi(strings.TrimSpace(column(text, 15, 20)))
		name := strings.TrimSpace(column(text, 10, 15))
		mol.Atoms = append(mol.Atoms, forcefield.Atom{
			Serial:  serial,
			Name:    name,
			Symbol:  forcefield.NormalizeSymbol(symbolFromName(name)),
			ResName: strings.TrimSpace(column(text, 5, 10)),
			Residue: residue,
		})
		mol.Coords = append(mol.Coords, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}
	return mol, nil
}

func finish(mol *forcefield.Molecule, format string) (*forcefield.Molecule, error) {
	if len(mol.Atoms) == 0 {
		return nil, fmt.Errorf("%w: %s 文件没有原子", types.ErrInvalidArgument, format)
	}
	return mol, nil
}

func readError(err error, msg string) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", types.ErrInvalidArgument, msg)
}

// column 按列截取，越界部分视为空
func column(text string, from, to int) string {
	if from >= len(text) {
		return ""
	}
	return text[from:min(to, len(text))]
}

// symbolFromName 从原子名推断元素，两字母元素需要在元素表中存在
func symbolFromName(name string) string {
	letters := strings.TrimLeftFunc(strings.TrimSpace(name), unicode.IsDigit)
	end := strings.IndexFunc(letters, func(r rune) bool { return !unicode.IsLetter(r) })
	if end >= 0 {
		letters = letters[:end]
	}
	if len(letters) >= 2 && !strings.HasPrefix(name, " ") {
		if _, err := forcefield.Lookup(letters[:2]); err == nil {
			return letters[:2]
		}
	}
	if letters == "" {
		return name
	}
	return letters[:1]
}

// formalCharge 解析 "1-" 形式的形式电荷
func formalCharge(text string) float64 {
	text = strings.TrimSpace(text)
	if len(text) != 2 {
		return 0
	}
	v, err := strconv.Atoi(text[:1])
	if err != nil {
		return 0
	}
	if text[1] == '-' {
		return -float64(v)
	}
	return float64(v)
}
