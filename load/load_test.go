package load

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"alchemy/forcefield"
	"alchemy/types"
)

const water = `3
water and ion
O   0.000  0.000  0.000 -0.8 1
H   0.957  0.000  0.000  0.4 1
Na  0.000  3.000  0.000  1.0 2
`

func TestReadXYZ(t *testing.T) {
	mol, err := ReadXYZ(strings.NewReader(water))
	require.NoError(t, err)
	assert.Equal(t, "water and ion", mol.Title)
	require.Equal(t, 3, mol.Len())
	assert.Equal(t, "Na", mol.Atoms[2].Symbol)
	assert.Equal(t, 2, mol.Atoms[2].Residue)
	assert.Equal(t, -0.8, mol.Atoms[0].Charge)
	assert.Equal(t, r3.Vec{X: 0.957}, mol.Coords[1])

	// 只有坐标的行
	mol, err = ReadXYZ(strings.NewReader("1\n\nC 1 2 3\n"))
	require.NoError(t, err)
	assert.Zero(t, mol.Atoms[0].Charge)
	assert.Zero(t, mol.Atoms[0].Residue)
}

func TestReadXYZInvalid(t *testing.T) {
	for name, text := range map[string]string{
		"empty":  "",
		"count":  "x\n",
		"short":  "2\n\nC 0 0 0\n",
		"fields": "1\n\nC 0 0\n",
		"number": "1\n\nC 0 a 0\n",
	} {
		_, err := ReadXYZ(strings.NewReader(text))
		assert.ErrorIs(t, err, types.ErrInvalidArgument, name)
	}
}

const ligand = `TITLE     ligand in box
ATOM      1  N   ALA A   1      11.104   6.134  -6.504  1.00  0.00           N
ATOM      2  CA  ALA A   1      11.639   6.071  -5.147  1.00  0.00           C
HETATM    3 CL   LIG B 403       1.000   2.000   3.000  1.00  0.00          CL1-
HETATM    4  O1  LIG B 403       2.000   2.000   3.000  1.00  0.00
ENDMDL
ATOM      5  N   ALA A   1      99.000  99.000  99.000  1.00  0.00           N
`

func TestReadPDB(t *testing.T) {
	mol, err := ReadPDB(strings.NewReader(ligand))
	require.NoError(t, err)
	assert.Equal(t, "ligand in box", mol.Title)
	require.Equal(t, 4, mol.Len())
	assert.Equal(t, forcefield.Atom{Serial: 2, Name: "CA", Symbol: "C", ResName: "ALA", Residue: 1, Chain: "A"}, mol.Atoms[1])
	assert.Equal(t, "Cl", mol.Atoms[2].Symbol)
	assert.Equal(t, -1.0, mol.Atoms[2].Charge)
	assert.Equal(t, 403, mol.Atoms[2].Residue)
	// 没有元素列时由原子名推断
	assert.Equal(t, "O", mol.Atoms[3].Symbol)
	assert.InDelta(t, -5.147, mol.Coords[1].Z, 1e-12)

	_, err = ReadPDB(strings.NewReader("REMARK nothing\n"))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = ReadPDB(strings.NewReader("ATOM      1  N   ALA A   1      11.104\n"))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

const box = `two atoms
2
    1SOL     OW    1   0.126   1.624   1.679
    2NA      NA    2   0.500   0.000   0.250
   1.86206   1.86206   1.86206
`

func TestReadGRO(t *testing.T) {
	mol, err := ReadGRO(strings.NewReader(box))
	require.NoError(t, err)
	require.Equal(t, 2, mol.Len())
	assert.Equal(t, "O", mol.Atoms[0].Symbol)
	assert.Equal(t, "SOL", mol.Atoms[0].ResName)
	assert.Equal(t, "Na", mol.Atoms[1].Symbol)
	assert.Equal(t, 2, mol.Atoms[1].Residue)
	assert.InDelta(t, 1.26, mol.Coords[0].X, 1e-12)
	assert.InDelta(t, 2.5, mol.Coords[1].Z, 1e-12)

	_, err = ReadGRO(strings.NewReader("t\n3\n"))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestWriteRoundTrip(t *testing.T) {
	mol, err := ReadPDB(strings.NewReader(ligand))
	require.NoError(t, err)
	moved := make([]r3.Vec, mol.Len())
	for i, p := range mol.Coords {
		moved[i] = r3.Add(p, r3.Vec{X: 1})
	}

	for _, format := range []Format{PDB, XYZ} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, format, mol, moved))
		back, err := Read(&buf, format)
		require.NoError(t, err, format)
		require.Equal(t, mol.Len(), back.Len())
		for i := range moved {
			assert.InDelta(t, moved[i].X, back.Coords[i].X, 1e-3)
			assert.InDelta(t, moved[i].Z, back.Coords[i].Z, 1e-3)
			assert.Equal(t, mol.Atoms[i].Symbol, back.Atoms[i].Symbol)
			assert.Equal(t, mol.Atoms[i].Residue, back.Atoms[i].Residue)
			assert.Equal(t, mol.Atoms[i].Charge, back.Atoms[i].Charge)
		}
	}

	assert.ErrorIs(t, Write(&bytes.Buffer{}, GRO, mol, nil), types.ErrInvalidArgument)
	assert.ErrorIs(t, Write(&bytes.Buffer{}, PDB, mol, moved[:1]), types.ErrIncompatibleSystem)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "water.xyz")
	require.NoError(t, os.WriteFile(src, []byte(water), 0o644))

	mol, err := ReadFile(src)
	require.NoError(t, err)
	out := filepath.Join(dir, "water.pdb")
	require.NoError(t, WriteFile(out, mol, nil))
	back, err := ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, mol.Len(), back.Len())

	_, err = FormatOf("water.mol2")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	f, err := FormatOf("A.GRO")
	require.NoError(t, err)
	assert.Equal(t, GRO, f)
}
