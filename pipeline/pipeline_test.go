package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/orbgen/population"
	"github.com/katalvlaran/orbgen/spillage"
)

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

const validPlan = `
element: Si
ecut: 100
rcuts: [6, 7]
basis: jy
optimizer: bfgs
folders:
  - [Si-dimer-1.8-6au, Si-dimer-1.8-7au]
orbitals:
  - label: SZ
    nzeta: auto
    folders: [0]
    nbands: occ
  - label: DZ
    nzeta: [2, 1]
    from: SZ
    folders: [0]
    nbands: 4
`

// TestLoadPlan_HappyPath verifies parsing, defaults and the nzeta/nbands
// variant decoding.
func TestLoadPlan_HappyPath(t *testing.T) {
	p, err := LoadPlan(writePlan(t, validPlan))
	require.NoError(t, err)

	assert.Equal(t, "Si", p.Element)
	assert.Equal(t, []float64{6, 7}, p.Rcuts)
	assert.Equal(t, "reduced", p.Convention, "default convention")
	assert.Equal(t, 2000, p.MaxSteps, "default iteration cap")
	assert.Equal(t, []float64{0, 1}, p.SpillCoefs, "default term weights")

	require.Len(t, p.Orbitals, 2)
	assert.True(t, p.Orbitals[0].NZeta.Auto)
	assert.True(t, p.Orbitals[0].NBands.Bands().Occupied)
	assert.Equal(t, []int{2, 1}, p.Orbitals[1].NZeta.Counts)
	assert.Equal(t, 4, p.Orbitals[1].NBands.Bands().N)
	assert.Equal(t, 0, p.parentIndex(1))
	assert.Equal(t, -1, p.parentIndex(0))
}

// TestLoadPlan_Validation covers the plan consistency guards.
func TestLoadPlan_Validation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
		message string
	}{
		{"unknown basis", func(s string) string { return strings.Replace(s, "basis: jy", "basis: lcao", 1) }, "unknown basis"},
		{"unknown optimizer", func(s string) string { return strings.Replace(s, "optimizer: bfgs", "optimizer: adam", 1) }, "unknown optimizer"},
		{"auto with pw", func(s string) string { return strings.Replace(s, "basis: jy", "basis: pw", 1) }, "auto"},
		{"unknown parent", func(s string) string { return strings.Replace(s, "from: SZ", "from: TZ", 1) }, "unknown parent"},
		{"folder group range", func(s string) string { return strings.Replace(s, "folders: [0]", "folders: [3]", 1) }, "folder group"},
		{"duplicate label", func(s string) string { return strings.Replace(s, "label: DZ", "label: SZ", 1) }, "duplicate"},
		{"negative nbands", func(s string) string { return strings.Replace(s, "nbands: 4", "nbands: -3", 1) }, "negative"},
		{"negative nbands index", func(s string) string { return strings.Replace(s, "nbands: 4", "nbands: [1, -2]", 1) }, "negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadPlan(writePlan(t, tc.mutate(validPlan)))
			assert.ErrorIs(t, err, ErrPlan)
			assert.ErrorContains(t, err, tc.message)
		})
	}
}

// TestMatchFolders verifies rcut filtering, deduplication and per-orbital
// configuration indexing.
func TestMatchFolders(t *testing.T) {
	p := &Plan{
		Folders: [][]string{
			{"Si-dimer-1.8-6au", "Si-dimer-1.8-7au"},
			{"Si-trimer-1.9"},
		},
		Orbitals: []OrbitalPlan{
			{Label: "SZ", Folders: []int{0}},
			{Label: "DZ", Folders: []int{0, 1}},
		},
	}

	matched, iconfs, err := p.matchFolders(6)
	require.NoError(t, err)
	assert.Equal(t, []string{"Si-dimer-1.8-6au", "Si-trimer-1.9"}, matched)
	assert.Equal(t, [][]int{{0}, {0, 1}}, iconfs)

	// At rcut 8 only the radius-free trimer survives; the SZ group empties.
	_, _, err = p.matchFolders(8)
	assert.ErrorIs(t, err, ErrNoMatch)
}

// writeRun lays out a synthetic localized-basis reference run with layout
// {2, 1} (five basis functions) and the given band vectors/occupations.
func writeRun(t *testing.T, root, label string, bands [][]float64, occ []float64) {
	t.Helper()

	dir := filepath.Join(root, label)
	outdir := filepath.Join(dir, "OUT."+label)
	require.NoError(t, os.MkdirAll(outdir, 0o755))

	input := fmt.Sprintf("suffix %s\ncalculation scf\ngamma_only 1\nnspin 1\n", label)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "INPUT"), []byte(input), 0o644))

	log := "ntype = 1\nnatom of type 1 = 1\nnzeta of type 1 = 2 1\nnspin = 1\nkpoint weights = 1.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(outdir, "running_scf.log"), []byte(log), 0o644))

	var wfc strings.Builder
	fmt.Fprintf(&wfc, "nbands %d\nnbasis 5\nkpoint 0.0 0.0 0.0\n", len(bands))
	for _, band := range bands {
		for _, v := range band {
			fmt.Fprintf(&wfc, "%g ", v)
		}
		wfc.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(filepath.Join(outdir, "WFC_NAO_GAMMA1.txt"), []byte(wfc.String()), 0o644))

	var triu strings.Builder
	triu.WriteString("5\n")
	for i := 0; i < 5; i++ {
		for j := i; j < 5; j++ {
			v := 0.0
			if i == j {
				v = 1.0
			}
			fmt.Fprintf(&triu, "%g ", v)
		}
		triu.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(filepath.Join(outdir, "data-0-S"), []byte(triu.String()), 0o644))

	var ist strings.Builder
	ist.WriteString("spin 1 kpoint 1\n")
	for b, o := range occ {
		fmt.Fprintf(&ist, "%d 0.0 %g\n", b+1, o)
	}
	require.NoError(t, os.WriteFile(filepath.Join(outdir, "istate.info"), []byte(ist.String()), 0o644))
}

func lowestBands(n int) BandsSpec {
	return BandsSpec{set: true, bands: population.LowestBands(n)}
}

// TestGenerate_None verifies that the optimizer-free run type emits the
// uncontracted basis without touching reference data.
func TestGenerate_None(t *testing.T) {
	root := t.TempDir()
	p := &Plan{
		Element:   "Si",
		Ecut:      4,
		Rcuts:     []float64{6},
		Optimizer: "none",
		Orbitals: []OrbitalPlan{
			{Label: "jY", NZeta: NZetaSpec{Counts: []int{1, 1}}},
		},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, Generate(p, root, log))

	// rcut 6, ecut 4 admit two reduced functions per channel.
	orb := filepath.Join(root, "Si_6au_4Ry", "Si_gga_6au_4Ry_2S2P.orb")
	_, err := os.Stat(orb)
	assert.NoError(t, err)
}

// TestGenerate_ChannelBeyondBasis verifies that a plan requesting higher
// angular momentum than the reference basis carries fails up front, before
// any shell is optimized.
func TestGenerate_ChannelBeyondBasis(t *testing.T) {
	root := t.TempDir()
	writeRun(t, root, "Si-monomer-6au", [][]float64{{1, 0, 0, 0, 0}}, []float64{2})
	writeRun(t, root, "Si-dimer-1.8-6au", [][]float64{{0.6, 0.8, 0, 0, 0}}, []float64{2})

	p := &Plan{
		Element: "Si",
		Ecut:    4,
		Rcuts:   []float64{6},
		Basis:   "jy",
		Folders: [][]string{{"Si-dimer-1.8-6au"}},
		Orbitals: []OrbitalPlan{
			// The reference layout {2, 1} ends at l=1.
			{Label: "SZ", NZeta: NZetaSpec{Counts: []int{1, 1, 1}}, Folders: []int{0}, NBands: lowestBands(1)},
		},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := Generate(p, root, log)
	assert.ErrorIs(t, err, spillage.ErrShape)
	assert.ErrorContains(t, err, "l=2")
}

// TestGenerate_JYEndToEnd drives the whole jy pipeline: monomer-seeded
// guess, SZ → DZ onion optimization and per-level serialization.
func TestGenerate_JYEndToEnd(t *testing.T) {
	root := t.TempDir()

	// Monomer: one-hot bands spanning every basis function, so band
	// assignment finds two s bands and one p group.
	mono := make([][]float64, 5)
	for b := range mono {
		mono[b] = make([]float64, 5)
		mono[b][b] = 1
	}
	writeRun(t, root, "Si-monomer-6au", mono, []float64{2, 0, 0, 0, 0})

	// Dimer: an s band mixing both radial roots and one p band.
	writeRun(t, root, "Si-dimer-1.8-6au", [][]float64{
		{0.6, 0.8, 0, 0, 0},
		{0, 0, 1, 0, 0},
	}, []float64{2, 2})

	p := &Plan{
		Element:  "Si",
		Ecut:     4,
		Rcuts:    []float64{6},
		Basis:    "jy",
		MaxSteps: 500,
		NThreads: 2,
		Folders:  [][]string{{"Si-dimer-1.8-6au"}},
		Orbitals: []OrbitalPlan{
			{Label: "SZ", NZeta: NZetaSpec{Counts: []int{1, 1}}, Folders: []int{0}, NBands: lowestBands(2)},
			{Label: "DZ", NZeta: NZetaSpec{Counts: []int{2, 1}}, From: "SZ", Folders: []int{0}, NBands: lowestBands(2)},
		},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, Generate(p, root, log))

	outdir := filepath.Join(root, "Si_6au_4Ry")
	for _, name := range []string{"Si_gga_6au_4Ry_1S1P", "Si_gga_6au_4Ry_2S1P"} {
		for _, ext := range []string{".orb", ".param", ".png"} {
			_, err := os.Stat(filepath.Join(outdir, name+ext))
			assert.NoError(t, err, name+ext)
		}
	}
}
