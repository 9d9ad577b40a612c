// SPDX-License-Identifier: MIT

package spillage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/orbgen/coefs"
	"github.com/katalvlaran/orbgen/population"
	"github.com/katalvlaran/orbgen/refdata"
)

func eye(n int) *mat.SymDense {
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		s.SetSym(i, i, 1)
	}

	return s
}

// jyTestConfig builds an in-memory reference with a single s channel over
// four radial roots and two orthonormal bands; band 0 is occupied.
func jyTestConfig() *refdata.Config {
	coef := mat.NewDense(4, 2, []float64{
		0.5, 1 / math.Sqrt2,
		0.5, -1 / math.Sqrt2,
		0.5, 0,
		0.5, 0,
	})
	wfc := &refdata.Wavefunction{NBasis: 4, NBands: 2, Coef: coef}

	return &refdata.Config{
		Dir: "mem://Si-dimer",
		Meta: refdata.RunMeta{
			NSpin:    1,
			NAtom:    []int{1},
			NZeta:    [][]int{{4}},
			KWeights: []float64{1},
		},
		State: &refdata.IState{Bands: [][][]refdata.BandInfo{{{
			{Energy: -0.4, Occ: 2},
			{Energy: 0.2, Occ: 0},
		}}}},
		Channels: []refdata.SpinK{{Ovlp: eye(4), Wfc: wfc}},
	}
}

// TestFlattenRoundTrip verifies that unflatten inverts flatten over a
// ragged coefficient set.
func TestFlattenRoundTrip(t *testing.T) {
	s := coefs.Set{{
		{{1, 2, 3}, {4, 5, 6}},
		{{7, 8}},
	}}
	x := flatten(s)
	require.Len(t, x, 8)
	assert.Equal(t, s, unflatten(s, x))
}

// TestProjectionSpillage_Exact verifies that a candidate space containing a
// band exactly yields zero spillage for it and full spillage for an
// orthogonal band.
func TestProjectionSpillage_Exact(t *testing.T) {
	cfg := jyTestConfig()
	ch := cfg.Channels[0]

	var mojy mat.Dense
	mojy.Mul(ch.Wfc.Coef.T(), ch.Ovlp)
	momo := []float64{1, 1}

	u := buildLocalU(cfg.Meta.NAtom, cfg.Meta.NZeta, coefs.Set{{{{0.5, 0.5, 0.5, 0.5}}}})

	assert.InDelta(t, 0.0, projectionSpillage(ch.Ovlp, &mojy, momo, u, []int{0}), 1e-12)
	assert.InDelta(t, 1.0, projectionSpillage(ch.Ovlp, &mojy, momo, u, []int{1}), 1e-12)
	assert.InDelta(t, 0.5, projectionSpillage(ch.Ovlp, &mojy, momo, u, []int{0, 1}), 1e-12)
}

// TestJYOptimize_SingleZeta verifies the end-to-end contract: a single-zeta
// basis fit against the one occupied band it can represent exactly
// converges to spillage ≈ 0.
func TestJYOptimize_SingleZeta(t *testing.T) {
	min := NewJY()
	require.NoError(t, min.ConfigAdd(jyTestConfig()))

	init := coefs.Set{{{{1, 0, 0, 0}}}}
	out, spill, err := min.Optimize(init, nil, []int{0}, population.LowestBands(1), DefaultOptions(), 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0][0], 1)

	assert.Less(t, spill, 1e-6)

	// The optimized row is parallel to the target band (up to scale).
	row := out[0][0][0]
	dot, norm := 0.0, 0.0
	for _, v := range row {
		dot += v * 0.5
		norm += v * v
	}
	assert.InDelta(t, 1.0, dot*dot/norm, 1e-6)
}

// TestJYOptimize_FrozenParent verifies that a frozen inner zeta is kept
// fixed while an added zeta absorbs the remaining band, and that the
// result carries only the new block.
func TestJYOptimize_FrozenParent(t *testing.T) {
	min := NewJY()
	require.NoError(t, min.ConfigAdd(jyTestConfig()))

	frozen := coefs.Set{{{{0.5, 0.5, 0.5, 0.5}}}}
	init := coefs.Set{{{{0, 1, 0, 0}}}}

	out, spill, err := min.Optimize(init, frozen, []int{0}, population.LowestBands(2), DefaultOptions(), 1)
	require.NoError(t, err)

	assert.Less(t, spill, 1e-6)
	require.Len(t, out[0][0], 1, "only the new zeta block is returned")
}

// TestJYOptimize_ThreadCountIndependent verifies that the thread knob does
// not change the optimization result.
func TestJYOptimize_ThreadCountIndependent(t *testing.T) {
	build := func() *JY {
		min := NewJY()
		require.NoError(t, min.ConfigAdd(jyTestConfig()))
		require.NoError(t, min.ConfigAdd(jyTestConfig()))

		return min
	}
	init := coefs.Set{{{{1, 0, 0, 0}}}}

	_, s1, err := build().Optimize(init, nil, []int{0, 1}, population.LowestBands(1), DefaultOptions(), 1)
	require.NoError(t, err)
	_, s4, err := build().Optimize(init, nil, []int{0, 1}, population.LowestBands(1), DefaultOptions(), 4)
	require.NoError(t, err)

	assert.Equal(t, s1, s4)
}

// TestJYOptimize_Validation covers the configuration-index and shape
// guards.
func TestJYOptimize_Validation(t *testing.T) {
	min := NewJY()
	require.NoError(t, min.ConfigAdd(jyTestConfig()))

	init := coefs.Set{{{{1, 0, 0, 0}}}}
	_, _, err := min.Optimize(init, nil, []int{5}, population.LowestBands(1), DefaultOptions(), 1)
	assert.ErrorIs(t, err, ErrConfigRange)

	short := coefs.Set{{{{1, 0, 0}}}}
	_, _, err = min.Optimize(short, nil, []int{0}, population.LowestBands(1), DefaultOptions(), 1)
	assert.ErrorIs(t, err, ErrShape)

	_, _, err = min.Optimize(init, nil, nil, population.LowestBands(1), DefaultOptions(), 1)
	assert.ErrorIs(t, err, ErrNoConfigs)
}

func pwTestMatrix(rcut float64) *refdata.OrbMatrix {
	mojy := mat.NewDense(1, 4, []float64{0.5, 0.5, 0.5, 0.5})

	return &refdata.OrbMatrix{
		Rcut:  rcut,
		Ecut:  20,
		NAtom: 1,
		NBes:  []int{4},
		NJy:   4,
		NBand: 1,
		JyJy:  eye(4),
		MoJy:  mojy,
		MoMo:  []float64{1},
	}
}

// TestPWConfigAdd_PairMismatch verifies the cutoff-consistency guard on
// value/derivative pairs.
func TestPWConfigAdd_PairMismatch(t *testing.T) {
	min := NewPW()
	err := min.ConfigAdd(pwTestMatrix(6), pwTestMatrix(7), DefaultPWWeights)
	assert.ErrorIs(t, err, ErrPairMismatch)
	assert.ErrorContains(t, err, "6")
	assert.ErrorContains(t, err, "7")
}

// TestPWOptimize_SingleZeta verifies the plane-wave backend end to end and
// its rejection of the occupied-band selector.
func TestPWOptimize_SingleZeta(t *testing.T) {
	min := NewPW()
	require.NoError(t, min.ConfigAdd(pwTestMatrix(6), pwTestMatrix(6), [2]float64{0.5, 0.5}))

	init := coefs.Set{{{{1, 0, 0, 0}}}}
	_, spill, err := min.Optimize(init, nil, []int{0}, population.LowestBands(1), DefaultOptions(), 1)
	require.NoError(t, err)
	assert.Less(t, spill, 1e-6)

	_, _, err = min.Optimize(init, nil, []int{0}, population.OccupiedBands(), DefaultOptions(), 1)
	assert.ErrorIs(t, err, ErrBandSelector)
}

// monomerConfig builds a monomer reference with layout {2,1}: one s band
// on the first s root and three degenerate p bands on the p root.
func monomerConfig() *refdata.Config {
	coef := mat.NewDense(5, 4, nil)
	coef.Set(0, 0, 1)
	coef.Set(2, 1, 1)
	coef.Set(3, 2, 1)
	coef.Set(4, 3, 1)

	return &refdata.Config{
		Dir: "mem://Si-monomer",
		Meta: refdata.RunMeta{
			NSpin:    1,
			NAtom:    []int{1},
			NZeta:    [][]int{{2, 1}},
			KWeights: []float64{1},
		},
		State: &refdata.IState{Bands: [][][]refdata.BandInfo{{{
			{Occ: 2}, {Occ: 0}, {Occ: 0}, {Occ: 0},
		}}}},
		Channels: []refdata.SpinK{{
			Ovlp: eye(5),
			Wfc:  &refdata.Wavefunction{NBasis: 5, NBands: 4, Coef: coef},
		}},
	}
}

// TestGuessJY covers monomer band-picking and its failure modes.
func TestGuessJY(t *testing.T) {
	mono := monomerConfig()

	guess, err := GuessJY(mono, []int{1, 1}, nil)
	require.NoError(t, err)
	require.Len(t, guess, 1)
	assert.InDeltaSlice(t, []float64{1, 0}, guess[0][0][0], 1e-12)
	assert.InDeltaSlice(t, []float64{1}, guess[0][1][0], 1e-12)

	// Channel l=0 has only one assigned band but two zeta functions are
	// requested.
	_, err = GuessJY(mono, []int{2, 1}, nil)
	assert.ErrorIs(t, err, ErrNoEligibleBands)
	assert.ErrorContains(t, err, "duplicate shell")

	// Nothing new beyond the baseline.
	_, err = GuessJY(mono, []int{1, 1}, []int{1, 1})
	assert.ErrorIs(t, err, ErrNoEligibleBands)

	_, err = GuessJY(mono, []int{1, 0}, []int{2, 0})
	assert.ErrorIs(t, err, coefs.ErrHierarchy)
}

// TestGuessPW verifies the identity seed and subset extraction.
func TestGuessPW(t *testing.T) {
	guess, err := GuessPW([]int{3}, []int{2}, []int{1})
	require.NoError(t, err)
	require.Len(t, guess[0][0], 1)
	assert.Equal(t, []float64{0, 1, 0}, guess[0][0][0])

	_, err = GuessPW([]int{3}, []int{4}, nil)
	assert.ErrorIs(t, err, coefs.ErrZetaRange)
}

// TestEyeSet verifies the uncontracted identity set spans the reduced
// radial space of the cutoffs.
func TestEyeSet(t *testing.T) {
	s, err := EyeSet(6, 4, 0)
	require.NoError(t, err)
	require.Len(t, s, 1)
	require.Len(t, s[0], 1)
	assert.Len(t, s[0][0], 2)
	assert.Equal(t, []float64{1, 0}, s[0][0][0])
}

// TestNZetaMax verifies the cross-shell maximum used to size the shared
// guess.
func TestNZetaMax(t *testing.T) {
	got := NZetaMax([][]int{{2, 1}, {1, 2, 1}})
	assert.Equal(t, []int{2, 2, 1}, got)
}
