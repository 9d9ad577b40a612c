// SPDX-License-Identifier: MIT

package coefs_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/orbgen/coefs"
)

// randTensor builds a tensor with nzeta[l] zeta functions of nq coefficients
// each, filled from a fixed-seed source for reproducibility.
func randTensor(rng *rand.Rand, nzeta []int, nq int) coefs.Tensor {
	t := make(coefs.Tensor, len(nzeta))
	for l, nz := range nzeta {
		t[l] = make([][]float64, nz)
		for z := 0; z < nz; z++ {
			row := make([]float64, nq)
			for q := range row {
				row[q] = rng.NormFloat64()
			}
			t[l][z] = row
		}
	}

	return t
}

// TestSubset_LeadingRange verifies that a nil baseline extracts the leading
// zeta functions of every channel.
func TestSubset_LeadingRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := randTensor(rng, []int{3, 3, 2}, 4)

	sub, err := coefs.Subset([]int{2, 2, 1}, nil, data)
	require.NoError(t, err)
	require.Len(t, sub, 1, "subset always yields one atom type")

	assert.Equal(t, [][]float64{data[0][0], data[0][1]}, sub[0][0])
	assert.Equal(t, [][]float64{data[1][0], data[1][1]}, sub[0][1])
	assert.Equal(t, [][]float64{data[2][0]}, sub[0][2])
}

// TestSubset_NewZetaOnly verifies that a non-zero baseline extracts exactly
// the zeta functions added beyond it.
func TestSubset_NewZetaOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	data := randTensor(rng, []int{3, 3, 2}, 4)

	sub, err := coefs.Subset([]int{3, 3, 2}, []int{2, 2, 1}, data)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{data[0][2]}, sub[0][0])
	assert.Equal(t, [][]float64{data[1][2]}, sub[0][1])
	assert.Equal(t, [][]float64{data[2][1]}, sub[0][2])
}

// TestSubset_ShortBaseline verifies that missing trailing baseline channels
// count as zero.
func TestSubset_ShortBaseline(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := randTensor(rng, []int{3, 3, 2}, 4)

	sub, err := coefs.Subset([]int{2, 2, 1}, []int{1, 1}, data)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{data[0][1]}, sub[0][0])
	assert.Equal(t, [][]float64{data[1][1]}, sub[0][1])
	assert.Equal(t, [][]float64{data[2][0]}, sub[0][2], "absent baseline channel starts at zeta 0")
}

// TestSubset_EmptyChannels verifies that nzeta == nzeta0 yields empty
// channels, not an error.
func TestSubset_EmptyChannels(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	data := randTensor(rng, []int{2, 2}, 3)

	sub, err := coefs.Subset([]int{2, 2}, []int{2, 2}, data)
	require.NoError(t, err)
	assert.Empty(t, sub[0][0])
	assert.Empty(t, sub[0][1])
}

// TestSubset_HierarchyViolation verifies ErrHierarchy whenever any
// nzeta0[l] > nzeta[l].
func TestSubset_HierarchyViolation(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	data := randTensor(rng, []int{3, 3, 2}, 4)

	_, err := coefs.Subset([]int{1, 1}, []int{3, 3, 2}, data)
	assert.ErrorIs(t, err, coefs.ErrHierarchy, "baseline with more channels must fail")

	_, err = coefs.Subset([]int{2, 2, 1}, []int{2, 3, 1}, data)
	assert.ErrorIs(t, err, coefs.ErrHierarchy, "componentwise violation must fail")
}

// TestSubset_ZetaRange verifies ErrZetaRange when the target reaches beyond
// the available zeta functions.
func TestSubset_ZetaRange(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	data := randTensor(rng, []int{2, 1}, 3)

	_, err := coefs.Subset([]int{2, 2}, nil, data)
	assert.ErrorIs(t, err, coefs.ErrZetaRange)
}

// TestMerge_NilInner verifies that merging with a nil inner set is a deep
// copy of the outer set.
func TestMerge_NilInner(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	outer := coefs.Set{randTensor(rng, []int{2, 1}, 3)}

	merged, err := coefs.Merge(nil, outer)
	require.NoError(t, err)
	require.Equal(t, outer, merged)

	// Deep copy: mutating the merge must not touch the source.
	merged[0][0][0][0] += 1.0
	assert.NotEqual(t, outer[0][0][0][0], merged[0][0][0][0])
}

// TestSubsetMerge_Compose verifies the composition law
// Merge(Subset(n1,n0,A), Subset(n2,n1,A)) == Subset(n2,n0,A)
// for non-decreasing n0 ≤ n1 ≤ n2.
func TestSubsetMerge_Compose(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	data := randTensor(rng, []int{4, 3, 2}, 5)

	n0 := []int{1, 1, 0}
	n1 := []int{2, 2, 1}
	n2 := []int{4, 3, 2}

	lo, err := coefs.Subset(n1, n0, data)
	require.NoError(t, err)
	hi, err := coefs.Subset(n2, n1, data)
	require.NoError(t, err)
	merged, err := coefs.Merge(lo, hi)
	require.NoError(t, err)

	want, err := coefs.Subset(n2, n0, data)
	require.NoError(t, err)
	assert.Equal(t, want, merged)
}

// TestPeel_InverseOfMerge verifies that merging independently generated
// per-level tensors and peeling with the per-level counts reproduces the
// original levels, innermost first.
func TestPeel_InverseOfMerge(t *testing.T) {
	rng := rand.New(rand.NewSource(9))

	counts := [][]int{
		{2, 1, 0}, // SZ-ish
		{1, 1, 1}, // + polarization
		{1, 0, 1}, // outer correction
	}
	levels := make([]coefs.Tensor, len(counts))
	for i, nz := range counts {
		levels[i] = randTensor(rng, nz, 4)
	}

	merged := coefs.Set{levels[0]}
	var err error
	for _, lvl := range levels[1:] {
		merged, err = coefs.Merge(merged, coefs.Set{lvl})
		require.NoError(t, err)
	}

	peeled, err := coefs.Peel(merged[0], counts)
	require.NoError(t, err)
	require.Len(t, peeled, len(levels))
	for i := range levels {
		assert.Equal(t, levels[i], peeled[i], "level %d must round-trip", i)
	}
}

// TestPeel_CountMismatch verifies ErrPeelMismatch for counts that
// over- or under-consume the merged tensor.
func TestPeel_CountMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	data := randTensor(rng, []int{3, 2}, 4)

	_, err := coefs.Peel(data, [][]int{{2, 1}, {2, 1}})
	assert.ErrorIs(t, err, coefs.ErrPeelMismatch, "over-consuming counts must fail")

	_, err = coefs.Peel(data, [][]int{{2, 1}})
	assert.ErrorIs(t, err, coefs.ErrPeelMismatch, "under-consuming counts must fail")
}

// TestTensor_NZeta verifies the zeta-count accessor.
func TestTensor_NZeta(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	data := randTensor(rng, []int{3, 1, 0}, 2)
	assert.Equal(t, []int{3, 1, 0}, data.NZeta())
}
