// SPDX-License-Identifier: MIT

package basis_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/orbgen/basis"
	"github.com/katalvlaran/orbgen/coefs"
)

// TestSphJ_ClosedForms checks j_0 and j_1 against their analytic forms and
// the l=0 limit at x=0.
func TestSphJ_ClosedForms(t *testing.T) {
	assert.Equal(t, 1.0, basis.SphJ(0, 0))
	assert.Equal(t, 0.0, basis.SphJ(3, 0))

	for _, x := range []float64{0.1, 1.0, 2.5, 10.0} {
		assert.InDelta(t, math.Sin(x)/x, basis.SphJ(0, x), 1e-14, "j0(%v)", x)
		assert.InDelta(t, math.Sin(x)/(x*x)-math.Cos(x)/x, basis.SphJ(1, x), 1e-14, "j1(%v)", x)
	}
}

// TestSphJ_MillerRegion cross-checks the downward recurrence (x < l) against
// reference values of j_5.
func TestSphJ_MillerRegion(t *testing.T) {
	// j_5(1) and j_5(2), Abramowitz & Stegun grade accuracy.
	assert.InDelta(t, 9.256115861e-5, basis.SphJ(5, 1), 1e-12)
	assert.InDelta(t, 2.635169770e-3, basis.SphJ(5, 2), 1e-10)
}

// TestJlZeros_J0 verifies that the zeros of j_0 are nπ.
func TestJlZeros_J0(t *testing.T) {
	zeros := basis.JlZeros(0, 5)
	require.Len(t, zeros, 5)
	for i, z := range zeros {
		assert.InDelta(t, float64(i+1)*math.Pi, z, 1e-9, "zero %d", i)
	}
}

// TestJlZeros_Interlace verifies the interlacing property
// θ_{l,q} < θ_{l+1,q} < θ_{l,q+1}.
func TestJlZeros_Interlace(t *testing.T) {
	z1 := basis.JlZeros(1, 4)
	z2 := basis.JlZeros(2, 4)
	for q := 0; q < 3; q++ {
		assert.Less(t, z1[q], z2[q])
		assert.Less(t, z2[q], z1[q+1])
	}
}

// TestNumBes_CountsZerosBelowCutoff verifies nbes against the q ≤ √ecut rule
// for l=0, where zeros are known analytically.
func TestNumBes_CountsZerosBelowCutoff(t *testing.T) {
	rcut := 6.0
	ecut := 4.0 // θmax = 12: zeros nπ ≤ 12 → n ∈ {1,2,3}
	n, err := basis.NumBes(0, rcut, ecut)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Channel richness shrinks with l at fixed cutoffs.
	n1, err := basis.NumBes(1, rcut, ecut)
	require.NoError(t, err)
	assert.LessOrEqual(t, n1, n)
}

// TestNumBes_BadInput verifies cutoff validation.
func TestNumBes_BadInput(t *testing.T) {
	_, err := basis.NumBes(-1, 6, 100)
	assert.ErrorIs(t, err, basis.ErrBesselOrder)
	_, err = basis.NumBes(0, 0, 100)
	assert.ErrorIs(t, err, basis.ErrBadCutoff)
	_, err = basis.NumBes(0, 6, -1)
	assert.ErrorIs(t, err, basis.ErrBadCutoff)
}

// TestEvaluate_Orthonormal verifies that the normalized basis functions are
// orthonormal under the radial measure r² dr (trapezoidal quadrature).
func TestEvaluate_Orthonormal(t *testing.T) {
	const (
		rcut = 6.0
		nbes = 4
		l    = 1
	)
	r := basis.RadialGrid(rcut, 1e-3)
	g := basis.Evaluate(l, nbes, rcut, r)
	dr := r[1] - r[0]

	for a := 0; a < nbes; a++ {
		for b := a; b < nbes; b++ {
			sum := 0.0
			for i, ri := range r {
				w := dr
				if i == 0 || i == len(r)-1 {
					w = dr / 2
				}
				sum += w * g.At(a, i) * g.At(b, i) * ri * ri
			}
			want := 0.0
			if a == b {
				want = 1.0
			}
			assert.InDelta(t, want, sum, 1e-5, "⟨g%d|g%d⟩", a, b)
		}
	}
}

// TestReducedTransform_SmoothAtCutoff verifies that reduced basis functions
// vanish at rcut with (numerically) zero first derivative, and that the
// transform columns are orthonormal.
func TestReducedTransform_SmoothAtCutoff(t *testing.T) {
	const (
		rcut = 6.0
		nbes = 5
		l    = 0
	)
	tr := basis.ReducedTransform(l, nbes, rcut)
	rows, cols := tr.Dims()
	require.Equal(t, nbes, rows)
	require.Equal(t, nbes-1, cols)

	// Column orthonormality.
	for a := 0; a < cols; a++ {
		for b := a; b < cols; b++ {
			dot := 0.0
			for q := 0; q < rows; q++ {
				dot += tr.At(q, a) * tr.At(q, b)
			}
			want := 0.0
			if a == b {
				want = 1.0
			}
			assert.InDelta(t, want, dot, 1e-12)
		}
	}

	// Endpoint smoothness via a fine backward difference of each reduced
	// function near rcut.
	r := basis.RadialGrid(rcut, 1e-4)
	coeff := make(coefs.Tensor, l+1)
	eye := make([][]float64, cols)
	for k := range eye {
		row := make([]float64, cols)
		row[k] = 1
		eye[k] = row
	}
	coeff[l] = eye
	chi := basis.BuildReduced(coeff, rcut, r, false)
	n := len(r)
	for k := 0; k < cols; k++ {
		f := chi[l][k]
		assert.InDelta(t, 0, f[n-1], 1e-10, "reduced %d must vanish at rcut", k)
		deriv := (f[n-1] - f[n-2]) / (r[n-1] - r[n-2])
		assert.InDelta(t, 0, deriv, 1e-2, "reduced %d endpoint slope", k)
	}
}

// TestBuildNormalized_SingleFunction verifies that a one-hot normalized
// coefficient reproduces g_q and that unit normalization is idempotent.
func TestBuildNormalized_SingleFunction(t *testing.T) {
	const rcut = 6.0
	r := basis.RadialGrid(rcut, 1e-3)
	coeff := coefs.Tensor{{{1, 0, 0}}} // l=0, one zeta, q-hot

	chi := basis.BuildNormalized(coeff, rcut, r, true)
	require.Len(t, chi, 1)
	require.Len(t, chi[0], 1)

	g := basis.Evaluate(0, 3, rcut, r)
	for i := 0; i < len(r); i += 500 {
		assert.InDelta(t, g.At(0, i), chi[0][0][i], 1e-6)
	}
}

// TestCoeffConversions_Agree verifies that building from normalized
// coefficients and building from their raw conversion give the same radial
// function up to normalization.
func TestCoeffConversions_Agree(t *testing.T) {
	const rcut = 6.0
	r := basis.RadialGrid(rcut, 1e-3)
	coeff := coefs.Tensor{{{0.7, -0.5, 0.2}}}

	fromNorm := basis.BuildNormalized(coeff, rcut, r, true)
	raw := basis.CoeffNormalizedToRaw(coeff, rcut)
	fromRaw := basis.BuildRaw(raw, rcut, r, true)

	for i := 0; i < len(r); i += 500 {
		assert.InDelta(t, fromNorm[0][0][i], fromRaw[0][0][i], 1e-8, "grid point %d", i)
	}
}

// TestRadialGrid_Shape verifies grid sizing: rcut/dr + 1 points, endpoints
// at 0 and rcut.
func TestRadialGrid_Shape(t *testing.T) {
	r := basis.RadialGrid(7.0, basis.DefaultDr)
	require.Len(t, r, 701)
	assert.Equal(t, 0.0, r[0])
	assert.InDelta(t, 7.0, r[len(r)-1], 1e-9)
}
