// SPDX-License-Identifier: MIT

package basis

import (
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/orbgen/coefs"
)

// DefaultDr is the default real-space grid spacing (length units).
const DefaultDr = 0.01

// RadialGrid returns the uniform grid 0, dr, 2·dr, …, rcut with
// int(rcut/dr)+1 points.
func RadialGrid(rcut, dr float64) []float64 {
	// Round before truncating: rcut/dr is frequently 699.999… in floats.
	n := int(math.Round(rcut/dr)) + 1
	r := make([]float64, n)
	for i := range r {
		r[i] = float64(i) * dr
	}

	return r
}

// Norm returns the radial normalization constant N_{l,q} of
// j_l(θ_q r/rcut) on [0, rcut]:
//
//	N² = ∫₀^rcut j_l(θ_q r/rcut)² r² dr = rcut³/2 · j_{l+1}(θ_q)².
func Norm(l int, rcut, theta float64) float64 {
	return math.Sqrt(rcut*rcut*rcut/2) * math.Abs(SphJ(l+1, theta))
}

// Evaluate tabulates the orthonormal functions g_q(r) of channel l on grid
// r: the returned matrix has nbes rows and len(r) columns.
func Evaluate(l, nbes int, rcut float64, r []float64) *mat.Dense {
	thetas := JlZeros(l, nbes)
	g := mat.NewDense(nbes, len(r), nil)
	for q, theta := range thetas {
		n := Norm(l, rcut, theta)
		for i, ri := range r {
			g.Set(q, i, SphJ(l, theta*ri/rcut)/n)
		}
	}

	return g
}

// ReducedTransform returns the (nbes × nbes-1) matrix T whose column k holds
// the normalized-basis coefficients of the k-th reduced basis function.
//
// Construction: the pairwise differences
//
//	e_k = g_k − α_k g_{k+1},   α_k = g_k'(rcut) / g_{k+1}'(rcut),
//
// have zero first derivative at rcut (every g_q already vanishes there);
// modified Gram–Schmidt re-orthonormalizes the e_k. Orthonormality of the
// g_q makes the Gram–Schmidt purely Euclidean in coefficient space.
func ReducedTransform(l, nbes int, rcut float64) *mat.Dense {
	thetas := JlZeros(l, nbes)

	// Endpoint derivatives of the normalized functions.
	dend := make([]float64, nbes)
	for q, theta := range thetas {
		dend[q] = theta / rcut * SphJDeriv(l, theta) / Norm(l, rcut, theta)
	}

	t := mat.NewDense(nbes, nbes-1, nil)
	for k := 0; k < nbes-1; k++ {
		alpha := dend[k] / dend[k+1]
		t.Set(k, k, 1)
		t.Set(k+1, k, -alpha)
	}

	// Modified Gram–Schmidt over columns.
	for k := 0; k < nbes-1; k++ {
		col := mat.Col(nil, k, t)
		for j := 0; j < k; j++ {
			prev := mat.Col(nil, j, t)
			dot := 0.0
			for q := range col {
				dot += col[q] * prev[q]
			}
			for q := range col {
				col[q] -= dot * prev[q]
			}
		}
		norm := 0.0
		for q := range col {
			norm += col[q] * col[q]
		}
		norm = math.Sqrt(norm)
		for q := range col {
			t.Set(q, k, col[q]/norm)
		}
	}

	return t
}

// CoeffNormalizedToRaw converts normalized-convention coefficients to raw
// spherical-Bessel coefficients (divide by N_{l,q} per root).
func CoeffNormalizedToRaw(t coefs.Tensor, rcut float64) coefs.Tensor {
	out := t.Clone()
	for l := range out {
		var thetas []float64
		for _, row := range out[l] {
			if len(row) > len(thetas) {
				thetas = JlZeros(l, len(row))
			}
			for q := range row {
				row[q] /= Norm(l, rcut, thetas[q])
			}
		}
	}

	return out
}

// CoeffReducedToRaw converts reduced-convention coefficients to raw
// spherical-Bessel coefficients: expand through the reduced transform into
// the normalized basis, then rescale per root.
func CoeffReducedToRaw(t coefs.Tensor, rcut float64) coefs.Tensor {
	expanded := make(coefs.Tensor, len(t))
	for l, ch := range t {
		expanded[l] = make([][]float64, len(ch))
		for z, row := range ch {
			nbes := len(row) + 1
			tr := ReducedTransform(l, nbes, rcut)
			full := make([]float64, nbes)
			for q := 0; q < nbes; q++ {
				for k, c := range row {
					full[q] += tr.At(q, k) * c
				}
			}
			expanded[l][z] = full
		}
	}

	return CoeffNormalizedToRaw(expanded, rcut)
}

// BuildNormalized evaluates the radial functions χ_{l,z}(r) of normalized-
// convention coefficients on grid r. The result is indexed [l][zeta][ir].
// When unitNorm is true each χ is rescaled to unit radial norm (trapezoidal
// ∫ χ² r² dr).
func BuildNormalized(t coefs.Tensor, rcut float64, r []float64, unitNorm bool) [][][]float64 {
	chi := make([][][]float64, len(t))
	for l, ch := range t {
		chi[l] = make([][]float64, len(ch))
		if len(ch) == 0 {
			continue
		}
		nbes := 0
		for _, row := range ch {
			if len(row) > nbes {
				nbes = len(row)
			}
		}
		g := Evaluate(l, nbes, rcut, r)
		for z, row := range ch {
			f := make([]float64, len(r))
			for q, c := range row {
				for i := range f {
					f[i] += c * g.At(q, i)
				}
			}
			if unitNorm {
				normalizeRadial(f, r)
			}
			chi[l][z] = f
		}
	}

	return chi
}

// BuildReduced evaluates reduced-convention coefficients on grid r by first
// expanding them into the normalized basis. Indexed [l][zeta][ir].
func BuildReduced(t coefs.Tensor, rcut float64, r []float64, unitNorm bool) [][][]float64 {
	expanded := make(coefs.Tensor, len(t))
	for l, ch := range t {
		expanded[l] = make([][]float64, len(ch))
		for z, row := range ch {
			nbes := len(row) + 1
			tr := ReducedTransform(l, nbes, rcut)
			full := make([]float64, nbes)
			for q := 0; q < nbes; q++ {
				for k, c := range row {
					full[q] += tr.At(q, k) * c
				}
			}
			expanded[l][z] = full
		}
	}

	return BuildNormalized(expanded, rcut, r, unitNorm)
}

// BuildRaw evaluates raw-convention coefficients χ = Σ_q c_q j_l(θ_q r/rcut)
// on grid r. Indexed [l][zeta][ir].
func BuildRaw(t coefs.Tensor, rcut float64, r []float64, unitNorm bool) [][][]float64 {
	chi := make([][][]float64, len(t))
	for l, ch := range t {
		chi[l] = make([][]float64, len(ch))
		if len(ch) == 0 {
			continue
		}
		nbes := 0
		for _, row := range ch {
			if len(row) > nbes {
				nbes = len(row)
			}
		}
		thetas := JlZeros(l, nbes)
		for z, row := range ch {
			f := make([]float64, len(r))
			for q, c := range row {
				for i, ri := range r {
					f[i] += c * SphJ(l, thetas[q]*ri/rcut)
				}
			}
			if unitNorm {
				normalizeRadial(f, r)
			}
			chi[l][z] = f
		}
	}

	return chi
}

// normalizeRadial rescales f to unit ∫ f² r² dr using trapezoidal
// quadrature on grid r. A zero function is left untouched.
func normalizeRadial(f, r []float64) {
	if len(r) < 2 {
		return
	}
	g := make([]float64, len(r))
	for i, ri := range r {
		g[i] = f[i] * f[i] * ri * ri
	}
	sum := integrate.Trapezoidal(r, g)
	if sum <= 0 {
		return
	}
	scale := 1 / math.Sqrt(sum)
	for i := range f {
		f[i] *= scale
	}
}
