// SPDX-License-Identifier: MIT

package spillage

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/katalvlaran/orbgen/coefs"
)

// flatten serializes a coefficient set type-, channel-, zeta-, root-major.
func flatten(s coefs.Set) []float64 {
	var out []float64
	for _, t := range s {
		for _, ch := range t {
			for _, row := range ch {
				out = append(out, row...)
			}
		}
	}

	return out
}

// unflatten rebuilds a set with the nested shape of tmpl from x.
func unflatten(tmpl coefs.Set, x []float64) coefs.Set {
	out := tmpl.Clone()
	i := 0
	for it := range out {
		for l := range out[it] {
			for z := range out[it][l] {
				n := copy(out[it][l][z], x[i:])
				i += n
			}
		}
	}

	return out
}

// projectionSpillage computes the mean spillage of the listed bands against
// the candidate space spanned by the columns of u:
//
//	spill_b = 1 − a_bᵀ (Uᵀ J U)⁻¹ a_b / momo_b,  a_b = (mojy · U) row b
//
// jyjy is the reference-basis overlap, mojy the band-basis projections and
// momo the band norms. A rank-deficient candidate overlap counts as
// complete spillage rather than an error, keeping the objective finite
// everywhere the line search may probe.
func projectionSpillage(jyjy mat.Matrix, mojy *mat.Dense, momo []float64, u *mat.Dense, bands []int) float64 {
	if len(bands) == 0 {
		return 0
	}
	_, norb := u.Dims()
	if norb == 0 {
		return 1
	}

	var ju mat.Dense
	ju.Mul(jyjy, u)
	var m mat.Dense
	m.Mul(u.T(), &ju)

	sym := mat.NewSymDense(norb, nil)
	for i := 0; i < norb; i++ {
		for j := i; j < norb; j++ {
			sym.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		tr := 0.0
		for i := 0; i < norb; i++ {
			tr += sym.At(i, i)
		}
		eps := 1e-12 * tr
		if eps <= 0 {
			eps = 1e-12
		}
		for i := 0; i < norb; i++ {
			sym.SetSym(i, i, sym.At(i, i)+eps)
		}
		if !chol.Factorize(sym) {
			return 1
		}
	}

	var a mat.Dense
	a.Mul(mojy, u)

	sum := 0.0
	y := mat.NewVecDense(norb, nil)
	for _, b := range bands {
		ab := mat.NewVecDense(norb, mat.Row(nil, b, &a))
		if err := chol.SolveVecTo(y, ab); err != nil {
			sum += 1
			continue
		}
		sum += 1 - mat.Dot(ab, y)/momo[b]
	}

	return sum / float64(len(bands))
}

// buildLocalU maps a coefficient set onto the localized reference basis,
// whose index runs type, atom, l, root q, m. One orbital column exists per
// (type, atom, l, zeta, m); its rows carry the contraction coefficients
// over the root index.
func buildLocalU(natom []int, layout [][]int, c coefs.Set) *mat.Dense {
	nbasis, norb := 0, 0
	for t, lay := range layout {
		per, orb := 0, 0
		for l, nq := range lay {
			per += nq * (2*l + 1)
			if l < len(c[t]) {
				orb += len(c[t][l]) * (2*l + 1)
			}
		}
		nbasis += natom[t] * per
		norb += natom[t] * orb
	}
	u := mat.NewDense(nbasis, norb, nil)

	col := 0
	rowBase := 0
	for t, lay := range layout {
		per := 0
		for l, nq := range lay {
			per += nq * (2*l + 1)
		}
		for a := 0; a < natom[t]; a++ {
			lOff := 0
			for l, nq := range lay {
				deg := 2*l + 1
				if l < len(c[t]) {
					for _, row := range c[t][l] {
						for m := 0; m < deg; m++ {
							for q, v := range row {
								u.Set(rowBase+lOff+q*deg+m, col, v)
							}
							col++
						}
					}
				}
				lOff += nq * deg
			}
			rowBase += per
		}
	}

	return u
}

// buildPWU is buildLocalU for the plane-wave jy ordering, whose reference
// index runs atom, l, m, root q (single atom type).
func buildPWU(natom int, nbes []int, c coefs.Tensor) *mat.Dense {
	per, orbPer := 0, 0
	for l, nq := range nbes {
		per += nq * (2*l + 1)
		if l < len(c) {
			orbPer += len(c[l]) * (2*l + 1)
		}
	}
	u := mat.NewDense(natom*per, natom*orbPer, nil)

	col := 0
	for a := 0; a < natom; a++ {
		aOff := a * per
		lOff := 0
		for l, nq := range nbes {
			deg := 2*l + 1
			if l < len(c) {
				for _, row := range c[l] {
					for m := 0; m < deg; m++ {
						for q, v := range row {
							u.Set(aOff+lOff+m*nq+q, col, v)
						}
						col++
					}
				}
			}
			lOff += nq * deg
		}
	}

	return u
}

// checkShape validates a merged candidate set against a reference layout.
func checkShape(c coefs.Set, layout [][]int) error {
	if len(c) != len(layout) {
		return fmt.Errorf("%w: %d atom types in coefficients, %d in reference", ErrShape, len(c), len(layout))
	}
	for t := range c {
		if len(c[t]) > len(layout[t]) {
			return fmt.Errorf("%w: type %d has %d channels, reference supports %d",
				ErrShape, t, len(c[t]), len(layout[t]))
		}
		for l, ch := range c[t] {
			for z, row := range ch {
				if len(row) != layout[t][l] {
					return fmt.Errorf("%w: type %d l=%d zeta %d has %d roots, reference has %d",
						ErrShape, t, l, z, len(row), layout[t][l])
				}
			}
		}
	}

	return nil
}

// sumEvals evaluates the per-configuration spillage terms, fanning out over
// at most nthreads goroutines. The reduction is sequential over the
// configuration order so the total does not depend on nthreads.
func sumEvals(merged coefs.Set, evals []func(coefs.Set) float64, nthreads int) float64 {
	if nthreads < 1 {
		nthreads = 1
	}
	if nthreads == 1 || len(evals) == 1 {
		total := 0.0
		for _, ev := range evals {
			total += ev(merged)
		}

		return total
	}

	vals := make([]float64, len(evals))
	sem := make(chan struct{}, nthreads)
	var wg sync.WaitGroup
	for i, ev := range evals {
		wg.Add(1)
		go func(i int, ev func(coefs.Set) float64) {
			defer wg.Done()
			sem <- struct{}{}
			vals[i] = ev(merged)
			<-sem
		}(i, ev)
	}
	wg.Wait()

	total := 0.0
	for _, v := range vals {
		total += v
	}

	return total
}

// minimizeSet runs the LBFGS minimization shared by both backends. evals
// holds one aggregate-spillage term per selected configuration, each a pure
// function of the merged (frozen + candidate) coefficient set.
func minimizeSet(init, frozen coefs.Set, evals []func(coefs.Set) float64, opts Options, nthreads int) (coefs.Set, float64, error) {
	x0 := flatten(init)
	if len(x0) == 0 {
		return nil, 0, fmt.Errorf("%w: no free coefficients to optimize", ErrShape)
	}
	if _, err := coefs.Merge(frozen, init); err != nil {
		return nil, 0, err
	}

	obj := func(x []float64) float64 {
		cand := unflatten(init, x)
		merged, err := coefs.Merge(frozen, cand)
		if err != nil {
			return math.Inf(1)
		}

		return sumEvals(merged, evals, nthreads)
	}

	prob := optimize.Problem{
		Func: obj,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, obj, x, nil)
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: opts.GTol,
		MajorIterations:   opts.MaxIter,
	}

	res, err := optimize.Minimize(prob, x0, settings, &optimize.LBFGS{Store: opts.Store})
	if err != nil && (res == nil || res.X == nil) {
		return nil, 0, fmt.Errorf("spillage: optimization failed: %w", err)
	}
	// Iteration-cap and line-search terminations still carry the best point
	// found; the achieved spillage is left for the caller to judge.

	return unflatten(init, res.X), res.F, nil
}
