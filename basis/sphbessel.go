// SPDX-License-Identifier: MIT

package basis

import (
	"errors"
	"math"
)

var (
	// ErrBesselOrder indicates a negative angular momentum.
	ErrBesselOrder = errors.New("basis: angular momentum must be non-negative")

	// ErrBadCutoff indicates a non-positive cutoff radius or energy cutoff.
	ErrBadCutoff = errors.New("basis: cutoff radius and energy cutoff must be positive")
)

// millerMargin is the extra recurrence depth used by the downward (Miller)
// evaluation of j_l for x < l, where upward recurrence is unstable.
const millerMargin = 18

// SphJ returns the spherical Bessel function j_l(x) for l ≥ 0.
//
// Evaluation strategy:
//   - closed forms for l = 0, 1;
//   - upward recurrence for x ≥ l (stable there);
//   - downward Miller recurrence normalized against j_0 for 0 < x < l.
//
// SphJ panics on l < 0 (programmer error: callers derive l from slice
// indices).
func SphJ(l int, x float64) float64 {
	if l < 0 {
		panic(ErrBesselOrder)
	}
	if x == 0 {
		if l == 0 {
			return 1
		}

		return 0
	}
	if l == 0 {
		return math.Sin(x) / x
	}
	if l == 1 {
		return math.Sin(x)/(x*x) - math.Cos(x)/x
	}

	if x >= float64(l) {
		jm := math.Sin(x) / x
		j := math.Sin(x)/(x*x) - math.Cos(x)/x
		for i := 2; i <= l; i++ {
			jm, j = j, float64(2*i-1)/x*j-jm
		}

		return j
	}

	// Miller's algorithm: recur downward from a padded order with arbitrary
	// seed values, then fix the overall scale against the closed-form j_0.
	top := l + millerMargin
	jp, j := 0.0, 1e-30
	var at float64
	for n := top; n >= 1; n-- {
		jm := float64(2*n+1)/x*j - jp
		jp, j = j, jm
		if n-1 == l {
			at = j
		}
		// Rescale on overflow risk to keep the recurrence finite.
		if math.Abs(j) > 1e250 {
			jp /= 1e250
			j /= 1e250
			at /= 1e250
		}
	}

	return at * (math.Sin(x) / x) / j
}

// SphJDeriv returns d/dx j_l(x), using j_l' = j_{l-1} - (l+1)/x·j_l and
// j_0' = -j_1.
func SphJDeriv(l int, x float64) float64 {
	if l == 0 {
		return -SphJ(1, x)
	}
	if x == 0 {
		if l == 1 {
			return 1.0 / 3.0
		}

		return 0
	}

	return SphJ(l-1, x) - float64(l+1)/x*SphJ(l, x)
}

// JlZeros returns the first n positive zeros of j_l in increasing order.
//
// Brackets are located by a fixed-step sign scan starting just above x = l
// (j_l has no positive zero below its first extremum, which lies past l),
// then refined by bisection to ~1e-12.
func JlZeros(l, n int) []float64 {
	if n <= 0 {
		return nil
	}

	const step = 0.1
	zeros := make([]float64, 0, n)
	x := math.Max(1e-4, float64(l)*0.5)
	prev := SphJ(l, x)
	for len(zeros) < n {
		xn := x + step
		cur := SphJ(l, xn)
		if prev == 0 {
			zeros = append(zeros, x)
		} else if prev*cur < 0 {
			zeros = append(zeros, bisectJl(l, x, xn))
		}
		x, prev = xn, cur
	}

	return zeros
}

// bisectJl refines a sign-change bracket [a, b] of j_l down to ~1e-12.
func bisectJl(l int, a, b float64) float64 {
	fa := SphJ(l, a)
	for b-a > 1e-12 {
		m := 0.5 * (a + b)
		fm := SphJ(l, m)
		if fa*fm <= 0 {
			b = m
		} else {
			a, fa = m, fm
		}
	}

	return 0.5 * (a + b)
}

// NumBes counts the basis functions retained in channel l at cutoff radius
// rcut and kinetic-energy cutoff ecut: the zeros θ of j_l with
// (θ/rcut)² ≤ ecut.
func NumBes(l int, rcut, ecut float64) (int, error) {
	if l < 0 {
		return 0, ErrBesselOrder
	}
	if rcut <= 0 || ecut <= 0 {
		return 0, ErrBadCutoff
	}

	thetaMax := rcut * math.Sqrt(ecut)
	const step = 0.1
	n := 0
	x := math.Max(1e-4, float64(l)*0.5)
	prev := SphJ(l, x)
	for x <= thetaMax {
		xn := x + step
		cur := SphJ(l, xn)
		if prev*cur < 0 {
			if z := bisectJl(l, x, xn); z <= thetaMax {
				n++
			}
		}
		x, prev = xn, cur
	}

	return n, nil
}
