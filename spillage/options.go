// SPDX-License-Identifier: MIT

package spillage

import (
	"github.com/katalvlaran/orbgen/coefs"
	"github.com/katalvlaran/orbgen/population"
)

// Options tunes one Optimize call.
type Options struct {
	// MaxIter caps the number of major LBFGS iterations.
	MaxIter int

	// GTol is the gradient-norm convergence tolerance.
	GTol float64

	// Store is the LBFGS history size.
	Store int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{MaxIter: 2000, GTol: 1e-6, Store: 20}
}

// DefaultPWWeights is the default [value, derivative] spillage-term
// weighting of the plane-wave backend.
var DefaultPWWeights = [2]float64{0, 1}

// Minimizer is the shared contract of the two spillage backends.
//
// Optimize varies the coefficients of init while treating frozen as a
// fixed inner block, minimizing the aggregate spillage of the bands
// selected by bands over the configurations listed in iconfs. The result
// keeps the nested shape of init; frozen is never included in it.
// nthreads bounds intra-optimization parallelism and must not change the
// result.
type Minimizer interface {
	NConfigs() int
	Optimize(init, frozen coefs.Set, iconfs []int, bands population.Bands,
		opts Options, nthreads int) (coefs.Set, float64, error)
}
