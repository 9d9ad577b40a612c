// SPDX-License-Identifier: MIT

package onion

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/katalvlaran/orbgen/coefs"
	"github.com/katalvlaran/orbgen/population"
	"github.com/katalvlaran/orbgen/spillage"
)

// NoParent marks a root shell.
const NoParent = -1

var (
	// ErrParentRange indicates a parent reference outside the shell list.
	ErrParentRange = errors.New("onion: parent index out of range")

	// ErrCycle indicates that the parent references do not form a forest.
	ErrCycle = errors.New("onion: shell dependencies contain a cycle")
)

// Shell is one planned orbital richness tier.
type Shell struct {
	// Label names the shell in logs and filenames (e.g. "DZP").
	Label string

	// NZeta is the total zeta count per channel, parent included.
	NZeta []int

	// Parent indexes the shell whose coefficients are frozen and extended,
	// or NoParent.
	Parent int

	// Configs selects the minimizer configurations this shell fits against.
	Configs []int

	// Bands selects the reference bands.
	Bands population.Bands
}

// Forest is an arena of shells with index-based parent references.
type Forest struct {
	shells []Shell
}

// NewForest validates the parent references and wraps the shells. The
// hierarchy invariant (child NZeta componentwise ≥ parent NZeta) is checked
// here, so a malformed dependency specification fails before any
// optimization starts.
func NewForest(shells ...Shell) (*Forest, error) {
	for i, sh := range shells {
		p := sh.Parent
		if p == i || p < NoParent || p >= len(shells) {
			return nil, fmt.Errorf("%w: shell %d (%s) references parent %d of %d shells",
				ErrParentRange, i, sh.Label, p, len(shells))
		}
		if p == NoParent {
			continue
		}
		parent := shells[p]
		if len(sh.NZeta) < len(parent.NZeta) {
			return nil, fmt.Errorf("%w: shell %s has %d channels, parent %s has %d",
				coefs.ErrHierarchy, sh.Label, len(sh.NZeta), parent.Label, len(parent.NZeta))
		}
		for l, nz0 := range parent.NZeta {
			if sh.NZeta[l] < nz0 {
				return nil, fmt.Errorf("%w: shell %s channel l=%d has %d zeta, parent %s has %d",
					coefs.ErrHierarchy, sh.Label, l, sh.NZeta[l], parent.Label, nz0)
			}
		}
	}

	return &Forest{shells: shells}, nil
}

// Len reports the number of shells.
func (f *Forest) Len() int { return len(f.shells) }

// Shell returns the i-th shell as stored.
func (f *Forest) Shell(i int) Shell { return f.shells[i] }

// TopoOrder resolves a parent-before-child visiting order from the parent
// references. Storage order does not matter; ErrCycle is returned when the
// references loop.
func (f *Forest) TopoOrder() ([]int, error) {
	done := make([]bool, len(f.shells))
	order := make([]int, 0, len(f.shells))

	for len(order) < len(f.shells) {
		progressed := false
		for i, sh := range f.shells {
			if done[i] || (sh.Parent != NoParent && !done[sh.Parent]) {
				continue
			}
			done[i] = true
			order = append(order, i)
			progressed = true
		}
		if !progressed {
			var stuck []string
			for i, sh := range f.shells {
				if !done[i] {
					stuck = append(stuck, sh.Label)
				}
			}

			return nil, fmt.Errorf("%w: unresolved shells %v", ErrCycle, stuck)
		}
	}

	return order, nil
}

// GuessFunc builds the initial coefficients for the zeta range
// [nzeta0, nzeta); nzeta0 is nil for root shells.
type GuessFunc func(nzeta, nzeta0 []int) (coefs.Set, error)

// Optimize fits every shell of the forest in dependency order. For each
// shell the new zeta block is seeded by guess, optimized with the parent's
// coefficients frozen, and merged onto the parent's tensor. The returned
// sets and achieved spillage values are indexed like the forest's shells,
// each set complete (parent included). A nil logger falls back to
// slog.Default().
func Optimize(min spillage.Minimizer, f *Forest, guess GuessFunc,
	opts spillage.Options, nthreads int, log *slog.Logger) ([]coefs.Set, []float64, error) {
	if log == nil {
		log = slog.Default()
	}

	order, err := f.TopoOrder()
	if err != nil {
		return nil, nil, err
	}

	results := make([]coefs.Set, f.Len())
	spills := make([]float64, f.Len())
	for _, i := range order {
		sh := f.shells[i]

		var inner coefs.Set
		var nz0 []int
		if sh.Parent != NoParent {
			inner = results[sh.Parent]
			nz0 = f.shells[sh.Parent].NZeta
		}
		log.Info("optimizing shell", "shell", sh.Label, "nzeta", sh.NZeta, "base", nz0)

		init, err := guess(sh.NZeta, nz0)
		if err != nil {
			return nil, nil, fmt.Errorf("shell %s: %w", sh.Label, err)
		}

		block, spill, err := min.Optimize(init, inner, sh.Configs, sh.Bands, opts, nthreads)
		if err != nil {
			return nil, nil, fmt.Errorf("shell %s: %w", sh.Label, err)
		}

		results[i], err = coefs.Merge(inner, block)
		if err != nil {
			return nil, nil, fmt.Errorf("shell %s: %w", sh.Label, err)
		}
		spills[i] = spill
		log.Info("shell optimized", "shell", sh.Label, "spillage", spill)
	}

	return results, spills, nil
}
