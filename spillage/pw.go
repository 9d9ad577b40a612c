// SPDX-License-Identifier: MIT

package spillage

import (
	"fmt"

	"github.com/katalvlaran/orbgen/coefs"
	"github.com/katalvlaran/orbgen/population"
	"github.com/katalvlaran/orbgen/refdata"
)

// pwTerm is one weighted spillage term (value or derivative).
type pwTerm struct {
	weight float64
	m      *refdata.OrbMatrix
}

type pwConfig struct {
	rcut  float64
	terms []pwTerm
}

// PW is the plane-wave-derived spillage backend. Each configuration is a
// pair of orb_matrix tensors: the value matrices and their derivative
// counterparts, combined with a [value, derivative] weighting.
type PW struct {
	configs []*pwConfig
}

// NewPW returns an empty plane-wave minimizer.
func NewPW() *PW { return &PW{} }

// NConfigs reports the number of accumulated configurations.
func (s *PW) NConfigs() int { return len(s.configs) }

// ConfigAdd registers one value/derivative orb_matrix pair with the given
// term weighting. The pair must agree on cutoff radius and basis size.
func (s *PW) ConfigAdd(ov, op *refdata.OrbMatrix, weights [2]float64) error {
	if ov.Rcut != op.Rcut {
		return fmt.Errorf("%w: rcut %g vs %g", ErrPairMismatch, ov.Rcut, op.Rcut)
	}
	if ov.NJy != op.NJy || ov.NBand != op.NBand {
		return fmt.Errorf("%w: value is %d×%d (jy×band), derivative is %d×%d",
			ErrPairMismatch, ov.NJy, ov.NBand, op.NJy, op.NBand)
	}

	s.configs = append(s.configs, &pwConfig{
		rcut: ov.Rcut,
		terms: []pwTerm{
			{weight: weights[0], m: ov},
			{weight: weights[1], m: op},
		},
	})

	return nil
}

// Optimize implements the Minimizer contract over plane-wave-derived data.
// Occupation data is not part of the orb_matrix format, so the occupied
// band selector is rejected.
func (s *PW) Optimize(init, frozen coefs.Set, iconfs []int, bands population.Bands,
	opts Options, nthreads int) (coefs.Set, float64, error) {
	if len(s.configs) == 0 || len(iconfs) == 0 {
		return nil, 0, ErrNoConfigs
	}
	if bands.Occupied {
		return nil, 0, fmt.Errorf("%w: occupations are unavailable in plane-wave reference data", ErrBandSelector)
	}

	merged, err := coefs.Merge(frozen, init)
	if err != nil {
		return nil, 0, err
	}
	if len(merged) != 1 {
		return nil, 0, fmt.Errorf("%w: plane-wave backend supports a single atom type, got %d",
			ErrShape, len(merged))
	}

	evals := make([]func(coefs.Set) float64, 0, len(iconfs))
	for _, ci := range iconfs {
		if ci < 0 || ci >= len(s.configs) {
			return nil, 0, fmt.Errorf("%w: %d of %d", ErrConfigRange, ci, len(s.configs))
		}
		cfg := s.configs[ci]
		if err := checkShape(merged, [][]int{cfg.terms[0].m.NBes}); err != nil {
			return nil, 0, err
		}
		idx, err := bands.Indices(cfg.terms[0].m.NBand, 0)
		if err != nil {
			return nil, 0, err
		}

		evals = append(evals, func(c coefs.Set) float64 {
			total := 0.0
			for _, term := range cfg.terms {
				if term.weight == 0 {
					continue
				}
				u := buildPWU(term.m.NAtom, term.m.NBes, c[0])
				total += term.weight * projectionSpillage(term.m.JyJy, term.m.MoJy, term.m.MoMo, u, idx)
			}

			return total
		})
	}

	return minimizeSet(init, frozen, evals, opts, nthreads)
}
