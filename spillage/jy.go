// SPDX-License-Identifier: MIT

package spillage

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/orbgen/coefs"
	"github.com/katalvlaran/orbgen/population"
	"github.com/katalvlaran/orbgen/refdata"
)

// jyChannel holds the precomputed projection data of one (spin, k) pair.
type jyChannel struct {
	weight float64 // wk / nspin
	ovlp   *mat.SymDense
	mojy   *mat.Dense // Ψᵀ·S, nbands × nbasis
	momo   []float64  // band norms ψᵀSψ
	nbands int
	nocc   int
}

type jyConfig struct {
	dir      string
	natom    []int
	layout   [][]int
	channels []jyChannel
}

// JY is the localized-basis spillage backend. Configurations accumulate via
// ConfigAdd; the instance owns its state exclusively and is constructed
// fresh per cutoff-radius run.
type JY struct {
	configs []*jyConfig
}

// NewJY returns an empty localized-basis minimizer.
func NewJY() *JY { return &JY{} }

// NConfigs reports the number of accumulated configurations.
func (s *JY) NConfigs() int { return len(s.configs) }

// ConfigAdd precomputes the projection data of one loaded reference
// structure. The raw wavefunction and overlap matrices are reduced to the
// forms the objective needs; cfg itself is not retained.
func (s *JY) ConfigAdd(cfg *refdata.Config) error {
	jc := &jyConfig{
		dir:    cfg.Dir,
		natom:  append([]int(nil), cfg.Meta.NAtom...),
		layout: make([][]int, len(cfg.Meta.NZeta)),
	}
	for t, lay := range cfg.Meta.NZeta {
		jc.layout[t] = append([]int(nil), lay...)
	}

	for spin := 0; spin < cfg.Meta.NSpin; spin++ {
		for ik := 0; ik < cfg.Meta.NK(); ik++ {
			ch, err := cfg.Channel(spin, ik)
			if err != nil {
				return err
			}
			nocc, err := cfg.State.NOcc(spin, ik)
			if err != nil {
				return err
			}

			var mojy mat.Dense
			mojy.Mul(ch.Wfc.Coef.T(), ch.Ovlp)

			momo := make([]float64, ch.Wfc.NBands)
			n := ch.Wfc.NBasis
			for b := range momo {
				sum := 0.0
				for i := 0; i < n; i++ {
					sum += mojy.At(b, i) * ch.Wfc.Coef.At(i, b)
				}
				momo[b] = sum
			}

			jc.channels = append(jc.channels, jyChannel{
				weight: cfg.Meta.KWeights[ik] / float64(cfg.Meta.NSpin),
				ovlp:   ch.Ovlp,
				mojy:   &mojy,
				momo:   momo,
				nbands: ch.Wfc.NBands,
				nocc:   nocc,
			})
		}
	}

	s.configs = append(s.configs, jc)

	return nil
}

// Optimize implements the Minimizer contract over localized-basis data.
func (s *JY) Optimize(init, frozen coefs.Set, iconfs []int, bands population.Bands,
	opts Options, nthreads int) (coefs.Set, float64, error) {
	if len(s.configs) == 0 || len(iconfs) == 0 {
		return nil, 0, ErrNoConfigs
	}

	merged, err := coefs.Merge(frozen, init)
	if err != nil {
		return nil, 0, err
	}

	evals := make([]func(coefs.Set) float64, 0, len(iconfs))
	for _, ci := range iconfs {
		if ci < 0 || ci >= len(s.configs) {
			return nil, 0, fmt.Errorf("%w: %d of %d", ErrConfigRange, ci, len(s.configs))
		}
		cfg := s.configs[ci]
		if err := checkShape(merged, cfg.layout); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", cfg.dir, err)
		}

		idx := make([][]int, len(cfg.channels))
		for i, ch := range cfg.channels {
			idx[i], err = bands.Indices(ch.nbands, ch.nocc)
			if err != nil {
				return nil, 0, fmt.Errorf("%s: %w", cfg.dir, err)
			}
		}

		evals = append(evals, func(c coefs.Set) float64 {
			u := buildLocalU(cfg.natom, cfg.layout, c)
			total := 0.0
			for i, ch := range cfg.channels {
				total += ch.weight * projectionSpillage(ch.ovlp, ch.mojy, ch.momo, u, idx[i])
			}

			return total
		})
	}

	return minimizeSet(init, frozen, evals, opts, nthreads)
}
