// SPDX-License-Identifier: MIT

package spillage

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/orbgen/basis"
	"github.com/katalvlaran/orbgen/coefs"
	"github.com/katalvlaran/orbgen/population"
	"github.com/katalvlaran/orbgen/refdata"
)

// NZetaMax computes, per channel, the largest zeta count any planned shell
// needs, so a shared initial guess basis is never undersized.
func NZetaMax(nzeta [][]int) []int {
	lmax := -1
	for _, nz := range nzeta {
		if len(nz)-1 > lmax {
			lmax = len(nz) - 1
		}
	}
	out := make([]int, lmax+1)
	for _, nz := range nzeta {
		for l, n := range nz {
			if n > out[l] {
				out[l] = n
			}
		}
	}

	return out
}

// GuessJY builds an initial coefficient set by band-picking from an
// isolated-atom (monomer) reference: per channel l, the bands assigned to l
// by population analysis are consumed in groups of 2l+1 (one group per zeta
// function), and the zeta indices [nzeta0[l], nzeta[l]) take their radial
// coefficients from the representative band of each new group. Bands
// already consumed by a frozen parent shell (the nzeta0 range) are skipped.
func GuessJY(mono *refdata.Config, nzeta, nzeta0 []int) (coefs.Set, error) {
	if len(mono.Meta.NAtom) != 1 {
		return nil, fmt.Errorf("%w: monomer has %d atom types", ErrShape, len(mono.Meta.NAtom))
	}
	base := make([]int, len(nzeta))
	copy(base, nzeta0)
	for l, nz := range nzeta {
		if base[l] > nz {
			return nil, fmt.Errorf("%w: channel l=%d has baseline %d > target %d",
				coefs.ErrHierarchy, l, base[l], nz)
		}
	}

	ch, err := mono.Channel(0, 0)
	if err != nil {
		return nil, err
	}
	wll, err := population.WLL(ch.Wfc.Coef, ch.Ovlp, mono.Meta.NAtom, mono.Meta.NZeta)
	if err != nil {
		return nil, err
	}
	assigned := population.AssignBands(wll, population.DefaultCountThreshold)

	layout := mono.Meta.NZeta[0]
	out := make(coefs.Tensor, len(nzeta))
	picked := 0
	for l, nz := range nzeta {
		if l >= len(layout) {
			return nil, fmt.Errorf("%w: channel l=%d beyond the monomer basis (lmax %d)",
				ErrShape, l, len(layout)-1)
		}
		deg := 2*l + 1
		need := deg * nz
		if nz > base[l] && (l >= len(assigned) || need > len(assigned[l])) {
			have := 0
			if l < len(assigned) {
				have = len(assigned[l])
			}

			return nil, fmt.Errorf("%w: channel l=%d needs %d assigned monomer bands, found %d; "+
				"increase the number of computed monomer bands, or check for duplicate shell definitions",
				ErrNoEligibleBands, l, need, have)
		}

		out[l] = make([][]float64, 0, nz-base[l])
		for z := base[l]; z < nz; z++ {
			band := assigned[l][deg*z]
			row, err := pickRadialRow(ch.Wfc.Coef, layout, l, band)
			if err != nil {
				return nil, err
			}
			out[l] = append(out[l], row)
			picked++
		}
	}
	if picked == 0 {
		return nil, fmt.Errorf("%w: no new zeta functions requested; "+
			"dependent shells may be identical", ErrNoEligibleBands)
	}

	return coefs.Set{out}, nil
}

// pickRadialRow extracts the radial coefficient vector of one monomer band
// in channel l: of the 2l+1 magnetic components, the one carrying the most
// weight, normalized to unit Euclidean norm.
func pickRadialRow(wfc *mat.Dense, layout []int, l, band int) ([]float64, error) {
	deg := 2*l + 1
	off := 0
	for lp := 0; lp < l; lp++ {
		off += layout[lp] * (2*lp + 1)
	}

	var best []float64
	bestNorm := 0.0
	for m := 0; m < deg; m++ {
		row := make([]float64, layout[l])
		for q := range row {
			row[q] = wfc.At(off+q*deg+m, band)
		}
		if norm := floats.Norm(row, 2); norm > bestNorm {
			best, bestNorm = row, norm
		}
	}
	if best == nil || bestNorm == 0 {
		return nil, fmt.Errorf("%w: monomer band %d carries no weight in channel l=%d",
			ErrNoEligibleBands, band, l)
	}
	floats.Scale(1/bestNorm, best)

	return best, nil
}

// GuessPW seeds the plane-wave backend with identity coefficients over the
// full jy space and extracts the requested zeta range.
func GuessPW(nbes []int, nzeta, nzeta0 []int) (coefs.Set, error) {
	full := make(coefs.Tensor, len(nbes))
	for l, n := range nbes {
		full[l] = make([][]float64, n)
		for z := 0; z < n; z++ {
			row := make([]float64, n)
			row[z] = 1
			full[l][z] = row
		}
	}

	return coefs.Subset(nzeta, nzeta0, full)
}

// EyeSet generates identity coefficients over the reduced jy space of the
// given cutoffs, one zeta per available radial function. Used to emit the
// uncontracted basis itself when no optimization is requested.
func EyeSet(rcut, ecut float64, lmax int) (coefs.Set, error) {
	t := make(coefs.Tensor, lmax+1)
	for l := 0; l <= lmax; l++ {
		nbes, err := basis.NumBes(l, rcut, ecut)
		if err != nil {
			return nil, err
		}
		// The reduced basis spans one function fewer than the raw zero count.
		n := nbes - 1
		if n < 1 {
			return nil, fmt.Errorf("%w: channel l=%d has no radial functions below ecut %g",
				ErrShape, l, ecut)
		}
		t[l] = make([][]float64, n)
		for z := 0; z < n; z++ {
			row := make([]float64, n)
			row[z] = 1
			t[l][z] = row
		}
	}

	return coefs.Set{t}, nil
}
