package population

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultCountThreshold is the weight above which a band counts as
// "assigned" to a channel.
const DefaultCountThreshold = 0.1

// channelIndices partitions the localized-basis index space by angular
// momentum. Basis ordering is type-major, then atom, then l, then zeta,
// then m; the returned slice maps l to the basis indices of that channel
// across all types and atoms. Channels with no basis functions yield empty
// slices, not errors.
func channelIndices(natom []int, nzeta [][]int) [][]int {
	lmax := -1
	for _, layout := range nzeta {
		if len(layout)-1 > lmax {
			lmax = len(layout) - 1
		}
	}
	idx := make([][]int, lmax+1)

	pos := 0
	for it, layout := range nzeta {
		for a := 0; a < natom[it]; a++ {
			for l, nz := range layout {
				for z := 0; z < nz; z++ {
					for m := 0; m < 2*l+1; m++ {
						idx[l] = append(idx[l], pos)
						pos++
					}
				}
			}
		}
	}

	return idx
}

// WLL computes the population weight matrix wll[band][l][l']: the bilinear
// form of each band against the overlap matrix, restricted to the basis
// blocks of channels l and l'.
//
// Pure over its inputs; the matrices are not modified. For a normalized
// band, Σ_{l,l'} wll[b][l][l'] = 1.
func WLL(wfc, ovlp mat.Matrix, natom []int, nzeta [][]int) ([][][]float64, error) {
	n, nbands := wfc.Dims()
	on, om := ovlp.Dims()
	if on != n || om != n {
		return nil, fmt.Errorf("%w: overlap %d×%d, wavefunction basis %d", ErrLayoutMismatch, on, om, n)
	}
	idx := channelIndices(natom, nzeta)
	total := 0
	for _, ch := range idx {
		total += len(ch)
	}
	if total != n {
		return nil, fmt.Errorf("%w: layout implies %d basis functions, matrices have %d",
			ErrLayoutMismatch, total, n)
	}
	nch := len(idx)

	wll := make([][][]float64, nbands)
	for b := 0; b < nbands; b++ {
		wll[b] = make([][]float64, nch)
		for l := range wll[b] {
			wll[b][l] = make([]float64, nch)
		}
	}

	// y[l'] = S restricted to columns of channel l', applied to the band.
	y := make([]float64, n)
	for b := 0; b < nbands; b++ {
		for lp := 0; lp < nch; lp++ {
			for i := 0; i < n; i++ {
				y[i] = 0
			}
			for _, j := range idx[lp] {
				c := wfc.At(j, b)
				if c == 0 {
					continue
				}
				for i := 0; i < n; i++ {
					y[i] += ovlp.At(i, j) * c
				}
			}
			for l := 0; l < nch; l++ {
				sum := 0.0
				for _, i := range idx[l] {
					sum += wfc.At(i, b) * y[i]
				}
				wll[b][l][lp] = sum
			}
		}
	}

	return wll, nil
}

// FoldWLL folds the weight matrix over a band index set: per channel l, the
// summed row weight of the listed bands divided by the degeneracy 2l+1.
func FoldWLL(wll [][][]float64, bands []int) []float64 {
	if len(wll) == 0 {
		return nil
	}
	nch := len(wll[0])
	fold := make([]float64, nch)
	for _, b := range bands {
		for l := 0; l < nch; l++ {
			row := 0.0
			for lp := 0; lp < nch; lp++ {
				row += wll[b][l][lp]
			}
			fold[l] += row / float64(2*l+1)
		}
	}

	return fold
}

// AssignBands maps each channel to the bands whose row weight meets thr.
// Band order is preserved; a band may be assigned to several channels when
// hybridized.
func AssignBands(wll [][][]float64, thr float64) [][]int {
	if len(wll) == 0 {
		return nil
	}
	nch := len(wll[0])
	out := make([][]int, nch)
	for b := range wll {
		for l := 0; l < nch; l++ {
			row := 0.0
			for lp := 0; lp < nch; lp++ {
				row += wll[b][l][lp]
			}
			if row >= thr {
				out[l] = append(out[l], b)
			}
		}
	}

	return out
}
