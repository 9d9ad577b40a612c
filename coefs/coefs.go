// SPDX-License-Identifier: MIT

package coefs

import "fmt"

// Tensor holds the coefficients of one atom type, indexed [l][zeta][q].
// Channels may have differing zeta counts and q lengths (the q dimension is
// fixed per channel by the spherical-Bessel truncation, not by this package).
type Tensor [][][]float64

// Set holds one Tensor per atom type, indexed [type][l][zeta][q].
type Set []Tensor

// Clone returns a deep copy of t.
func (t Tensor) Clone() Tensor {
	if t == nil {
		return nil
	}
	out := make(Tensor, len(t))
	for l, ch := range t {
		out[l] = make([][]float64, len(ch))
		for z, row := range ch {
			out[l][z] = append([]float64(nil), row...)
		}
	}

	return out
}

// Clone returns a deep copy of s.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for it, t := range s {
		out[it] = t.Clone()
	}

	return out
}

// NZeta reports the zeta count per channel of t.
func (t Tensor) NZeta() []int {
	nz := make([]int, len(t))
	for l, ch := range t {
		nz[l] = len(ch)
	}

	return nz
}

// Subset extracts, per channel l, the zeta indices [nzeta0[l], nzeta[l])
// from data and returns them as a single-type Set.
//
// Contracts:
//   - nzeta0 may be nil, meaning an all-zero baseline (take the leading
//     nzeta[l] functions of every channel).
//   - len(nzeta) ≥ len(nzeta0); missing trailing entries of nzeta0 count
//     as zero.
//   - nzeta0[l] ≤ nzeta[l] for every l, else ErrHierarchy.
//   - nzeta[l] ≤ len(data[l]) for every l, else ErrZetaRange.
//
// Complexity: O(Σ_l (nzeta[l]-nzeta0[l]) · len(q)).
func Subset(nzeta, nzeta0 []int, data Tensor) (Set, error) {
	if nzeta0 != nil && len(nzeta0) > len(nzeta) {
		return nil, fmt.Errorf("%w: baseline has %d channels, target has %d",
			ErrHierarchy, len(nzeta0), len(nzeta))
	}

	base := make([]int, len(nzeta))
	copy(base, nzeta0) // missing channels stay zero

	out := make(Tensor, len(nzeta))
	for l, nz := range nzeta {
		nz0 := base[l]
		if nz0 > nz {
			return nil, fmt.Errorf("%w: channel l=%d has baseline %d > target %d",
				ErrHierarchy, l, nz0, nz)
		}
		if l >= len(data) || nz > len(data[l]) {
			avail := 0
			if l < len(data) {
				avail = len(data[l])
			}

			return nil, fmt.Errorf("%w: channel l=%d needs %d zeta functions, have %d",
				ErrZetaRange, l, nz, avail)
		}
		out[l] = make([][]float64, 0, nz-nz0)
		for z := nz0; z < nz; z++ {
			out[l] = append(out[l], append([]float64(nil), data[l][z]...))
		}
	}

	return Set{out}, nil
}

// Merge concatenates inner (frozen) and outer (newly optimized) coefficient
// sets along the zeta axis, channel by channel. A nil inner returns a deep
// copy of outer, so the innermost shell merges trivially.
//
// Channels present in only one operand pass through unchanged; the merged
// tensor spans the wider of the two channel layouts.
func Merge(inner, outer Set) (Set, error) {
	if inner == nil {
		return outer.Clone(), nil
	}
	if len(inner) != len(outer) {
		return nil, fmt.Errorf("%w: %d vs %d atom types", ErrChannelMismatch, len(inner), len(outer))
	}

	out := make(Set, len(inner))
	for it := range inner {
		lmax := len(inner[it])
		if len(outer[it]) > lmax {
			lmax = len(outer[it])
		}
		merged := make(Tensor, lmax)
		for l := 0; l < lmax; l++ {
			var chIn, chOut [][]float64
			if l < len(inner[it]) {
				chIn = inner[it][l]
			}
			if l < len(outer[it]) {
				chOut = outer[it][l]
			}
			merged[l] = make([][]float64, 0, len(chIn)+len(chOut))
			for _, row := range chIn {
				merged[l] = append(merged[l], append([]float64(nil), row...))
			}
			for _, row := range chOut {
				merged[l] = append(merged[l], append([]float64(nil), row...))
			}
		}
		out[it] = merged
	}

	return out, nil
}

// Peel splits a fully merged tensor back into per-level tensors.
//
// counts lists, innermost level first, the number of zeta functions each
// level contributed per channel. Peeling proceeds outermost-first (popping
// trailing zeta entries), and the result is returned innermost-first so that
// Peel is the exact inverse of merging the levels in order.
//
// ErrPeelMismatch is returned when the counts do not consume data exactly.
func Peel(data Tensor, counts [][]int) ([]Tensor, error) {
	remaining := data.NZeta()
	levels := make([]Tensor, len(counts))

	for i := len(counts) - 1; i >= 0; i-- {
		nz := counts[i]
		lvl := make(Tensor, len(data))
		for l := range data {
			n := 0
			if l < len(nz) {
				n = nz[l]
			}
			if n > remaining[l] {
				return nil, fmt.Errorf("%w: level %d wants %d zeta in channel l=%d, %d left",
					ErrPeelMismatch, i, n, l, remaining[l])
			}
			lvl[l] = make([][]float64, 0, n)
			for z := remaining[l] - n; z < remaining[l]; z++ {
				lvl[l] = append(lvl[l], append([]float64(nil), data[l][z]...))
			}
			remaining[l] -= n
		}
		levels[i] = lvl
	}

	for l, left := range remaining {
		if left != 0 {
			return nil, fmt.Errorf("%w: channel l=%d has %d unconsumed zeta functions",
				ErrPeelMismatch, l, left)
		}
	}

	return levels, nil
}
