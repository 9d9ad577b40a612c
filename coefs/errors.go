// SPDX-License-Identifier: MIT

package coefs

import "errors"

var (
	// ErrHierarchy indicates a baseline nzeta exceeds the target nzeta in
	// some channel, i.e. the two vectors do not form a parent ≤ child pair.
	ErrHierarchy = errors.New("coefs: baseline nzeta exceeds target nzeta")

	// ErrZetaRange indicates a requested zeta range reaches beyond the
	// zeta functions actually present in the source tensor.
	ErrZetaRange = errors.New("coefs: requested zeta range exceeds available coefficients")

	// ErrChannelMismatch indicates two tensors that must be combined
	// channel-by-channel have incompatible angular-momentum layouts.
	ErrChannelMismatch = errors.New("coefs: angular-momentum channel layouts do not match")

	// ErrPeelMismatch indicates the per-level zeta counts do not add up to
	// the zeta functions present in the merged tensor.
	ErrPeelMismatch = errors.New("coefs: per-level zeta counts do not sum to merged tensor size")
)
