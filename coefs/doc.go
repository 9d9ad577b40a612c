// SPDX-License-Identifier: MIT

// Package coefs implements the pure algebra of nested orbital coefficient
// tensors, indexed [type][l][zeta][q]:
//
//	t — atom type (one per tensor in a Set)
//	l — angular-momentum channel (0 = s, 1 = p, …)
//	z — zeta index (independent radial function within a channel)
//	q — spherical-Bessel root index
//
// Three operations cover everything the hierarchical optimizer needs:
//
//   - Subset:  extract the zeta range [nzeta0[l], nzeta[l]) per channel —
//     the functions a child shell adds beyond its parent.
//   - Merge:   concatenate a frozen inner tensor with a freshly optimized
//     outer tensor along the zeta axis, preserving channel order.
//   - Peel:    split a fully merged tensor back into its per-level parts.
//
// Algebraic laws (covered by tests):
//
//	Merge(Subset(n1, n0, A), Subset(n2, n1, A)) == Subset(n2, n0, A)
//	Peel(Merge(L0, …, Lk), counts) == [L0, …, Lk]
//
// All functions are deterministic, allocate their results, and never alias
// or mutate their inputs.
package coefs
