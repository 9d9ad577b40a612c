// Package refdata loads the per-structure result artifacts of an external
// electronic-structure run into in-memory numerical arrays:
//
//   - INPUT            — key-value run script
//   - running_*.log    — atom counts, per-type angular-momentum basis
//     layout, spin count, k-point weights
//   - WFC_NAO_*{n}.txt — wavefunction coefficient matrix per spin/k-point
//   - data-{n}-S       — packed upper-triangular overlap matrix
//   - istate.info      — band energies and occupations keyed by k-point
//   - orb_matrix*      — plane-wave-derived overlap/projector files, located
//     by the discovery rules of OrbMatrixPairs
//
// Every artifact is read once, validated eagerly (spin-count agreement
// between sources, k-weight normalization, matrix dimension consistency)
// and immutable afterwards; a loaded Config is safe to share across shells.
//
// The numerical representation is real float64 throughout: gamma-point data
// is naturally real, and multi-k data folds by k-weight at the aggregation
// level, with Hermitian bilinear forms entering through their real part.
package refdata
