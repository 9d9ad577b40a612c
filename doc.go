// Package orbgen generates compact numerical atomic-orbital (NAO) basis
// sets by optimizing radial-function coefficients against reference
// band-structure data produced by an external electronic-structure code.
//
// 🚀 What is orbgen?
//
//	A pure-Go toolkit around one numerical core: the hierarchical
//	("onion") spillage minimization that turns truncated spherical-Bessel
//	expansions into production orbital files. It brings together:
//		• Reference data loading: overlap matrices, wavefunction
//		  coefficients, run metadata, band occupations
//		• Population analysis: per-band angular-momentum weights and
//		  zeta-count inference (weight-sum or SVD rank estimators)
//		• Coefficient algebra: subset / merge / peel over nested
//		  [type][l][zeta][q] tensors
//		• Spillage minimization: LBFGS over localized-basis (jy) or
//		  plane-wave-derived (pw) reference data, sharing one contract
//		• Onion optimization: dependency-ordered shells, inner shells
//		  frozen while outer shells are fit
//		• Orbital building: real-space radial functions serialized to
//		  .orb / .param files plus a plotted preview
//
// ✨ Why choose orbgen?
//
//   - Deterministic – no global state, results independent of thread count
//   - Strict sentinels – every validation failure has a named error
//   - Pure Go numerics – gonum matrices, SVD and LBFGS, no cgo
//   - Hierarchical by construction – a child shell never alters its
//     parent's coefficients
//
// Everything is organized under per-concern subpackages:
//
//	basis/      — spherical-Bessel radial machinery (raw/normalized/reduced)
//	refdata/    — reference-run parsing and orb_matrix discovery
//	population/ — l-weight analysis and nzeta inference
//	coefs/      — coefficient tensor algebra
//	spillage/   — the minimizer core (jy and pw backends, initial guess)
//	onion/      — shell forest and the hierarchical optimization driver
//	orbio/      — orbital construction and serialization
//	pipeline/   — per-rcut orchestration from a YAML plan
//	cmd/orbgen/ — the command-line front end
//
// Dive into each package's doc.go for contracts, complexity notes and
// worked examples.
//
//	go get github.com/katalvlaran/orbgen
package orbgen
