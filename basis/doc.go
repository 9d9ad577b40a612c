// SPDX-License-Identifier: MIT

// Package basis provides the truncated spherical-Bessel machinery behind
// numerical atomic-orbital construction.
//
// A radial channel with angular momentum l and cutoff radius rcut is spanned
// by the functions
//
//	g_q(r) = j_l(θ_{l,q} · r / rcut) / N_{l,q},    q = 0 … nbes-1,
//
// where θ_{l,q} is the (q+1)-th positive zero of the spherical Bessel
// function j_l and N_{l,q} normalizes g_q to unit radial norm
// ∫₀^rcut g_q(r)² r² dr = 1. Functions with distinct q are orthogonal, so
// the g_q form an orthonormal basis that vanishes exactly at rcut.
//
// Three coefficient conventions are supported:
//
//   - raw        — coefficients multiply plain j_l(θ_q r/rcut)
//   - normalized — coefficients multiply the orthonormal g_q
//   - reduced    — coefficients multiply an (nbes-1)-dimensional smooth
//     sub-basis whose members also have zero first derivative
//     at rcut (pairwise-difference construction, re-orthonormalized)
//
// The truncation size nbes(l, rcut, ecut) counts the zeros θ with kinetic
// energy (θ/rcut)² below the energy cutoff ecut.
//
// All routines are deterministic and allocation-explicit; zero finding uses
// bracketing plus bisection to ~1e-12 absolute accuracy.
package basis
