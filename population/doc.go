// Package population decomposes reference wavefunctions into
// angular-momentum channel weights and infers how many independent radial
// functions ("zeta" counts) each channel needs.
//
// The central object is the population weight matrix wll: for each band
// b, wll[b][l][l'] is the bilinear form of the band against the overlap
// matrix restricted to the basis blocks of channels l and l'. Only the
// row sum Σ_l' wll[b][l][l'] is used downstream; it measures how much of
// band b lives in channel l.
//
// Two zeta-count estimators share one contract:
//
//   - weight-sum ("wll") — fold band weights over a band index set, divide
//     by the channel degeneracy 2l+1, aggregate over k-points with their
//     physical weights and over spin channels;
//   - singular-value ("svd") — Löwdin-orthonormalize the coefficients,
//     gather each channel's (zeta × everything-else) block over the band
//     range and count singular values above a threshold: the true radial
//     rank, robust against hybridized bands.
//
// Estimates from multiple reference structures combine by componentwise
// maximum (a basis that must service all structures) or arithmetic mean;
// fractional results round up to the next integer.
package population
