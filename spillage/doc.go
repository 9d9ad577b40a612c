// SPDX-License-Identifier: MIT

// Package spillage minimizes the spillage objective: one minus the
// normalized projection of reference wavefunctions onto the space spanned
// by a candidate contracted radial basis.
//
// Two backends share the Minimizer contract:
//
//   - JY — optimizes against localized-basis overlap data (overlap matrix
//     and wavefunction coefficients of a truncated spherical-Bessel run);
//   - PW — optimizes against plane-wave-derived jy_jy / mo_jy / mo_mo
//     tensors, with a configurable weighting between the value and
//     derivative spillage terms.
//
// Both accumulate reference configurations via ConfigAdd and then run a
// bounded-memory quasi-Newton (LBFGS) minimization over the free
// coefficients, holding any frozen inner-shell block fixed. Hitting the
// iteration cap is not an error: the best point found is returned together
// with the achieved spillage, which the caller judges.
//
// The package also builds initial guesses: GuessJY picks bands from an
// isolated-atom reference, GuessPW seeds with identity coefficients.
package spillage
