// SPDX-License-Identifier: MIT

package spillage

import "errors"

var (
	// ErrNoConfigs indicates optimization without any selected reference
	// configuration.
	ErrNoConfigs = errors.New("spillage: no reference configurations selected")

	// ErrConfigRange indicates a configuration index beyond the accumulated
	// list.
	ErrConfigRange = errors.New("spillage: configuration index out of range")

	// ErrShape indicates a coefficient tensor that does not match the
	// reference basis layout.
	ErrShape = errors.New("spillage: coefficient tensor does not match the reference basis layout")

	// ErrPairMismatch indicates paired overlap files whose metadata
	// disagrees.
	ErrPairMismatch = errors.New("spillage: paired overlap files disagree")

	// ErrNoEligibleBands indicates that no reference bands are available to
	// seed the requested zeta functions.
	ErrNoEligibleBands = errors.New("spillage: no eligible bands for initial guess")

	// ErrBandSelector indicates a band selector the backend cannot resolve.
	ErrBandSelector = errors.New("spillage: band selector not supported by this backend")
)
