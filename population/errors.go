package population

import "errors"

var (
	// ErrBandRange indicates a requested band index beyond the bands
	// actually computed for a configuration.
	ErrBandRange = errors.New("population: requested band exceeds computed bands")

	// ErrLayoutMismatch indicates the basis layout implied by the run
	// metadata does not match the matrix dimensions.
	ErrLayoutMismatch = errors.New("population: basis layout does not match matrix dimensions")

	// ErrMultiType indicates a configuration with more than one atom type,
	// which zeta-count inference does not support.
	ErrMultiType = errors.New("population: multiple atom types are not supported by inference")

	// ErrEstimator indicates an unknown estimator name.
	ErrEstimator = errors.New("population: unknown estimator")

	// ErrPolicy indicates an unknown aggregation policy name.
	ErrPolicy = errors.New("population: unknown aggregation policy")

	// ErrNoConfigs indicates inference over an empty configuration list.
	ErrNoConfigs = errors.New("population: at least one configuration is required")
)
