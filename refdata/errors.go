package refdata

import "errors"

var (
	// ErrMixedNaming indicates legacy orb_matrix.{0,1}.dat files coexist
	// with new-style orb_matrix_rcut*deriv*.dat files in one directory.
	ErrMixedNaming = errors.New("refdata: legacy and rcut-indexed orb_matrix files must not coexist")

	// ErrLegacyPair indicates the legacy naming scheme is present but does
	// not consist of exactly the value/derivative pair.
	ErrLegacyPair = errors.New("refdata: legacy naming requires exactly orb_matrix.0.dat and orb_matrix.1.dat")

	// ErrOddPairCount indicates an odd number of rcut-indexed orb_matrix
	// files, which cannot form (value, derivative) pairs.
	ErrOddPairCount = errors.New("refdata: rcut-indexed orb_matrix files must come in value/derivative pairs")

	// ErrNoOrbMatrix indicates a directory with no orb_matrix files at all.
	ErrNoOrbMatrix = errors.New("refdata: no orb_matrix files found")

	// ErrRcutPairMismatch indicates the two files of one pair disagree on
	// the cutoff radius.
	ErrRcutPairMismatch = errors.New("refdata: paired orb_matrix files carry different cutoff radii")

	// ErrNSpinMismatch indicates the spin count recorded in INPUT disagrees
	// with the one recorded in the running log.
	ErrNSpinMismatch = errors.New("refdata: nspin differs between INPUT and running log")

	// ErrKWeightSum indicates k-point weights that do not sum to one.
	ErrKWeightSum = errors.New("refdata: k-point weights must sum to 1")

	// ErrKPointMismatch indicates a requested spin/k-point index beyond the
	// data available in the run directory.
	ErrKPointMismatch = errors.New("refdata: requested spin/k-point not present in reference data")

	// ErrDimensionMismatch indicates inconsistent matrix dimensions between
	// artifacts of one run (e.g. overlap size vs wavefunction basis size).
	ErrDimensionMismatch = errors.New("refdata: inconsistent matrix dimensions between artifacts")

	// ErrMalformed indicates an artifact that cannot be parsed.
	ErrMalformed = errors.New("refdata: malformed artifact")
)
