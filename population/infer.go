package population

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/orbgen/refdata"
)

// Estimator selects how per-structure channel occupations become effective
// zeta counts.
type Estimator int

const (
	// EstimatorWeightSum folds raw band weights ("wll").
	EstimatorWeightSum Estimator = iota

	// EstimatorSVD counts singular values above a threshold ("svd"),
	// estimating the radial rank of the selected bands.
	EstimatorSVD
)

// ParseEstimator resolves the estimator names used in plan files.
func ParseEstimator(name string) (Estimator, error) {
	switch name {
	case "wll":
		return EstimatorWeightSum, nil
	case "svd":
		return EstimatorSVD, nil
	default:
		return 0, fmt.Errorf("%w: %q (want wll or svd)", ErrEstimator, name)
	}
}

// Policy selects how per-structure estimates merge into one nzeta vector.
type Policy int

const (
	// PolicyMax takes the componentwise maximum, so one basis can service
	// all listed structures.
	PolicyMax Policy = iota

	// PolicyMean takes the arithmetic mean.
	PolicyMean
)

// ParsePolicy resolves the policy names used in plan files.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "max":
		return PolicyMax, nil
	case "mean":
		return PolicyMean, nil
	default:
		return 0, fmt.Errorf("%w: %q (want max or mean)", ErrPolicy, name)
	}
}

// Options tunes the inference thresholds.
type Options struct {
	// CountThreshold is the band-assignment weight threshold.
	CountThreshold float64

	// SVDThreshold is the singular-value cut of the svd estimator.
	SVDThreshold float64
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{CountThreshold: DefaultCountThreshold, SVDThreshold: 1.0}
}

// svdSlack absorbs round-off on singular values that sit exactly at the
// threshold (a single clean band contributes σ = 1 exactly).
const svdSlack = 1e-6

// Bands specifies which bands of a configuration enter an estimate or an
// optimization target. Exactly one selector is active.
type Bands struct {
	// N selects the lowest N bands (active when List is nil and
	// Occupied is false).
	N int

	// List selects explicit band indices.
	List []int

	// Occupied selects every band with non-zero occupation.
	Occupied bool
}

// LowestBands selects the lowest n bands.
func LowestBands(n int) Bands { return Bands{N: n} }

// BandList selects explicit band indices.
func BandList(ibs ...int) Bands { return Bands{List: ibs} }

// OccupiedBands selects all occupied bands.
func OccupiedBands() Bands { return Bands{Occupied: true} }

// Indices resolves the selector against a channel with nbands computed
// bands of which nocc are occupied. ErrBandRange names the requested and
// available counts.
func (s Bands) Indices(nbands, nocc int) ([]int, error) {
	switch {
	case s.List != nil:
		for _, b := range s.List {
			if b < 0 || b >= nbands {
				return nil, fmt.Errorf("%w: band %d requested, %d computed", ErrBandRange, b, nbands)
			}
		}

		return append([]int(nil), s.List...), nil
	case s.Occupied:
		return lowestN(nocc), nil
	default:
		if s.N < 0 {
			return nil, fmt.Errorf("%w: %d requested", ErrBandRange, s.N)
		}
		if s.N > nbands {
			return nil, fmt.Errorf("%w: %d requested, %d computed", ErrBandRange, s.N, nbands)
		}

		return lowestN(s.N), nil
	}
}

func lowestN(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}

// EffectiveNZeta estimates, per angular-momentum channel, the real-valued
// number of radial functions configuration cfg needs to represent the
// selected bands. K-points enter with their physical weights; spin channels
// average.
func EffectiveNZeta(cfg *refdata.Config, bands Bands, est Estimator, opts Options) ([]float64, error) {
	if len(cfg.Meta.NAtom) != 1 {
		return nil, fmt.Errorf("%w: %d types in %s", ErrMultiType, len(cfg.Meta.NAtom), cfg.Dir)
	}

	meta := cfg.Meta
	nch := len(meta.NZeta[0])
	eff := make([]float64, nch)

	for spin := 0; spin < meta.NSpin; spin++ {
		for ik := 0; ik < meta.NK(); ik++ {
			ch, err := cfg.Channel(spin, ik)
			if err != nil {
				return nil, err
			}
			nocc, err := cfg.State.NOcc(spin, ik)
			if err != nil {
				return nil, err
			}
			idx, err := bands.Indices(ch.Wfc.NBands, nocc)
			if err != nil {
				return nil, fmt.Errorf("%s (spin %d, k %d): %w", cfg.Dir, spin, ik, err)
			}

			w := meta.KWeights[ik] / float64(meta.NSpin)
			switch est {
			case EstimatorWeightSum:
				wll, err := WLL(ch.Wfc.Coef, ch.Ovlp, meta.NAtom, meta.NZeta)
				if err != nil {
					return nil, err
				}
				for l, v := range FoldWLL(wll, idx) {
					eff[l] += v * w
				}
			case EstimatorSVD:
				counts, err := svdRank(ch.Wfc.Coef, ch.Ovlp, meta, idx, opts.SVDThreshold)
				if err != nil {
					return nil, err
				}
				for l, n := range counts {
					eff[l] += float64(n) * w
				}
			default:
				return nil, fmt.Errorf("%w: %d", ErrEstimator, est)
			}
		}
	}

	return eff, nil
}

// svdRank counts, per channel, the singular values of the Löwdin-
// orthonormalized channel block (zeta rows × atom·m·band columns) above thr.
func svdRank(wfc *mat.Dense, ovlp *mat.SymDense, meta refdata.RunMeta, bands []int, thr float64) ([]int, error) {
	n, _ := wfc.Dims()
	half, err := lowdinHalf(ovlp)
	if err != nil {
		return nil, err
	}
	var ortho mat.Dense
	ortho.Mul(half, wfc)

	layout := meta.NZeta[0]
	natom := meta.NAtom[0]
	counts := make([]int, len(layout))

	// Basis ordering: atom → l → zeta → m (single type).
	perAtom := 0
	for l, nz := range layout {
		perAtom += nz * (2*l + 1)
	}
	if perAtom*natom != n {
		return nil, fmt.Errorf("%w: layout implies %d, matrices have %d", ErrLayoutMismatch, perAtom*natom, n)
	}

	for l, nz := range layout {
		if nz == 0 || len(bands) == 0 {
			continue
		}
		deg := 2*l + 1
		lOff := 0
		for lp := 0; lp < l; lp++ {
			lOff += layout[lp] * (2*lp + 1)
		}

		x := mat.NewDense(nz, natom*deg*len(bands), nil)
		for z := 0; z < nz; z++ {
			col := 0
			for a := 0; a < natom; a++ {
				base := a*perAtom + lOff + z*deg
				for m := 0; m < deg; m++ {
					for _, b := range bands {
						x.Set(z, col, ortho.At(base+m, b))
						col++
					}
				}
			}
		}

		var svd mat.SVD
		if !svd.Factorize(x, mat.SVDNone) {
			return nil, fmt.Errorf("population: SVD failed for channel l=%d", l)
		}
		for _, sigma := range svd.Values(nil) {
			if sigma > thr*(1-svdSlack) {
				counts[l]++
			}
		}
	}

	return counts, nil
}

// lowdinHalf returns S^{1/2} via the symmetric eigendecomposition.
func lowdinHalf(s *mat.SymDense) (*mat.Dense, error) {
	var eig mat.EigenSym
	if !eig.Factorize(s, true) {
		return nil, fmt.Errorf("population: overlap eigendecomposition failed")
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	vals := eig.Values(nil)

	n := len(vals)
	sqrtVals := make([]float64, n)
	for i, v := range vals {
		if v < 0 {
			v = 0 // round-off on a PSD overlap
		}
		sqrtVals[i] = math.Sqrt(v)
	}
	d := mat.NewDiagDense(n, sqrtVals)

	var half mat.Dense
	half.Mul(&vecs, d)
	half.Mul(&half, vecs.T())

	return &half, nil
}

// ceilSlack absorbs round-off before rounding fractional zeta counts up.
const ceilSlack = 1e-6

// Aggregate combines per-configuration estimates componentwise under the
// given policy, padding shorter vectors with zeros.
func Aggregate(perConf [][]float64, policy Policy) ([]float64, error) {
	if len(perConf) == 0 {
		return nil, ErrNoConfigs
	}
	nch := 0
	for _, v := range perConf {
		if len(v) > nch {
			nch = len(v)
		}
	}
	out := make([]float64, nch)
	for l := range out {
		switch policy {
		case PolicyMax:
			for _, v := range perConf {
				if l < len(v) && v[l] > out[l] {
					out[l] = v[l]
				}
			}
		case PolicyMean:
			sum := 0.0
			for _, v := range perConf {
				if l < len(v) {
					sum += v[l]
				}
			}
			out[l] = sum / float64(len(perConf))
		default:
			return nil, fmt.Errorf("%w: %d", ErrPolicy, policy)
		}
	}

	return out, nil
}

// CeilCounts rounds effective zeta counts up to integers.
func CeilCounts(eff []float64) []int {
	out := make([]int, len(eff))
	for l, v := range eff {
		out[l] = int(math.Ceil(v - ceilSlack))
		if out[l] < 0 {
			out[l] = 0
		}
	}

	return out
}

// InferNZeta runs the full inference: estimate per configuration, aggregate
// under policy, round up. The bands selector applies to every
// configuration.
func InferNZeta(cfgs []*refdata.Config, bands Bands, est Estimator, policy Policy, opts Options) ([]int, error) {
	if len(cfgs) == 0 {
		return nil, ErrNoConfigs
	}
	perConf := make([][]float64, len(cfgs))
	for i, cfg := range cfgs {
		eff, err := EffectiveNZeta(cfg, bands, est, opts)
		if err != nil {
			return nil, err
		}
		perConf[i] = eff
	}
	agg, err := Aggregate(perConf, policy)
	if err != nil {
		return nil, err
	}

	return CeilCounts(agg), nil
}
