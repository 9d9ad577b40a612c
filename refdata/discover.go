package refdata

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// OrbMatrixPair is one (value, derivative) pair of plane-wave-derived
// overlap/projector files sharing a cutoff radius.
type OrbMatrixPair struct {
	// Value is the deriv-order-0 file, Deriv the deriv-order-1 file.
	Value, Deriv string

	// Rcut is the cutoff radius encoded in the file names; 0 for the
	// legacy naming scheme, which predates multi-rcut runs.
	Rcut float64

	// Legacy marks the orb_matrix.{0,1}.dat naming scheme.
	Legacy bool
}

var (
	legacyOrbRe = regexp.MustCompile(`^orb_matrix\.([01])\.dat$`)
	rcutOrbRe   = regexp.MustCompile(`^orb_matrix_rcut(\d+)deriv([01])\.dat$`)
)

// OrbMatrixPairs scans dir for orb_matrix files and returns the discovered
// (value, derivative) pairs sorted by (rcut, derivative order).
//
// Discovery rules (hard validation failures, never silently corrected):
//   - legacy and rcut-indexed names must not coexist (ErrMixedNaming);
//   - legacy naming requires exactly orb_matrix.0.dat + orb_matrix.1.dat
//     (ErrLegacyPair);
//   - rcut-indexed files must form an even-length collection pairing each
//     deriv0 file with its deriv1 sibling (ErrOddPairCount);
//   - a directory without any orb_matrix file yields ErrNoOrbMatrix.
func OrbMatrixPairs(dir string) ([]OrbMatrixPair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("refdata: scan %s: %w", dir, err)
	}

	var legacy []string
	type rcutFile struct {
		path  string
		rcut  int
		deriv int
	}
	var indexed []rcutFile

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if legacyOrbRe.MatchString(name) {
			legacy = append(legacy, filepath.Join(dir, name))

			continue
		}
		if m := rcutOrbRe.FindStringSubmatch(name); m != nil {
			rc, _ := strconv.Atoi(m[1])
			dv, _ := strconv.Atoi(m[2])
			indexed = append(indexed, rcutFile{path: filepath.Join(dir, name), rcut: rc, deriv: dv})
		}
	}

	if len(legacy) > 0 && len(indexed) > 0 {
		return nil, fmt.Errorf("%w: %s has %d legacy and %d rcut-indexed files",
			ErrMixedNaming, dir, len(legacy), len(indexed))
	}

	if len(legacy) > 0 {
		if len(legacy) != 2 {
			return nil, fmt.Errorf("%w: %s has %d legacy files", ErrLegacyPair, dir, len(legacy))
		}
		sort.Strings(legacy) // orb_matrix.0.dat before orb_matrix.1.dat

		return []OrbMatrixPair{{Value: legacy[0], Deriv: legacy[1], Legacy: true}}, nil
	}

	if len(indexed) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoOrbMatrix, dir)
	}
	if len(indexed)%2 != 0 {
		return nil, fmt.Errorf("%w: %s has %d rcut-indexed files", ErrOddPairCount, dir, len(indexed))
	}

	// Numeric sort: rcut 10 must follow rcut 6..9, which a lexical sort of
	// the raw names would not guarantee.
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].rcut != indexed[j].rcut {
			return indexed[i].rcut < indexed[j].rcut
		}

		return indexed[i].deriv < indexed[j].deriv
	})

	pairs := make([]OrbMatrixPair, 0, len(indexed)/2)
	for i := 0; i < len(indexed); i += 2 {
		v, d := indexed[i], indexed[i+1]
		if v.rcut != d.rcut || v.deriv != 0 || d.deriv != 1 {
			return nil, fmt.Errorf("%w: %s pairs with %s", ErrOddPairCount, v.path, d.path)
		}
		pairs = append(pairs, OrbMatrixPair{Value: v.path, Deriv: d.path, Rcut: float64(v.rcut)})
	}

	return pairs, nil
}
