package refdata

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// RunMeta captures the structural metadata of one reference run: how the
// localized basis is laid out and how k-points are weighted.
type RunMeta struct {
	// NSpin is the number of spin channels (1 or 2).
	NSpin int

	// NAtom holds the atom count per atom type.
	NAtom []int

	// NZeta holds, per atom type and per angular momentum l, the number of
	// zeta functions in the reference localized basis.
	NZeta [][]int

	// KWeights holds the physical k-point weights; they sum to 1.
	KWeights []float64
}

// NK reports the number of k-points.
func (m RunMeta) NK() int { return len(m.KWeights) }

// kWeightTol bounds the accepted deviation of Σ wk from 1.
const kWeightTol = 1e-6

// ReadRunningLog parses the structured log of a reference run. Recognized
// lines (order-independent, everything else ignored):
//
//	ntype = 1
//	natom of type 1 = 2
//	nzeta of type 1 = 2 2 1
//	nspin = 1
//	kpoint weights = 0.25 0.75
//
// Validation: nspin ∈ {1,2}; at least one atom type; k-weights sum to 1
// within 1e-6 (ErrKWeightSum names the actual sum; a violation means the
// reference data itself is malformed).
func ReadRunningLog(path string) (RunMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return RunMeta{}, fmt.Errorf("refdata: open running log: %w", err)
	}
	defer f.Close()

	var meta RunMeta
	ntype := 0
	natom := map[int]int{}
	nzeta := map[int][]int{}

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		key, val, ok := strings.Cut(text, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		switch {
		case key == "ntype":
			if ntype, err = strconv.Atoi(val); err != nil {
				return RunMeta{}, malformedLine(path, line, err)
			}
		case key == "nspin":
			if meta.NSpin, err = strconv.Atoi(val); err != nil {
				return RunMeta{}, malformedLine(path, line, err)
			}
		case key == "kpoint weights":
			for _, tok := range strings.Fields(val) {
				w, err := strconv.ParseFloat(tok, 64)
				if err != nil {
					return RunMeta{}, malformedLine(path, line, err)
				}
				meta.KWeights = append(meta.KWeights, w)
			}
		case strings.HasPrefix(key, "natom of type "):
			it, err := strconv.Atoi(strings.TrimPrefix(key, "natom of type "))
			if err != nil {
				return RunMeta{}, malformedLine(path, line, err)
			}
			if natom[it], err = strconv.Atoi(val); err != nil {
				return RunMeta{}, malformedLine(path, line, err)
			}
		case strings.HasPrefix(key, "nzeta of type "):
			it, err := strconv.Atoi(strings.TrimPrefix(key, "nzeta of type "))
			if err != nil {
				return RunMeta{}, malformedLine(path, line, err)
			}
			var layout []int
			for _, tok := range strings.Fields(val) {
				nz, err := strconv.Atoi(tok)
				if err != nil {
					return RunMeta{}, malformedLine(path, line, err)
				}
				layout = append(layout, nz)
			}
			nzeta[it] = layout
		}
	}
	if err := sc.Err(); err != nil {
		return RunMeta{}, fmt.Errorf("refdata: read running log: %w", err)
	}

	if ntype < 1 {
		return RunMeta{}, fmt.Errorf("%w: %s: ntype %d", ErrMalformed, path, ntype)
	}
	if meta.NSpin != 1 && meta.NSpin != 2 {
		return RunMeta{}, fmt.Errorf("%w: %s: nspin %d", ErrMalformed, path, meta.NSpin)
	}
	meta.NAtom = make([]int, ntype)
	meta.NZeta = make([][]int, ntype)
	for it := 1; it <= ntype; it++ {
		n, ok := natom[it]
		if !ok {
			return RunMeta{}, fmt.Errorf("%w: %s: missing natom of type %d", ErrMalformed, path, it)
		}
		layout, ok := nzeta[it]
		if !ok {
			return RunMeta{}, fmt.Errorf("%w: %s: missing nzeta of type %d", ErrMalformed, path, it)
		}
		meta.NAtom[it-1] = n
		meta.NZeta[it-1] = layout
	}

	if len(meta.KWeights) == 0 {
		return RunMeta{}, fmt.Errorf("%w: %s: missing kpoint weights", ErrMalformed, path)
	}
	sum := 0.0
	for _, w := range meta.KWeights {
		sum += w
	}
	if math.Abs(sum-1) > kWeightTol {
		return RunMeta{}, fmt.Errorf("%w: got %.9f", ErrKWeightSum, sum)
	}

	return meta, nil
}

// BasisSize reports the total localized-basis dimension implied by the
// layout: Σ_type natom · Σ_l nzeta[l]·(2l+1).
func (m RunMeta) BasisSize() int {
	n := 0
	for it, layout := range m.NZeta {
		per := 0
		for l, nz := range layout {
			per += nz * (2*l + 1)
		}
		n += m.NAtom[it] * per
	}

	return n
}

func malformedLine(path string, line int, err error) error {
	return fmt.Errorf("%w: %s:%d: %v", ErrMalformed, path, line, err)
}
