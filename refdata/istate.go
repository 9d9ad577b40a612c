package refdata

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// BandInfo is one band's energy and occupation at one spin/k-point.
type BandInfo struct {
	Energy float64
	Occ    float64
}

// IState holds band energies and occupations keyed by spin and k-point:
// Bands[spin][k][band].
type IState struct {
	Bands [][][]BandInfo
}

// NOcc reports the number of occupied bands (occ > 0) at (spin, k).
func (s *IState) NOcc(spin, k int) (int, error) {
	if spin >= len(s.Bands) || k >= len(s.Bands[spin]) {
		return 0, fmt.Errorf("%w: spin %d k %d", ErrKPointMismatch, spin, k)
	}
	n := 0
	for _, b := range s.Bands[spin][k] {
		if b.Occ > 0 {
			n++
		}
	}

	return n, nil
}

// ReadIState parses the band-energy/occupation file:
//
//	spin 1 kpoint 1
//	<iband> <energy> <occupation>
//	…
//	spin 1 kpoint 2
//	…
//
// Spin/k blocks must appear in order (spin-major).
func ReadIState(path string) (*IState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: open istate: %w", err)
	}
	defer f.Close()

	st := &IState{}
	var cur *[]BandInfo

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "spin" {
			if len(fields) != 4 || fields[2] != "kpoint" {
				return nil, fmt.Errorf("%w: %s:%d: bad block header", ErrMalformed, path, line)
			}
			spin, err1 := strconv.Atoi(fields[1])
			k, err2 := strconv.Atoi(fields[3])
			if err1 != nil || err2 != nil || spin < 1 || k < 1 {
				return nil, fmt.Errorf("%w: %s:%d: bad block header", ErrMalformed, path, line)
			}
			for len(st.Bands) < spin {
				st.Bands = append(st.Bands, nil)
			}
			if len(st.Bands[spin-1]) != k-1 {
				return nil, fmt.Errorf("%w: %s:%d: k-point blocks out of order", ErrMalformed, path, line)
			}
			st.Bands[spin-1] = append(st.Bands[spin-1], nil)
			cur = &st.Bands[spin-1][k-1]

			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("%w: %s:%d: band row before any spin/kpoint header", ErrMalformed, path, line)
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: %s:%d: want <iband> <energy> <occ>", ErrMalformed, path, line)
		}
		e, err1 := strconv.ParseFloat(fields[1], 64)
		occ, err2 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: %s:%d: bad band row", ErrMalformed, path, line)
		}
		*cur = append(*cur, BandInfo{Energy: e, Occ: occ})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("refdata: read istate: %w", err)
	}
	if len(st.Bands) == 0 {
		return nil, fmt.Errorf("%w: %s: no spin/kpoint blocks", ErrMalformed, path)
	}

	return st, nil
}
