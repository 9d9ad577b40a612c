package refdata

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Wavefunction holds the coefficient matrix of one spin/k-point: basis
// functions (rows) against computed bands (columns), plus the fractional
// k-point coordinates.
type Wavefunction struct {
	NBasis, NBands int
	KPoint         [3]float64
	Coef           *mat.Dense // nbasis × nbands
}

// ReadWavefunction parses a WFC_NAO_* coefficient file:
//
//	nbands <nb>
//	nbasis <n>
//	kpoint <kx> <ky> <kz>
//	<n·nb coefficients, column (band) major, free whitespace layout>
func ReadWavefunction(path string) (*Wavefunction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: open wavefunction: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	next := func() (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}

			return "", fmt.Errorf("%w: %s: unexpected end of file", ErrMalformed, path)
		}

		return sc.Text(), nil
	}
	nextInt := func(key string) (int, error) {
		tok, err := next()
		if err != nil {
			return 0, err
		}
		if tok != key {
			return 0, fmt.Errorf("%w: %s: want %q, got %q", ErrMalformed, path, key, tok)
		}
		tok, err = next()
		if err != nil {
			return 0, err
		}

		return strconv.Atoi(tok)
	}

	w := &Wavefunction{}
	if w.NBands, err = nextInt("nbands"); err != nil {
		return nil, fmt.Errorf("%w: %s: nbands: %v", ErrMalformed, path, err)
	}
	if w.NBasis, err = nextInt("nbasis"); err != nil {
		return nil, fmt.Errorf("%w: %s: nbasis: %v", ErrMalformed, path, err)
	}
	tok, err := next()
	if err != nil {
		return nil, err
	}
	if tok != "kpoint" {
		return nil, fmt.Errorf("%w: %s: want kpoint header, got %q", ErrMalformed, path, tok)
	}
	for i := 0; i < 3; i++ {
		tok, err = next()
		if err != nil {
			return nil, err
		}
		if w.KPoint[i], err = strconv.ParseFloat(tok, 64); err != nil {
			return nil, fmt.Errorf("%w: %s: kpoint: %v", ErrMalformed, path, err)
		}
	}

	w.Coef = mat.NewDense(w.NBasis, w.NBands, nil)
	for b := 0; b < w.NBands; b++ {
		for i := 0; i < w.NBasis; i++ {
			tok, err = next()
			if err != nil {
				return nil, err
			}
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: coefficient (band %d, basis %d): %v",
					ErrMalformed, path, b, i, err)
			}
			w.Coef.Set(i, b, v)
		}
	}

	return w, nil
}

// ReadTriU parses a packed upper-triangular overlap matrix:
//
//	<n>
//	<n·(n+1)/2 values, row major over the upper triangle>
//
// and returns the full symmetric matrix.
func ReadTriU(path string) (*mat.SymDense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: open overlap: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	if !sc.Scan() {
		return nil, fmt.Errorf("%w: %s: missing dimension", ErrMalformed, path)
	}
	n, err := strconv.Atoi(sc.Text())
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%w: %s: bad dimension %q", ErrMalformed, path, sc.Text())
	}

	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if !sc.Scan() {
				return nil, fmt.Errorf("%w: %s: truncated at (%d,%d)", ErrMalformed, path, i, j)
			}
			v, err := strconv.ParseFloat(sc.Text(), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: value (%d,%d): %v", ErrMalformed, path, i, j, err)
			}
			s.SetSym(i, j, v)
		}
	}

	return s, nil
}
