package refdata

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// OrbMatrix holds the plane-wave-derived reference tensors of one
// configuration at one cutoff radius and derivative order:
//
//	JyJy — overlap of the truncated spherical-Bessel (jy) basis, njy × njy
//	MoJy — projections ⟨band|jy⟩, nbands × njy
//	MoMo — band norms ⟨band|band⟩, nbands
//
// The jy basis ordering is atom-major, then l, then m, then root index q:
// index = ((atom·(lmax+1→flat l,m block)) …); consumers use the NBes layout
// to partition it, never hard-coded strides.
type OrbMatrix struct {
	Rcut  float64
	Ecut  float64
	Deriv int
	NAtom int
	NBes  []int // per l
	NJy   int
	NBand int

	JyJy *mat.SymDense
	MoJy *mat.Dense
	MoMo []float64
}

// ReadOrbMatrix parses an orb_matrix file (legacy or rcut-indexed naming;
// the content layout is identical):
//
//	rcut <r>
//	ecut <e>
//	deriv <0|1>
//	natom <n>
//	nbes <n_0> <n_1> … <n_lmax>
//	nbands <nb>
//	JY_JY   — njy·(njy+1)/2 packed upper-triangular values
//	MO_JY   — nb·njy values, band major
//	MO_MO   — nb values
func ReadOrbMatrix(path string) (*OrbMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: open orb_matrix: %w", err)
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
	expect := func(key string) error {
		tok, err := next()
		if err != nil {
			return err
		}
		if tok != key {
			return fmt.Errorf("%w: %s: want %q, got %q", ErrMalformed, path, key, tok)
		}

		return nil
	}
	nextFloat := func() (float64, error) {
		tok, err := next()
		if err != nil {
			return 0, err
		}

		return strconv.ParseFloat(tok, 64)
	}
	nextInt := func() (int, error) {
		tok, err := next()
		if err != nil {
			return 0, err
		}

		return strconv.Atoi(tok)
	}

	om := &OrbMatrix{}
	if err = expect("rcut"); err != nil {
		return nil, err
	}
	if om.Rcut, err = nextFloat(); err != nil {
		return nil, fmt.Errorf("%w: %s: rcut: %v", ErrMalformed, path, err)
	}
	if err = expect("ecut"); err != nil {
		return nil, err
	}
	if om.Ecut, err = nextFloat(); err != nil {
		return nil, fmt.Errorf("%w: %s: ecut: %v", ErrMalformed, path, err)
	}
	if err = expect("deriv"); err != nil {
		return nil, err
	}
	if om.Deriv, err = nextInt(); err != nil {
		return nil, fmt.Errorf("%w: %s: deriv: %v", ErrMalformed, path, err)
	}
	if err = expect("natom"); err != nil {
		return nil, err
	}
	if om.NAtom, err = nextInt(); err != nil {
		return nil, fmt.Errorf("%w: %s: natom: %v", ErrMalformed, path, err)
	}
	if err = expect("nbes"); err != nil {
		return nil, err
	}
	// nbes values run until the nbands keyword.
	for {
		tok, err := next()
		if err != nil {
			return nil, err
		}
		if tok == "nbands" {
			break
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: nbes: %v", ErrMalformed, path, err)
		}
		om.NBes = append(om.NBes, n)
	}
	if om.NBand, err = nextInt(); err != nil {
		return nil, fmt.Errorf("%w: %s: nbands: %v", ErrMalformed, path, err)
	}
	if len(om.NBes) == 0 || om.NAtom < 1 || om.NBand < 1 {
		return nil, fmt.Errorf("%w: %s: empty layout", ErrMalformed, path)
	}

	per := 0
	for l, n := range om.NBes {
		per += (2*l + 1) * n
	}
	om.NJy = om.NAtom * per

	if err = expect("JY_JY"); err != nil {
		return nil, err
	}
	om.JyJy = mat.NewSymDense(om.NJy, nil)
	for i := 0; i < om.NJy; i++ {
		for j := i; j < om.NJy; j++ {
			v, err := nextFloat()
			if err != nil {
				return nil, fmt.Errorf("%w: %s: JY_JY (%d,%d): %v", ErrMalformed, path, i, j, err)
			}
			om.JyJy.SetSym(i, j, v)
		}
	}

	if err = expect("MO_JY"); err != nil {
		return nil, err
	}
	om.MoJy = mat.NewDense(om.NBand, om.NJy, nil)
	for b := 0; b < om.NBand; b++ {
		for j := 0; j < om.NJy; j++ {
			v, err := nextFloat()
			if err != nil {
				return nil, fmt.Errorf("%w: %s: MO_JY (%d,%d): %v", ErrMalformed, path, b, j, err)
			}
			om.MoJy.Set(b, j, v)
		}
	}

	if err = expect("MO_MO"); err != nil {
		return nil, err
	}
	om.MoMo = make([]float64, om.NBand)
	for b := range om.MoMo {
		if om.MoMo[b], err = nextFloat(); err != nil {
			return nil, fmt.Errorf("%w: %s: MO_MO %d: %v", ErrMalformed, path, b, err)
		}
	}

	return om, nil
}
