package orbio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/katalvlaran/orbgen/basis"
	"github.com/katalvlaran/orbgen/coefs"
)

// DefaultDR is the radial grid spacing in Bohr.
const DefaultDR = 0.01

// ErrConvention indicates an unknown coefficient convention name.
var ErrConvention = errors.New("orbio: unknown coefficient convention")

// channelSyms orders the spectroscopic channel letters by l.
const channelSyms = "SPDFGHIKLMNOQRTUVWXYZ"

// Convention selects how coefficient rows map onto radial functions.
type Convention int

const (
	// Reduced coefficients act on the endpoint-smooth compressed basis.
	Reduced Convention = iota

	// Normalized coefficients act on unit-norm raw spherical Bessel
	// functions.
	Normalized

	// Raw coefficients act on unnormalized spherical Bessel functions.
	Raw
)

// ParseConvention resolves the convention names used in plan files.
func ParseConvention(name string) (Convention, error) {
	switch name {
	case "reduced":
		return Reduced, nil
	case "normalized":
		return Normalized, nil
	case "raw":
		return Raw, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrConvention, name)
	}
}

// Suffix returns the compact channel-count suffix of a zeta layout, e.g.
// "2S1P" for two s and one p function. Empty channels are skipped.
func Suffix(nzeta []int) string {
	out := ""
	for l, nz := range nzeta {
		if nz == 0 {
			continue
		}
		out += fmt.Sprintf("%d%c", nz, channelSyms[l])
	}

	return out
}

// BaseName derives the deterministic output file stem.
func BaseName(elem string, rcut, ecut float64, nzeta []int) string {
	return fmt.Sprintf("%s_gga_%gau_%gRy_%s", elem, rcut, ecut, Suffix(nzeta))
}

// Build evaluates the radial functions of one atom type on a uniform grid
// and returns them as [l][zeta][ir] together with the grid itself.
func Build(t coefs.Tensor, rcut, dr float64, conv Convention) ([][][]float64, []float64, error) {
	r := basis.RadialGrid(rcut, dr)
	switch conv {
	case Reduced:
		return basis.BuildReduced(t, rcut, r, true), r, nil
	case Normalized:
		return basis.BuildNormalized(t, rcut, r, true), r, nil
	case Raw:
		return basis.BuildRaw(t, rcut, r, true), r, nil
	default:
		return nil, nil, fmt.Errorf("%w: %d", ErrConvention, conv)
	}
}

// rawCoefs converts t to the raw spherical-Bessel convention for the
// coefficient record.
func rawCoefs(t coefs.Tensor, rcut float64, conv Convention) (coefs.Tensor, error) {
	switch conv {
	case Reduced:
		return basis.CoeffReducedToRaw(t, rcut), nil
	case Normalized:
		return basis.CoeffNormalizedToRaw(t, rcut), nil
	case Raw:
		return t, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrConvention, conv)
	}
}

// WriteOrb writes the numerical-orbital definition: a summary header
// followed by one radial block per (l, zeta), four values per line.
func WriteOrb(w io.Writer, elem string, ecut, rcut float64, dr float64, chi [][][]float64) error {
	bw := bufio.NewWriter(w)

	mesh := 0
	if len(chi) > 0 && len(chi[0]) > 0 {
		mesh = len(chi[0][0])
	}

	rule := "---------------------------------------------------------------------------"
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Element                     %s\n", elem)
	fmt.Fprintf(bw, "Energy Cutoff(Ry)           %g\n", ecut)
	fmt.Fprintf(bw, "Radius Cutoff(a.u.)         %g\n", rcut)
	fmt.Fprintf(bw, "Lmax                        %d\n", len(chi)-1)
	for l, ch := range chi {
		fmt.Fprintf(bw, "Number of %corbital-->       %d\n", channelSyms[l], len(ch))
	}
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, "SUMMARY  END")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "Mesh                        %d\n", mesh)
	fmt.Fprintf(bw, "dr                          %g\n", dr)

	for l, ch := range chi {
		for z, f := range ch {
			fmt.Fprintln(bw, "                Type   L   N")
			fmt.Fprintf(bw, "                   0   %d   %d\n", l, z)
			for i, v := range f {
				fmt.Fprintf(bw, " %21.14e", v)
				if (i+1)%4 == 0 || i == len(f)-1 {
					fmt.Fprintln(bw)
				}
			}
		}
	}

	return bw.Flush()
}

// WriteParam writes the coefficient record: raw coefficients per
// (type, l, zeta) plus the cutoffs and the achieved spillage.
func WriteParam(w io.Writer, elem string, rcut, ecut float64, t coefs.Tensor, spill float64) error {
	bw := bufio.NewWriter(w)

	total := 0
	for _, ch := range t {
		total += len(ch)
	}

	fmt.Fprintf(bw, "<Coefficient rcut=\"%g\" ecut=\"%g\" element=\"%s\">\n", rcut, ecut, elem)
	fmt.Fprintf(bw, "\t %d Total number of radial orbitals.\n", total)
	for l, ch := range t {
		for z, row := range ch {
			fmt.Fprintln(bw, "\tType\tL\tZeta-Orbital")
			fmt.Fprintf(bw, "\t  %s \t%d\t    %d\n", elem, l, z+1)
			for _, v := range row {
				fmt.Fprintf(bw, "\t %18.14f\n", v)
			}
		}
	}
	fmt.Fprintln(bw, "</Coefficient>")
	fmt.Fprintln(bw, "<Mkb>")
	fmt.Fprintf(bw, "Left spillage = %.10e\n", spill)
	fmt.Fprintln(bw, "</Mkb>")

	return bw.Flush()
}

// Save builds the radial functions of one atom type and writes the .orb,
// .param and .png artifacts under dir, creating it as needed. It returns
// the .orb path.
func Save(dir, elem string, t coefs.Tensor, rcut, ecut, spill float64, conv Convention) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("orbio: create output dir: %w", err)
	}

	chi, r, err := Build(t, rcut, DefaultDR, conv)
	if err != nil {
		return "", err
	}
	base := filepath.Join(dir, BaseName(elem, rcut, ecut, t.NZeta()))

	if err := PlotChi(base+".png", r, chi); err != nil {
		return "", err
	}

	forb := base + ".orb"
	f, err := os.Create(forb)
	if err != nil {
		return "", fmt.Errorf("orbio: create orb file: %w", err)
	}
	if err := WriteOrb(f, elem, ecut, rcut, DefaultDR, chi); err != nil {
		f.Close()

		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	raw, err := rawCoefs(t, rcut, conv)
	if err != nil {
		return "", err
	}
	p, err := os.Create(base + ".param")
	if err != nil {
		return "", fmt.Errorf("orbio: create param file: %w", err)
	}
	if err := WriteParam(p, elem, rcut, ecut, raw, spill); err != nil {
		p.Close()

		return "", err
	}

	return forb, p.Close()
}
