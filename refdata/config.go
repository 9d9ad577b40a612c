package refdata

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Label identifies a reference structure by its path-derived directory name:
// element, geometry kind and (for localized-basis runs) cutoff radius, e.g.
// "Si-dimer-1.8-7au" or "Al-monomer".
type Label struct {
	Element  string
	Geometry string
	Rcut     float64
	HasRcut  bool
}

// ParseLabel decodes a configuration directory name. The element and
// geometry fields are mandatory; an optional trailing "<rcut>au" component
// marks a localized-basis run at that cutoff radius.
func ParseLabel(name string) (Label, error) {
	parts := strings.Split(filepath.Base(name), "-")
	if len(parts) < 2 {
		return Label{}, fmt.Errorf("%w: label %q needs at least element-geometry", ErrMalformed, name)
	}
	lab := Label{Element: parts[0], Geometry: parts[1]}
	last := parts[len(parts)-1]
	if strings.HasSuffix(last, "au") && len(parts) > 2 {
		rc, err := strconv.ParseFloat(strings.TrimSuffix(last, "au"), 64)
		if err != nil {
			return Label{}, fmt.Errorf("%w: label %q has bad rcut component %q", ErrMalformed, name, last)
		}
		lab.Rcut, lab.HasRcut = rc, true
	}

	return lab, nil
}

// SpinK bundles the reference matrices of one (spin, k-point) channel.
type SpinK struct {
	Spin, K int

	// Ovlp is the localized-basis overlap matrix.
	Ovlp *mat.SymDense

	// Wfc holds the wavefunction coefficients (basis × bands).
	Wfc *Wavefunction
}

// Config is one fully loaded reference structure. Immutable once loaded;
// safe to share across shells.
type Config struct {
	Dir   string
	Label Label
	Meta  RunMeta
	State *IState

	// Channels are spin-major: index = spin·NK + k.
	Channels []SpinK
}

// Channel returns the data of one (spin, k) pair.
func (c *Config) Channel(spin, k int) (*SpinK, error) {
	idx := spin*c.Meta.NK() + k
	if spin < 0 || spin >= c.Meta.NSpin || k < 0 || k >= c.Meta.NK() {
		return nil, fmt.Errorf("%w: spin %d k %d (nspin %d, nk %d)",
			ErrKPointMismatch, spin, k, c.Meta.NSpin, c.Meta.NK())
	}

	return &c.Channels[idx], nil
}

// NBands reports the number of computed bands (uniform across channels).
func (c *Config) NBands() int {
	if len(c.Channels) == 0 {
		return 0
	}

	return c.Channels[0].Wfc.NBands
}

// LoadConfig reads a reference run directory laid out as
//
//	<dir>/INPUT
//	<dir>/OUT.<base>/running_<calculation>.log
//	<dir>/OUT.<base>/WFC_NAO_{GAMMA|K}<n>.txt     n = 1 … nspin·nk
//	<dir>/OUT.<base>/data-<n-1>-S
//	<dir>/OUT.<base>/istate.info
//
// and validates cross-artifact consistency: nspin must agree between INPUT
// and the running log (ErrNSpinMismatch names both values), and every
// overlap matrix must match its wavefunction's basis dimension
// (ErrDimensionMismatch).
func LoadConfig(dir string) (*Config, error) {
	label, err := ParseLabel(dir)
	if err != nil {
		return nil, err
	}

	params, err := ReadInputScript(filepath.Join(dir, "INPUT"))
	if err != nil {
		return nil, err
	}
	suffix := paramOr(params, "suffix", filepath.Base(dir))
	calc := paramOr(params, "calculation", "scf")
	outdir := filepath.Join(dir, "OUT."+suffix)

	meta, err := ReadRunningLog(filepath.Join(outdir, "running_"+calc+".log"))
	if err != nil {
		return nil, err
	}
	if ns := paramOr(params, "nspin", "1"); ns != strconv.Itoa(meta.NSpin) {
		return nil, fmt.Errorf("%w: INPUT says %s, running log says %d", ErrNSpinMismatch, ns, meta.NSpin)
	}

	state, err := ReadIState(filepath.Join(outdir, "istate.info"))
	if err != nil {
		return nil, err
	}

	prefix := "WFC_NAO_K"
	if paramOr(params, "gamma_only", "0") == "1" {
		prefix = "WFC_NAO_GAMMA"
	}

	cfg := &Config{Dir: dir, Label: label, Meta: meta, State: state}
	nsk := meta.NSpin * meta.NK()
	cfg.Channels = make([]SpinK, nsk)
	for isk := 0; isk < nsk; isk++ {
		wfc, err := ReadWavefunction(filepath.Join(outdir, fmt.Sprintf("%s%d.txt", prefix, isk+1)))
		if err != nil {
			return nil, err
		}
		ovlp, err := ReadTriU(filepath.Join(outdir, fmt.Sprintf("data-%d-S", isk)))
		if err != nil {
			return nil, err
		}
		if n := ovlp.SymmetricDim(); n != wfc.NBasis {
			return nil, fmt.Errorf("%w: overlap is %d×%d but wavefunction basis is %d (channel %d)",
				ErrDimensionMismatch, n, n, wfc.NBasis, isk)
		}
		if want := meta.BasisSize(); wfc.NBasis != want {
			return nil, fmt.Errorf("%w: wavefunction basis %d, layout implies %d",
				ErrDimensionMismatch, wfc.NBasis, want)
		}
		cfg.Channels[isk] = SpinK{Spin: isk / meta.NK(), K: isk % meta.NK(), Ovlp: ovlp, Wfc: wfc}
	}

	return cfg, nil
}

func paramOr(params map[string]string, key, fallback string) string {
	if v, ok := params[key]; ok {
		return v
	}

	return fallback
}
