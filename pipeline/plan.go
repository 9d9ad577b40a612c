package pipeline

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/orbgen/orbio"
	"github.com/katalvlaran/orbgen/population"
)

var (
	// ErrPlan indicates a malformed or inconsistent orbital plan.
	ErrPlan = errors.New("pipeline: invalid plan")

	// ErrNoMatch indicates that no reference folder matches a cutoff
	// radius.
	ErrNoMatch = errors.New("pipeline: no reference folders match the cutoff radius")
)

// BasisKind enumerates the two spillage backends; the plan selects one
// explicitly rather than inferring it from file names.
type BasisKind int

const (
	// BasisJY fits against localized-basis overlap data.
	BasisJY BasisKind = iota

	// BasisPW fits against plane-wave-derived orb_matrix pairs.
	BasisPW
)

// ParseBasisKind resolves the basis names used in plan files.
func ParseBasisKind(name string) (BasisKind, error) {
	switch name {
	case "jy":
		return BasisJY, nil
	case "pw":
		return BasisPW, nil
	default:
		return 0, fmt.Errorf("%w: unknown basis %q (want jy or pw)", ErrPlan, name)
	}
}

// NZetaSpec is either the string "auto" (infer the counts from reference
// wavefunctions) or an explicit per-channel list.
type NZetaSpec struct {
	Auto   bool
	Counts []int
}

// UnmarshalYAML accepts "auto" or a flow list of non-negative integers.
func (s *NZetaSpec) UnmarshalYAML(node *yaml.Node) error {
	var str string
	if err := node.Decode(&str); err == nil {
		if str != "auto" {
			return fmt.Errorf("%w: nzeta must be \"auto\" or an integer list, got %q", ErrPlan, str)
		}
		s.Auto = true

		return nil
	}
	if err := node.Decode(&s.Counts); err != nil {
		return fmt.Errorf("%w: nzeta: %v", ErrPlan, err)
	}
	for l, n := range s.Counts {
		if n < 0 {
			return fmt.Errorf("%w: nzeta channel l=%d is negative", ErrPlan, l)
		}
	}

	return nil
}

// BandsSpec selects reference bands: an integer (lowest N), a list of
// indices, or the string "occ" (all occupied bands).
type BandsSpec struct {
	set   bool
	bands population.Bands
}

// UnmarshalYAML accepts an int, an int list or "occ".
func (s *BandsSpec) UnmarshalYAML(node *yaml.Node) error {
	s.set = true

	var n int
	if err := node.Decode(&n); err == nil {
		if n < 0 {
			return fmt.Errorf("%w: nbands is negative (%d)", ErrPlan, n)
		}
		s.bands = population.LowestBands(n)

		return nil
	}
	var list []int
	if err := node.Decode(&list); err == nil {
		for _, b := range list {
			if b < 0 {
				return fmt.Errorf("%w: nbands index %d is negative", ErrPlan, b)
			}
		}
		s.bands = population.BandList(list...)

		return nil
	}
	var str string
	if err := node.Decode(&str); err == nil && str == "occ" {
		s.bands = population.OccupiedBands()

		return nil
	}

	return fmt.Errorf("%w: nbands must be an integer, an index list or \"occ\"", ErrPlan)
}

// Bands returns the selector; unset specs default to the occupied bands.
func (s BandsSpec) Bands() population.Bands {
	if !s.set {
		return population.OccupiedBands()
	}

	return s.bands
}

// OrbitalPlan is one planned shell.
type OrbitalPlan struct {
	// Label names the shell ("SZ", "DZP", …) and is the target of "from"
	// references.
	Label string `yaml:"label"`

	// NZeta is the total zeta count per channel or "auto".
	NZeta NZetaSpec `yaml:"nzeta"`

	// From names the parent shell whose coefficients are frozen and
	// extended; empty for a root shell.
	From string `yaml:"from"`

	// Folders indexes the geometry groups of Plan.Folders this shell fits
	// against.
	Folders []int `yaml:"folders"`

	// NBands selects the reference bands.
	NBands BandsSpec `yaml:"nbands"`
}

// Plan is one basis-generation request.
type Plan struct {
	Element    string        `yaml:"element"`
	Ecut       float64       `yaml:"ecut"`
	Rcuts      []float64     `yaml:"rcuts"`
	Basis      string        `yaml:"basis"`
	Convention string        `yaml:"convention"`
	Optimizer  string        `yaml:"optimizer"`
	MaxSteps   int           `yaml:"max_steps"`
	NThreads   int           `yaml:"nthreads"`
	SpillCoefs []float64     `yaml:"spill_coefs"`
	Folders    [][]string    `yaml:"folders"`
	Orbitals   []OrbitalPlan `yaml:"orbitals"`
}

// LoadPlan reads and validates a YAML orbital plan.
func LoadPlan(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: open plan: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlan, err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// validate fills defaults and rejects inconsistent plans before any
// reference data is touched.
func (p *Plan) validate() error {
	if p.Element == "" {
		return fmt.Errorf("%w: element is required", ErrPlan)
	}
	if p.Ecut <= 0 {
		return fmt.Errorf("%w: ecut must be positive, got %g", ErrPlan, p.Ecut)
	}
	if len(p.Rcuts) == 0 {
		return fmt.Errorf("%w: at least one rcut is required", ErrPlan)
	}
	if len(p.Orbitals) == 0 {
		return fmt.Errorf("%w: at least one orbital is required", ErrPlan)
	}

	if p.Basis == "" {
		p.Basis = "jy"
	}
	kind, err := ParseBasisKind(p.Basis)
	if err != nil {
		return err
	}
	if p.Convention == "" {
		p.Convention = "reduced"
	}
	if _, err := orbio.ParseConvention(p.Convention); err != nil {
		return fmt.Errorf("%w: %v", ErrPlan, err)
	}
	switch p.Optimizer {
	case "":
		p.Optimizer = "bfgs"
	case "bfgs", "none":
	default:
		return fmt.Errorf("%w: unknown optimizer %q (want bfgs or none)", ErrPlan, p.Optimizer)
	}
	if p.MaxSteps <= 0 {
		p.MaxSteps = 2000
	}
	if p.NThreads <= 0 {
		p.NThreads = 4
	}
	switch len(p.SpillCoefs) {
	case 0:
		p.SpillCoefs = []float64{0, 1}
	case 2:
	default:
		return fmt.Errorf("%w: spill_coefs needs exactly two weights, got %d", ErrPlan, len(p.SpillCoefs))
	}

	labels := make(map[string]int, len(p.Orbitals))
	for i, orb := range p.Orbitals {
		if orb.Label == "" {
			return fmt.Errorf("%w: orbital %d has no label", ErrPlan, i)
		}
		if _, dup := labels[orb.Label]; dup {
			return fmt.Errorf("%w: duplicate orbital label %q", ErrPlan, orb.Label)
		}
		labels[orb.Label] = i
	}
	for _, orb := range p.Orbitals {
		if orb.From != "" {
			if _, ok := labels[orb.From]; !ok {
				return fmt.Errorf("%w: orbital %q references unknown parent %q", ErrPlan, orb.Label, orb.From)
			}
		}
		if orb.NZeta.Auto {
			if p.Optimizer == "none" {
				return fmt.Errorf("%w: orbital %q: nzeta \"auto\" needs the bfgs optimizer", ErrPlan, orb.Label)
			}
			if kind == BasisPW {
				return fmt.Errorf("%w: orbital %q: nzeta \"auto\" is only supported for the jy basis", ErrPlan, orb.Label)
			}
		} else if len(orb.NZeta.Counts) == 0 {
			return fmt.Errorf("%w: orbital %q has no nzeta", ErrPlan, orb.Label)
		}
		for _, g := range orb.Folders {
			if g < 0 || g >= len(p.Folders) {
				return fmt.Errorf("%w: orbital %q references folder group %d of %d",
					ErrPlan, orb.Label, g, len(p.Folders))
			}
		}
		if p.Optimizer == "bfgs" && len(orb.Folders) == 0 {
			return fmt.Errorf("%w: orbital %q lists no folder groups", ErrPlan, orb.Label)
		}
	}

	return nil
}

// parentIndex resolves an orbital's "from" reference to a shell index, or
// -1 for roots.
func (p *Plan) parentIndex(i int) int {
	from := p.Orbitals[i].From
	if from == "" {
		return -1
	}
	for j, orb := range p.Orbitals {
		if orb.Label == from {
			return j
		}
	}

	return -1
}
