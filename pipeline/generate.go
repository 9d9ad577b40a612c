package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/katalvlaran/orbgen/coefs"
	"github.com/katalvlaran/orbgen/onion"
	"github.com/katalvlaran/orbgen/orbio"
	"github.com/katalvlaran/orbgen/population"
	"github.com/katalvlaran/orbgen/refdata"
	"github.com/katalvlaran/orbgen/spillage"
)

// Generate executes the plan against reference data under root, writing
// orbital files per (rcut, level) into {elem}_{rcut}au_{ecut}Ry
// directories under root. Radii are independent of one another; the first
// failing radius aborts the run. A nil logger falls back to slog.Default().
func Generate(p *Plan, root string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	if err := p.validate(); err != nil {
		return err
	}
	conv, err := orbio.ParseConvention(p.Convention)
	if err != nil {
		return err
	}
	kind, err := ParseBasisKind(p.Basis)
	if err != nil {
		return err
	}

	for _, rcut := range p.Rcuts {
		log.Info("generating orbitals", "element", p.Element, "rcut", rcut, "ecut", p.Ecut)
		if err := p.generateRcut(root, rcut, kind, conv, log); err != nil {
			return fmt.Errorf("rcut %g: %w", rcut, err)
		}
	}

	return nil
}

func (p *Plan) outDir(root string, rcut float64) string {
	return filepath.Join(root, fmt.Sprintf("%s_%gau_%gRy", p.Element, rcut, p.Ecut))
}

func (p *Plan) generateRcut(root string, rcut float64, kind BasisKind, conv orbio.Convention, log *slog.Logger) error {
	outdir := p.outDir(root, rcut)

	if p.Optimizer == "none" {
		// Emit the uncontracted jy basis itself, one identity set per
		// planned orbital.
		for _, orb := range p.Orbitals {
			set, err := spillage.EyeSet(rcut, p.Ecut, len(orb.NZeta.Counts)-1)
			if err != nil {
				return err
			}
			forb, err := orbio.Save(outdir, p.Element, set[0], rcut, p.Ecut, 0, conv)
			if err != nil {
				return err
			}
			log.Info("orbital saved", "level", orb.Label, "file", forb)
		}

		return nil
	}

	matched, iconfs, err := p.matchFolders(rcut)
	if err != nil {
		return err
	}

	var min spillage.Minimizer
	var guess onion.GuessFunc
	var cfgs []*refdata.Config
	var hostChannels int

	switch kind {
	case BasisJY:
		jy := spillage.NewJY()
		cfgs = make([]*refdata.Config, len(matched))
		for i, name := range matched {
			cfg, err := refdata.LoadConfig(filepath.Join(root, name))
			if err != nil {
				return err
			}
			if err := jy.ConfigAdd(cfg); err != nil {
				return err
			}
			cfgs[i] = cfg
		}
		mono, err := p.loadMonomer(root, rcut)
		if err != nil {
			return err
		}
		min = jy
		hostChannels = len(mono.Meta.NZeta[0])
		guess = func(nzeta, nzeta0 []int) (coefs.Set, error) {
			return spillage.GuessJY(mono, nzeta, nzeta0)
		}
	case BasisPW:
		pw := spillage.NewPW()
		weights := [2]float64{p.SpillCoefs[0], p.SpillCoefs[1]}
		var nbes []int
		for _, name := range matched {
			pairs, err := refdata.OrbMatrixPairs(filepath.Join(root, name))
			if err != nil {
				return err
			}
			for _, pair := range pairs {
				ov, err := refdata.ReadOrbMatrix(pair.Value)
				if err != nil {
					return err
				}
				if ov.Rcut != rcut {
					continue
				}
				op, err := refdata.ReadOrbMatrix(pair.Deriv)
				if err != nil {
					return err
				}
				if err := pw.ConfigAdd(ov, op, weights); err != nil {
					return err
				}
				if nbes == nil {
					nbes = ov.NBes
				}
			}
		}
		if nbes == nil {
			return fmt.Errorf("%w: rcut %g", ErrNoMatch, rcut)
		}
		min = pw
		hostChannels = len(nbes)
		guess = func(nzeta, nzeta0 []int) (coefs.Set, error) {
			return spillage.GuessPW(nbes, nzeta, nzeta0)
		}
	}

	shells := make([]onion.Shell, len(p.Orbitals))
	for i, orb := range p.Orbitals {
		nzeta := orb.NZeta.Counts
		if orb.NZeta.Auto {
			sel := make([]*refdata.Config, 0, len(iconfs[i]))
			for _, ci := range iconfs[i] {
				sel = append(sel, cfgs[ci])
			}
			nzeta, err = population.InferNZeta(sel, orb.NBands.Bands(),
				population.EstimatorSVD, population.PolicyMax, population.DefaultOptions())
			if err != nil {
				return fmt.Errorf("orbital %s: %w", orb.Label, err)
			}
			log.Info("nzeta inferred", "level", orb.Label, "nzeta", nzeta)
		}

		parent := p.parentIndex(i)
		if parent < 0 {
			parent = onion.NoParent
		}
		shells[i] = onion.Shell{
			Label:   orb.Label,
			NZeta:   nzeta,
			Parent:  parent,
			Configs: iconfs[i],
			Bands:   orb.NBands.Bands(),
		}
	}
	// The richest planned shell must fit the guess basis.
	nzall := make([][]int, len(shells))
	for i, sh := range shells {
		nzall[i] = sh.NZeta
	}
	if nzmax := spillage.NZetaMax(nzall); len(nzmax) > hostChannels {
		return fmt.Errorf("%w: plan needs channels up to l=%d, the reference basis ends at l=%d",
			spillage.ErrShape, len(nzmax)-1, hostChannels-1)
	}

	forest, err := onion.NewForest(shells...)
	if err != nil {
		return err
	}

	opts := spillage.DefaultOptions()
	opts.MaxIter = p.MaxSteps

	results, spills, err := onion.Optimize(min, forest, guess, opts, p.NThreads, log)
	if err != nil {
		return err
	}

	for i, set := range results {
		forb, err := orbio.Save(outdir, p.Element, set[0], rcut, p.Ecut, spills[i], conv)
		if err != nil {
			return err
		}
		log.Info("orbital saved", "level", p.Orbitals[i].Label, "spillage", spills[i], "file", forb)
	}

	return nil
}

// matchFolders keeps, per geometry group, the folders belonging to rcut
// (folders without an rcut suffix match every radius), deduplicates them
// into one ordered configuration list, and maps each orbital to its
// configuration indices.
func (p *Plan) matchFolders(rcut float64) ([]string, [][]int, error) {
	groups := make([][]string, len(p.Folders))
	for g, names := range p.Folders {
		for _, name := range names {
			lab, err := refdata.ParseLabel(name)
			if err != nil {
				return nil, nil, err
			}
			if !lab.HasRcut || lab.Rcut == rcut {
				groups[g] = append(groups[g], name)
			}
		}
	}

	var matched []string
	index := make(map[string]int)
	iconfs := make([][]int, len(p.Orbitals))
	for i, orb := range p.Orbitals {
		for _, g := range orb.Folders {
			if len(groups[g]) == 0 {
				return nil, nil, fmt.Errorf("%w: orbital %q group %d at rcut %g",
					ErrNoMatch, orb.Label, g, rcut)
			}
			for _, name := range groups[g] {
				ci, ok := index[name]
				if !ok {
					ci = len(matched)
					index[name] = ci
					matched = append(matched, name)
				}
				iconfs[i] = append(iconfs[i], ci)
			}
		}
	}

	return matched, iconfs, nil
}

// loadMonomer finds the isolated-atom reference for the initial guess,
// preferring an rcut-suffixed directory.
func (p *Plan) loadMonomer(root string, rcut float64) (*refdata.Config, error) {
	candidates := []string{
		fmt.Sprintf("%s-monomer-%gau", p.Element, rcut),
		p.Element + "-monomer",
	}
	for _, name := range candidates {
		dir := filepath.Join(root, name)
		if _, err := os.Stat(dir); err == nil {
			return refdata.LoadConfig(dir)
		}
	}

	return nil, fmt.Errorf("%w: monomer reference not found (tried %v)", ErrNoMatch, candidates)
}
