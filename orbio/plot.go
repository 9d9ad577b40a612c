package orbio

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotChi renders every radial function to a single PNG. The plot is a
// diagnostic side artifact; the .orb file stays authoritative.
func PlotChi(path string, r []float64, chi [][][]float64) error {
	p := plot.New()
	p.Title.Text = "radial orbitals"
	p.X.Label.Text = "r (Bohr)"
	p.Y.Label.Text = "chi(r)"

	idx := 0
	for l, ch := range chi {
		for z, f := range ch {
			pts := make(plotter.XYs, len(f))
			for i, v := range f {
				pts[i].X = r[i]
				pts[i].Y = v
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return fmt.Errorf("orbio: plot line: %w", err)
			}
			line.Color = plotutil.Color(idx)
			p.Add(line)
			p.Legend.Add(fmt.Sprintf("l=%d zeta=%d", l, z+1), line)
			idx++
		}
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("orbio: save plot: %w", err)
	}

	return nil
}
