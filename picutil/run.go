/*
Copyright © 2019 the PIC authors.
This file is part of PIC.

PIC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

PIC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with PIC.  If not, see <http://www.gnu.org/licenses/>.
*/

package picutil

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/pic"
	"github.com/spatialmodel/pic/profile"
	"github.com/spatialmodel/pic/science/interp"
	"github.com/spatialmodel/pic/science/merge/vranic"
	"github.com/spatialmodel/pic/science/solver/lehe"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

// Run runs the simulation described by the configuration in cfg.
func Run(cmd *cobra.Command, cfg *viper.Viper) error {
	c, err := LoadConfig(cfg)
	if err != nil {
		return err
	}
	log := logrus.StandardLogger()
	log.WithFields(logrus.Fields{
		"geometry": c.Geometry,
		"dims":     c.Dims,
		"cells":    c.Cells[:c.Dims],
		"patches":  c.Patches,
		"solver":   c.Solver,
	}).Info("starting simulation")

	s, err := NewSimulation(c, log)
	if err != nil {
		return err
	}
	if err = s.Init(); err != nil {
		return err
	}
	if err = s.Run(); err != nil {
		return err
	}
	if err = s.Cleanup(); err != nil {
		return err
	}
	cmd.Printf("simulation completed after %d steps\n", s.Step)
	return nil
}

// NewSimulation builds the patches, fields, kernels and particles that c
// describes. The domain is split into c.Patches equal pieces along the first
// axis.
func NewSimulation(c *SimConfig, log logrus.FieldLogger) (*pic.Simulation, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	s := new(pic.Simulation)

	perPatch := c.Cells[0] / c.Patches
	for i := 0; i < c.Patches; i++ {
		p, err := c.newPatch(i, perPatch)
		if err != nil {
			return nil, fmt.Errorf("pic: building patch %d: %w", i, err)
		}
		s.Patches = append(s.Patches, p)
	}

	s.Dt = c.Timestep
	if s.Dt == 0 {
		s.Dt = pic.CFLTimestep(s.Patches[0].Grid, c.CFL)
	}
	for _, p := range s.Patches {
		if err := c.bindSolvers(p, s.Dt); err != nil {
			return nil, fmt.Errorf("pic: patch %d: %w", p.Index, err)
		}
	}

	initial := make(map[string]profile.Profile)
	for name, expr := range expandEnv(c.InitialFields) {
		pr, err := profile.Parse(c.Dims, expr)
		if err != nil {
			return nil, fmt.Errorf("pic: initial field %s: %w", name, err)
		}
		initial[name] = pr
	}
	density, err := profile.Parse(c.Dims, c.Species.Density)
	if err != nil {
		return nil, fmt.Errorf("pic: species density: %w", err)
	}

	if c.RestartFile != "" {
		s.InitFuncs = []pic.DomainManipulator{loadCheckpoint(c.RestartFile)}
	} else {
		s.InitFuncs = []pic.DomainManipulator{
			pic.Calculations(
				initFields(initial),
				loadParticles(c, density, perPatch),
			),
		}
	}
	s.RunFuncs = []pic.DomainManipulator{
		pic.Calculations(
			pic.SampleFields(),
			pic.SolveAmpere(),
			pic.SolveFaraday(),
			pic.MergeParticles(),
		),
		pic.CheckFinite(),
		pic.Log(log),
		pic.StepLimit(c.Steps),
	}
	s.CleanupFuncs = []pic.DomainManipulator{summary(c, log)}
	if c.CheckpointFile != "" {
		s.CleanupFuncs = append(s.CleanupFuncs, saveCheckpoint(c.CheckpointFile))
	}
	if c.FieldsFile != "" {
		s.CleanupFuncs = append(s.CleanupFuncs, writeFields(c.FieldsFile))
	}
	return s, nil
}

// newPatch allocates the grid, fields, interpolator and species of patch i.
func (c *SimConfig) newPatch(i, perPatch int) (*pic.Patch, error) {
	var n [3]int
	var begin [3]int
	for ax := 0; ax < c.Dims; ax++ {
		cells, start := c.Cells[ax], 0
		if ax == 0 {
			cells, start = perPatch, i*perPatch
		}
		n[ax] = cells + 1 + 2*c.GhostCells
		begin[ax] = start - c.GhostCells
	}
	g, err := pic.NewGrid(c.Dims, n, c.CellLength)
	if err != nil {
		return nil, err
	}
	g.Begin = begin

	p := &pic.Patch{Index: i, Grid: g}
	switch c.Geometry {
	case "am":
		if p.AM, err = pic.NewAMFields(g, c.NModes); err != nil {
			return nil, err
		}
	default:
		p.EM = pic.NewEMFields(g)
	}
	if p.Interp, err = interp.New(c.Geometry, g, p.EM, p.AM); err != nil {
		return nil, err
	}

	sp := &pic.Species{
		Name:              c.Species.Name,
		Mass:              c.Species.Mass,
		Particles:         pic.NewParticles(0),
		MergeEvery:        c.Species.MergeEvery,
		MergeMinParticles: c.Species.MergeMinParticles,
	}
	if c.Species.MergeMethod != "none" {
		m, err := vranic.New(c.Species.MergeMethod, c.Species.Merge)
		if err != nil {
			return nil, err
		}
		sp.Merger = m
	}
	p.Species = []*pic.Species{sp}
	return p, nil
}

// bindSolvers attaches the field solvers to a Cartesian patch.
func (c *SimConfig) bindSolvers(p *pic.Patch, dt float64) error {
	var coeffs lehe.Coefficients
	switch c.Solver {
	case "none":
		return nil
	case "yee":
		coeffs = lehe.YeeCoefficients()
	case "lehe":
		var err error
		if coeffs, err = lehe.LeheCoefficients(p.Grid, dt, c.PropagationAxis); err != nil {
			return err
		}
	}
	faraday, err := lehe.NewFaraday(p.Grid, dt, coeffs)
	if err != nil {
		return err
	}
	ampere, err := lehe.NewAmpere(p.Grid, dt)
	if err != nil {
		return err
	}
	p.Faraday, p.Ampere = faraday, ampere
	return nil
}

// initFields sets the fields named in initial to their profiles. Cartesian
// fields are set directly; for azimuthal-mode patches the real part of
// mode 0 is set.
func initFields(initial map[string]profile.Profile) pic.PatchManipulator {
	return func(p *pic.Patch, _ int) error {
		for name, pr := range initial {
			if p.EM != nil {
				f := p.EM.Get(name)
				if f == nil {
					return pic.NewConfigError("InitialFields", "unknown field %q", name)
				}
				setField(p.Grid, f, pr)
				continue
			}
			mf, pl, ok := modeField(p.AM, name)
			if !ok {
				return pic.NewConfigError("InitialFields", "unknown mode field %q", name)
			}
			g := p.Grid
			m0 := mf[0]
			nl, nr := m0.Dims()
			for i := 0; i < nl; i++ {
				for j := 0; j < nr; j++ {
					v := pr.Value(g.Position(0, i, pl[0]), g.Position(1, j, pl[1]))
					m0.Set(i, j, complex(v, 0))
				}
			}
		}
		return nil
	}
}

func setField(g *pic.Grid, f *pic.Field, pr profile.Profile) {
	shape := f.Shape()
	x := make([]float64, g.Dims)
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			for k := 0; k < shape[2]; k++ {
				idx := [3]int{i, j, k}
				for ax := range x {
					x[ax] = g.Position(ax, idx[ax], f.Placement[ax])
				}
				f.Set(i, j, k, pr.Value(x...))
			}
		}
	}
}

func modeField(am *pic.AMFields, name string) (pic.ModeField, pic.Placement, bool) {
	switch name {
	case "El":
		return am.El, pic.PlaceEl, true
	case "Er":
		return am.Er, pic.PlaceEr, true
	case "Et":
		return am.Et, pic.PlaceEt, true
	case "Bl":
		return am.Bl, pic.PlaceBl, true
	case "Br":
		return am.Br, pic.PlaceBr, true
	case "Bt":
		return am.Bt, pic.PlaceBt, true
	default:
		return nil, pic.Placement{}, false
	}
}

// loadParticles fills the cells owned by each patch with randomly placed
// particles whose weights follow the density profile and whose momenta are
// drawn from a drifting non-relativistic thermal distribution.
func loadParticles(c *SimConfig, density profile.Profile, perPatch int) pic.PatchManipulator {
	sc := c.Species
	var sigma [3]float64
	for ax, temp := range sc.Temperature {
		if sc.Mass > 0 {
			sigma[ax] = math.Sqrt(temp / sc.Mass)
		} else {
			sigma[ax] = temp
		}
	}
	drift := r3.Vec{X: sc.MeanVelocity[0], Y: sc.MeanVelocity[1], Z: sc.MeanVelocity[2]}
	if sc.Mass > 0 {
		drift = drift.Scale(1 / math.Sqrt(1-r3.Norm2(drift))) // γv
	}
	return func(p *pic.Patch, _ int) error {
		if sc.ParticlesPerCell == 0 {
			return nil
		}
		r := rand.New(rand.NewSource(sc.Seed + int64(p.Index)))
		g := p.Grid
		var lo, hi [3]int
		for ax := 0; ax < 3; ax++ {
			lo[ax], hi[ax] = 0, 1
		}
		lo[0], hi[0] = p.Index*perPatch, (p.Index+1)*perPatch
		for ax := 1; ax < c.Dims; ax++ {
			hi[ax] = c.Cells[ax]
		}
		sp := p.Species[0]
		x := make([]float64, c.Dims)
		for i := lo[0]; i < hi[0]; i++ {
			for j := lo[1]; j < hi[1]; j++ {
				for k := lo[2]; k < hi[2]; k++ {
					cell := [3]int{i, j, k}
					for n := 0; n < sc.ParticlesPerCell; n++ {
						var pos [3]float64
						for ax := 0; ax < c.Dims; ax++ {
							x[ax] = (float64(cell[ax]) + r.Float64()) * g.CellLength[ax]
							pos[ax] = x[ax]
						}
						d := density.Value(x...)
						if !(d > 0) {
							continue
						}
						if c.Geometry == "am" {
							theta := 2 * math.Pi * r.Float64()
							pos[1], pos[2] = x[1]*math.Cos(theta), x[1]*math.Sin(theta)
						}
						mom := drift.Add(r3.Vec{
							X: sigma[0] * r.NormFloat64(),
							Y: sigma[1] * r.NormFloat64(),
							Z: sigma[2] * r.NormFloat64(),
						})
						sp.Particles.Add(pos, mom, d/float64(sc.ParticlesPerCell))
					}
				}
			}
		}
		return nil
	}
}

func saveCheckpoint(path string) pic.DomainManipulator {
	return func(s *pic.Simulation) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("pic: creating checkpoint: %v", err)
		}
		if err = pic.Save(f)(s); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
}

func writeFields(path string) pic.DomainManipulator {
	return func(s *pic.Simulation) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("pic: creating fields file: %v", err)
		}
		if err = pic.WriteFields(f)(s); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
}

func loadCheckpoint(path string) pic.DomainManipulator {
	return func(s *pic.Simulation) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("pic: opening restart file: %v", err)
		}
		defer f.Close()
		return pic.Load(f)(s)
	}
}

// summary logs the final state of each species.
func summary(c *SimConfig, log logrus.FieldLogger) pic.DomainManipulator {
	return func(s *pic.Simulation) error {
		var n int
		var w, ke float64
		for _, p := range s.Patches {
			for _, sp := range p.Species {
				n += sp.Particles.Len()
				w += sp.Particles.TotalWeight()
				ke += sp.Particles.KineticEnergy(sp.Mass)
			}
		}
		log.WithFields(logrus.Fields{
			"species":        c.Species.Name,
			"particles":      n,
			"weight":         w,
			"kinetic energy": ke,
		}).Info("simulation complete")
		return nil
	}
}
