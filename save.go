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

package pic

import (
	"encoding/gob"
	"fmt"
	"io"
	"math"

	"github.com/DataDog/zstd"
	"gonum.org/v1/gonum/mat"
)

// checkpoint is the saved state of a simulation.
type checkpoint struct {
	Step    int
	Dt      float64
	Patches []patchState
}

type patchState struct {
	Index   int
	Grid    Grid
	Fields  map[string][]float64
	Modes   map[string][][]complex128
	Species []speciesState
}

type speciesState struct {
	Name      string
	Particles Particles
}

// modeNames and amPlacements follow the order of AMFields.All.
var (
	modeNames    = []string{"El", "Er", "Et", "Bl", "Br", "Bt", "Jl", "Jr", "Jt", "Rho"}
	amPlacements = []Placement{PlaceEl, PlaceEr, PlaceEt, PlaceBl, PlaceBr, PlaceBt,
		PlaceEl, PlaceEr, PlaceEt, PlaceRho}
)

// Save returns a function that writes the fields and particles of the
// simulation to w as a zstd-compressed checkpoint.
func Save(w io.Writer) DomainManipulator {
	return func(s *Simulation) error {
		cp := checkpoint{Step: s.Step, Dt: s.Dt}
		for _, p := range s.Patches {
			ps := patchState{Index: p.Index, Grid: *p.Grid}
			if p.EM != nil {
				ps.Fields = make(map[string][]float64)
				for _, f := range p.EM.All() {
					ps.Fields[f.Name] = f.Data()
				}
			}
			if p.AM != nil {
				ps.Modes = make(map[string][][]complex128)
				for i, mf := range p.AM.All() {
					modes := make([][]complex128, len(mf))
					for m, g := range mf {
						modes[m] = g.RawCMatrix().Data
					}
					ps.Modes[modeNames[i]] = modes
				}
			}
			for _, sp := range p.Species {
				ps.Species = append(ps.Species, speciesState{Name: sp.Name, Particles: *sp.Particles})
			}
			cp.Patches = append(cp.Patches, ps)
		}

		z := zstd.NewWriter(w)
		if err := gob.NewEncoder(z).Encode(cp); err != nil {
			z.Close()
			return fmt.Errorf("pic: saving checkpoint: %v", err)
		}
		if err := z.Close(); err != nil {
			return fmt.Errorf("pic: saving checkpoint: %v", err)
		}
		return nil
	}
}

// Load returns a function that restores a checkpoint written by Save into a
// simulation whose patches, grids and species were built with the same
// configuration.
func Load(r io.Reader) DomainManipulator {
	return func(s *Simulation) error {
		z := zstd.NewReader(r)
		defer z.Close()
		var cp checkpoint
		if err := gob.NewDecoder(z).Decode(&cp); err != nil {
			return fmt.Errorf("pic: loading checkpoint: %v", err)
		}
		if len(cp.Patches) != len(s.Patches) {
			return fmt.Errorf("pic: loading checkpoint: %d patches but the simulation has %d",
				len(cp.Patches), len(s.Patches))
		}
		// The field solvers are built for s.Dt, so a simulation that already
		// has a time step must have been configured with the saved one.
		if s.Dt != 0 && math.Abs(cp.Dt-s.Dt) > 1.e-12*s.Dt {
			return fmt.Errorf("pic: loading checkpoint: time step %g but the simulation uses %g", cp.Dt, s.Dt)
		}
		s.Step, s.Dt = cp.Step, cp.Dt
		for i, ps := range cp.Patches {
			if err := s.Patches[i].restore(ps); err != nil {
				return fmt.Errorf("pic: loading checkpoint: patch %d: %v", ps.Index, err)
			}
		}
		return nil
	}
}

func (p *Patch) restore(ps patchState) error {
	if ps.Index != p.Index || ps.Grid.N != p.Grid.N || ps.Grid.Begin != p.Grid.Begin {
		return fmt.Errorf("grid %+v does not match %+v", ps.Grid, *p.Grid)
	}
	if p.EM != nil {
		for _, f := range p.EM.All() {
			data, ok := ps.Fields[f.Name]
			if !ok || len(data) != len(f.Data()) {
				return fmt.Errorf("missing or misshapen field %s", f.Name)
			}
			copy(f.Data(), data)
		}
	}
	if p.AM != nil {
		for i, mf := range p.AM.All() {
			modes, ok := ps.Modes[modeNames[i]]
			if !ok || len(modes) != len(mf) {
				return fmt.Errorf("missing mode field %s", modeNames[i])
			}
			for m, g := range mf {
				if err := restoreMode(g, modes[m]); err != nil {
					return fmt.Errorf("%s mode %d: %v", modeNames[i], m, err)
				}
			}
		}
	}
	if len(ps.Species) != len(p.Species) {
		return fmt.Errorf("%d species but the patch has %d", len(ps.Species), len(p.Species))
	}
	for i, ss := range ps.Species {
		sp := p.Species[i]
		if ss.Name != sp.Name {
			return fmt.Errorf("species %s does not match %s", ss.Name, sp.Name)
		}
		particles := ss.Particles
		sp.Particles = &particles
	}
	return nil
}

func restoreMode(g *mat.CDense, data []complex128) error {
	raw := g.RawCMatrix()
	if raw.Stride != raw.Cols || len(data) != len(raw.Data) {
		return fmt.Errorf("%d values for a %dx%d grid", len(data), raw.Rows, raw.Cols)
	}
	copy(raw.Data, data)
	return nil
}
