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
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Species is a population of particles sharing a mass.
type Species struct {
	Name string

	// Mass is the particle mass in electron masses. Zero means photons.
	Mass float64

	Particles *Particles

	// Merger, if not nil, is run every MergeEvery steps on each primal cell
	// holding at least MergeMinParticles particles.
	Merger            Merger
	MergeEvery        int
	MergeMinParticles int

	// Buffers receives the fields sampled at the particle positions.
	Buffers InterpBuffers
}

// Patch is an independently processed piece of the simulation domain.
// Cartesian patches hold EM; azimuthal-mode patches hold AM.
type Patch struct {
	Index int
	Grid  *Grid
	EM    *EMFields
	AM    *AMFields

	Species []*Species

	Interp  Interpolator
	Ampere  FieldSolver
	Faraday FieldSolver
}

// Simulation holds the current state of the model.
type Simulation struct {
	Patches []*Patch

	// Dt is the time step in units of the inverse plasma frequency.
	Dt float64

	// Step is the number of completed time steps.
	Step int

	// Done is set by a run function to end the time loop.
	Done bool

	// InitFuncs are run once by Init, RunFuncs once per step by Run and
	// CleanupFuncs once by Cleanup.
	InitFuncs, RunFuncs, CleanupFuncs []DomainManipulator
}

// DomainManipulator is a function that operates on the whole simulation.
type DomainManipulator func(s *Simulation) error

// PatchManipulator is a function that operates on one patch at the given
// time step.
type PatchManipulator func(p *Patch, step int) error

// Init runs the initialization functions.
func (s *Simulation) Init() error {
	for i, f := range s.InitFuncs {
		if err := f(s); err != nil {
			return fmt.Errorf("pic: initialization function %d: %w", i, err)
		}
	}
	return nil
}

// Run carries out the time loop until a run function sets Done.
func (s *Simulation) Run() error {
	if len(s.RunFuncs) == 0 {
		return fmt.Errorf("pic: no run functions")
	}
	for !s.Done {
		for _, f := range s.RunFuncs {
			if err := f(s); err != nil {
				return fmt.Errorf("pic: step %d: %w", s.Step, err)
			}
		}
		s.Step++
	}
	return nil
}

// Cleanup runs the cleanup functions.
func (s *Simulation) Cleanup() error {
	for _, f := range s.CleanupFuncs {
		if err := f(s); err != nil {
			return err
		}
	}
	return nil
}

// Calculations returns a function that concurrently runs a series of
// calculations on all of the patches. Patches do not share memory, so each
// one is processed by a single goroutine without locking. The first error
// encountered is returned.
func Calculations(calculators ...PatchManipulator) DomainManipulator {
	nprocs := runtime.GOMAXPROCS(0) // number of processors

	return func(s *Simulation) error {
		var wg sync.WaitGroup
		errs := make([]error, nprocs)
		wg.Add(nprocs)
		for pp := 0; pp < nprocs; pp++ {
			go func(pp int) {
				defer wg.Done()
				for ii := pp; ii < len(s.Patches); ii += nprocs {
					for _, f := range calculators {
						if err := f(s.Patches[ii], s.Step); err != nil {
							errs[pp] = fmt.Errorf("patch %d: %w", s.Patches[ii].Index, err)
							return
						}
					}
				}
			}(pp)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return err
			}
		}
		return nil
	}
}

// SampleFields interpolates E and B at the position of every particle of
// every species into the species buffers.
func SampleFields() PatchManipulator {
	return func(p *Patch, _ int) error {
		if p.Interp == nil {
			return nil
		}
		for _, sp := range p.Species {
			n := sp.Particles.Len()
			sp.Buffers.Resize(n)
			if err := p.Interp.FieldsWrapper(sp.Particles, 0, n, &sp.Buffers); err != nil {
				return fmt.Errorf("sampling %s: %w", sp.Name, err)
			}
		}
		return nil
	}
}

// SolveAmpere advances the electric field of Cartesian patches.
func SolveAmpere() PatchManipulator {
	return func(p *Patch, _ int) error {
		if p.Ampere != nil && p.EM != nil {
			p.Ampere.Solve(p.EM)
		}
		return nil
	}
}

// SolveFaraday advances the magnetic field of Cartesian patches.
func SolveFaraday() PatchManipulator {
	return func(p *Patch, _ int) error {
		if p.Faraday != nil && p.EM != nil {
			p.Faraday.Solve(p.EM)
		}
		return nil
	}
}

// MergeParticles runs the merger of each species whose merge period divides
// step. Particles are grouped by the primal cell holding them and each cell
// holding at least MergeMinParticles particles is merged separately.
func MergeParticles() PatchManipulator {
	return func(p *Patch, step int) error {
		for _, sp := range p.Species {
			if sp.Merger == nil || sp.MergeEvery < 1 || step%sp.MergeEvery != 0 {
				continue
			}
			if sp.Particles.Len() < sp.MergeMinParticles {
				continue
			}
			bounds, err := sp.Particles.SortByCell(p.particleCells(sp.Particles), p.Grid.NCells())
			if err != nil {
				return fmt.Errorf("merging %s: %w", sp.Name, err)
			}
			// Last cell first, so compaction leaves earlier ranges in place.
			for c := len(bounds) - 2; c >= 0; c-- {
				istart, iend := bounds[c], bounds[c+1]
				if iend-istart < sp.MergeMinParticles || iend == istart {
					continue
				}
				if _, err := sp.Merger.Merge(sp.Mass, sp.Particles, nil, istart, iend); err != nil {
					return fmt.Errorf("merging %s in cell %d: %w", sp.Name, c, err)
				}
			}
		}
		return nil
	}
}

// particleCells returns the primal cell holding each particle. Azimuthal-mode
// particles are located by their longitudinal position and radius.
func (p *Patch) particleCells(parts *Particles) []int {
	cells := make([]int, parts.Len())
	for i := range cells {
		x := parts.Position(i)
		if p.AM != nil {
			x = [3]float64{x[0], parts.Radius(i), 0}
		}
		cells[i] = p.Grid.Cell(x)
	}
	return cells
}

// CheckFinite returns an error if any field holds a NaN or infinite value.
func CheckFinite() DomainManipulator {
	return func(s *Simulation) error {
		for _, p := range s.Patches {
			if p.EM != nil {
				for _, f := range p.EM.All() {
					if !f.Finite() {
						return fmt.Errorf("pic: patch %d: field %s is not finite", p.Index, f.Name)
					}
				}
			}
			if p.AM != nil && !p.AM.Finite() {
				return fmt.Errorf("pic: patch %d: mode fields are not finite", p.Index)
			}
		}
		return nil
	}
}

// StepLimit ends the simulation after n steps.
func StepLimit(n int) DomainManipulator {
	return func(s *Simulation) error {
		if s.Step+1 >= n {
			s.Done = true
		}
		return nil
	}
}

// Log writes simulation status messages to l.
func Log(l logrus.FieldLogger) DomainManipulator {
	startTime := time.Now()
	timeStepTime := time.Now()

	return func(s *Simulation) error {
		var nparticles int
		var energy float64
		for _, p := range s.Patches {
			for _, sp := range p.Species {
				nparticles += sp.Particles.Len()
			}
			if p.EM != nil {
				energy += p.EM.Energy()
			}
			if p.AM != nil {
				energy += p.AM.Energy()
			}
		}
		l.WithFields(logrus.Fields{
			"step":      s.Step,
			"time":      float64(s.Step+1) * s.Dt,
			"walltime":  time.Since(startTime).Round(time.Millisecond),
			"Δwalltime": time.Since(timeStepTime).Round(time.Millisecond),
			"particles": nparticles,
			"energy":    energy,
		}).Info("step complete")
		timeStepTime = time.Now()
		return nil
	}
}
