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
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Particles is a structure-of-arrays buffer of macro-particles. Positions
// always carry three components; components beyond the grid dimensionality
// are ignored by Cartesian kernels and hold the transverse (y, z) position
// in azimuthal-mode geometry. Momenta are in units of mc.
type Particles struct {
	Pos    [3][]float64
	Mom    [3][]float64
	Weight []float64
}

// NewParticles returns an empty buffer with room for capacity particles.
func NewParticles(capacity int) *Particles {
	p := new(Particles)
	for d := 0; d < 3; d++ {
		p.Pos[d] = make([]float64, 0, capacity)
		p.Mom[d] = make([]float64, 0, capacity)
	}
	p.Weight = make([]float64, 0, capacity)
	return p
}

// Len returns the number of particles in the buffer.
func (p *Particles) Len() int { return len(p.Weight) }

// Add appends a particle.
func (p *Particles) Add(pos [3]float64, mom r3.Vec, w float64) {
	for d := 0; d < 3; d++ {
		p.Pos[d] = append(p.Pos[d], pos[d])
	}
	p.Mom[0] = append(p.Mom[0], mom.X)
	p.Mom[1] = append(p.Mom[1], mom.Y)
	p.Mom[2] = append(p.Mom[2], mom.Z)
	p.Weight = append(p.Weight, w)
}

// Position returns the position of particle i.
func (p *Particles) Position(i int) [3]float64 {
	return [3]float64{p.Pos[0][i], p.Pos[1][i], p.Pos[2][i]}
}

// Momentum returns the momentum of particle i.
func (p *Particles) Momentum(i int) r3.Vec {
	return r3.Vec{X: p.Mom[0][i], Y: p.Mom[1][i], Z: p.Mom[2][i]}
}

// SetMomentum sets the momentum of particle i.
func (p *Particles) SetMomentum(i int, m r3.Vec) {
	p.Mom[0][i], p.Mom[1][i], p.Mom[2][i] = m.X, m.Y, m.Z
}

// Radius returns the distance of particle i from the longitudinal axis in
// azimuthal-mode geometry.
func (p *Particles) Radius(i int) float64 {
	return math.Hypot(p.Pos[1][i], p.Pos[2][i])
}

// Lorentz returns the energy of particle i in units of its rest mass energy
// for massive particles, or |p| for massless ones.
func (p *Particles) Lorentz(i int, mass float64) float64 {
	m := r3.Norm(p.Momentum(i))
	if mass == 0 {
		return m
	}
	return math.Sqrt(1 + m*m)
}

// Copy overwrites particle dst with particle src.
func (p *Particles) Copy(dst, src int) {
	for d := 0; d < 3; d++ {
		p.Pos[d][dst] = p.Pos[d][src]
		p.Mom[d][dst] = p.Mom[d][src]
	}
	p.Weight[dst] = p.Weight[src]
}

// EraseRange removes the particles in [istart, iend) and shifts the tail of
// the buffer down. The relative order of the remaining particles is kept.
func (p *Particles) EraseRange(istart, iend int) error {
	if istart < 0 || iend > p.Len() || istart > iend {
		return fmt.Errorf("pic: erasing particles [%d, %d) from a buffer of %d", istart, iend, p.Len())
	}
	if istart == iend {
		return nil
	}
	for d := 0; d < 3; d++ {
		p.Pos[d] = append(p.Pos[d][:istart], p.Pos[d][iend:]...)
		p.Mom[d] = append(p.Mom[d][:istart], p.Mom[d][iend:]...)
	}
	p.Weight = append(p.Weight[:istart], p.Weight[iend:]...)
	return nil
}

// SortByCell reorders the particles so that those of each cell are
// contiguous, keeping their relative order. cell holds the cell of every
// particle, in [0, ncells). The particles of cell c are then
// [bounds[c], bounds[c+1]).
func (p *Particles) SortByCell(cell []int, ncells int) (bounds []int, err error) {
	if len(cell) != p.Len() {
		return nil, fmt.Errorf("pic: %d cell indices for %d particles", len(cell), p.Len())
	}
	bounds = make([]int, ncells+1)
	for i, c := range cell {
		if c < 0 || c >= ncells {
			return nil, fmt.Errorf("pic: particle %d in cell %d of %d", i, c, ncells)
		}
		bounds[c+1]++
	}
	for c := 0; c < ncells; c++ {
		bounds[c+1] += bounds[c]
	}
	next := make([]int, ncells)
	copy(next, bounds[:ncells])
	sorted := NewParticles(p.Len())
	for d := 0; d < 3; d++ {
		sorted.Pos[d] = sorted.Pos[d][:p.Len()]
		sorted.Mom[d] = sorted.Mom[d][:p.Len()]
	}
	sorted.Weight = sorted.Weight[:p.Len()]
	for i, c := range cell {
		j := next[c]
		next[c]++
		for d := 0; d < 3; d++ {
			sorted.Pos[d][j] = p.Pos[d][i]
			sorted.Mom[d][j] = p.Mom[d][i]
		}
		sorted.Weight[j] = p.Weight[i]
	}
	*p = *sorted
	return bounds, nil
}

// TotalWeight returns the summed weight of the buffer.
func (p *Particles) TotalWeight() float64 { return floats.Sum(p.Weight) }

// TotalMomentum returns Σw·p over the buffer.
func (p *Particles) TotalMomentum() r3.Vec {
	var t r3.Vec
	for i, w := range p.Weight {
		t = t.Add(p.Momentum(i).Scale(w))
	}
	return t
}

// KineticEnergy returns Σw·(γ-1)·mass for massive particles and Σw·|p| for
// massless ones.
func (p *Particles) KineticEnergy(mass float64) float64 {
	var e float64
	for i, w := range p.Weight {
		if mass == 0 {
			e += w * p.Lorentz(i, 0)
			continue
		}
		m2 := r3.Norm2(p.Momentum(i))
		e += w * mass * m2 / (math.Sqrt(1+m2) + 1)
	}
	return e
}
