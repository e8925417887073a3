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

import "gonum.org/v1/gonum/spatial/r3"

// Interpolator evaluates grid fields at particle positions.
type Interpolator interface {
	// Fields returns E and B at particle ipart.
	Fields(p *Particles, ipart int) (e, b r3.Vec)

	// FieldsAndCurrents returns E, B, J and the charge density at particle
	// ipart.
	FieldsAndCurrents(p *Particles, ipart int) (e, b, j r3.Vec, rho float64)

	// FieldsWrapper interpolates E and B for particles [istart, iend) into
	// buf, which is indexed by particle number, and records the stencil
	// state needed by downstream projectors.
	FieldsWrapper(p *Particles, istart, iend int, buf *InterpBuffers) error

	// OneField interpolates a single named field for particles
	// [istart, iend) into out, indexed from 0.
	OneField(name string, p *Particles, istart, iend int, out []float64) error

	// FieldsSelection interpolates E and B for the listed particles into
	// e and b, indexed like selection.
	FieldsSelection(p *Particles, selection []int, e, b []r3.Vec) error
}

// FieldSolver advances the fields of a Cartesian patch by one time step.
type FieldSolver interface {
	Solve(em *EMFields)
}

// Merger reduces the number of particles in a range of a particle buffer
// while conserving weight, momentum and energy.
type Merger interface {
	// Merge operates on particles [istart, iend) of p. Particles whose
	// include entry is false are left untouched; a nil include selects every
	// particle. It returns the number of particles left in the range.
	Merge(mass float64, p *Particles, include []bool, istart, iend int) (int, error)
}

// InterpBuffers receives per-particle interpolation results. All slices are
// indexed by particle number.
type InterpBuffers struct {
	E, B []r3.Vec

	// IOld holds the primal lower stencil index of each particle, relative
	// to the patch.
	IOld [][3]int

	// Delta holds the primal offset of each particle from its nearest
	// primal point, in cell units.
	Delta [][3]float64

	// ExpMTheta holds e^{-iθ} of each particle in azimuthal-mode geometry.
	ExpMTheta []complex128
}

// Resize grows the buffers so that they hold at least n particles.
func (b *InterpBuffers) Resize(n int) {
	if cap(b.E) < n {
		b.E = make([]r3.Vec, n)
		b.B = make([]r3.Vec, n)
		b.IOld = make([][3]int, n)
		b.Delta = make([][3]float64, n)
		b.ExpMTheta = make([]complex128, n)
		return
	}
	b.E = b.E[:n]
	b.B = b.B[:n]
	b.IOld = b.IOld[:n]
	b.Delta = b.Delta[:n]
	b.ExpMTheta = b.ExpMTheta[:n]
}
