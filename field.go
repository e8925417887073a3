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
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// Field is a real field on a Cartesian Yee grid. Its shape is fixed at
// construction.
type Field struct {
	Name      string
	Placement Placement

	data    *sparse.DenseArray
	strides [3]int
}

// NewField allocates a zeroed field with placement p on grid g.
func NewField(name string, g *Grid, p Placement) *Field {
	s := g.Shape(p)
	return &Field{
		Name:      name,
		Placement: p,
		data:      sparse.ZerosDense(s[0], s[1], s[2]),
		strides:   [3]int{s[1] * s[2], s[2], 1},
	}
}

// Shape returns the extents of the field along each axis.
func (f *Field) Shape() [3]int {
	return [3]int{f.data.Shape[0], f.data.Shape[1], f.data.Shape[2]}
}

// Strides returns the offsets in Data between neighbors along each axis.
func (f *Field) Strides() [3]int { return f.strides }

// Data returns the row-major backing slice of the field.
func (f *Field) Data() []float64 { return f.data.Elements }

// Index returns the position of (i, j, k) in Data.
func (f *Field) Index(i, j, k int) int {
	return i*f.strides[0] + j*f.strides[1] + k*f.strides[2]
}

// At returns the value at (i, j, k).
func (f *Field) At(i, j, k int) float64 {
	return f.data.Elements[f.Index(i, j, k)]
}

// Set sets the value at (i, j, k).
func (f *Field) Set(i, j, k int, v float64) {
	f.data.Elements[f.Index(i, j, k)] = v
}

// Add adds v to the value at (i, j, k).
func (f *Field) Add(i, j, k int, v float64) {
	f.data.Elements[f.Index(i, j, k)] += v
}

// Fill sets every point to v.
func (f *Field) Fill(v float64) {
	for i := range f.data.Elements {
		f.data.Elements[i] = v
	}
}

// Copy returns a deep copy of f.
func (f *Field) Copy() *Field {
	return &Field{
		Name:      f.Name,
		Placement: f.Placement,
		data:      f.data.Copy(),
		strides:   f.strides,
	}
}

// Sum returns the sum over all points.
func (f *Field) Sum() float64 { return f.data.Sum() }

// AbsMax returns the largest absolute value in the field.
func (f *Field) AbsMax() float64 { return f.data.AbsMax() }

// Finite reports whether every value in the field is finite.
func (f *Field) Finite() bool {
	for _, v := range f.data.Elements {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// EMFields holds the electromagnetic fields, currents and charge density of
// a Cartesian patch.
type EMFields struct {
	Ex, Ey, Ez *Field
	Bx, By, Bz *Field
	Jx, Jy, Jz *Field
	Rho        *Field
}

// NewEMFields allocates zeroed fields on g.
func NewEMFields(g *Grid) *EMFields {
	return &EMFields{
		Ex:  NewField("Ex", g, PlaceEx),
		Ey:  NewField("Ey", g, PlaceEy),
		Ez:  NewField("Ez", g, PlaceEz),
		Bx:  NewField("Bx", g, PlaceBx),
		By:  NewField("By", g, PlaceBy),
		Bz:  NewField("Bz", g, PlaceBz),
		Jx:  NewField("Jx", g, PlaceEx),
		Jy:  NewField("Jy", g, PlaceEy),
		Jz:  NewField("Jz", g, PlaceEz),
		Rho: NewField("Rho", g, PlaceRho),
	}
}

// E returns the electric field components in axis order.
func (em *EMFields) E() [3]*Field { return [3]*Field{em.Ex, em.Ey, em.Ez} }

// B returns the magnetic field components in axis order.
func (em *EMFields) B() [3]*Field { return [3]*Field{em.Bx, em.By, em.Bz} }

// J returns the current density components in axis order.
func (em *EMFields) J() [3]*Field { return [3]*Field{em.Jx, em.Jy, em.Jz} }

// All returns every field held by em.
func (em *EMFields) All() []*Field {
	return []*Field{em.Ex, em.Ey, em.Ez, em.Bx, em.By, em.Bz,
		em.Jx, em.Jy, em.Jz, em.Rho}
}

// Get returns the field with the given name, or nil if there is none.
func (em *EMFields) Get(name string) *Field {
	for _, f := range em.All() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Energy returns the electromagnetic energy density summed over all points,
// ½Σ(E²+B²), without cell volume factors.
func (em *EMFields) Energy() float64 {
	var e float64
	for _, f := range []*Field{em.Ex, em.Ey, em.Ez, em.Bx, em.By, em.Bz} {
		e += floats.Dot(f.Data(), f.Data())
	}
	return e / 2
}
