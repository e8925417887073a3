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

import "math"

// Grid describes the local Yee grid of one patch.
type Grid struct {
	// Dims is the number of spatial dimensions (1, 2 or 3). Azimuthal-mode
	// grids are two-dimensional: axis 0 is longitudinal and axis 1 radial.
	Dims int

	// N is the number of primal points along each axis, ghost cells
	// included. Entries at or beyond Dims are ignored.
	N [3]int

	// CellLength is the cell size along each axis.
	CellLength [3]float64

	// Begin is the global cell index of local index 0 along each axis. It is
	// negative when the patch carries ghost cells below the global origin.
	Begin [3]int
}

// NewGrid returns a grid with the given dimensionality, primal point counts
// and cell lengths, checking that they describe a usable grid.
func NewGrid(dims int, n [3]int, cellLength [3]float64) (*Grid, error) {
	g := &Grid{Dims: dims, N: n, CellLength: cellLength}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the grid for configuration errors.
func (g *Grid) Validate() error {
	if g.Dims < 1 || g.Dims > 3 {
		return NewConfigError("Dims", "%d but should be 1, 2 or 3", g.Dims)
	}
	for ax := 0; ax < g.Dims; ax++ {
		if g.N[ax] < 1 {
			return NewConfigError("N", "axis %d has %d primal points but should be >0", ax, g.N[ax])
		}
		if !(g.CellLength[ax] > 0) || math.IsInf(g.CellLength[ax], 0) {
			return NewConfigError("CellLength", "axis %d has %g but should be finite and >0", ax, g.CellLength[ax])
		}
	}
	return nil
}

// Extent returns the number of points of a field with the given stagger
// along axis. Dual extents are one larger than primal extents; axes the grid
// does not use have extent 1.
func (g *Grid) Extent(axis int, s Stagger) int {
	if axis >= g.Dims {
		return 1
	}
	if s == Dual {
		return g.N[axis] + 1
	}
	return g.N[axis]
}

// Shape returns the per-axis extents of a field with placement p.
func (g *Grid) Shape(p Placement) [3]int {
	return [3]int{g.Extent(0, p[0]), g.Extent(1, p[1]), g.Extent(2, p[2])}
}

// Position returns the coordinate of local index i with stagger s along
// axis.
func (g *Grid) Position(axis, i int, s Stagger) float64 {
	x := float64(i + g.Begin[axis])
	if s == Dual {
		x -= 0.5
	}
	return x * g.CellLength[axis]
}

// CFLTimestep returns the time step that corresponds to the Courant
// number cfl on grid g, in units where the speed of light is 1.
func CFLTimestep(g *Grid, cfl float64) float64 {
	var s float64
	for ax := 0; ax < g.Dims; ax++ {
		s += 1 / (g.CellLength[ax] * g.CellLength[ax])
	}
	return cfl / math.Sqrt(s)
}

// cells returns the number of primal cells along axis, at least one.
func (g *Grid) cells(axis int) int {
	if axis >= g.Dims || g.N[axis] < 2 {
		return 1
	}
	return g.N[axis] - 1
}

// NCells returns the number of primal cells of the grid.
func (g *Grid) NCells() int {
	return g.cells(0) * g.cells(1) * g.cells(2)
}

// Cell returns the flat index of the primal cell holding coordinates x.
// Coordinates outside of the grid are assigned to the nearest edge cell.
func (g *Grid) Cell(x [3]float64) int {
	var idx [3]int
	for ax := 0; ax < g.Dims; ax++ {
		i := int(math.Floor(x[ax]/g.CellLength[ax])) - g.Begin[ax]
		if n := g.cells(ax); i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		idx[ax] = i
	}
	return (idx[0]*g.cells(1)+idx[1])*g.cells(2) + idx[2]
}
