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

package vranic

import "math"

// bins is a regular momentum-space grid spanning the coordinates of the
// particles being merged.
type bins struct {
	n     [3]int
	min   [3]float64
	width [3]float64 // zero along collapsed axes
}

// cellList lists particle numbers grouped by cell: the particles of cell c
// are order[start[c]:end[c]].
type cellList struct {
	order      []int
	start, end []int
}

// newBins returns a grid with dims cells per axis covering coords. Axes
// along which the coordinates do not vary collapse to a single cell.
func newBins(dims [3]int, coords [][3]float64) *bins {
	b := new(bins)
	for ax := 0; ax < 3; ax++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, c := range coords {
			lo = math.Min(lo, c[ax])
			hi = math.Max(hi, c[ax])
		}
		b.min[ax] = lo
		b.n[ax] = 1
		scale := math.Max(1, math.Max(math.Abs(lo), math.Abs(hi)))
		if hi-lo > 1.e-12*scale {
			b.n[ax] = dims[ax]
			b.width[ax] = (hi - lo) / float64(dims[ax])
		}
	}
	return b
}

// ncells returns the number of cells in the grid.
func (b *bins) ncells() int { return b.n[0] * b.n[1] * b.n[2] }

// index returns the cell holding coordinate c.
func (b *bins) index(c [3]float64) int {
	var i [3]int
	for ax := 0; ax < 3; ax++ {
		if b.width[ax] == 0 {
			continue
		}
		i[ax] = int((c[ax] - b.min[ax]) / b.width[ax])
		if i[ax] >= b.n[ax] {
			i[ax] = b.n[ax] - 1
		}
		if i[ax] < 0 {
			i[ax] = 0
		}
	}
	return (i[0]*b.n[1]+i[1])*b.n[2] + i[2]
}

// center returns the coordinates of the center of cell.
func (b *bins) center(cell int) [3]float64 {
	i := [3]int{cell / (b.n[1] * b.n[2]), (cell / b.n[2]) % b.n[1], cell % b.n[2]}
	var c [3]float64
	for ax := 0; ax < 3; ax++ {
		c[ax] = b.min[ax] + (float64(i[ax])+0.5)*b.width[ax]
	}
	return c
}

// sort groups the particles with the given coordinates by cell, keeping
// their relative order within each cell.
func (b *bins) sort(coords [][3]float64) cellList {
	nc := b.ncells()
	cell := make([]int, len(coords))
	count := make([]int, nc)
	for k, c := range coords {
		cell[k] = b.index(c)
		count[cell[k]]++
	}
	l := cellList{
		order: make([]int, len(coords)),
		start: make([]int, nc),
		end:   make([]int, nc),
	}
	var pos int
	for c := 0; c < nc; c++ {
		l.start[c] = pos
		l.end[c] = pos
		pos += count[c]
	}
	for k, c := range cell {
		l.order[l.end[c]] = k
		l.end[c]++
	}
	return l
}
