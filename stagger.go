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

// Package pic holds the shared data model and the time-step driver of a
// particle-in-cell kernel: staggered Yee grids, real and azimuthal-mode
// field containers, particle buffers and the interfaces implemented by the
// field solvers, interpolators and particle mergers in the science
// subpackages.
package pic

import "fmt"

// Stagger is the position of a field along one axis of a Yee grid.
type Stagger int

// Primal points sit on cell nodes; Dual points sit half a cell below them
// and there is one more of them per axis.
const (
	Primal Stagger = iota
	Dual
)

func (s Stagger) String() string {
	switch s {
	case Primal:
		return "p"
	case Dual:
		return "d"
	default:
		return fmt.Sprintf("Stagger(%d)", int(s))
	}
}

// Placement is the per-axis staggering of a field.
type Placement [3]Stagger

func (p Placement) String() string {
	return fmt.Sprintf("(%v,%v,%v)", p[0], p[1], p[2])
}

// Cartesian Yee placements.
var (
	PlaceEx  = Placement{Dual, Primal, Primal}
	PlaceEy  = Placement{Primal, Dual, Primal}
	PlaceEz  = Placement{Primal, Primal, Dual}
	PlaceBx  = Placement{Primal, Dual, Dual}
	PlaceBy  = Placement{Dual, Primal, Dual}
	PlaceBz  = Placement{Dual, Dual, Primal}
	PlaceRho = Placement{Primal, Primal, Primal}
)

// Azimuthal-mode placements on the (l, r) plane. The third axis is unused.
var (
	PlaceEl = Placement{Dual, Primal, Primal}
	PlaceEr = Placement{Primal, Dual, Primal}
	PlaceEt = Placement{Primal, Primal, Primal}
	PlaceBl = Placement{Primal, Dual, Primal}
	PlaceBr = Placement{Dual, Primal, Primal}
	PlaceBt = Placement{Dual, Dual, Primal}
)

// PlaceE returns the placement of the electric field (or current) component
// along axis q of a Cartesian grid.
func PlaceE(q int) Placement {
	var p Placement
	p[q] = Dual
	return p
}

// PlaceB returns the placement of the magnetic field component along axis q
// of a Cartesian grid.
func PlaceB(q int) Placement {
	p := Placement{Dual, Dual, Dual}
	p[q] = Primal
	return p
}
