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

// Package interp interpolates grid fields to particle positions with
// second-order (three-point quadratic) shape functions, on Cartesian and
// azimuthal-mode grids.
package interp

import (
	"fmt"
	"math"

	"github.com/spatialmodel/pic"
)

// Stencil is the footprint of a particle along one axis for one stagger.
type Stencil struct {
	// Index is the lowest of the three grid indices the particle touches.
	Index int

	// Delta is the offset of the particle from the nearest grid point, in
	// cell units.
	Delta float64

	// W holds the weights of Index, Index+1 and Index+2.
	W [3]float64
}

// Coeffs returns the primal and dual stencils of a particle at normalized
// coordinate xn (position divided by cell length). Indices are global: the
// caller subtracts the patch origin.
func Coeffs(xn float64) (primal, dual Stencil) {
	ip := math.Round(xn)
	primal = Stencil{Index: int(ip) - 1, Delta: xn - ip}
	primal.W = weights(primal.Delta)

	id := math.Round(xn + 0.5)
	dual = Stencil{Index: int(id) - 1, Delta: xn - id + 0.5}
	dual.W = weights(dual.Delta)
	return
}

func weights(d float64) [3]float64 {
	d2 := d * d
	return [3]float64{
		0.5 * (d2 - d + 0.25),
		0.75 - d2,
		0.5 * (d2 + d + 0.25),
	}
}

// New returns the interpolator for a patch: an azimuthal-mode interpolator
// when geometry is "am" and a Cartesian one when it is "cartesian".
func New(geometry string, g *pic.Grid, em *pic.EMFields, am *pic.AMFields) (pic.Interpolator, error) {
	switch geometry {
	case "cartesian":
		if em == nil {
			return nil, pic.NewConfigError("Geometry", "cartesian but no Cartesian fields were allocated")
		}
		return NewCartesian(g, em)
	case "am":
		if am == nil {
			return nil, pic.NewConfigError("Geometry", "am but no azimuthal-mode fields were allocated")
		}
		return NewAM(g, am)
	default:
		return nil, pic.NewConfigError("Geometry", "%q but should be \"cartesian\" or \"am\"", geometry)
	}
}

func checkRange(p *pic.Particles, istart, iend int) error {
	if istart < 0 || iend > p.Len() || istart > iend {
		return fmt.Errorf("interp: particle range [%d, %d) outside a buffer of %d", istart, iend, p.Len())
	}
	return nil
}

func checkBuffers(buf *pic.InterpBuffers, iend int) error {
	if len(buf.E) < iend || len(buf.B) < iend || len(buf.IOld) < iend ||
		len(buf.Delta) < iend || len(buf.ExpMTheta) < iend {
		return fmt.Errorf("interp: buffers are too short for %d particles", iend)
	}
	return nil
}
