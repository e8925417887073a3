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

package lehe

import (
	"math"

	"github.com/spatialmodel/pic"
)

// Ampere advances E by dt·∇×B - dt·J with the plain Yee curl.
type Ampere struct {
	dt      float64
	dtOverD [3]float64
}

// NewAmpere returns a Maxwell-Ampère solver for time step dt on the
// three-dimensional grid g.
func NewAmpere(g *pic.Grid, dt float64) (*Ampere, error) {
	if g.Dims != 3 {
		return nil, pic.NewConfigError("Dims", "%d but the Ampère solver needs 3", g.Dims)
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, pic.NewConfigError("Dt", "%g but should be finite and >0", dt)
	}
	s := &Ampere{dt: dt}
	for ax := 0; ax < 3; ax++ {
		s.dtOverD[ax] = dt / g.CellLength[ax]
	}
	return s, nil
}

// Solve advances E by one time step. Every E point is updated; B is read
// forward along each derivative axis, where it has one more point than E.
func (s *Ampere) Solve(em *pic.EMFields) {
	e, b, j := em.E(), em.B(), em.J()
	for q := 0; q < 3; q++ {
		d1, d2 := (q+1)%3, (q+2)%3
		f1, f2 := b[d2], b[d1] // ∂_{d1} B_{d2} - ∂_{d2} B_{d1}
		st1, st2 := f1.Strides()[d1], f2.Strides()[d2]
		c1, c2 := s.dtOverD[d1], s.dtOverD[d2]
		eq, jq := e[q], j[q]
		edata, jdata := eq.Data(), jq.Data()
		b1, b2 := f1.Data(), f2.Data()
		shape := eq.Shape()
		for i := 0; i < shape[0]; i++ {
			for jj := 0; jj < shape[1]; jj++ {
				for k := 0; k < shape[2]; k++ {
					i1, i2 := f1.Index(i, jj, k), f2.Index(i, jj, k)
					idx := eq.Index(i, jj, k)
					edata[idx] += c1*(b1[i1+st1]-b1[i1]) - c2*(b2[i2+st2]-b2[i2]) -
						s.dt*jdata[idx]
				}
			}
		}
	}
}
