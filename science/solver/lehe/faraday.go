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

// Faraday advances B by -dt·∇×E. Points far enough from the edges of the
// propagation axis use the modified stencil; the points on those edges use
// the plain two-point curl.
type Faraday struct {
	coeffs  Coefficients
	dtOverD [3]float64

	// interior and edges hold the loop bounds of each B component.
	interior [3]region
	edges    [3][]region
}

// region is a half-open box of grid indices.
type region struct {
	lo, hi [3]int
}

// NewFaraday returns a solver for time step dt on the three-dimensional grid
// g. Fields passed to Solve must be allocated on g.
func NewFaraday(g *pic.Grid, dt float64, coeffs Coefficients) (*Faraday, error) {
	if g.Dims != 3 {
		return nil, pic.NewConfigError("Dims", "%d but the Faraday solver needs 3", g.Dims)
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, pic.NewConfigError("Dt", "%g but should be finite and >0", dt)
	}
	if coeffs.Axis < 0 || coeffs.Axis > 2 {
		return nil, pic.NewConfigError("Axis", "%d but should be 0, 1 or 2", coeffs.Axis)
	}
	for ax := 0; ax < 3; ax++ {
		if g.N[ax] < 3 {
			return nil, pic.NewConfigError("N", "axis %d has %d primal points but the stencil needs at least 3", ax, g.N[ax])
		}
	}
	s := &Faraday{coeffs: coeffs}
	for ax := 0; ax < 3; ax++ {
		s.dtOverD[ax] = dt / g.CellLength[ax]
	}
	a := coeffs.Axis
	for q := 0; q < 3; q++ {
		var r region
		for ax := 0; ax < 3; ax++ {
			np, nd := g.Extent(ax, pic.Primal), g.Extent(ax, pic.Dual)
			switch {
			case ax == q:
				r.lo[ax], r.hi[ax] = 1, np-1
			case ax == a:
				r.lo[ax], r.hi[ax] = 2, nd-2
			default:
				r.lo[ax], r.hi[ax] = 1, nd-1
			}
		}
		s.interior[q] = r

		// Edge points along the propagation axis keep the interior
		// bounds along the transverse axes. With the axis along x, the
		// usual edge loops for By run over j in [0, ny_p) and k in
		// [2, nz_d-2) instead; here the edge rows match the interior ones
		// so every edge point has all of its stencil neighbors.
		np, nd := g.Extent(a, pic.Primal), g.Extent(a, pic.Dual)
		first, last := 1, nd-2
		if q == a {
			first, last = 0, np-1
		}
		for _, i := range []int{first, last} {
			e := r
			e.lo[a], e.hi[a] = i, i+1
			s.edges[q] = append(s.edges[q], e)
			if first == last {
				break
			}
		}
	}
	return s, nil
}

// Coefficients returns the stencil coefficients of s.
func (s *Faraday) Coefficients() Coefficients { return s.coeffs }

// Solve advances B by one time step: the interior pass followed by the edge
// pass.
func (s *Faraday) Solve(em *pic.EMFields) {
	s.Interior(em)
	s.Edges(em)
}

// Interior applies the modified stencil away from the edges of the
// propagation axis.
func (s *Faraday) Interior(em *pic.EMFields) {
	e, b := em.E(), em.B()
	for q := 0; q < 3; q++ {
		s.curl(b[q], e, q, s.interior[q], s.modified)
	}
}

// Edges applies the plain curl on the first and last B points along the
// propagation axis.
func (s *Faraday) Edges(em *pic.EMFields) {
	e, b := em.E(), em.B()
	for q := 0; q < 3; q++ {
		for _, r := range s.edges[q] {
			s.curl(b[q], e, q, r, plain)
		}
	}
}

// diffFunc returns the undivided backward difference of f along axis d at
// flat index idx.
type diffFunc func(f *pic.Field, d, idx int) float64

// curl subtracts dt·(∇×E)_q from bq over region r.
func (s *Faraday) curl(bq *pic.Field, e [3]*pic.Field, q int, r region, diff diffFunc) {
	d1, d2 := (q+1)%3, (q+2)%3
	f1, f2 := e[d2], e[d1] // ∂_{d1} E_{d2} - ∂_{d2} E_{d1}
	c1, c2 := s.dtOverD[d1], s.dtOverD[d2]
	bdata := bq.Data()
	for i := r.lo[0]; i < r.hi[0]; i++ {
		for j := r.lo[1]; j < r.hi[1]; j++ {
			for k := r.lo[2]; k < r.hi[2]; k++ {
				bdata[bq.Index(i, j, k)] -= c1*diff(f1, d1, f1.Index(i, j, k)) -
					c2*diff(f2, d2, f2.Index(i, j, k))
			}
		}
	}
}

func (s *Faraday) modified(f *pic.Field, d, idx int) float64 {
	data := f.Data()
	st := f.Strides()
	sd := st[d]
	c := &s.coeffs
	v := c.Alpha[d] * (data[idx] - data[idx-sd])
	for t := 0; t < 3; t++ {
		b := c.Beta[d][t]
		if t == d || b == 0 {
			continue
		}
		o := st[t]
		v += b * (data[idx+o] - data[idx+o-sd] + data[idx-o] - data[idx-o-sd])
	}
	if c.Delta[d] != 0 {
		v += c.Delta[d] * (data[idx+sd] - data[idx-2*sd])
	}
	return v
}

func plain(f *pic.Field, d, idx int) float64 {
	data := f.Data()
	return data[idx] - data[idx-f.Strides()[d]]
}
