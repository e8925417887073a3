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

package interp

import (
	"fmt"

	"github.com/spatialmodel/pic"
	"gonum.org/v1/gonum/spatial/r3"
)

// Cartesian interpolates the fields of a one-, two- or three-dimensional
// Cartesian patch.
type Cartesian struct {
	grid *pic.Grid
	em   *pic.EMFields
	invD [3]float64

	// span is the number of stencil points along each axis.
	span [3]int
}

// NewCartesian returns an interpolator reading the fields em allocated on g.
func NewCartesian(g *pic.Grid, em *pic.EMFields) (*Cartesian, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	c := &Cartesian{grid: g, em: em}
	for ax := 0; ax < 3; ax++ {
		if ax < g.Dims {
			c.invD[ax] = 1 / g.CellLength[ax]
			c.span[ax] = 3
			continue
		}
		c.span[ax] = 1
	}
	return c, nil
}

// footprint holds the stencils of one particle, by axis and stagger.
type footprint [3][2]Stencil

var unused = Stencil{W: [3]float64{1, 0, 0}}

func (c *Cartesian) locate(p *pic.Particles, ipart int) footprint {
	var f footprint
	for ax := 0; ax < 3; ax++ {
		if ax >= c.grid.Dims {
			f[ax] = [2]Stencil{unused, unused}
			continue
		}
		prim, dual := Coeffs(p.Pos[ax][ipart] * c.invD[ax])
		prim.Index -= c.grid.Begin[ax]
		dual.Index -= c.grid.Begin[ax]
		f[ax] = [2]Stencil{prim, dual}
	}
	return f
}

// compute returns the stencil-weighted sum of fld around footprint f.
func (c *Cartesian) compute(fld *pic.Field, f *footprint) float64 {
	pl := fld.Placement
	sx, sy, sz := &f[0][pl[0]], &f[1][pl[1]], &f[2][pl[2]]
	data, st := fld.Data(), fld.Strides()
	var v float64
	for a := 0; a < c.span[0]; a++ {
		ia := (sx.Index + a) * st[0]
		for b := 0; b < c.span[1]; b++ {
			ib := ia + (sy.Index+b)*st[1]
			wab := sx.W[a] * sy.W[b]
			for k := 0; k < c.span[2]; k++ {
				v += wab * sz.W[k] * data[ib+(sz.Index+k)*st[2]]
			}
		}
	}
	return v
}

func (c *Cartesian) eb(f *footprint) (e, b r3.Vec) {
	em := c.em
	e = r3.Vec{X: c.compute(em.Ex, f), Y: c.compute(em.Ey, f), Z: c.compute(em.Ez, f)}
	b = r3.Vec{X: c.compute(em.Bx, f), Y: c.compute(em.By, f), Z: c.compute(em.Bz, f)}
	return
}

// Fields implements pic.Interpolator.
func (c *Cartesian) Fields(p *pic.Particles, ipart int) (e, b r3.Vec) {
	f := c.locate(p, ipart)
	return c.eb(&f)
}

// FieldsAndCurrents implements pic.Interpolator.
func (c *Cartesian) FieldsAndCurrents(p *pic.Particles, ipart int) (e, b, j r3.Vec, rho float64) {
	f := c.locate(p, ipart)
	e, b = c.eb(&f)
	em := c.em
	j = r3.Vec{X: c.compute(em.Jx, &f), Y: c.compute(em.Jy, &f), Z: c.compute(em.Jz, &f)}
	rho = c.compute(em.Rho, &f)
	return
}

// FieldsWrapper implements pic.Interpolator. ExpMTheta is set to 1.
func (c *Cartesian) FieldsWrapper(p *pic.Particles, istart, iend int, buf *pic.InterpBuffers) error {
	if err := checkRange(p, istart, iend); err != nil {
		return err
	}
	if err := checkBuffers(buf, iend); err != nil {
		return err
	}
	for i := istart; i < iend; i++ {
		f := c.locate(p, i)
		buf.E[i], buf.B[i] = c.eb(&f)
		for ax := 0; ax < 3; ax++ {
			buf.IOld[i][ax] = f[ax][pic.Primal].Index
			buf.Delta[i][ax] = f[ax][pic.Primal].Delta
		}
		buf.ExpMTheta[i] = 1
	}
	return nil
}

// OneField implements pic.Interpolator.
func (c *Cartesian) OneField(name string, p *pic.Particles, istart, iend int, out []float64) error {
	fld := c.em.Get(name)
	if fld == nil {
		return fmt.Errorf("interp: no field named %q", name)
	}
	if err := checkRange(p, istart, iend); err != nil {
		return err
	}
	if len(out) < iend-istart {
		return fmt.Errorf("interp: output of length %d for %d particles", len(out), iend-istart)
	}
	for i := istart; i < iend; i++ {
		f := c.locate(p, i)
		out[i-istart] = c.compute(fld, &f)
	}
	return nil
}

// FieldsSelection implements pic.Interpolator.
func (c *Cartesian) FieldsSelection(p *pic.Particles, selection []int, e, b []r3.Vec) error {
	if len(e) < len(selection) || len(b) < len(selection) {
		return fmt.Errorf("interp: outputs of length %d and %d for %d particles", len(e), len(b), len(selection))
	}
	for k, i := range selection {
		if i < 0 || i >= p.Len() {
			return fmt.Errorf("interp: particle %d outside a buffer of %d", i, p.Len())
		}
		e[k], b[k] = c.Fields(p, i)
	}
	return nil
}
