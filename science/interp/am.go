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

// AxisEpsilon is the radius, in radial cells, below which a particle is
// treated as sitting on the axis: its azimuth is taken as zero.
const AxisEpsilon = 1.e-10

// AM interpolates azimuthal-mode fields. Particle positions are Cartesian
// (x, y, z); x is longitudinal and the radius is √(y²+z²).
type AM struct {
	grid   *pic.Grid
	am     *pic.AMFields
	invD   [2]float64
	dr     float64
	nmodes int
}

// NewAM returns an interpolator reading the mode fields am allocated on
// the two-dimensional grid g.
func NewAM(g *pic.Grid, am *pic.AMFields) (*AM, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if g.Dims != 2 {
		return nil, pic.NewConfigError("Dims", "%d but azimuthal-mode grids should be 2", g.Dims)
	}
	if am.NModes() < 1 {
		return nil, pic.NewConfigError("NModes", "%d but should be >0", am.NModes())
	}
	return &AM{
		grid:   g,
		am:     am,
		invD:   [2]float64{1 / g.CellLength[0], 1 / g.CellLength[1]},
		dr:     g.CellLength[1],
		nmodes: am.NModes(),
	}, nil
}

// amFootprint holds the stencils of one particle by axis (l, r) and
// stagger, and its e^{-iθ}.
type amFootprint struct {
	s   [2][2]Stencil
	exp complex128
}

func (a *AM) locate(p *pic.Particles, ipart int) amFootprint {
	var f amFootprint
	r := p.Radius(ipart)
	for ax, xn := range [2]float64{p.Pos[0][ipart] * a.invD[0], r * a.invD[1]} {
		prim, dual := Coeffs(xn)
		prim.Index -= a.grid.Begin[ax]
		dual.Index -= a.grid.Begin[ax]
		f.s[ax] = [2]Stencil{prim, dual}
	}
	f.exp = 1
	if r >= AxisEpsilon*a.dr {
		f.exp = complex(p.Pos[1][ipart]/r, -p.Pos[2][ipart]/r)
	}
	return f
}

// compute returns the stencil-weighted sum of mode m of fld.
func compute(fld pic.ModeField, m int, pl pic.Placement, f *amFootprint) complex128 {
	sl, sr := &f.s[0][pl[0]], &f.s[1][pl[1]]
	raw := fld[m].RawCMatrix()
	var v complex128
	for i := 0; i < 3; i++ {
		row := (sl.Index + i) * raw.Stride
		for j := 0; j < 3; j++ {
			v += complex(sl.W[i]*sr.W[j], 0) * raw.Data[row+sr.Index+j]
		}
	}
	return v
}

// sum returns the real field at the particle azimuth: the real part of mode
// 0 plus Re(F_m·e^{-imθ}) for every higher mode.
func (a *AM) sum(fld pic.ModeField, pl pic.Placement, f *amFootprint) float64 {
	v := real(compute(fld, 0, pl, f))
	expm := complex(1, 0)
	for m := 1; m < a.nmodes; m++ {
		expm *= f.exp
		v += real(compute(fld, m, pl, f) * expm)
	}
	return v
}

// rotate converts longitudinal, radial and azimuthal components to x, y, z.
func rotate(l, r, t float64, exp complex128) r3.Vec {
	return r3.Vec{
		X: l,
		Y: real(exp)*r + imag(exp)*t,
		Z: -imag(exp)*r + real(exp)*t,
	}
}

func (a *AM) eb(f *amFootprint) (e, b r3.Vec) {
	am := a.am
	e = rotate(a.sum(am.El, pic.PlaceEl, f), a.sum(am.Er, pic.PlaceEr, f), a.sum(am.Et, pic.PlaceEt, f), f.exp)
	b = rotate(a.sum(am.Bl, pic.PlaceBl, f), a.sum(am.Br, pic.PlaceBr, f), a.sum(am.Bt, pic.PlaceBt, f), f.exp)
	return
}

// Fields implements pic.Interpolator.
func (a *AM) Fields(p *pic.Particles, ipart int) (e, b r3.Vec) {
	f := a.locate(p, ipart)
	return a.eb(&f)
}

// FieldsAndCurrents implements pic.Interpolator. The current is rotated
// like the fields.
func (a *AM) FieldsAndCurrents(p *pic.Particles, ipart int) (e, b, j r3.Vec, rho float64) {
	f := a.locate(p, ipart)
	e, b = a.eb(&f)
	am := a.am
	j = rotate(a.sum(am.Jl, pic.PlaceEl, &f), a.sum(am.Jr, pic.PlaceEr, &f), a.sum(am.Jt, pic.PlaceEt, &f), f.exp)
	rho = a.sum(am.Rho, pic.PlaceRho, &f)
	return
}

// FieldsWrapper implements pic.Interpolator. IOld and Delta hold the
// (l, r) primal stencils; ExpMTheta holds e^{-iθ}.
func (a *AM) FieldsWrapper(p *pic.Particles, istart, iend int, buf *pic.InterpBuffers) error {
	if err := checkRange(p, istart, iend); err != nil {
		return err
	}
	if err := checkBuffers(buf, iend); err != nil {
		return err
	}
	for i := istart; i < iend; i++ {
		f := a.locate(p, i)
		buf.E[i], buf.B[i] = a.eb(&f)
		buf.IOld[i] = [3]int{f.s[0][pic.Primal].Index, f.s[1][pic.Primal].Index, 0}
		buf.Delta[i] = [3]float64{f.s[0][pic.Primal].Delta, f.s[1][pic.Primal].Delta, 0}
		buf.ExpMTheta[i] = f.exp
	}
	return nil
}

// OneField is not available in azimuthal-mode geometry.
func (a *AM) OneField(name string, _ *pic.Particles, _, _ int, _ []float64) error {
	return pic.Unsupported(fmt.Sprintf("interp: OneField(%s) in azimuthal-mode geometry", name))
}

// FieldsSelection is not available in azimuthal-mode geometry.
func (a *AM) FieldsSelection(_ *pic.Particles, _ []int, _, _ []r3.Vec) error {
	return pic.Unsupported("interp: FieldsSelection in azimuthal-mode geometry")
}
