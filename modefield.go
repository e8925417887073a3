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
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// ModeField is a field on the (l, r) plane of an azimuthal-mode grid, stored
// as one complex grid per azimuthal mode. Mode 0 is real: its imaginary part
// is ignored by readers.
type ModeField []*mat.CDense

// NewModeField allocates nmodes zeroed complex grids with placement p on g.
func NewModeField(g *Grid, p Placement, nmodes int) ModeField {
	s := g.Shape(p)
	m := make(ModeField, nmodes)
	for i := range m {
		m[i] = mat.NewCDense(s[0], s[1], nil)
	}
	return m
}

// NModes returns the number of azimuthal modes.
func (m ModeField) NModes() int { return len(m) }

// Finite reports whether every mode of m holds only finite values.
func (m ModeField) Finite() bool {
	for _, g := range m {
		raw := g.RawCMatrix()
		for _, v := range raw.Data {
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				return false
			}
		}
	}
	return true
}

// AMFields holds the azimuthal-mode decomposition of the fields, currents
// and charge density of a cylindrical patch.
type AMFields struct {
	El, Er, Et ModeField
	Bl, Br, Bt ModeField
	Jl, Jr, Jt ModeField
	Rho        ModeField
}

// NewAMFields allocates zeroed mode fields on the two-dimensional grid g.
func NewAMFields(g *Grid, nmodes int) (*AMFields, error) {
	if g.Dims != 2 {
		return nil, NewConfigError("Dims", "%d but azimuthal-mode grids should be 2", g.Dims)
	}
	if nmodes < 1 {
		return nil, NewConfigError("NModes", "%d but should be >0", nmodes)
	}
	return &AMFields{
		El:  NewModeField(g, PlaceEl, nmodes),
		Er:  NewModeField(g, PlaceEr, nmodes),
		Et:  NewModeField(g, PlaceEt, nmodes),
		Bl:  NewModeField(g, PlaceBl, nmodes),
		Br:  NewModeField(g, PlaceBr, nmodes),
		Bt:  NewModeField(g, PlaceBt, nmodes),
		Jl:  NewModeField(g, PlaceEl, nmodes),
		Jr:  NewModeField(g, PlaceEr, nmodes),
		Jt:  NewModeField(g, PlaceEt, nmodes),
		Rho: NewModeField(g, PlaceRho, nmodes),
	}, nil
}

// NModes returns the number of azimuthal modes.
func (am *AMFields) NModes() int { return am.El.NModes() }

// All returns every mode field held by am.
func (am *AMFields) All() []ModeField {
	return []ModeField{am.El, am.Er, am.Et, am.Bl, am.Br, am.Bt,
		am.Jl, am.Jr, am.Jt, am.Rho}
}

// Energy returns ½Σ|F_m|² over the electric and magnetic mode fields,
// without cell volume factors.
func (am *AMFields) Energy() float64 {
	var e float64
	for _, f := range []ModeField{am.El, am.Er, am.Et, am.Bl, am.Br, am.Bt} {
		for m, g := range f {
			for _, v := range g.RawCMatrix().Data {
				if m == 0 {
					e += real(v) * real(v)
					continue
				}
				e += real(v)*real(v) + imag(v)*imag(v)
			}
		}
	}
	return e / 2
}

// Finite reports whether every mode field holds only finite values.
func (am *AMFields) Finite() bool {
	for _, f := range am.All() {
		if !f.Finite() {
			return false
		}
	}
	return true
}
