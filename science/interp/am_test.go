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
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/spatialmodel/pic"
	"gonum.org/v1/gonum/spatial/r3"
)

func fillMode(f pic.ModeField, m int, v complex128) {
	r, c := f[m].Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			f[m].Set(i, j, v)
		}
	}
}

func testAM(t *testing.T, nmodes int) (*pic.AMFields, *AM) {
	g, err := pic.NewGrid(2, [3]int{10, 8}, [3]float64{0.5, 1})
	if err != nil {
		t.Fatal(err)
	}
	g.Begin = [3]int{-2, -2}
	am, err := pic.NewAMFields(g, nmodes)
	if err != nil {
		t.Fatal(err)
	}
	a, err := NewAM(g, am)
	if err != nil {
		t.Fatal(err)
	}
	return am, a
}

func polar(x, r, theta float64) [3]float64 {
	return [3]float64{x, r * math.Cos(theta), r * math.Sin(theta)}
}

func TestAMOnAxisScenario(t *testing.T) {
	am, a := testAM(t, 2)
	fillMode(am.Bl, 0, 7)
	p := pic.NewParticles(2)
	p.Add(polar(1.3, 0.5, math.Pi/4), r3.Vec{}, 1)
	p.Add(polar(1.3, 0, 0), r3.Vec{}, 1)
	for i := 0; i < p.Len(); i++ {
		e, b := a.Fields(p, i)
		if absDifferent(b.X, 7, testTolerance) {
			t.Errorf("particle %d: Bl = %g; want 7", i, b.X)
		}
		for _, v := range []float64{e.X, e.Y, e.Z, b.Y, b.Z} {
			if v != 0 {
				t.Errorf("particle %d: E=%v B=%v", i, e, b)
			}
		}
	}
}

// Test whether a uniform mode-0 field gives the same local components at
// every azimuth.
func TestAMConstant(t *testing.T) {
	const c = 2.5
	am, a := testAM(t, 3)
	for _, f := range am.All() {
		fillMode(f, 0, complex(c, 99)) // imaginary part of mode 0 is ignored
	}
	p := pic.NewParticles(100)
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		p.Add(polar(r.Float64()*2, r.Float64()*3, r.Float64()*2*math.Pi), r3.Vec{}, 1)
	}
	buf := new(pic.InterpBuffers)
	buf.Resize(p.Len())
	if err := a.FieldsWrapper(p, 0, p.Len(), buf); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < p.Len(); i++ {
		e, b, j, rho := a.FieldsAndCurrents(p, i)
		if e != buf.E[i] || b != buf.B[i] {
			t.Errorf("wrapper particle %d: %v %v; want %v %v", i, buf.E[i], buf.B[i], e, b)
		}
		exp := buf.ExpMTheta[i]
		cos, sin := real(exp), -imag(exp)
		for _, v := range []r3.Vec{e, b, j} {
			l, rad, az := v.X, cos*v.Y+sin*v.Z, -sin*v.Y+cos*v.Z
			for _, x := range []float64{l, rad, az} {
				if absDifferent(x, c, testTolerance) {
					t.Errorf("particle %d: local components (%g, %g, %g); want %g", i, l, rad, az, c)
				}
			}
		}
		if absDifferent(rho, c, testTolerance) {
			t.Errorf("particle %d: rho = %g", i, rho)
		}
	}
}

func TestAMModes(t *testing.T) {
	am, a := testAM(t, 3)
	fillMode(am.El, 1, complex(2, 3))
	fillMode(am.El, 2, complex(-1, 0.5))
	fillMode(am.Rho, 1, complex(0, 1))
	fillMode(am.Er, 1, complex(1, 0))
	p := pic.NewParticles(1)
	const theta = 0.7
	p.Add(polar(1, 1.7, theta), r3.Vec{}, 1)
	_, _, _, rho := a.FieldsAndCurrents(p, 0)
	e, _ := a.Fields(p, 0)

	em1 := complex(math.Cos(theta), -math.Sin(theta))
	wantL := real(complex(2, 3)*em1) + real(complex(-1, 0.5)*em1*em1)
	if absDifferent(e.X, wantL, testTolerance) {
		t.Errorf("El = %g; want %g", e.X, wantL)
	}
	if absDifferent(rho, math.Sin(theta), testTolerance) {
		t.Errorf("rho = %g; want %g", rho, math.Sin(theta))
	}
	// Er = cos θ, Et = 0.
	er := math.Cos(theta)
	if absDifferent(e.Y, er*math.Cos(theta), testTolerance) || absDifferent(e.Z, er*math.Sin(theta), testTolerance) {
		t.Errorf("E = %v", e)
	}
}

func TestAMUnsupported(t *testing.T) {
	_, a := testAM(t, 1)
	p := pic.NewParticles(1)
	p.Add(polar(1, 1, 0), r3.Vec{}, 1)
	if err := a.OneField("El", p, 0, 1, make([]float64, 1)); !errors.Is(err, pic.ErrUnsupported) {
		t.Errorf("OneField error %v", err)
	}
	if err := a.FieldsSelection(p, []int{0}, make([]r3.Vec, 1), make([]r3.Vec, 1)); !errors.Is(err, pic.ErrUnsupported) {
		t.Errorf("FieldsSelection error %v", err)
	}
}
