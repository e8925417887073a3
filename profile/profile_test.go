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

package profile

import (
	"math"
	"testing"

	"github.com/spatialmodel/pic"
)

const testTolerance = 1.e-12

func TestProfiles(t *testing.T) {
	c, err := Constant(3, 2.5)
	if err != nil {
		t.Fatal(err)
	}
	g, err := Gaussian(4, []float64{1, -1}, []float64{2, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	cs, err := Cosine(1, 0.5, []float64{2}, []float64{math.Pi / 2})
	if err != nil {
		t.Fatal(err)
	}
	e, err := Expression(4, "sin(2*pi*x/8) * gaussian(y, 0, 2) + z**2 - t")
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := Parse(2, " 3.5e-1 ")
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		name string
		p    Profile
		x    []float64
		want float64
	}{
		{"constant", c, []float64{1, 2, 3}, 2.5},
		{"gaussian peak", g, []float64{1, -1}, 4},
		{"gaussian half width", g, []float64{2, -1}, 2},
		{"gaussian both half widths", g, []float64{0, -0.75}, 1},
		{"cosine", cs, []float64{0}, 1},
		{"cosine quarter", cs, []float64{math.Pi / 4}, 0.5},
		{"expression", e, []float64{2, 0, 3, 1}, 1 + 9 - 1},
		{"expression half width", e, []float64{2, 1, 0, 0}, 0.5},
		{"parsed", parsed, []float64{7, 8}, 0.35},
	} {
		if v := test.p.Value(test.x...); math.Abs(v-test.want) > testTolerance {
			t.Errorf("%s: %g; want %g", test.name, v, test.want)
		}
	}
	if e.NVariables() != 4 || g.NVariables() != 2 || cs.NVariables() != 1 {
		t.Errorf("nvariables %d %d %d", e.NVariables(), g.NVariables(), cs.NVariables())
	}
}

func TestProfileErrors(t *testing.T) {
	for name, f := range map[string]func() error{
		"no variables":    func() error { _, err := Constant(0, 1); return err },
		"five variables":  func() error { _, err := Expression(5, "x"); return err },
		"fwhm length":     func() error { _, err := Gaussian(1, []float64{0, 0}, []float64{1}); return err },
		"zero fwhm":       func() error { _, err := Gaussian(1, []float64{0}, []float64{0}); return err },
		"phase length":    func() error { _, err := Cosine(0, 1, []float64{1}, nil); return err },
		"unused variable": func() error { _, err := Expression(2, "x + z"); return err },
		"syntax":          func() error { _, err := Parse(1, "x + (2"); return err },
		"bad function":    func() error { _, err := Expression(1, "gaussian(x, 1)"); return err },
	} {
		err := f()
		if _, ok := err.(*pic.ConfigError); !ok {
			t.Errorf("%s: error %v should be a *pic.ConfigError", name, err)
		}
	}
}
