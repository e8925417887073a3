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
	"math/rand"
	"testing"

	"github.com/spatialmodel/pic"
)

const testTolerance = 1.e-12

func absDifferent(a, b, tolerance float64) bool {
	if math.Abs(a-b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func testGrid(t *testing.T, n [3]int, dl [3]float64) *pic.Grid {
	g, err := pic.NewGrid(3, n, dl)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func randomize(r *rand.Rand, fields ...*pic.Field) {
	for _, f := range fields {
		d := f.Data()
		for i := range d {
			d[i] = r.Float64()*2 - 1
		}
	}
}

func TestLeheCoefficients(t *testing.T) {
	g := testGrid(t, [3]int{8, 8, 8}, [3]float64{1, 2, 0.5})
	const dt = 0.4
	c, err := LeheCoefficients(g, dt, 0)
	if err != nil {
		t.Fatal(err)
	}
	s := math.Sin(math.Pi*dt/2) / dt
	delta := (1 - s*s) / 4
	want := Coefficients{
		Axis: 0,
		Alpha: [3]float64{
			1 - 2*(1./32) - 2*(4./8) - 3*delta,
			0.75,
			0.75,
		},
		Beta: [3][3]float64{
			{0, 1. / 32, 4. / 8},
			{1. / 8, 0, 0},
			{1. / 8, 0, 0},
		},
		Delta: [3]float64{delta, 0, 0},
	}
	for d := 0; d < 3; d++ {
		if absDifferent(c.Alpha[d], want.Alpha[d], testTolerance) {
			t.Errorf("alpha[%d] = %g; want %g", d, c.Alpha[d], want.Alpha[d])
		}
		if absDifferent(c.Delta[d], want.Delta[d], testTolerance) {
			t.Errorf("delta[%d] = %g; want %g", d, c.Delta[d], want.Delta[d])
		}
		for tt := 0; tt < 3; tt++ {
			if absDifferent(c.Beta[d][tt], want.Beta[d][tt], testTolerance) {
				t.Errorf("beta[%d][%d] = %g; want %g", d, tt, c.Beta[d][tt], want.Beta[d][tt])
			}
		}
	}

	// Along y the ratios invert.
	c, err = LeheCoefficients(g, dt, 1)
	if err != nil {
		t.Fatal(err)
	}
	if absDifferent(c.Beta[1][0], 4./8, testTolerance) || absDifferent(c.Beta[1][2], 16./8, testTolerance) {
		t.Errorf("beta along y = %v", c.Beta[1])
	}
	if c.Beta[0][1] != 1./8 || c.Beta[0][2] != 0 || c.Delta[0] != 0 {
		t.Errorf("transverse coefficients along y = %v", c)
	}
}

func TestConfigErrors(t *testing.T) {
	g2, err := pic.NewGrid(2, [3]int{8, 8}, [3]float64{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	g3 := testGrid(t, [3]int{8, 8, 8}, [3]float64{1, 1, 1})
	small := testGrid(t, [3]int{8, 2, 8}, [3]float64{1, 1, 1})
	for name, f := range map[string]func() error{
		"2d coefficients": func() error { _, err := LeheCoefficients(g2, 0.5, 0); return err },
		"bad axis":        func() error { _, err := LeheCoefficients(g3, 0.5, 3); return err },
		"bad dt":          func() error { _, err := LeheCoefficients(g3, 0, 0); return err },
		"2d faraday":      func() error { _, err := NewFaraday(g2, 0.5, YeeCoefficients()); return err },
		"small grid":      func() error { _, err := NewFaraday(small, 0.5, YeeCoefficients()); return err },
		"2d ampere":       func() error { _, err := NewAmpere(g2, 0.5); return err },
	} {
		err := f()
		if _, ok := err.(*pic.ConfigError); !ok {
			t.Errorf("%s: error %v should be a *pic.ConfigError", name, err)
		}
	}
}

// Test whether the plain leapfrog update keeps the magnetic field
// divergence-free.
func TestYeeDivergence(t *testing.T) {
	g := testGrid(t, [3]int{10, 9, 8}, [3]float64{1, 0.8, 1.3})
	em := pic.NewEMFields(g)
	randomize(rand.New(rand.NewSource(1)), em.Ex, em.Ey, em.Ez)
	s, err := NewFaraday(g, 0.3, YeeCoefficients())
	if err != nil {
		t.Fatal(err)
	}
	for step := 0; step < 3; step++ {
		s.Solve(em)
	}
	dl := g.CellLength
	nx, ny, nz := g.N[0], g.N[1], g.N[2]
	for i := 1; i < nx; i++ {
		for j := 2; j < ny-1; j++ {
			for k := 2; k < nz-1; k++ {
				div := (em.Bx.At(i, j, k)-em.Bx.At(i-1, j, k))/dl[0] +
					(em.By.At(i, j, k)-em.By.At(i, j-1, k))/dl[1] +
					(em.Bz.At(i, j, k)-em.Bz.At(i, j, k-1))/dl[2]
				if absDifferent(div, 0, testTolerance) {
					t.Errorf("div B at (%d,%d,%d) = %g", i, j, k, div)
				}
			}
		}
	}
}

// Test the interior stencil against the update written out in full for By
// and Bx with dispersion reduced along x.
func TestLeheInterior(t *testing.T) {
	g := testGrid(t, [3]int{9, 7, 8}, [3]float64{1, 1.5, 0.7})
	const dt = 0.45
	em := pic.NewEMFields(g)
	r := rand.New(rand.NewSource(2))
	randomize(r, em.Ex, em.Ey, em.Ez, em.Bx, em.By, em.Bz)
	old := pic.NewEMFields(g)
	old.Bx, old.By = em.Bx.Copy(), em.By.Copy()

	c, err := LeheCoefficients(g, dt, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewFaraday(g, dt, c)
	if err != nil {
		t.Fatal(err)
	}
	s.Interior(em)

	ax, ay, d := c.Alpha[0], c.Alpha[1], c.Delta[0]
	bxy, bxz, byx := c.Beta[0][1], c.Beta[0][2], c.Beta[1][0]
	dx, dy, dz := g.CellLength[0], g.CellLength[1], g.CellLength[2]
	Ex, Ey, Ez := em.Ex.At, em.Ey.At, em.Ez.At
	nxp, nyp, nzp := g.N[0], g.N[1], g.N[2]
	nxd, nyd, nzd := nxp+1, nyp+1, nzp+1

	for i := 2; i < nxd-2; i++ {
		for j := 1; j < nyp-1; j++ {
			for k := 1; k < nzd-1; k++ {
				want := old.By.At(i, j, k) +
					dt/dx*(ax*(Ez(i, j, k)-Ez(i-1, j, k))+
						bxy*(Ez(i, j+1, k)-Ez(i-1, j+1, k)+Ez(i, j-1, k)-Ez(i-1, j-1, k))+
						bxz*(Ez(i, j, k+1)-Ez(i-1, j, k+1)+Ez(i, j, k-1)-Ez(i-1, j, k-1))+
						d*(Ez(i+1, j, k)-Ez(i-2, j, k))) -
					dt/dz*(ay*(Ex(i, j, k)-Ex(i, j, k-1))+
						byx*(Ex(i+1, j, k)-Ex(i+1, j, k-1)+Ex(i-1, j, k)-Ex(i-1, j, k-1)))
				if absDifferent(em.By.At(i, j, k), want, testTolerance) {
					t.Fatalf("By(%d,%d,%d) = %g; want %g", i, j, k, em.By.At(i, j, k), want)
				}
			}
		}
	}
	for i := 1; i < nxp-1; i++ {
		for j := 1; j < nyd-1; j++ {
			for k := 1; k < nzd-1; k++ {
				want := old.Bx.At(i, j, k) -
					dt/dy*(ay*(Ez(i, j, k)-Ez(i, j-1, k))+
						byx*(Ez(i+1, j, k)-Ez(i+1, j-1, k)+Ez(i-1, j, k)-Ez(i-1, j-1, k))) +
					dt/dz*(ay*(Ey(i, j, k)-Ey(i, j, k-1))+
						byx*(Ey(i+1, j, k)-Ey(i+1, j, k-1)+Ey(i-1, j, k)-Ey(i-1, j, k-1)))
				if absDifferent(em.Bx.At(i, j, k), want, testTolerance) {
					t.Fatalf("Bx(%d,%d,%d) = %g; want %g", i, j, k, em.Bx.At(i, j, k), want)
				}
			}
		}
	}
}

// Test a field that varies only along the propagation axis.
func TestLehePlaneWave(t *testing.T) {
	g := testGrid(t, [3]int{16, 5, 5}, [3]float64{1, 1, 1})
	const (
		dt     = 0.5
		lambda = 8.
	)
	c, err := LeheCoefficients(g, dt, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewFaraday(g, dt, c)
	if err != nil {
		t.Fatal(err)
	}
	wave := func(f *pic.Field) {
		sh := f.Shape()
		for i := 0; i < sh[0]; i++ {
			x := g.Position(0, i, f.Placement[0])
			for j := 0; j < sh[1]; j++ {
				for k := 0; k < sh[2]; k++ {
					f.Set(i, j, k, math.Sin(2*math.Pi*x/lambda))
				}
			}
		}
	}

	t.Run("no electric field", func(t *testing.T) {
		em := pic.NewEMFields(g)
		wave(em.By)
		old := em.By.Copy()
		s.Solve(em)
		for i, v := range em.By.Data() {
			if v != old.Data()[i] {
				t.Fatalf("By changed at %d: %g != %g", i, v, old.Data()[i])
			}
		}
	})

	t.Run("Ez wave", func(t *testing.T) {
		em := pic.NewEMFields(g)
		wave(em.Ez)
		wave(em.By)
		old := em.By.Copy()
		s.Solve(em)
		ez := func(i int) float64 { return em.Ez.At(i, 2, 2) }
		a := c.Alpha[0] + 2*c.Beta[0][1] + 2*c.Beta[0][2]
		nd := g.N[0] + 1
		for i := 2; i < nd-2; i++ {
			want := old.At(i, 2, 2) + dt*(a*(ez(i)-ez(i-1))+c.Delta[0]*(ez(i+1)-ez(i-2)))
			if absDifferent(em.By.At(i, 2, 2), want, testTolerance) {
				t.Errorf("By(%d) = %g; want %g", i, em.By.At(i, 2, 2), want)
			}
		}
		// The edges use the plain curl, which differs from the stencil
		// evaluated with missing neighbors taken as zero.
		for _, i := range []int{1, nd - 2} {
			want := old.At(i, 2, 2) + dt*(ez(i)-ez(i-1))
			if absDifferent(em.By.At(i, 2, 2), want, testTolerance) {
				t.Errorf("edge By(%d) = %g; want %g", i, em.By.At(i, 2, 2), want)
			}
		}
		padded := old.At(1, 2, 2) + dt*(a*(ez(1)-ez(0))+c.Delta[0]*(ez(2)-0))
		if !absDifferent(em.By.At(1, 2, 2), padded, 1.e-6) {
			t.Errorf("edge By(1) = %g matches the zero-padded stencil", em.By.At(1, 2, 2))
		}
	})
}

// Test that the edge pass applies the plain curl to random fields.
func TestEdgesPlainCurl(t *testing.T) {
	g := testGrid(t, [3]int{7, 6, 6}, [3]float64{1, 1.2, 0.9})
	const dt = 0.4
	em := pic.NewEMFields(g)
	randomize(rand.New(rand.NewSource(3)), em.Ex, em.Ey, em.Ez)
	c, err := LeheCoefficients(g, dt, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewFaraday(g, dt, c)
	if err != nil {
		t.Fatal(err)
	}
	s.Solve(em)
	dx, dy, dz := g.CellLength[0], g.CellLength[1], g.CellLength[2]
	Ex, Ey, Ez := em.Ex.At, em.Ey.At, em.Ez.At
	nxp, nyp, nzp := g.N[0], g.N[1], g.N[2]
	nxd, nyd, nzd := nxp+1, nyp+1, nzp+1

	for _, i := range []int{0, nxp - 1} {
		for j := 1; j < nyd-1; j++ {
			for k := 1; k < nzd-1; k++ {
				want := -dt*(Ez(i, j, k)-Ez(i, j-1, k))/dy + dt*(Ey(i, j, k)-Ey(i, j, k-1))/dz
				if absDifferent(em.Bx.At(i, j, k), want, testTolerance) {
					t.Errorf("Bx(%d,%d,%d) = %g; want %g", i, j, k, em.Bx.At(i, j, k), want)
				}
				if i != 0 {
					continue
				}
				// The stencil at i=0 with E(-1) taken as zero.
				ay, byx := c.Alpha[1], c.Beta[1][0]
				padded := -dt/dy*(ay*(Ez(0, j, k)-Ez(0, j-1, k))+byx*(Ez(1, j, k)-Ez(1, j-1, k))) +
					dt/dz*(ay*(Ey(0, j, k)-Ey(0, j, k-1))+byx*(Ey(1, j, k)-Ey(1, j, k-1)))
				if !absDifferent(em.Bx.At(i, j, k), padded, 1.e-9) {
					t.Errorf("Bx(0,%d,%d) = %g matches the interior stencil", j, k, padded)
				}
			}
		}
	}
	for _, i := range []int{1, nxd - 2} {
		for j := 1; j < nyp-1; j++ {
			for k := 1; k < nzd-1; k++ {
				want := -dt*(Ex(i, j, k)-Ex(i, j, k-1))/dz + dt*(Ez(i, j, k)-Ez(i-1, j, k))/dx
				if absDifferent(em.By.At(i, j, k), want, testTolerance) {
					t.Errorf("By(%d,%d,%d) = %g; want %g", i, j, k, em.By.At(i, j, k), want)
				}
			}
		}
		for j := 1; j < nyd-1; j++ {
			for k := 1; k < nzp-1; k++ {
				want := -dt*(Ey(i, j, k)-Ey(i-1, j, k))/dx + dt*(Ex(i, j, k)-Ex(i, j-1, k))/dy
				if absDifferent(em.Bz.At(i, j, k), want, testTolerance) {
					t.Errorf("Bz(%d,%d,%d) = %g; want %g", i, j, k, em.Bz.At(i, j, k), want)
				}
			}
		}
	}
}

// With α=1 and β=δ=0 the interior stencil is the two-point leapfrog curl.
func TestYeeInterior(t *testing.T) {
	g := testGrid(t, [3]int{8, 7, 9}, [3]float64{0.9, 1.1, 1.4})
	const dt = 0.35
	em := pic.NewEMFields(g)
	randomize(rand.New(rand.NewSource(4)), em.Ex, em.Ey, em.Ez, em.Bx, em.By, em.Bz)
	oldBx, oldBy, oldBz := em.Bx.Copy(), em.By.Copy(), em.Bz.Copy()

	s, err := NewFaraday(g, dt, YeeCoefficients())
	if err != nil {
		t.Fatal(err)
	}
	s.Interior(em)

	dx, dy, dz := g.CellLength[0], g.CellLength[1], g.CellLength[2]
	Ex, Ey, Ez := em.Ex.At, em.Ey.At, em.Ez.At
	nxp, nyp, nzp := g.N[0], g.N[1], g.N[2]
	nxd, nyd, nzd := nxp+1, nyp+1, nzp+1

	for i := 1; i < nxp-1; i++ {
		for j := 1; j < nyd-1; j++ {
			for k := 1; k < nzd-1; k++ {
				want := oldBx.At(i, j, k) -
					dt/dy*(Ez(i, j, k)-Ez(i, j-1, k)) +
					dt/dz*(Ey(i, j, k)-Ey(i, j, k-1))
				if absDifferent(em.Bx.At(i, j, k), want, testTolerance) {
					t.Fatalf("Bx(%d,%d,%d) = %g; want %g", i, j, k, em.Bx.At(i, j, k), want)
				}
			}
		}
	}
	for i := 2; i < nxd-2; i++ {
		for j := 1; j < nyp-1; j++ {
			for k := 1; k < nzd-1; k++ {
				want := oldBy.At(i, j, k) -
					dt/dz*(Ex(i, j, k)-Ex(i, j, k-1)) +
					dt/dx*(Ez(i, j, k)-Ez(i-1, j, k))
				if absDifferent(em.By.At(i, j, k), want, testTolerance) {
					t.Fatalf("By(%d,%d,%d) = %g; want %g", i, j, k, em.By.At(i, j, k), want)
				}
			}
		}
		for j := 1; j < nyd-1; j++ {
			for k := 1; k < nzp-1; k++ {
				want := oldBz.At(i, j, k) -
					dt/dx*(Ey(i, j, k)-Ey(i-1, j, k)) +
					dt/dy*(Ex(i, j, k)-Ex(i, j-1, k))
				if absDifferent(em.Bz.At(i, j, k), want, testTolerance) {
					t.Fatalf("Bz(%d,%d,%d) = %g; want %g", i, j, k, em.Bz.At(i, j, k), want)
				}
			}
		}
	}

	// The edges of the propagation axis are left to the edge pass.
	for _, i := range []int{1, nxd - 2} {
		if em.By.At(i, 2, 2) != oldBy.At(i, 2, 2) || em.Bz.At(i, 2, 2) != oldBz.At(i, 2, 2) {
			t.Errorf("interior pass changed the edge at i=%d", i)
		}
	}
}
