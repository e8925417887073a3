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

// Package lehe advances the magnetic field of a three-dimensional Yee grid
// with the Lehe finite-difference stencil, which reduces numerical
// dispersion along one propagation axis.
package lehe

import (
	"fmt"
	"math"

	"github.com/spatialmodel/pic"
)

// Coefficients weight the terms of the modified finite difference along
// each derivative axis d:
//
//	D_d F = Alpha[d]·(F(p) - F(p-e_d))
//	      + Σ_t Beta[d][t]·(F(p+e_t) - F(p+e_t-e_d) + F(p-e_t) - F(p-e_t-e_d))
//	      + Delta[d]·(F(p+e_d) - F(p-2e_d))
type Coefficients struct {
	// Axis is the propagation axis along which dispersion is reduced.
	Axis int

	Alpha [3]float64
	Beta  [3][3]float64
	Delta [3]float64
}

// YeeCoefficients returns the coefficients of the plain leapfrog curl:
// Alpha=1, Beta=Delta=0.
func YeeCoefficients() Coefficients {
	return Coefficients{Alpha: [3]float64{1, 1, 1}}
}

// LeheCoefficients returns the Lehe coefficients for time step dt on grid g
// with dispersion reduced along axis (0, 1 or 2).
func LeheCoefficients(g *pic.Grid, dt float64, axis int) (Coefficients, error) {
	if g.Dims != 3 {
		return Coefficients{}, pic.NewConfigError("Dims", "%d but the Lehe solver needs 3", g.Dims)
	}
	if axis < 0 || axis > 2 {
		return Coefficients{}, pic.NewConfigError("Axis", "%d but should be 0, 1 or 2", axis)
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return Coefficients{}, pic.NewConfigError("Dt", "%g but should be finite and >0", dt)
	}
	c := Coefficients{Axis: axis}
	da := g.CellLength[axis]
	courant := dt / da
	for d := 0; d < 3; d++ {
		if d == axis {
			var sumBeta float64
			for t := 0; t < 3; t++ {
				if t == axis {
					continue
				}
				r := da / g.CellLength[t]
				c.Beta[d][t] = r * r / 8
				sumBeta += c.Beta[d][t]
			}
			s := math.Sin(math.Pi*courant/2) / courant
			c.Delta[d] = (1 - s*s) / 4
			c.Alpha[d] = 1 - 2*sumBeta - 3*c.Delta[d]
			continue
		}
		c.Beta[d][axis] = 1. / 8
		c.Alpha[d] = 1 - 2*c.Beta[d][axis]
	}
	return c, nil
}

// String implements fmt.Stringer.
func (c Coefficients) String() string {
	return fmt.Sprintf("axis=%d alpha=%v beta=%v delta=%v", c.Axis, c.Alpha, c.Beta, c.Delta)
}
