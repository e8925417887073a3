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

// Package profile holds spatial (and optionally temporal) profiles used to
// initialize fields and particle densities.
package profile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/spatialmodel/pic"
)

// Profile is a scalar function of up to three spatial coordinates and time.
type Profile interface {
	// Value returns the profile at x, which holds NVariables coordinates in
	// the order x, y, z, t.
	Value(x ...float64) float64

	// NVariables returns the number of coordinates the profile takes.
	NVariables() int
}

// varNames are the names of the coordinates available to expressions.
var varNames = []string{"x", "y", "z", "t"}

func checkNVariables(n int) error {
	if n < 1 || n > len(varNames) {
		return pic.NewConfigError("nvariables", "%d but profiles are defined only for 1 to %d variables", n, len(varNames))
	}
	return nil
}

type constant struct {
	n int
	v float64
}

func (c constant) Value(...float64) float64 { return c.v }
func (c constant) NVariables() int          { return c.n }

// Constant returns a profile equal to v everywhere.
func Constant(nvariables int, v float64) (Profile, error) {
	if err := checkNVariables(nvariables); err != nil {
		return nil, err
	}
	return constant{n: nvariables, v: v}, nil
}

type gaussian struct {
	max          float64
	center, fwhm []float64
}

func (g gaussian) Value(x ...float64) float64 {
	v := g.max
	for i, c := range g.center {
		d := 2 * (x[i] - c) / g.fwhm[i]
		v *= math.Exp(-math.Ln2 * d * d)
	}
	return v
}
func (g gaussian) NVariables() int { return len(g.center) }

// Gaussian returns a product of Gaussians with peak value max, centered on
// center with full widths at half maximum fwhm along each coordinate.
func Gaussian(max float64, center, fwhm []float64) (Profile, error) {
	if err := checkNVariables(len(center)); err != nil {
		return nil, err
	}
	if len(fwhm) != len(center) {
		return nil, pic.NewConfigError("fwhm", "%d widths for %d variables", len(fwhm), len(center))
	}
	for i, w := range fwhm {
		if !(w > 0) {
			return nil, pic.NewConfigError("fwhm", "%g for variable %d but should be >0", w, i)
		}
	}
	return gaussian{max: max, center: center, fwhm: fwhm}, nil
}

type cosine struct {
	base, amplitude float64
	k, phase        []float64
}

func (c cosine) Value(x ...float64) float64 {
	v := c.amplitude
	for i, k := range c.k {
		v *= math.Cos(k*x[i] + c.phase[i])
	}
	return c.base + v
}
func (c cosine) NVariables() int { return len(c.k) }

// Cosine returns base + amplitude·Π cos(k_i·x_i + phase_i).
func Cosine(base, amplitude float64, k, phase []float64) (Profile, error) {
	if err := checkNVariables(len(k)); err != nil {
		return nil, err
	}
	if len(phase) != len(k) {
		return nil, pic.NewConfigError("phase", "%d phases for %d variables", len(phase), len(k))
	}
	return cosine{base: base, amplitude: amplitude, k: k, phase: phase}, nil
}

type expression struct {
	n    int
	expr *govaluate.EvaluableExpression
}

// Value returns NaN if the expression does not evaluate to a number.
func (e expression) Value(x ...float64) float64 {
	v, err := e.expr.Evaluate(e.params(x))
	if err != nil {
		return math.NaN()
	}
	f, ok := v.(float64)
	if !ok {
		return math.NaN()
	}
	return f
}
func (e expression) NVariables() int { return e.n }

// functions are available to expressions in addition to the govaluate
// operators.
var functions = map[string]govaluate.ExpressionFunction{
	"sin":  unary(math.Sin),
	"cos":  unary(math.Cos),
	"exp":  unary(math.Exp),
	"sqrt": unary(math.Sqrt),
	"abs":  unary(math.Abs),
	"log":  unary(math.Log),
	"gaussian": func(args ...interface{}) (interface{}, error) {
		v, err := floatArgs("gaussian", 3, args)
		if err != nil {
			return nil, err
		}
		d := 2 * (v[0] - v[1]) / v[2]
		return math.Exp(-math.Ln2 * d * d), nil
	},
	"step": func(args ...interface{}) (interface{}, error) {
		v, err := floatArgs("step", 1, args)
		if err != nil {
			return nil, err
		}
		if v[0] >= 0 {
			return 1., nil
		}
		return 0., nil
	},
}

func unary(f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		v, err := floatArgs("function", 1, args)
		if err != nil {
			return nil, err
		}
		return f(v[0]), nil
	}
}

func floatArgs(name string, n int, args []interface{}) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("profile: %s takes %d arguments but got %d", name, n, len(args))
	}
	v := make([]float64, n)
	for i, a := range args {
		f, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("profile: %s argument %d is %T, not a number", name, i, a)
		}
		v[i] = f
	}
	return v, nil
}

// Expression returns a profile evaluating expr, which may use the first
// nvariables of x, y, z and t, the constant pi, the govaluate operators and
// the functions sin, cos, exp, sqrt, abs, log, step(x) and
// gaussian(x, center, fwhm).
func Expression(nvariables int, expr string) (Profile, error) {
	if err := checkNVariables(nvariables); err != nil {
		return nil, err
	}
	e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, functions)
	if err != nil {
		return nil, pic.NewConfigError("expression", "%q: %v", expr, err)
	}
	allowed := map[string]bool{"pi": true}
	for _, n := range varNames[:nvariables] {
		allowed[n] = true
	}
	for _, v := range e.Vars() {
		if !allowed[v] {
			return nil, pic.NewConfigError("expression", "%q uses %q, which is not one of %v", expr, v, varNames[:nvariables])
		}
	}
	p := expression{n: nvariables, expr: e}
	x := make([]float64, nvariables)
	if _, err := e.Evaluate(p.params(x)); err != nil {
		return nil, pic.NewConfigError("expression", "%q: %v", expr, err)
	}
	return p, nil
}

func (e expression) params(x []float64) map[string]interface{} {
	params := make(map[string]interface{}, e.n+1)
	params["pi"] = math.Pi
	for i := 0; i < e.n; i++ {
		params[varNames[i]] = x[i]
	}
	return params
}

// Parse returns a constant profile if s is a number and an expression
// profile otherwise.
func Parse(nvariables int, s string) (Profile, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return Constant(nvariables, v)
	}
	return Expression(nvariables, s)
}
