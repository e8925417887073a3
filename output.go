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
	"fmt"

	"github.com/ctessum/cdf"
)

var (
	cartesianDims = [3][2]string{{"x", "x_dual"}, {"y", "y_dual"}, {"z", "z_dual"}}
	amDims        = [2][2]string{{"l", "l_dual"}, {"r", "r_dual"}}
)

// FieldVariable returns the name under which WriteFields stores field name
// of patch index. For azimuthal-mode fields, part is "re" or "im" of mode m;
// Cartesian fields ignore m and part.
func FieldVariable(name string, patch, m int, part string) string {
	if part == "" {
		return fmt.Sprintf("%s_%d", name, patch)
	}
	return fmt.Sprintf("%s_%d_m%d_%s", name, patch, m, part)
}

// WriteFields returns a function that writes the fields of every patch to
// rw in NetCDF format. All patches must have the same grid shape.
func WriteFields(rw cdf.ReaderWriterAt) DomainManipulator {
	return func(s *Simulation) error {
		if len(s.Patches) == 0 {
			return fmt.Errorf("pic: writing fields: no patches")
		}
		g0 := s.Patches[0].Grid
		for _, p := range s.Patches {
			if p.Grid.N != g0.N {
				return fmt.Errorf("pic: writing fields: patch %d has shape %v but patch 0 has %v",
					p.Index, p.Grid.N, g0.N)
			}
		}

		var dims []string
		var lengths []int
		if s.Patches[0].AM != nil {
			for ax, names := range amDims {
				dims = append(dims, names[0], names[1])
				lengths = append(lengths, g0.Extent(ax, Primal), g0.Extent(ax, Dual))
			}
		} else {
			for ax, names := range cartesianDims {
				dims = append(dims, names[0], names[1])
				lengths = append(lengths, g0.Extent(ax, Primal), g0.Extent(ax, Dual))
			}
		}
		h := cdf.NewHeader(dims, lengths)
		h.AddAttribute("", "comment", "PIC electromagnetic fields")
		h.AddAttribute("", "step", []int32{int32(s.Step)})
		h.AddAttribute("", "time", []float64{float64(s.Step) * s.Dt})

		type variable struct {
			name string
			data []float64
		}
		var vars []variable
		for _, p := range s.Patches {
			begin := []int32{int32(p.Grid.Begin[0]), int32(p.Grid.Begin[1]), int32(p.Grid.Begin[2])}
			if p.EM != nil {
				for _, fld := range p.EM.All() {
					v := FieldVariable(fld.Name, p.Index, 0, "")
					vdims := make([]string, 3)
					for ax := range vdims {
						vdims[ax] = cartesianDims[ax][fld.Placement[ax]]
					}
					h.AddVariable(v, vdims, []float64{0})
					h.AddAttribute(v, "placement", fld.Placement.String())
					h.AddAttribute(v, "begin", begin)
					vars = append(vars, variable{name: v, data: fld.Data()})
				}
			}
			if p.AM != nil {
				for i, mf := range p.AM.All() {
					pl := amPlacements[i]
					vdims := []string{amDims[0][pl[0]], amDims[1][pl[1]]}
					for m, g := range mf {
						raw := g.RawCMatrix().Data
						re, im := make([]float64, len(raw)), make([]float64, len(raw))
						for j, c := range raw {
							re[j], im[j] = real(c), imag(c)
						}
						for _, part := range []variable{{name: "re", data: re}, {name: "im", data: im}} {
							v := FieldVariable(modeNames[i], p.Index, m, part.name)
							h.AddVariable(v, vdims, []float64{0})
							h.AddAttribute(v, "placement", pl.String())
							h.AddAttribute(v, "begin", begin)
							vars = append(vars, variable{name: v, data: part.data})
						}
					}
				}
			}
		}
		h.Define()

		cf, err := cdf.Create(rw, h)
		if err != nil {
			return fmt.Errorf("pic: writing fields: %v", err)
		}
		for _, v := range vars {
			end := cf.Header.Lengths(v.name)
			w := cf.Writer(v.name, make([]int, len(end)), end)
			if _, err := w.Write(v.data); err != nil {
				return fmt.Errorf("pic: writing field %s: %v", v.name, err)
			}
		}
		return nil
	}
}

// ReadField reads a variable written by WriteFields.
func ReadField(f *cdf.File, variable string) ([]float64, error) {
	end := f.Header.Lengths(variable)
	if len(end) == 0 {
		return nil, fmt.Errorf("pic: reading fields: variable %s not in file", variable)
	}
	n := 1
	for _, l := range end {
		n *= l
	}
	r := f.Reader(variable, make([]int, len(end)), end)
	buf := make([]float64, n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("pic: reading field %s: %v", variable, err)
	}
	return buf, nil
}
