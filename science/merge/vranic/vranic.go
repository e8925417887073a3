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

// Package vranic merges macro-particles that are close in momentum space
// while conserving their total weight, momentum and energy, following
// Vranic et al., Computer Physics Communications 191 (2015).
package vranic

import (
	"fmt"
	"math"

	"github.com/spatialmodel/pic"
	"gonum.org/v1/gonum/spatial/r3"
)

// Discretization selects the momentum-space coordinates used to bin
// particles.
type Discretization int

const (
	// Spherical bins particles by momentum norm, azimuth θ=atan2(py, px)
	// and elevation φ=asin(pz/|p|).
	Spherical Discretization = iota

	// Cartesian bins particles by (px, py, pz).
	Cartesian
)

func (d Discretization) String() string {
	switch d {
	case Spherical:
		return "spherical"
	case Cartesian:
		return "cartesian"
	default:
		return fmt.Sprintf("Discretization(%d)", int(d))
	}
}

// Config holds the merging parameters.
type Config struct {
	// Dims is the number of momentum-space cells along each coordinate:
	// {N_r, N_θ, N_φ} or {N_px, N_py, N_pz}.
	Dims [3]int

	// MinPacket and MaxPacket bound the number of particles merged into one
	// pair. Packets with fewer than three particles are never merged.
	MinPacket, MaxPacket int

	// LogScale spaces the momentum-norm cells logarithmically. Norms below
	// MinMomentum are binned with MinMomentum.
	LogScale    bool
	MinMomentum float64

	// Tolerance is the spread of momenta, relative to the cell's largest
	// momentum norm (or absolute below 1), under which a cell is left
	// unmodified.
	Tolerance float64
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Dims:        [3]int{5, 5, 5},
		MinPacket:   4,
		MaxPacket:   4,
		MinMomentum: 1.e-5,
		Tolerance:   1.e-10,
	}
}

// Merger merges particles with one momentum-space discretization.
type Merger struct {
	cfg  Config
	disc Discretization
}

// New returns a merger for the discretization named method ("spherical" or
// "cartesian").
func New(method string, cfg Config) (*Merger, error) {
	switch method {
	case "spherical", "vranic_spherical":
		return NewSpherical(cfg)
	case "cartesian", "vranic_cartesian":
		return NewCartesian(cfg)
	default:
		return nil, pic.NewConfigError("MergeMethod", "%q but should be \"spherical\" or \"cartesian\"", method)
	}
}

// NewSpherical returns a merger with the spherical discretization.
func NewSpherical(cfg Config) (*Merger, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.LogScale && !(cfg.MinMomentum > 0) {
		return nil, pic.NewConfigError("MinMomentum", "%g but should be >0 with a logarithmic scale", cfg.MinMomentum)
	}
	return &Merger{cfg: cfg, disc: Spherical}, nil
}

// NewCartesian returns a merger with the Cartesian discretization.
func NewCartesian(cfg Config) (*Merger, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.LogScale {
		return nil, pic.NewConfigError("LogScale", "true but the Cartesian discretization is linear")
	}
	return &Merger{cfg: cfg, disc: Cartesian}, nil
}

func (c Config) validate() error {
	for i, n := range c.Dims {
		if n < 1 {
			return pic.NewConfigError("Dims", "%v but dimension %d should be >0", c.Dims, i)
		}
	}
	if c.MinPacket < 2 {
		return pic.NewConfigError("MinPacket", "%d but should be >=2", c.MinPacket)
	}
	if c.MaxPacket < c.MinPacket {
		return pic.NewConfigError("MaxPacket", "%d but should be >=MinPacket (%d)", c.MaxPacket, c.MinPacket)
	}
	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) {
		return pic.NewConfigError("Tolerance", "%g but should be >=0", c.Tolerance)
	}
	return nil
}

// Config returns the merging parameters.
func (m *Merger) Config() Config { return m.cfg }

// Discretization returns the momentum-space discretization.
func (m *Merger) Discretization() Discretization { return m.disc }

// Merge implements pic.Merger. Particles of mass zero are photons, whose
// energy is |p|; the energy of massive particles is γ=√(1+|p|²) in units
// of their rest mass energy.
func (m *Merger) Merge(mass float64, p *pic.Particles, include []bool, istart, iend int) (int, error) {
	if istart < 0 || iend > p.Len() || istart > iend {
		return 0, fmt.Errorf("vranic: particle range [%d, %d) outside a buffer of %d", istart, iend, p.Len())
	}
	if include != nil && len(include) != iend-istart {
		return 0, fmt.Errorf("vranic: include mask of length %d for %d particles", len(include), iend-istart)
	}
	if mass < 0 || math.IsNaN(mass) {
		return 0, fmt.Errorf("vranic: mass %g", mass)
	}

	var members []int
	for i := istart; i < iend; i++ {
		if (include == nil || include[i-istart]) && p.Weight[i] > 0 {
			members = append(members, i)
		}
	}
	if len(members) < 3 {
		return iend - istart, nil
	}

	coords := make([][3]float64, len(members))
	for k, i := range members {
		coords[k] = m.coordinates(p.Momentum(i))
	}
	b := newBins(m.cfg.Dims, coords)
	cells := b.sort(coords)

	removed := make([]bool, iend-istart)
	var nremoved int
	for c := range cells.start {
		cell := cells.order[cells.start[c]:cells.end[c]]
		if len(cell) < 3 {
			continue
		}
		idx := make([]int, len(cell))
		for k, ic := range cell {
			idx[k] = members[ic]
		}
		if m.negligibleSpread(p, idx) {
			continue
		}
		dir := m.direction(b.center(c))
		for _, pack := range packets(len(idx), m.cfg.MinPacket, m.cfg.MaxPacket) {
			packet := idx[pack[0]:pack[1]]
			if len(packet) < 3 {
				continue
			}
			mergePacket(mass, p, packet, dir)
			for _, i := range packet[2:] {
				removed[i-istart] = true
				nremoved++
			}
		}
	}
	if nremoved == 0 {
		return iend - istart, nil
	}

	w := istart
	for i := istart; i < iend; i++ {
		if removed[i-istart] {
			continue
		}
		if w != i {
			p.Copy(w, i)
		}
		w++
	}
	if err := p.EraseRange(w, iend); err != nil {
		return 0, err
	}
	return w - istart, nil
}

// coordinates returns the momentum-space coordinates of momentum v.
func (m *Merger) coordinates(v r3.Vec) [3]float64 {
	if m.disc == Cartesian {
		return [3]float64{v.X, v.Y, v.Z}
	}
	n := r3.Norm(v)
	var theta, phi float64
	if n > 0 {
		theta = math.Atan2(v.Y, v.X)
		phi = math.Asin(math.Max(-1, math.Min(1, v.Z/n)))
	}
	if m.cfg.LogScale {
		n = math.Log10(math.Max(n, m.cfg.MinMomentum))
	}
	return [3]float64{n, theta, phi}
}

// direction returns the unit momentum direction at the center of a cell, or
// the zero vector when the center is the origin.
func (m *Merger) direction(center [3]float64) r3.Vec {
	if m.disc == Cartesian {
		v := r3.Vec{X: center[0], Y: center[1], Z: center[2]}
		if r3.Norm(v) == 0 {
			return r3.Vec{}
		}
		return r3.Unit(v)
	}
	theta, phi := center[1], center[2]
	return r3.Vec{
		X: math.Cos(phi) * math.Cos(theta),
		Y: math.Cos(phi) * math.Sin(theta),
		Z: math.Sin(phi),
	}
}

// negligibleSpread reports whether every momentum in idx is within the
// tolerance of the first one.
func (m *Merger) negligibleSpread(p *pic.Particles, idx []int) bool {
	p0 := p.Momentum(idx[0])
	scale := math.Max(1, r3.Norm(p0))
	var spread float64
	for _, i := range idx[1:] {
		spread = math.Max(spread, r3.Norm(p.Momentum(i).Sub(p0)))
	}
	return spread <= m.cfg.Tolerance*scale
}

// packets splits n particles into [start, end) packets of at most max
// particles. A final partial packet is kept if it holds at least min
// particles.
func packets(n, min, max int) [][2]int {
	npack := n / max
	if n%max >= min {
		npack++
	}
	out := make([][2]int, npack)
	for i := range out {
		start := i * max
		end := start + max
		if end > n {
			end = n
		}
		out[i] = [2]int{start, end}
	}
	return out
}

// mergePacket replaces the particles of packet by two particles, stored in
// its first two slots, with the same total weight, momentum and energy.
// dir is the direction of the packet's momentum-space cell.
func mergePacket(mass float64, p *pic.Particles, packet []int, dir r3.Vec) {
	// kt is Σw|p| for photons and Σw(γ-1) otherwise. The kinetic part is
	// accumulated as |p|²/(γ+1) so that cold populations keep their precision.
	var wt, kt float64
	var pt r3.Vec
	for _, i := range packet {
		w := p.Weight[i]
		wt += w
		v := p.Momentum(i)
		pt = pt.Add(v.Scale(w))
		if mass == 0 {
			kt += w * r3.Norm(v)
		} else {
			p2 := r3.Norm2(v)
			kt += w * p2 / (math.Sqrt(1+p2) + 1)
		}
	}
	k := kt / wt
	var pa float64
	if mass == 0 {
		pa = k
	} else {
		pa = math.Sqrt(k * (k + 2))
	}
	ptNorm := r3.Norm(pt)

	var cosw float64 = 1
	if pa > 0 {
		cosw = math.Min(1, ptNorm/(wt*pa))
	}
	sinw := math.Sqrt(math.Max(0, 1-cosw*cosw))

	e1 := dir
	if ptNorm > 0 {
		e1 = pt.Scale(1 / ptNorm)
	}
	if r3.Norm(e1) == 0 {
		e1 = r3.Vec{X: 1}
	}
	e2 := orthogonal(e1, dir)

	pa1 := e1.Scale(pa * cosw)
	pa2 := e2.Scale(pa * sinw)
	p.SetMomentum(packet[0], pa1.Add(pa2))
	p.SetMomentum(packet[1], pa1.Sub(pa2))
	p.Weight[packet[0]] = wt / 2
	p.Weight[packet[1]] = wt / 2
}

// orthogonal returns a unit vector orthogonal to the unit vector e1, in the
// plane of e1 and ref when ref is not parallel to e1.
func orthogonal(e1, ref r3.Vec) r3.Vec {
	const tiny = 1.e-10
	v := ref.Sub(e1.Scale(ref.Dot(e1)))
	if n := r3.Norm(v); n > tiny {
		return v.Scale(1 / n)
	}
	// Cross e1 with the axis it is least aligned with.
	axis := r3.Vec{X: 1}
	if math.Abs(e1.Y) < math.Abs(e1.X) && math.Abs(e1.Y) <= math.Abs(e1.Z) {
		axis = r3.Vec{Y: 1}
	} else if math.Abs(e1.Z) < math.Abs(e1.X) {
		axis = r3.Vec{Z: 1}
	}
	return r3.Unit(e1.Cross(axis))
}
