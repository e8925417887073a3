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

package picutil

import (
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/pic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

func particleTotals(s *pic.Simulation) (n int, w float64) {
	for _, p := range s.Patches {
		for _, sp := range p.Species {
			n += sp.Particles.Len()
			w += sp.Particles.TotalWeight()
		}
	}
	return
}

// cellWeights returns the particle weight in each primal cell of each patch.
func cellWeights(s *pic.Simulation) map[[2]int]float64 {
	w := make(map[[2]int]float64)
	for _, p := range s.Patches {
		for _, sp := range p.Species {
			for i := 0; i < sp.Particles.Len(); i++ {
				w[[2]int{p.Index, p.Grid.Cell(sp.Particles.Position(i))}] += sp.Particles.Weight[i]
			}
		}
	}
	return w
}

func TestCartesianSimulation(t *testing.T) {
	cfg := newConfig()
	cfg.Set("Cells", []int{8, 4, 4})
	cfg.Set("CellLength", []float64{0.5, 0.5, 0.5})
	cfg.Set("Patches", 2)
	cfg.Set("Steps", 3)
	cfg.Set("Species.ParticlesPerCell", 4)
	cfg.Set("Merge.Every", 1)
	cfg.Set("Merge.Dims", []int{1, 1, 1})
	c, err := LoadConfig(cfg)
	require.NoError(t, err)

	s, err := NewSimulation(c, quietLogger())
	require.NoError(t, err)
	require.Len(t, s.Patches, 2)
	assert.InDelta(t, 0.95*0.5/math.Sqrt(3), s.Dt, 1.e-14)
	for i, p := range s.Patches {
		assert.Equal(t, [3]int{4 + 1 + 4, 4 + 1 + 4, 4 + 1 + 4}, p.Grid.N)
		assert.Equal(t, [3]int{4*i - 2, -2, -2}, p.Grid.Begin)
		assert.NotNil(t, p.Faraday)
		assert.NotNil(t, p.Ampere)
	}

	require.NoError(t, s.Init())
	n0, w0 := particleTotals(s)
	cw0 := cellWeights(s)
	assert.Equal(t, 8*4*4*4, n0)
	assert.InDelta(t, 8*4*4, w0, 1.e-10)
	assert.NotEqual(t, 0., s.Patches[0].EM.Ez.AbsMax())

	require.NoError(t, s.Run())
	assert.Equal(t, 3, s.Step)
	require.NoError(t, s.Cleanup())

	n1, w1 := particleTotals(s)
	assert.Equal(t, n0/2, n1, "each cell of 4 particles should merge to 2")
	assert.InDelta(t, w0, w1, 1.e-10)
	cw1 := cellWeights(s)
	require.Len(t, cw1, len(cw0))
	for c, w := range cw0 {
		assert.InDelta(t, w, cw1[c], 1.e-12, "weight of cell %v", c)
	}
	for _, p := range s.Patches {
		sp := p.Species[0]
		require.True(t, len(sp.Buffers.E) >= sp.Particles.Len())
	}
}

func TestAMSimulation(t *testing.T) {
	cfg := newConfig()
	cfg.Set("Geometry", "am")
	cfg.Set("Dims", 2)
	cfg.Set("Cells", []int{8, 4})
	cfg.Set("CellLength", []float64{0.5, 0.5})
	cfg.Set("Patches", 2)
	cfg.Set("Solver", "none")
	cfg.Set("Timestep", 0.1)
	cfg.Set("Steps", 2)
	cfg.Set("Species.ParticlesPerCell", 2)
	cfg.Set("Merge.Method", "none")
	cfg.Set("InitialFields", map[string]string{"El": "1.5", "Bt": "-2"})
	c, err := LoadConfig(cfg)
	require.NoError(t, err)

	s, err := NewSimulation(c, quietLogger())
	require.NoError(t, err)
	require.NoError(t, s.Init())
	require.NoError(t, s.Run())
	require.NoError(t, s.Cleanup())
	assert.Equal(t, 2, s.Step)

	for _, p := range s.Patches {
		assert.Nil(t, p.EM)
		assert.Nil(t, p.Faraday)
		sp := p.Species[0]
		require.Equal(t, 4*4*2, sp.Particles.Len())
		for i := 0; i < sp.Particles.Len(); i++ {
			pos := sp.Particles.Position(i)
			r := sp.Particles.Radius(i)
			e, b := sp.Buffers.E[i], sp.Buffers.B[i]
			assert.InDelta(t, 1.5, e.X, 1.e-12)
			assert.InDelta(t, 0, e.Y, 1.e-12)
			assert.InDelta(t, 0, e.Z, 1.e-12)

			// A uniform azimuthal field points along (-z, y)/r.
			assert.InDelta(t, 2*pos[2]/r, b.Y, 1.e-10)
			assert.InDelta(t, -2*pos[1]/r, b.Z, 1.e-10)
		}
	}
}

func TestDriftingSpecies(t *testing.T) {
	cfg := newConfig()
	cfg.Set("Cells", []int{8, 4, 4})
	cfg.Set("Patches", 2)
	cfg.Set("Species.ParticlesPerCell", 4)
	cfg.Set("Species.Temperature", "[1e-4, 0, 0]")
	cfg.Set("Species.MeanVelocity", "[0.6, 0, 0]")
	cfg.Set("Merge.Method", "none")
	c, err := LoadConfig(cfg)
	require.NoError(t, err)
	s, err := NewSimulation(c, quietLogger())
	require.NoError(t, err)
	require.NoError(t, s.Init())

	var n int
	var px float64
	for _, p := range s.Patches {
		parts := p.Species[0].Particles
		for i := 0; i < parts.Len(); i++ {
			m := parts.Momentum(i)
			require.Equal(t, 0., m.Y)
			require.Equal(t, 0., m.Z)
			px += m.X
			n++
		}
	}
	require.Equal(t, 8*4*4*4, n)
	// γv = 0.6/0.8; the thermal spread is 0.01.
	assert.InDelta(t, 0.75, px/float64(n), 3.e-3)
}

func TestSimulationErrors(t *testing.T) {
	t.Run("solver needs 3D", func(t *testing.T) {
		cfg := newConfig()
		cfg.Set("Dims", 2)
		cfg.Set("Cells", []int{8, 4})
		cfg.Set("CellLength", []float64{0.5, 0.5})
		cfg.Set("Patches", 1)
		c, err := LoadConfig(cfg)
		require.NoError(t, err)
		_, err = NewSimulation(c, quietLogger())
		require.Error(t, err)
	})
	t.Run("unknown field", func(t *testing.T) {
		cfg := newConfig()
		cfg.Set("InitialFields", map[string]string{"Ew": "1"})
		_, err := LoadConfig(cfg)
		require.Error(t, err)
	})
	t.Run("am field in cartesian", func(t *testing.T) {
		cfg := newConfig()
		cfg.Set("Cells", []int{4, 4, 4})
		cfg.Set("Patches", 1)
		cfg.Set("Species.ParticlesPerCell", 0)
		cfg.Set("InitialFields", map[string]string{"El": "1"})
		c, err := LoadConfig(cfg)
		require.NoError(t, err)
		s, err := NewSimulation(c, quietLogger())
		require.NoError(t, err)
		require.Error(t, s.Init())
	})
	t.Run("bad expression", func(t *testing.T) {
		cfg := newConfig()
		cfg.Set("Species.Density", "x + (")
		c, err := LoadConfig(cfg)
		require.NoError(t, err)
		_, err = NewSimulation(c, quietLogger())
		require.Error(t, err)
	})
}

func TestCheckpointRestart(t *testing.T) {
	dir, err := ioutil.TempDir("", "pic")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	checkpoint := filepath.Join(dir, "checkpoint.zst")

	cfg := newConfig()
	cfg.Set("Cells", []int{4, 4, 4})
	cfg.Set("Patches", 2)
	cfg.Set("Steps", 2)
	cfg.Set("Species.ParticlesPerCell", 2)
	cfg.Set("CheckpointFile", checkpoint)
	cfg.Set("FieldsFile", filepath.Join(dir, "fields.nc"))
	c, err := LoadConfig(cfg)
	require.NoError(t, err)
	s, err := NewSimulation(c, quietLogger())
	require.NoError(t, err)
	require.NoError(t, s.Init())
	require.NoError(t, s.Run())
	require.NoError(t, s.Cleanup())
	n, w := particleTotals(s)

	ff, err := os.Open(filepath.Join(dir, "fields.nc"))
	require.NoError(t, err)
	defer ff.Close()
	nc, err := cdf.Open(ff)
	require.NoError(t, err)
	by, err := pic.ReadField(nc, pic.FieldVariable("By", 1, 0, ""))
	require.NoError(t, err)
	assert.Equal(t, s.Patches[1].EM.By.Data(), by)

	cfg.Set("CheckpointFile", "")
	cfg.Set("FieldsFile", "")
	cfg.Set("RestartFile", checkpoint)
	cfg.Set("Steps", 4)
	c, err = LoadConfig(cfg)
	require.NoError(t, err)
	s2, err := NewSimulation(c, quietLogger())
	require.NoError(t, err)
	require.NoError(t, s2.Init())
	assert.Equal(t, 2, s2.Step)
	n2, w2 := particleTotals(s2)
	assert.Equal(t, n, n2)
	assert.Equal(t, w, w2)
	for i := range s.Patches {
		assert.Equal(t, s.Patches[i].EM.By.Data(), s2.Patches[i].EM.By.Data())
	}
	require.NoError(t, s2.Run())
	assert.Equal(t, 4, s2.Step)

	cfg.Set("RestartFile", filepath.Join(dir, "missing"))
	c, err = LoadConfig(cfg)
	require.NoError(t, err)
	s3, err := NewSimulation(c, quietLogger())
	require.NoError(t, err)
	assert.Error(t, s3.Init())
}
