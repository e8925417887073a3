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
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/pic"
	"github.com/spatialmodel/pic/science/merge/vranic"
	"github.com/spf13/cast"
)

// SimConfig holds the parsed simulation configuration.
type SimConfig struct {
	Geometry   string // "cartesian" or "am"
	Dims       int
	Cells      [3]int
	CellLength [3]float64
	Patches    int
	GhostCells int
	NModes     int

	Timestep float64
	CFL      float64
	Steps    int

	Solver          string // "lehe", "yee" or "none"
	PropagationAxis int

	// InitialFields maps field names to profiles of the grid coordinates.
	InitialFields map[string]string

	// CheckpointFile, if set, receives the final state of the simulation.
	// RestartFile, if set, is a checkpoint that replaces the initial fields
	// and particles.
	CheckpointFile string
	RestartFile    string

	// FieldsFile, if set, receives the final fields in NetCDF format.
	FieldsFile string

	Species SpeciesConfig
}

// SpeciesConfig describes the particle species loaded at initialization.
type SpeciesConfig struct {
	Name             string
	Mass             float64
	ParticlesPerCell int
	Density          string

	// Temperature is the temperature along each axis and MeanVelocity the
	// drift velocity, in units of c. Photons drift with momentum
	// MeanVelocity instead.
	Temperature  [3]float64
	MeanVelocity [3]float64
	Seed         int64

	MergeMethod       string // "spherical", "cartesian" or "none"
	MergeEvery        int
	MergeMinParticles int
	Merge             vranic.Config
}

var axisNames = map[string]int{"x": 0, "y": 1, "z": 2}

var fieldNames = []string{
	"Ex", "Ey", "Ez", "Bx", "By", "Bz", "Jx", "Jy", "Jz", "Rho",
	"El", "Er", "Et", "Bl", "Br", "Bt",
}

// fieldName returns the canonical spelling of a field name. Configuration
// file keys are not case sensitive.
func fieldName(s string) (string, bool) {
	for _, n := range fieldNames {
		if strings.EqualFold(n, s) {
			return n, true
		}
	}
	return "", false
}

// LoadConfig reads and checks the simulation configuration held by cfg.
func LoadConfig(cfg *viper.Viper) (*SimConfig, error) {
	c := &SimConfig{
		Geometry:   strings.ToLower(cfg.GetString("Geometry")),
		Dims:       cfg.GetInt("Dims"),
		Patches:    cfg.GetInt("Patches"),
		GhostCells: cfg.GetInt("GhostCells"),
		NModes:     cfg.GetInt("NModes"),
		Timestep:   cfg.GetFloat64("Timestep"),
		CFL:        cfg.GetFloat64("CFL"),
		Steps:      cfg.GetInt("Steps"),
		Solver:     strings.ToLower(cfg.GetString("Solver")),

		CheckpointFile: os.ExpandEnv(cfg.GetString("CheckpointFile")),
		RestartFile:    os.ExpandEnv(cfg.GetString("RestartFile")),
		FieldsFile:     os.ExpandEnv(cfg.GetString("FieldsFile")),
	}

	cells, err := toIntSliceE(cfg.Get("Cells"))
	if err != nil {
		return nil, fmt.Errorf("pic: reading 'Cells': %v", err)
	}
	cellLength, err := toFloat64SliceE(cfg.Get("CellLength"))
	if err != nil {
		return nil, fmt.Errorf("pic: reading 'CellLength': %v", err)
	}
	if c.Geometry == "am" && c.Dims == 0 {
		c.Dims = 2
	}
	if len(cells) < c.Dims {
		return nil, pic.NewConfigError("Cells", "%v but should have %d entries", cells, c.Dims)
	}
	if len(cellLength) < c.Dims {
		return nil, pic.NewConfigError("CellLength", "%v but should have %d entries", cellLength, c.Dims)
	}
	for ax := 0; ax < c.Dims && ax < 3; ax++ {
		c.Cells[ax] = cells[ax]
		c.CellLength[ax] = cellLength[ax]
	}

	axis, ok := axisNames[strings.ToLower(cfg.GetString("PropagationAxis"))]
	if !ok {
		return nil, pic.NewConfigError("PropagationAxis", "%q but should be x, y or z", cfg.GetString("PropagationAxis"))
	}
	c.PropagationAxis = axis

	initial, err := getStringMapString("InitialFields", cfg)
	if err != nil {
		return nil, fmt.Errorf("pic: reading 'InitialFields': %v", err)
	}
	c.InitialFields = make(map[string]string, len(initial))
	for k, v := range initial {
		name, ok := fieldName(k)
		if !ok {
			return nil, pic.NewConfigError("InitialFields", "unknown field %q", k)
		}
		c.InitialFields[name] = v
	}

	mergeDims, err := toIntSliceE(cfg.Get("Merge.Dims"))
	if err != nil {
		return nil, fmt.Errorf("pic: reading 'Merge.Dims': %v", err)
	}
	if len(mergeDims) != 3 {
		return nil, pic.NewConfigError("Merge.Dims", "%v but should have 3 entries", mergeDims)
	}
	temperature, err := toFloat64SliceE(cfg.Get("Species.Temperature"))
	if err != nil {
		return nil, fmt.Errorf("pic: reading 'Species.Temperature': %v", err)
	}
	if len(temperature) != 3 {
		return nil, pic.NewConfigError("Species.Temperature", "%v but should have 3 entries", temperature)
	}
	drift, err := toFloat64SliceE(cfg.Get("Species.MeanVelocity"))
	if err != nil {
		return nil, fmt.Errorf("pic: reading 'Species.MeanVelocity': %v", err)
	}
	if len(drift) != 3 {
		return nil, pic.NewConfigError("Species.MeanVelocity", "%v but should have 3 entries", drift)
	}
	c.Species = SpeciesConfig{
		Name:              cfg.GetString("Species.Name"),
		Mass:              cfg.GetFloat64("Species.Mass"),
		ParticlesPerCell:  cfg.GetInt("Species.ParticlesPerCell"),
		Density:           cfg.GetString("Species.Density"),
		Temperature:       [3]float64{temperature[0], temperature[1], temperature[2]},
		MeanVelocity:      [3]float64{drift[0], drift[1], drift[2]},
		Seed:              cast.ToInt64(cfg.Get("Species.Seed")),
		MergeMethod:       strings.ToLower(cfg.GetString("Merge.Method")),
		MergeEvery:        cfg.GetInt("Merge.Every"),
		MergeMinParticles: cfg.GetInt("Merge.MinParticles"),
		Merge: vranic.Config{
			Dims:        [3]int{mergeDims[0], mergeDims[1], mergeDims[2]},
			MinPacket:   cfg.GetInt("Merge.MinPacket"),
			MaxPacket:   cfg.GetInt("Merge.MaxPacket"),
			LogScale:    cfg.GetBool("Merge.LogScale"),
			MinMomentum: cfg.GetFloat64("Merge.MinMomentum"),
			Tolerance:   cfg.GetFloat64("Merge.Tolerance"),
		},
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return c, nil
}

// check looks for configuration errors that the kernel constructors do not
// catch.
func (c *SimConfig) check() error {
	switch c.Geometry {
	case "cartesian":
	case "am":
		if c.Dims != 2 {
			return pic.NewConfigError("Dims", "%d but azimuthal-mode simulations should be 2", c.Dims)
		}
		if c.Solver != "none" {
			return pic.NewConfigError("Solver", "%q but azimuthal-mode simulations have no field solver; use \"none\"", c.Solver)
		}
	default:
		return pic.NewConfigError("Geometry", "%q but should be \"cartesian\" or \"am\"", c.Geometry)
	}
	switch c.Solver {
	case "lehe", "yee", "none":
	default:
		return pic.NewConfigError("Solver", "%q but should be \"lehe\", \"yee\" or \"none\"", c.Solver)
	}
	if c.Dims < 1 || c.Dims > 3 {
		return pic.NewConfigError("Dims", "%d but should be 1, 2 or 3", c.Dims)
	}
	for ax := 0; ax < c.Dims; ax++ {
		if c.Cells[ax] < 1 {
			return pic.NewConfigError("Cells", "%v but should be >0", c.Cells)
		}
		if !(c.CellLength[ax] > 0) {
			return pic.NewConfigError("CellLength", "%v but should be >0", c.CellLength)
		}
	}
	if c.Patches < 1 || c.Cells[0]%c.Patches != 0 {
		return pic.NewConfigError("Patches", "%d but should be >0 and divide Cells[0]=%d", c.Patches, c.Cells[0])
	}
	if c.GhostCells < 2 {
		return pic.NewConfigError("GhostCells", "%d but should be >=2", c.GhostCells)
	}
	if c.Timestep < 0 {
		return pic.NewConfigError("Timestep", "%g but should be >=0", c.Timestep)
	}
	if c.Timestep == 0 && !(c.CFL > 0) {
		return pic.NewConfigError("CFL", "%g but should be >0 when Timestep is 0", c.CFL)
	}
	if c.Steps < 1 {
		return pic.NewConfigError("Steps", "%d but should be >0", c.Steps)
	}
	if c.Species.ParticlesPerCell < 0 {
		return pic.NewConfigError("Species.ParticlesPerCell", "%d but should be >=0", c.Species.ParticlesPerCell)
	}
	if c.Species.Mass < 0 {
		return pic.NewConfigError("Species.Mass", "%g but should be >=0", c.Species.Mass)
	}
	for _, temp := range c.Species.Temperature {
		if temp < 0 || math.IsNaN(temp) {
			return pic.NewConfigError("Species.Temperature", "%v but should be >=0", c.Species.Temperature)
		}
	}
	if v := c.Species.MeanVelocity; c.Species.Mass > 0 && !(v[0]*v[0]+v[1]*v[1]+v[2]*v[2] < 1) {
		return pic.NewConfigError("Species.MeanVelocity", "%v but should be slower than light", v)
	}
	return nil
}

func toIntSliceE(s interface{}) ([]int, error) {
	switch v := s.(type) {
	case []interface{}:
		o := make([]int, len(v))
		for i, val := range v {
			var err error
			if o[i], err = cast.ToIntE(val); err != nil {
				return nil, err
			}
		}
		return o, nil
	case string:
		var o []int
		if err := json.Unmarshal([]byte(v), &o); err != nil {
			return nil, err
		}
		return o, nil
	default:
		return cast.ToIntSliceE(s)
	}
}

func toFloat64SliceE(s interface{}) ([]float64, error) {
	switch v := s.(type) {
	case []float64:
		return v, nil
	case []interface{}:
		o := make([]float64, len(v))
		for i, val := range v {
			var err error
			if o[i], err = cast.ToFloat64E(val); err != nil {
				return nil, err
			}
		}
		return o, nil
	case string:
		var o []float64
		if err := json.Unmarshal([]byte(v), &o); err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("invalid type %T for a list of numbers", s)
	}
}

// getStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func getStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if v == "" {
			return o, nil
		}
		if err := json.Unmarshal([]byte(v), &o); err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("invalid type %T for variable %s", i, varName)
	}
}

// WriteConfig writes the value of every configuration option to w in TOML
// format. Dotted option names become tables.
func WriteConfig(w io.Writer, cfg *viper.Viper) error {
	out := make(map[string]interface{})
	for _, o := range options {
		if o.name == "config" {
			continue
		}
		var v interface{}
		var err error
		switch o.defaultVal.(type) {
		case string:
			v, err = cast.ToStringE(cfg.Get(o.name))
		case bool:
			v, err = cast.ToBoolE(cfg.Get(o.name))
		case int:
			v, err = cast.ToIntE(cfg.Get(o.name))
		case float64:
			v, err = cast.ToFloat64E(cfg.Get(o.name))
		case []int:
			v, err = toIntSliceE(cfg.Get(o.name))
		case []float64:
			v, err = toFloat64SliceE(cfg.Get(o.name))
		case map[string]string:
			v, err = getStringMapString(o.name, cfg)
		}
		if err != nil {
			return fmt.Errorf("pic: reading %q: %v", o.name, err)
		}
		parts := strings.Split(o.name, ".")
		table := out
		for _, p := range parts[:len(parts)-1] {
			sub, ok := table[p].(map[string]interface{})
			if !ok {
				sub = make(map[string]interface{})
				table[p] = sub
			}
			table = sub
		}
		table[parts[len(parts)-1]] = v
	}
	return toml.NewEncoder(w).Encode(out)
}

// expandEnv expands environment variables in profile expressions.
func expandEnv(m map[string]string) map[string]string {
	o := make(map[string]string, len(m))
	for k, v := range m {
		o[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return o
}
