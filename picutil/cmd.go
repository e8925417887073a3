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

// Package picutil contains the command-line interface and configuration
// handling for PIC simulations.
package picutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/pic"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to PIC.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel sets the verbosity of log messages: one of panic, fatal,
              error, warn, info or debug.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Geometry",
			usage: `
              Geometry is either "cartesian" or "am" (azimuthal modes). Azimuthal-mode
              simulations are two-dimensional, with a longitudinal and a radial axis.`,
			defaultVal: "cartesian",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Dims",
			usage: `
              Dims is the number of spatial dimensions of the grid.`,
			defaultVal: 3,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Cells",
			usage: `
              Cells is the number of cells along each axis of the whole domain,
              not counting ghost cells.`,
			defaultVal: []int{32, 16, 16},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "CellLength",
			usage: `
              CellLength is the size of the cells along each axis, in units of the
              inverse plasma wavenumber. It is given as a JSON array.`,
			defaultVal: []float64{0.25, 0.25, 0.25},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Patches",
			usage: `
              Patches is the number of patches the domain is split into along the
              first axis. Patches are processed concurrently.`,
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "GhostCells",
			usage: `
              GhostCells is the number of ghost cells added on each side of a patch
              along every axis. The interpolation stencil needs at least 2.`,
			defaultVal: 2,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "NModes",
			usage: `
              NModes is the number of azimuthal modes of "am" simulations.`,
			defaultVal: 2,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Timestep",
			usage: `
              Timestep is the time step in units of the inverse plasma frequency.
              If it is 0 the time step is calculated from CFL.`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "CFL",
			usage: `
              CFL is the Courant number used to calculate the time step when
              Timestep is 0.`,
			defaultVal: 0.95,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Steps",
			usage: `
              Steps is the number of time steps to run.`,
			defaultVal: 10,
			shorthand:  "n",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Solver",
			usage: `
              Solver selects the Maxwell-Faraday solver: "lehe", "yee" or "none".
              Field solvers are only available for three-dimensional Cartesian grids.`,
			defaultVal: "lehe",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "PropagationAxis",
			usage: `
              PropagationAxis is the axis ("x", "y" or "z") along which the Lehe
              solver minimizes numerical dispersion.`,
			defaultVal: "x",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "InitialFields",
			usage: `
              InitialFields maps field names (for example Ez, or El for azimuthal-mode
              simulations) to profiles of the coordinates x, y and z. A profile is
              either a number or an expression such as "0.1*sin(2*pi*x/8)".
              Environment variables in the profiles are expanded.`,
			defaultVal: map[string]string{"Ez": "0.01*sin(2*pi*x/8)"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "CheckpointFile",
			usage: `
              CheckpointFile is the path of a file where the fields and particles are
              saved at the end of the simulation. It can include environment variables.
              No checkpoint is written if it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "RestartFile",
			usage: `
              RestartFile is the path of a checkpoint to continue from. The fields and
              particles it holds replace InitialFields and the particle load, so the
              rest of the configuration must match the run that wrote it.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "FieldsFile",
			usage: `
              FieldsFile is the path of a NetCDF file where the fields of every patch
              are written at the end of the simulation. It can include environment
              variables. No file is written if it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Species.Name",
			usage: `
              Species.Name is the name of the particle species.`,
			defaultVal: "electron",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Species.Mass",
			usage: `
              Species.Mass is the particle mass in electron masses. 0 means photons.`,
			defaultVal: 1.,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Species.ParticlesPerCell",
			usage: `
              Species.ParticlesPerCell is the number of particles loaded in each cell.`,
			defaultVal: 8,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Species.Density",
			usage: `
              Species.Density is the profile of the species density, in units of the
              reference density. Cells where it is not positive are left empty.`,
			defaultVal: "1",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Species.Temperature",
			usage: `
              Species.Temperature is the initial temperature along each axis in units
              of the electron rest energy. It is given as a JSON array.`,
			defaultVal: []float64{0.01, 0.01, 0.01},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Species.MeanVelocity",
			usage: `
              Species.MeanVelocity is the drift velocity of the species in units of
              the speed of light, given as a JSON array. For photons it is the
              mean momentum.`,
			defaultVal: []float64{0, 0, 0},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Species.Seed",
			usage: `
              Species.Seed seeds the random number generator used to load particles.
              Patch i uses Seed+i.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Merge.Method",
			usage: `
              Merge.Method is the particle merging method: "spherical", "cartesian"
              or "none".`,
			defaultVal: "spherical",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Merge.Every",
			usage: `
              Merge.Every is the number of time steps between merging passes.`,
			defaultVal: 5,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Merge.MinParticles",
			usage: `
              Merge.MinParticles is the number of particles a patch must hold before
              they are merged.`,
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Merge.Dims",
			usage: `
              Merge.Dims is the number of momentum cells along each momentum-space
              axis: (|p|, θ, φ) for spherical merging or (px, py, pz) for Cartesian
              merging.`,
			defaultVal: []int{5, 5, 5},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Merge.MinPacket",
			usage: `
              Merge.MinPacket is the smallest number of particles merged together.`,
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Merge.MaxPacket",
			usage: `
              Merge.MaxPacket is the largest number of particles merged together.`,
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Merge.LogScale",
			usage: `
              Merge.LogScale specifies whether the momentum magnitude of spherical
              merging is discretized on a logarithmic scale.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Merge.MinMomentum",
			usage: `
              Merge.MinMomentum is the smallest momentum magnitude used with the
              logarithmic scale.`,
			defaultVal: 1.e-5,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Merge.Tolerance",
			usage: `
              Merge.Tolerance is the relative momentum spread below which a momentum
              cell is left unmerged.`,
			defaultVal: 1.e-10,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("PIC")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case []float64, map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := strings.TrimSpace(b.String())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(configCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up the logger.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("pic: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("pic: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	})
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "pic",
	Short: "A particle-in-cell plasma simulation kernel.",
	Long: `PIC advances electromagnetic fields on a staggered grid with a
dispersion-reduced Maxwell solver, interpolates the fields to macro-particles,
and merges particles in momentum space to keep their number under control.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'PIC_var' where 'var' is the
name of the variable to be set, with dots replaced by underscores.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of PIC.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("PIC v%s\n", pic.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation.",
	Long: `run builds the grid, fields and particles described by the configuration,
then advances them for the configured number of time steps. Status messages
are written to the log after every step.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(cmd, Cfg)
	},
	DisableAutoGenTag: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the configuration.",
	Long: `config prints the effective configuration, after configuration files,
environment variables and command-line arguments have been applied, in TOML
format. The output can be used as a configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := LoadConfig(Cfg); err != nil {
			return err
		}
		return WriteConfig(cmd.OutOrStdout(), Cfg)
	},
	DisableAutoGenTag: true,
}
