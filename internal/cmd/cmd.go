/*
Copyright © 2024 the WasteLCA authors.
This file is part of WasteLCA.

WasteLCA is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

WasteLCA is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with WasteLCA.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package cmd implements the wastelca command-line interface.
package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/spatialmodel/wastelca"
	"github.com/spatialmodel/wastelca/dynamic"
	"github.com/spatialmodel/wastelca/gwp"
	"github.com/spatialmodel/wastelca/montecarlo"
)

const year = "2024"

// These variables specify configuration flags.
var (
	// configFile specifies the location of the model configuration file.
	configFile string

	// outputFile specifies where result tables are written. "-" means
	// standard output.
	outputFile string

	// samples specifies the number of Monte Carlo draws.
	samples int

	// seed specifies the base Monte Carlo random seed.
	seed uint64

	// jobs specifies the degree of parallelism for Monte Carlo runs.
	jobs int

	// timelines computes emission timelines for every Monte Carlo sample.
	timelines bool

	// sampleTimeout bounds the wall-clock time of each Monte Carlo sample.
	sampleTimeout time.Duration

	// cutoff specifies the relative cutoff threshold for temporal traversal.
	cutoff float64

	// horizon specifies the characterization time horizon in years.
	horizon float64
)

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	runCmd.AddCommand(staticCmd)
	runCmd.AddCommand(dynamicCmd)
	Root.AddCommand(montecarloCmd)

	// Create the configuration flags.
	Root.PersistentFlags().StringVar(&configFile, "config", "./wastelca.toml", "configuration file location")
	Root.PersistentFlags().StringVarP(&outputFile, "output", "o", "-",
		"File to write result tables to; '-' means standard output.")

	dynamicCmd.Flags().Float64Var(&cutoff, "cutoff", 1.e-3,
		"Fraction of the functional unit below which branches of the process "+
			"graph are not followed further in time.")
	dynamicCmd.Flags().Float64Var(&horizon, "horizon", 100,
		"Characterization time horizon in years after each emission.")

	montecarloCmd.Flags().IntVarP(&samples, "samples", "n", 1000, "Number of Monte Carlo samples.")
	montecarloCmd.Flags().Uint64Var(&seed, "seed", 1, "Base random seed; reruns with the "+
		"same seed and sample count give identical results.")
	montecarloCmd.Flags().IntVarP(&jobs, "jobs", "j", 0,
		"Number of samples to compute concurrently; 0 means the number of CPUs.")
	montecarloCmd.Flags().BoolVar(&timelines, "timelines", false,
		"Also compute an emission timeline and impact curve for every sample.")
	montecarloCmd.Flags().DurationVar(&sampleTimeout, "sample-timeout", 0,
		"Maximum wall-clock time per sample; samples exceeding it count as failed.")
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "wastelca",
	Short: "A life cycle assessment model for solid waste management.",
	Long: `A life cycle assessment model for solid waste management systems.
Given a process graph of technosphere processes and elementary flows,
it computes life cycle inventories, time-resolved emission profiles,
and Monte Carlo uncertainty estimates.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		fmt.Println("\n" +
			"------------------------------------------------\n" +
			"                    Welcome!\n" +
			"     (Waste) management (LCA) calculator        \n" +
			"                Version " + wastelca.Version + "\n" +
			"               Copyright 2024-" + year + "      \n" +
			"------------------------------------------------")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		fmt.Println("\n" +
			"------------------------------------\n" +
			"         WasteLCA Completed!\n" +
			"------------------------------------")
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of WasteLCA",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("WasteLCA v%s\n", wastelca.Version)
	},
	PersistentPreRun:  func(cmd *cobra.Command, args []string) {},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model",
	Long:  "Run WasteLCA. Subcommands specify the run mode.",
}

// staticCmd computes the steady-state life cycle inventory.
var staticCmd = &cobra.Command{
	Use:   "static",
	Short: "Compute the life cycle inventory.",
	Long: "Compute the scaling of every process and the total amount of " +
		"every elementary flow required to satisfy the demand in the " +
		"configuration file, with no temporal resolution.",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, demand, err := loadModel()
		if err != nil {
			return err
		}
		_, inv, err := wastelca.Solve(g, demand)
		if err != nil {
			return err
		}
		return writeTable(inv.Table(g))
	},
}

// dynamicCmd computes the time-resolved emission profile and the
// cumulative radiative forcing it causes.
var dynamicCmd = &cobra.Command{
	Use:   "dynamic",
	Short: "Compute the time-resolved emission profile.",
	Long: "Traverse the process graph through time, spreading each emission " +
		"over its temporal distribution, and characterize the resulting " +
		"timeline as cumulative radiative forcing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, demand, err := loadModel()
		if err != nil {
			return err
		}
		_, inv, err := wastelca.Solve(g, demand)
		if err != nil {
			return err
		}
		tl, err := dynamic.Build(g, demand, inv, dynamic.Config{
			Policy:  dynamic.RelativeCutoff(cutoff),
			Horizon: horizon,
		})
		if err != nil {
			return err
		}
		if err := writeTable(tl.Table()); err != nil {
			return err
		}
		c := &dynamic.Characterizer{
			Kernels: dynamic.KernelMap{
				"CO2": gwp.CO2(),
				"CH4": gwp.Methane(),
			},
			Horizon: horizon,
		}
		curve, err := c.Characterize(tl)
		if err != nil {
			return err
		}
		return writeTable(curve.Table())
	},
}

// montecarloCmd propagates exchange uncertainty through the model.
var montecarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Run a Monte Carlo uncertainty simulation.",
	Long: "Repeatedly resample uncertain exchange amounts and re-solve the " +
		"model, reporting the mean, standard deviation, and percentiles " +
		"of every inventory flow.",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, demand, err := loadModel()
		if err != nil {
			return err
		}
		p := montecarlo.New(montecarlo.Config{
			Samples:          samples,
			Seed:             seed,
			Jobs:             jobs,
			ComputeTimelines: timelines,
			SampleTimeout:    sampleTimeout,
			Percentiles:      []float64{0.025, 0.5, 0.975},
		})
		if timelines {
			p.Characterizer = &dynamic.Characterizer{
				Kernels: dynamic.KernelMap{
					"CO2": gwp.CO2(),
					"CH4": gwp.Methane(),
				},
			}
		}
		p.Log = logrus.StandardLogger()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		res, err := p.Run(ctx, g, demand)
		if res != nil {
			if werr := writeTable(res.Table(g, p.Percentiles)); werr != nil {
				return werr
			}
		}
		return err
	},
}

// loadModel reads the configuration file and builds the process graph.
func loadModel() (*wastelca.Graph, wastelca.Demand, error) {
	f, err := os.Open(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("cmd: opening configuration file: %v", err)
	}
	defer f.Close()
	return wastelca.LoadModel(f)
}

// writeTable writes a result table as CSV to the output file, followed
// by a blank line so consecutive tables stay separable.
func writeTable(rows [][]string) error {
	w := os.Stdout
	if outputFile != "-" {
		f, err := os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("cmd: opening output file: %v", err)
		}
		defer f.Close()
		w = f
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("cmd: writing results: %v", err)
	}
	_, err := fmt.Fprintln(w)
	return err
}
