// Package main implements layerctl - the demonstration CLI surface for
// the layer transformation engine.
//
// This file serves as the entry point and command registration hub:
// main.go holds rootCmd and the global flags, with one file per
// command group.
//
// # File Index
//
//   - main.go     - entry point, rootCmd, global flags, init()
//   - run.go      - runCmd: execute the fixed layer pipeline over a file
//   - recommend.go - recommendCmd: smart layer selection over a file
//   - regress.go  - regressCmd: replay a YAML regression battery
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"layerforge/internal/logging"
)

var (
	verbose        bool
	useCache       bool
	globalDeadline time.Duration
	jsonOutput     bool

	log *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "layerctl",
	Short: "layerctl - drive the layer transformation engine over TS/JS/JSX source",
	Long: `layerctl is a demonstration CLI over the layer transformation engine.

It runs the fixed six-layer pipeline (configuration, patterns, components,
hydration, framework-specific, testing/quality) against a source file,
reports per-layer outcomes, and can replay a YAML regression battery.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelInfo
		if verbose {
			level = logging.LevelDebug
		}
		log = logging.New(os.Stderr, logging.CategoryCLI, logging.Config{
			Level:      level,
			JSONFormat: jsonOutput,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&useCache, "cache", true, "Use the content-addressed result cache")
	rootCmd.PersistentFlags().DurationVar(&globalDeadline, "deadline", 0, "Global deadline for the whole run (0 = none)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit structured JSON logs instead of text")

	rootCmd.AddCommand(runCmd, recommendCmd, regressCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
