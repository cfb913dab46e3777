package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"layerforge/internal/demotransform"
	"layerforge/internal/engine"
	"layerforge/internal/regression"
	"layerforge/internal/syntaxtree"
)

var batteryPath string

var regressCmd = &cobra.Command{
	Use:   "regress",
	Short: "Replay a YAML regression battery against the engine",
	Long: `Loads a (source, layers, expectations) battery file and replays every
case against a fresh Orchestrator, printing a pass/fail line per case.
Defaults to <workspace>/regression/battery.yaml.`,
	RunE: runRegress,
}

func init() {
	regressCmd.Flags().StringVar(&batteryPath, "battery", "", "Path to the battery YAML file (default: ./regression/battery.yaml)")
}

func runRegress(cmd *cobra.Command, args []string) error {
	path := batteryPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		path = regression.DefaultBatteryPath(wd)
	}

	battery, err := regression.LoadBattery(path)
	if err != nil {
		return err
	}

	parser := syntaxtree.NewMultiParser()
	defer parser.Close()
	orch := engine.NewOrchestrator(demotransform.Registry(), parser, engine.DefaultCacheSize, log)

	results := regression.RunBattery(context.Background(), orch, battery, engine.Options{UseCache: useCache})

	failures := 0
	for _, res := range results {
		status := badgeAccepted.Render("PASS")
		if !res.Success {
			status = badgeFailed.Render("FAIL")
			failures++
		}
		cmd.Printf("[%s] %s (%dms)\n", status, res.CaseID, res.DurationMs)
		for _, mismatch := range res.Mismatches {
			cmd.Printf("    %s\n", mismatch)
		}
	}
	cmd.Printf("%d/%d cases passed\n", len(results)-failures, len(results))

	if failures > 0 {
		return fmt.Errorf("%d regression case(s) failed", failures)
	}
	return nil
}
