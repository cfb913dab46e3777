package main

import (
	"os"

	"github.com/spf13/cobra"

	"layerforge/internal/demotransform"
	"layerforge/internal/engine"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <file>",
	Short: "Recommend a layer set from issue fingerprints, without running anything",
	Long: `Scans the file for known fixable fingerprints and prints the
dependency-closed layer recommendation LayerSelector would produce,
along with its confidence and reasoning, but does not execute any
transformer.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecommend,
}

func runRecommend(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	orch := engine.NewOrchestrator(demotransform.Registry(), nil, engine.DefaultCacheSize, nil)
	rec := orch.Analyse(string(data))

	cmd.Print(engine.NewReporter().RenderRecommendation(rec))
	return nil
}
