package main

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"layerforge/internal/demotransform"
	"layerforge/internal/engine"
	"layerforge/internal/logging"
	"layerforge/internal/syntaxtree"
)

var (
	layersFlag string
	dialect    string
	writeFlag  bool
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run the layer pipeline over a source file",
	Long: `Runs the requested (or, with no --layers, the default) set of layers
over the given file's contents and prints a per-layer report.

Example:
  layerctl run --layers 2,3,4 ./component.tsx`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&layersFlag, "layers", "", "Comma-separated layer ids to run (default: the engine's default set)")
	runCmd.Flags().StringVar(&dialect, "dialect", "tsx", "Source dialect: js, ts, or tsx")
	runCmd.Flags().BoolVar(&writeFlag, "write", false, "Overwrite the file with the final code on success")
}

// dialectOrder puts the requested dialect first, so MultiParser still
// falls back to the other two grammars when the primary one can't parse.
func dialectOrder(name string) []syntaxtree.Dialect {
	all := []syntaxtree.Dialect{syntaxtree.DialectJavaScript, syntaxtree.DialectTypeScript, syntaxtree.DialectTSX}
	var primary syntaxtree.Dialect
	switch strings.ToLower(name) {
	case "js", "javascript":
		primary = syntaxtree.DialectJavaScript
	case "ts", "typescript":
		primary = syntaxtree.DialectTypeScript
	default:
		primary = syntaxtree.DialectTSX
	}
	ordered := []syntaxtree.Dialect{primary}
	for _, d := range all {
		if d != primary {
			ordered = append(ordered, d)
		}
	}
	return ordered
}

func parseLayers(raw string) ([]engine.LayerID, error) {
	if raw == "" {
		return nil, nil
	}
	var out []engine.LayerID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, engine.LayerID(n))
	}
	return out, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	requested, err := parseLayers(layersFlag)
	if err != nil {
		return err
	}

	parser := syntaxtree.NewMultiParser(dialectOrder(dialect)...)
	defer parser.Close()

	orch := engine.NewOrchestrator(demotransform.Registry(), parser, engine.DefaultCacheSize, log.With(logging.CategoryOrchestrator))

	ctx := context.Background()
	res, err := orch.Execute(ctx, string(data), requested, engine.Options{
		UseCache:        useCache,
		SkipUnnecessary: true,
		GlobalDeadline:  globalDeadline,
	})
	if err != nil {
		return err
	}

	cmd.Printf("orchestration: %s (cache_hit=%v, elapsed=%dms)\n", overallBadge(res.Success), res.CacheHit, res.ElapsedMs)
	for _, lo := range res.PerLayer {
		cmd.Printf("  layer %d %s %s\n", lo.LayerID, statusBadge(lo.Outcome), lo.Outcome)
	}

	reporter := engine.NewReporter()
	cmd.Println(reporter.Render(res))

	if writeFlag && res.Success {
		if err := os.WriteFile(path, []byte(res.FinalCode), 0o644); err != nil {
			return err
		}
	}
	if !res.Success {
		os.Exit(1)
	}
	return nil
}
