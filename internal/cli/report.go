package cli

import (
	"fmt"
	"time"

	"github.com/ppiankov/gapfinder/internal/pipeline"
	"github.com/spf13/cobra"
)

// reportCmd regenerates the report from saved phase outputs
var reportCmd = &cobra.Command{
	Use:   "report <dir>",
	Short: "Regenerate the report from saved results",
	Long: `Report reads cognitive_baseline.json and phase2_results.json from a
previous run directory and writes a fresh innovation gap report next to
them. No searches are made; the LLM is only used for the report narrative.

Example:
  gapfinder report ./gapfinder-output/graph-neural-networks`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := pipeline.NewStore(args[0])
		bl, err := store.LoadBaseline()
		if err != nil {
			return fmt.Errorf("load baseline from %s: %w", args[0], err)
		}
		outputDir = args[0]
		return execute(cmd, bl.Topic, pipeline.RunOptions{SkipPhase1: true, SkipPhase2: true})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	reportCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	reportCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache")
	reportCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "total timeout")
	reportCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile when done")
}
