package cli

import (
	"fmt"
	"strings"

	"github.com/ppiankov/gapfinder/internal/pipeline"
	"github.com/spf13/cobra"
)

// baselineCmd runs phase one only
var baselineCmd = &cobra.Command{
	Use:   "baseline <topic>",
	Short: "Build and save the cognitive baseline for a topic",
	Long: `Baseline runs only phase 1: it retrieves review papers for the topic,
extracts their consensus and writes cognitive_baseline.json to the output
directory. Run 'gapfinder run <topic> --skip-phase1' afterwards to reuse it.

Example:
  gapfinder baseline "graph neural networks" --top-k-reviews 15`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := strings.TrimSpace(args[0])
		if topic == "" {
			return fmt.Errorf("topic must not be empty")
		}
		return execute(cmd, topic, pipeline.RunOptions{SkipPhase2: true, SkipReport: true})
	},
}

func init() {
	rootCmd.AddCommand(baselineCmd)
	addRunFlags(baselineCmd)
}
