package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/ppiankov/gapfinder/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outputDir    string
	skipPhase1   bool
	skipPhase2   bool
	topKReviews  int
	topKResearch int
	llmProvider  string
	llmModel     string
	providers    []string
	enrichPages  bool
	noCache      bool
	runTimeout   time.Duration
	metricsFile  string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Run the full innovation gap analysis for a topic",
	Long: `Run executes the whole pipeline for one research topic:
- Phase 1: retrieve review papers and build the cognitive baseline
- Phase 2: retrieve recent research, score it against the baseline from
  several viewpoints and identify coherent innovation clusters
- Report: write innovation_gap_report.json and innovation_gap_report.md

Intermediate results are saved in the output directory, so a later run can
skip a phase and reuse them.

Example:
  gapfinder run "graph neural networks"
  gapfinder run "retrieval augmented generation" --top-k-research 50
  gapfinder run "protein folding" --skip-phase1 --output-dir ./out/protein-folding`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&skipPhase1, "skip-phase1", false, "load the saved baseline instead of building it")
	runCmd.Flags().BoolVar(&skipPhase2, "skip-phase2", false, "load saved phase 2 results instead of recomputing them")
}

// addRunFlags registers the flags shared by commands that run the pipeline
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "output directory (default: <output.dir>/<topic-slug>)")
	cmd.Flags().IntVar(&topKReviews, "top-k-reviews", 0, "number of review papers for the baseline")
	cmd.Flags().IntVar(&topKResearch, "top-k-research", 0, "number of recent papers to analyze")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	cmd.Flags().StringSliceVar(&providers, "search", nil, "search providers (arxiv, tavily)")
	cmd.Flags().BoolVar(&enrichPages, "enrich", false, "fetch landing pages for documents with thin abstracts")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh searches and completions)")
	cmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "total timeout")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile when done")
}

// configure loads the configuration and applies the flags the user set
func configure(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("top-k-reviews") {
		cfg.Analysis.TopKReviews = topKReviews
	}
	if flags.Changed("top-k-research") {
		cfg.Analysis.TopKResearch = topKResearch
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.APIKey = ""
		applyEnvKeys(cfg)
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("search") {
		cfg.Search.Providers = providers
	}
	if flags.Changed("enrich") {
		cfg.Search.EnrichPages = enrichPages
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if flags.Changed("metrics-file") {
		cfg.Output.MetricsFile = metricsFile
	}
	return cfg, nil
}

// topicDir is the explicit --output-dir or the per-topic default
func topicDir(cfg *model.Config, topic string) string {
	if outputDir != "" {
		return outputDir
	}
	return filepath.Join(cfg.Output.Dir, pipeline.Slug(topic))
}

func runRun(cmd *cobra.Command, args []string) error {
	topic := strings.TrimSpace(args[0])
	if topic == "" {
		return fmt.Errorf("topic must not be empty")
	}
	return execute(cmd, topic, pipeline.RunOptions{SkipPhase1: skipPhase1, SkipPhase2: skipPhase2})
}

// execute runs one session with opts and prints a summary to stderr
func execute(cmd *cobra.Command, topic string, opts pipeline.RunOptions) error {
	cfg, err := configure(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	dir := topicDir(cfg, topic)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  gapfinder: %s\n", topic)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "  Search:       %s\n", strings.Join(cfg.Search.Providers, ", "))
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", dir)
	fmt.Fprintf(os.Stderr, "\n")

	start := time.Now()
	session := p.Session(topic, dir)
	r, runErr := session.Run(ctx, opts)

	if err := p.Metrics().WriteTextfile(cfg.Output.MetricsFile); err != nil {
		logger.Warn().Err(err).Str("path", cfg.Output.MetricsFile).Msg("failed to write metrics")
	}
	if runErr != nil {
		return runErr
	}

	if bl := session.Baseline(); bl != nil && !opts.SkipPhase1 {
		fmt.Fprintf(os.Stderr, "✓ Baseline: %d reviews, %d concepts\n", len(bl.Reviews), bl.Tree.Len()-1)
	}
	if p2 := session.Phase2(); p2 != nil && !opts.SkipPhase2 {
		fmt.Fprintf(os.Stderr, "✓ Phase 2: %d papers analyzed, %d innovation clusters\n", len(p2.Analyzed), len(p2.Clusters))
	}
	if r != nil {
		fmt.Fprintf(os.Stderr, "✓ Report: %s\n", filepath.Join(dir, pipeline.ReportMarkdownFile))
		fmt.Fprintf(os.Stderr, "           %s\n", filepath.Join(dir, pipeline.ReportJSONFile))
	}
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Completed in %s\n", time.Since(start).Round(time.Second))
	fmt.Fprintf(os.Stderr, "\n")
	return nil
}
