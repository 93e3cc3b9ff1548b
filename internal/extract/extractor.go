// Package extract turns retrieved documents into structured records by
// prompting an LLM for JSON and validating what comes back.
package extract

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/ppiankov/gapfinder/internal/baseline"
	"github.com/ppiankov/gapfinder/internal/cluster"
	"github.com/ppiankov/gapfinder/internal/llm"
	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/ppiankov/gapfinder/internal/report"
	"github.com/ppiankov/gapfinder/internal/score"
	"github.com/rs/zerolog"
)

var (
	_ baseline.ReviewExtractor = (*LLMExtractor)(nil)
	_ score.Analyst            = (*LLMExtractor)(nil)
	_ cluster.Validator        = (*LLMExtractor)(nil)
	_ report.Writer            = (*LLMExtractor)(nil)
)

// Asker sends one completion and returns the reply text. *llm.Client implements it.
type Asker interface {
	Ask(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// LLMExtractor implements review, frontier and deviation extraction, cluster
// validation and report prose on top of an Asker.
type LLMExtractor struct {
	asker  Asker
	logger *zerolog.Logger
	now    func() time.Time
}

// New creates an extractor
func New(asker Asker, logger *zerolog.Logger) *LLMExtractor {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LLMExtractor{
		asker:  asker,
		logger: logger,
		now:    time.Now,
	}
}

const jsonSystem = "You are a meticulous research analyst. " +
	"Answer with a single JSON object that follows the requested schema exactly. " +
	"Do not add commentary outside the JSON."

const proseSystem = "You are a senior research analyst writing for domain experts. " +
	"Write clear, specific prose in plain paragraphs without headings."

// askJSON prompts for a JSON object and decodes it into v
func (e *LLMExtractor) askJSON(ctx context.Context, task, prompt string, v any) error {
	reply, err := e.asker.Ask(ctx, llm.CompletionRequest{System: jsonSystem, Prompt: prompt})
	if err != nil {
		return &model.ExtractionError{Task: task, Err: err}
	}
	return decodeReply(task, reply, v)
}

// askProse prompts for free text
func (e *LLMExtractor) askProse(ctx context.Context, task, prompt string) (string, error) {
	reply, err := e.asker.Ask(ctx, llm.CompletionRequest{System: proseSystem, Prompt: prompt})
	if err != nil {
		return "", &model.ExtractionError{Task: task, Err: err}
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", &model.ExtractionError{Task: task, Err: errors.New("empty reply")}
	}
	return reply, nil
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// parseYear reads a publication year from a model answer such as "2021",
// "circa 2019" or "March 3, 2020". Anything else yields fallback.
func parseYear(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if m := yearPattern.FindString(raw); m != "" {
		y, _ := strconv.Atoi(m)
		return y
	}
	if t, err := dateparse.ParseAny(raw); err == nil && t.Year() > 1900 {
		return t.Year()
	}
	return fallback
}

// fallbackYear is the source's year when known, otherwise the current year
func (e *LLMExtractor) fallbackYear(doc model.SourceDocument) int {
	if doc.Year > 0 {
		return doc.Year
	}
	return e.now().Year()
}

func cleanVenue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "unknown") || strings.EqualFold(v, "n/a") {
		return ""
	}
	return v
}

func orDefault(list []string, fallback []string) []string {
	if len(list) > 0 {
		return list
	}
	return fallback
}

func wrapf(task string, format string, args ...any) error {
	return &model.ExtractionError{Task: task, Err: fmt.Errorf(format, args...)}
}
