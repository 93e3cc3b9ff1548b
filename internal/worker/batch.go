package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// TopicRunner runs the full analysis for one topic and returns where it wrote its output
type TopicRunner interface {
	RunTopic(ctx context.Context, topic string) (string, error)
}

// TopicJob represents one topic analysis job
type TopicJob struct {
	Index  int
	Topic  string
	Runner TopicRunner
}

// Execute executes the topic job
func (j *TopicJob) Execute(ctx context.Context) Result {
	outDir, err := j.Runner.RunTopic(ctx, j.Topic)
	return &TopicResult{
		Index:     j.Index,
		Topic:     j.Topic,
		OutputDir: outDir,
		Error:     err,
	}
}

// TopicResult represents the result of a topic job
type TopicResult struct {
	Index     int
	Topic     string
	OutputDir string
	Error     error
}

// GetError returns the error from the topic result
func (r *TopicResult) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple topics concurrently
type BatchProcessor struct {
	runner      TopicRunner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner TopicRunner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessTopics processes topics concurrently; results follow input order
func (b *BatchProcessor) ProcessTopics(ctx context.Context, topics []string) []*TopicResult {
	if len(topics) == 0 {
		return []*TopicResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, topic := range topics {
		pool.Submit(&TopicJob{
			Index:  i,
			Topic:  topic,
			Runner: b.runner,
		})
	}

	results := pool.Wait()

	ordered := make([]*TopicResult, len(topics))
	for _, result := range results {
		r := result.(*TopicResult)
		ordered[r.Index] = r
	}
	for i, r := range ordered {
		if r == nil {
			ordered[i] = &TopicResult{Index: i, Topic: topics[i], Error: ctx.Err()}
		}
	}

	return ordered
}

// ProcessFile reads topics from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*TopicResult, error) {
	topics, err := ReadLinesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read topics: %w", err)
	}

	return b.ProcessTopics(ctx, topics), nil
}

// ReadLinesFromFile reads unique non-empty, non-comment lines from a file
func ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}
