package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// MockRunner implements TopicRunner
type MockRunner struct {
	ShouldError bool
}

func (m *MockRunner) RunTopic(ctx context.Context, topic string) (string, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return "", errors.New("run error")
	}
	return filepath.Join("out", topic), nil
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topics.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessTopics(t *testing.T) {
	processor := NewBatchProcessor(&MockRunner{}, 2)

	topics := []string{"graph neural networks", "diffusion models", "protein folding"}
	results := processor.ProcessTopics(context.Background(), topics)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Topic, res.Error)
		}
		if res.Topic != topics[i] {
			t.Errorf("expected result %d to be %q, got %q", i, topics[i], res.Topic)
		}
		if res.OutputDir != filepath.Join("out", topics[i]) {
			t.Errorf("unexpected output dir %s", res.OutputDir)
		}
	}
}

func TestBatchProcessor_ProcessTopics_Error(t *testing.T) {
	processor := NewBatchProcessor(&MockRunner{ShouldError: true}, 2)

	results := processor.ProcessTopics(context.Background(), []string{"t"})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].OutputDir != "" {
		t.Error("expected empty output dir on error")
	}
}

func TestBatchProcessor_ProcessTopics_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockRunner{}, 2)

	results := processor.ProcessTopics(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadLinesFromFile(t *testing.T) {
	path := writeTempFile(t, "graph neural networks\n# comment\ndiffusion models\n   \nprotein folding   \ngraph neural networks\n")

	lines, err := ReadLinesFromFile(path)
	if err != nil {
		t.Fatalf("ReadLinesFromFile failed: %v", err)
	}

	expected := []string{"graph neural networks", "diffusion models", "protein folding"}
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(lines))
	}

	for i, line := range lines {
		if line != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, line)
		}
	}
}

func TestReadLinesFromFile_NonExistent(t *testing.T) {
	_, err := ReadLinesFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestTopicResult_GetError(t *testing.T) {
	r1 := &TopicResult{Topic: "t"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("run failed")
	r2 := &TopicResult{Topic: "t", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTempFile(t, "a\nb\n# comment\n\nc\n")

	processor := NewBatchProcessor(&MockRunner{}, 2)

	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&MockRunner{}, 2)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
