package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/gapfinder/internal/baseline"
	"github.com/ppiankov/gapfinder/internal/report"
)

// Output file names inside a run directory
const (
	BaselineFile       = "cognitive_baseline.json"
	Phase2File         = "phase2_results.json"
	ReportJSONFile     = "innovation_gap_report.json"
	ReportMarkdownFile = "innovation_gap_report.md"
)

// Store persists run state as JSON files in one directory
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store directory
func (s *Store) Dir() string { return s.dir }

// Path returns the full path of a file in the store
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// SaveBaseline writes the cognitive baseline
func (s *Store) SaveBaseline(bl *baseline.Baseline) error {
	return s.writeJSON(BaselineFile, bl)
}

// LoadBaseline reads the cognitive baseline; a missing file wraps os.ErrNotExist
func (s *Store) LoadBaseline() (*baseline.Baseline, error) {
	var bl baseline.Baseline
	if err := s.readJSON(BaselineFile, &bl); err != nil {
		return nil, err
	}
	if bl.Tree == nil {
		return nil, fmt.Errorf("%s: missing consensus map", s.Path(BaselineFile))
	}
	return &bl, nil
}

// SavePhase2 writes the phase two results
func (s *Store) SavePhase2(p *Phase2Results) error {
	return s.writeJSON(Phase2File, p)
}

// LoadPhase2 reads the phase two results; a missing file wraps os.ErrNotExist
func (s *Store) LoadPhase2() (*Phase2Results, error) {
	var p Phase2Results
	if err := s.readJSON(Phase2File, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveReport writes the report as JSON and Markdown
func (s *Store) SaveReport(r *report.Report) error {
	if err := s.writeJSON(ReportJSONFile, r); err != nil {
		return err
	}
	return s.writeFile(ReportMarkdownFile, []byte(report.Markdown(r)))
}

// LoadReport reads the JSON report
func (s *Store) LoadReport() (*report.Report, error) {
	var r report.Report
	if err := s.readJSON(ReportJSONFile, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) writeJSON(name string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.writeFile(name, buf.Bytes())
}

func (s *Store) writeFile(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := s.Path(name)
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *Store) readJSON(name string, v any) error {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
