package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ppiankov/gapfinder/internal/model"
)

var errNoJSON = errors.New("reply contains no JSON object")

// decodeReply unmarshals the first JSON object in an LLM reply into v.
// Markdown code fences and leading prose are tolerated.
func decodeReply(task, reply string, v any) error {
	body, err := jsonObject(reply)
	if err != nil {
		return &model.ExtractionError{Task: task, Err: err}
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return &model.ExtractionError{Task: task, Err: fmt.Errorf("malformed reply: %w", err)}
	}
	return nil
}

func jsonObject(reply string) (string, error) {
	s := strings.TrimSpace(reply)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		s = strings.TrimSpace(rest)
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", errNoJSON
	}
	return s[start : end+1], nil
}

// stringList accepts a JSON array of strings, a single comma-separated
// string, or null. Blank and "Unknown" entries are dropped.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}

	var raw []string
	if data[0] == '[' {
		var items []any
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		for _, it := range items {
			switch v := it.(type) {
			case string:
				raw = append(raw, v)
			case map[string]any:
				if name, ok := v["name"].(string); ok {
					raw = append(raw, name)
				}
			case float64:
				raw = append(raw, strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
	} else {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.Split(s, ",")
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "unknown") {
			continue
		}
		out = append(out, s)
	}
	*l = out
	return nil
}

// flexString accepts a JSON string, number or boolean. Models often
// answer scalar fields either way.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	if string(data) == "true" || string(data) == "false" {
		*f = flexString(data)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// conceptTree decodes a concept hierarchy. Two shapes are accepted and
// both keep the model's ordering:
//
//	{"Concept": {"description": "...", "subconcepts": ["a", {"name": "b"}]}}
//	[{"name": "Concept", "description": "...", "subconcepts": [...]}]
type conceptTree []model.Concept

func (c *conceptTree) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*c = nil
		return nil
	}

	switch data[0] {
	case '[':
		var items []conceptEntry
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]model.Concept, 0, len(items))
		for _, it := range items {
			if concept, ok := it.concept(""); ok {
				out = append(out, concept)
			}
		}
		*c = out
		return nil

	case '{':
		dec := json.NewDecoder(bytes.NewReader(data))
		if _, err := dec.Token(); err != nil { // opening brace
			return err
		}
		var out []model.Concept
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			name, _ := tok.(string)
			var entry conceptEntry
			if err := dec.Decode(&entry); err != nil {
				return err
			}
			if entry.bare {
				// "Concept": "description"
				entry.Description, entry.Name = entry.Name, ""
			}
			if concept, ok := entry.concept(name); ok {
				out = append(out, concept)
			}
		}
		if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		*c = out
		return nil
	}

	return fmt.Errorf("concept hierarchy: unexpected %q", data[:1])
}

// conceptEntry is one concept in either shape. A bare string is a concept
// with only a name; a bare array is a list of subconcepts.
type conceptEntry struct {
	Name        string
	Description string
	Subconcepts []conceptEntry
	bare        bool
}

func (e *conceptEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		e.bare = true
		return json.Unmarshal(data, &e.Name)
	case '[':
		return json.Unmarshal(data, &e.Subconcepts)
	case '{':
	default:
		// Numbers, booleans and null carry nothing usable
		return nil
	}
	var raw struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Subconcepts []conceptEntry `json:"subconcepts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Name, e.Description, e.Subconcepts = raw.Name, raw.Description, raw.Subconcepts
	return nil
}

func (e conceptEntry) concept(key string) (model.Concept, bool) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		name = strings.TrimSpace(key)
	}
	if name == "" {
		return model.Concept{}, false
	}
	out := model.Concept{Name: name, Description: strings.TrimSpace(e.Description)}
	for _, sub := range e.Subconcepts {
		if s, ok := sub.concept(""); ok {
			out.Subconcepts = append(out.Subconcepts, s)
		}
	}
	return out, true
}
