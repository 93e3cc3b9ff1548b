// Package cluster groups strongly deviating documents by their shared
// deviation dimensions and keeps only the groups a validator accepts.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"

	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/rs/zerolog"
)

const (
	// Coherence is assigned to every accepted cluster
	Coherence = 0.7

	// EvidenceConfidence is assigned to every evidence item
	EvidenceConfidence = 0.8

	maxPromptMembers  = 5
	maxPromptFindings = 3
	claimsPerMember   = 2
	excerptRunes      = 200
)

// ValidationRequest asks whether a candidate group forms a coherent innovation
type ValidationRequest struct {
	Topic      string
	PaperGroup string // Up to five titles with up to three findings each
	Dimensions []string
}

// Verdict is the validator's answer
type Verdict struct {
	Coherent        bool
	Name            string
	Reasoning       string
	Summary         string
	PotentialImpact string
	Dimensions      []string
}

// Validator judges candidate groups
type Validator interface {
	ValidateCluster(ctx context.Context, req ValidationRequest) (*Verdict, error)
}

// Identifier forms innovation clusters from analyzed documents
type Identifier struct {
	validator      Validator
	minClusterSize int
	threshold      float64
	logger         *zerolog.Logger
}

// NewIdentifier creates a cluster identifier
func NewIdentifier(validator Validator, minClusterSize int, threshold float64, logger *zerolog.Logger) *Identifier {
	if minClusterSize < 1 {
		minClusterSize = 1
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Identifier{
		validator:      validator,
		minClusterSize: minClusterSize,
		threshold:      threshold,
		logger:         logger,
	}
}

type member struct {
	doc  model.AnalyzedDocument
	mean float64
}

type group struct {
	dims    []string
	members []member
}

// Key returns the exact-match grouping key for a document
func Key(doc model.AnalyzedDocument) string {
	return strings.Join(doc.Dimensions(), "\x1f")
}

// candidates filters documents by mean score and groups them by dimension
// key in order of first appearance, dropping groups below the minimum size.
// It returns an InsufficientDataError when too few documents qualify.
func (id *Identifier) candidates(docs []model.AnalyzedDocument) ([]group, error) {
	var kept []member
	for _, d := range docs {
		mean, ok := d.MeanScore()
		if !ok || mean < id.threshold {
			continue
		}
		kept = append(kept, member{doc: d, mean: mean})
	}

	if len(kept) < id.minClusterSize {
		return nil, &model.InsufficientDataError{Stage: "clustering", Have: len(kept), Need: id.minClusterSize}
	}

	index := make(map[string]int)
	var groups []group
	for _, m := range kept {
		key := Key(m.doc)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{dims: m.doc.Dimensions()})
		}
		groups[i].members = append(groups[i].members, m)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.members) >= id.minClusterSize {
			out = append(out, g)
		}
	}
	return out, nil
}

// Identify returns the accepted clusters. Sparse input, validator errors
// and negative verdicts are logged and yield fewer clusters, never an error.
func (id *Identifier) Identify(ctx context.Context, topic string, docs []model.AnalyzedDocument) []model.InnovationCluster {
	clusters := make([]model.InnovationCluster, 0)

	groups, err := id.candidates(docs)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientData) {
			id.logger.Info().Err(err).Msg("not enough deviating documents to form clusters")
			return clusters
		}
		id.logger.Warn().Err(err).Msg("clustering failed")
		return clusters
	}

	for _, g := range groups {
		verdict, err := id.validator.ValidateCluster(ctx, ValidationRequest{
			Topic:      topic,
			PaperGroup: describeGroup(g),
			Dimensions: g.dims,
		})
		if err != nil {
			id.logger.Warn().Err(err).Strs("dimensions", g.dims).Msg("cluster validation failed, rejecting group")
			continue
		}
		if !verdict.Coherent {
			id.logger.Info().Str("reason", verdict.Reasoning).Strs("dimensions", g.dims).Msg("rejected cluster")
			continue
		}
		clusters = append(clusters, build(topic, g, verdict))
	}

	id.logger.Info().Int("clusters", len(clusters)).Int("candidates", len(groups)).Msg("innovation clusters identified")
	return clusters
}

func describeGroup(g group) string {
	var b strings.Builder
	for i, m := range g.members {
		if i == maxPromptMembers {
			break
		}
		findings := m.doc.Document.KeyFindings
		findings = findings[:min(maxPromptFindings, len(findings))]
		fmt.Fprintf(&b, "%d. %s\n   Key findings: %s\n", i+1, m.doc.Document.Title, strings.Join(findings, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func build(topic string, g group, v *Verdict) model.InnovationCluster {
	members := make([]model.FrontierDocument, 0, len(g.members))
	urls := make([]string, 0, len(g.members))
	var sum float64
	var evidence []model.Evidence
	for _, m := range g.members {
		doc := m.doc.Document
		members = append(members, doc)
		urls = append(urls, doc.URL)
		sum += m.mean
		for _, claim := range doc.CoreClaims[:min(claimsPerMember, len(doc.CoreClaims))] {
			evidence = append(evidence, model.Evidence{
				DocumentURL:   doc.URL,
				DocumentTitle: doc.Title,
				Claim:         claim,
				Excerpt:       truncateRunes(doc.Abstract, excerptRunes),
				Confidence:    EvidenceConfidence,
			})
		}
	}

	first := g.members[0].doc.Records[0]
	path := slices.Clone(first.BaselinePath)

	dims := v.Dimensions
	if len(dims) == 0 {
		dims = g.dims
	}

	return model.InnovationCluster{
		ID:      model.ClusterID(len(members), hashURLs(urls)),
		Name:    v.Name,
		Members: members,
		Aggregated: model.DeviationRecord{
			BaselinePath: path,
			Dimensions:   slices.Clone(g.dims),
			Description:  v.Summary,
			Score:        sum / float64(len(g.members)),
		},
		Coherence:       Coherence,
		Dimensions:      dims,
		Evidence:        evidence,
		KnowledgePath:   append([]string{topic}, path...),
		Summary:         v.Summary,
		PotentialImpact: v.PotentialImpact,
	}
}

func hashURLs(urls []string) uint32 {
	sorted := slices.Clone(urls)
	slices.Sort(sorted)
	h := fnv.New32a()
	for _, u := range sorted {
		_, _ = h.Write([]byte(u))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum32()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
