package baseline

import (
	"context"

	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/rs/zerolog"
)

// ReviewRetriever finds candidate review papers for a topic
type ReviewRetriever interface {
	RetrieveReviews(ctx context.Context, topic string, topK int) ([]model.SourceDocument, error)
}

// ReviewExtractor turns a retrieved review into structured consensus data
type ReviewExtractor interface {
	ExtractReview(ctx context.Context, topic string, doc model.SourceDocument) (*model.ReviewDocument, error)
}

// Builder runs phase one: retrieve reviews, extract each, aggregate
type Builder struct {
	retriever ReviewRetriever
	extractor ReviewExtractor
	topK      int
	logger    *zerolog.Logger
}

// NewBuilder creates a phase-one builder
func NewBuilder(retriever ReviewRetriever, extractor ReviewExtractor, topK int, logger *zerolog.Logger) *Builder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Builder{
		retriever: retriever,
		extractor: extractor,
		topK:      topK,
		logger:    logger,
	}
}

// Construct builds the baseline for topic. Retrieval and per-review
// extraction failures are logged and degrade to fewer reviews.
func (b *Builder) Construct(ctx context.Context, topic string) *Baseline {
	docs, err := b.retriever.RetrieveReviews(ctx, topic, b.topK)
	if err != nil {
		b.logger.Warn().Err(err).Str("topic", topic).Msg("review retrieval failed, continuing with empty set")
		docs = nil
	}
	b.logger.Info().Int("count", len(docs)).Msg("retrieved review papers")

	reviews := make([]model.ReviewDocument, 0, len(docs))
	for _, doc := range docs {
		if ctx.Err() != nil {
			b.logger.Warn().Err(ctx.Err()).Msg("review extraction interrupted")
			break
		}
		review, err := b.extractor.ExtractReview(ctx, topic, doc)
		if err != nil {
			b.logger.Warn().Err(err).Str("url", doc.URL).Msg("skipping review")
			continue
		}
		reviews = append(reviews, *review)
	}

	bl := Build(topic, reviews)
	b.logger.Info().
		Int("reviews", len(bl.Reviews)).
		Int("paradigms", len(bl.Paradigms)).
		Int("methods", len(bl.Methods)).
		Int("boundaries", len(bl.Boundaries)).
		Int("nodes", bl.Tree.Len()).
		Msg("cognitive baseline built")
	return bl
}
