package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	IngestionDuration  metric.Float64Histogram
	IngestionOutcomes  metric.Int64Counter
	ChatMessages       metric.Int64Counter
	TokensUsed         metric.Int64Counter
	EmbeddingCalls     metric.Int64Counter
	SimilarityPairs    metric.Int64Counter
	VectorStoreErrors  metric.Int64Counter
	StudySetsGenerated metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("studymate-platform")

	ingestionDuration, err := meter.Float64Histogram(
		"ingestion.duration",
		metric.WithDescription("Document ingestion pipeline duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	ingestionOutcomes, err := meter.Int64Counter(
		"ingestion.outcomes.total",
		metric.WithDescription("Ingestion pipeline completions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	chatMessages, err := meter.Int64Counter(
		"chat.messages.total",
		metric.WithDescription("Chat messages processed"),
	)
	if err != nil {
		return nil, err
	}

	tokensUsed, err := meter.Int64Counter(
		"gemini.tokens.used",
		metric.WithDescription("Total Gemini tokens used"),
	)
	if err != nil {
		return nil, err
	}

	embeddingCalls, err := meter.Int64Counter(
		"gemini.embeddings.total",
		metric.WithDescription("Embedding requests issued"),
	)
	if err != nil {
		return nil, err
	}

	similarityPairs, err := meter.Int64Counter(
		"suggestions.pairs.total",
		metric.WithDescription("Document pairs scored by the similarity engine"),
	)
	if err != nil {
		return nil, err
	}

	vectorStoreErrors, err := meter.Int64Counter(
		"vectorstore.errors.total",
		metric.WithDescription("Vector store operation failures"),
	)
	if err != nil {
		return nil, err
	}

	studySetsGenerated, err := meter.Int64Counter(
		"study_sets.generated.total",
		metric.WithDescription("Study sets generated by kind"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		IngestionDuration:  ingestionDuration,
		IngestionOutcomes:  ingestionOutcomes,
		ChatMessages:       chatMessages,
		TokensUsed:         tokensUsed,
		EmbeddingCalls:     embeddingCalls,
		SimilarityPairs:    similarityPairs,
		VectorStoreErrors:  vectorStoreErrors,
		StudySetsGenerated: studySetsGenerated,
	}, nil
}

// RecordIngestion records an ingestion pipeline completion
func (m *Metrics) RecordIngestion(duration float64, outcome string) {
	attrs := []attribute.KeyValue{
		attribute.String("ingestion.outcome", outcome),
	}

	m.IngestionDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
	m.IngestionOutcomes.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordChatMessage records a processed chat turn
func (m *Metrics) RecordChatMessage(grounded bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("chat.grounded", grounded),
	}

	m.ChatMessages.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordTokensUsed records Gemini token usage
func (m *Metrics) RecordTokensUsed(tokens int64, model string) {
	attrs := []attribute.KeyValue{
		attribute.String("gemini.model", model),
	}

	m.TokensUsed.Add(context.Background(), tokens, metric.WithAttributes(attrs...))
}

// RecordEmbeddingCalls records embedding requests
func (m *Metrics) RecordEmbeddingCalls(count int64, cached bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("embedding.cached", cached),
	}

	m.EmbeddingCalls.Add(context.Background(), count, metric.WithAttributes(attrs...))
}

// RecordSimilarityPairs records scored document pairs
func (m *Metrics) RecordSimilarityPairs(count int64, failed int64) {
	m.SimilarityPairs.Add(context.Background(), count,
		metric.WithAttributes(attribute.Bool("pair.failed", false)))
	if failed > 0 {
		m.SimilarityPairs.Add(context.Background(), failed,
			metric.WithAttributes(attribute.Bool("pair.failed", true)))
	}
}

// RecordVectorStoreError records a vector store failure
func (m *Metrics) RecordVectorStoreError(operation string) {
	attrs := []attribute.KeyValue{
		attribute.String("vectorstore.operation", operation),
	}

	m.VectorStoreErrors.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordStudySet records a generated study set
func (m *Metrics) RecordStudySet(kind string) {
	attrs := []attribute.KeyValue{
		attribute.String("study_set.kind", kind),
	}

	m.StudySetsGenerated.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
