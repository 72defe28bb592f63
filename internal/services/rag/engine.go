package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/interfaces"
	"github.com/quaestor-ai/quaestor/internal/models"
)

const (
	// thresholdFloor caps the effective similarity threshold. Retrieval
	// favors recall: a stricter caller threshold is clamped down to this.
	thresholdFloor = 0.2

	truncationMarker = "\n\n[Context truncated for performance...]"

	systemPrompt = "Answer questions using ONLY the provided document context. " +
		"If context is insufficient, say so. Be concise. " +
		"Cite document names and page numbers."

	noResultsAnswer = "I couldn't find any relevant information in your documents " +
		"to answer this question. Please try rephrasing your question or upload " +
		"more relevant documents."

	emptyAnswerFallback = "I couldn't generate an answer. Please try again."
)

// QueryError wraps any failure inside the retrieval-augmented query flow
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Result is the answer to one question with its supporting citations
type Result struct {
	Answer     string            `json:"answer"`
	Citations  []models.Citation `json:"citations"`
	ChunksUsed int               `json:"chunks_used"`
}

// Engine answers questions from a tenant's indexed documents: embed the
// question, retrieve the closest chunks, and generate an answer grounded in
// that context.
type Engine struct {
	embedder        interfaces.EmbeddingService
	index           interfaces.VectorIndex
	llm             interfaces.LLMService
	maxChunks       int
	scoreThreshold  float32
	maxContextChars int
	logger          arbor.ILogger
}

// NewEngine creates a query engine
func NewEngine(
	embedder interfaces.EmbeddingService,
	index interfaces.VectorIndex,
	llm interfaces.LLMService,
	maxChunks int,
	scoreThreshold float32,
	maxContextChars int,
	logger arbor.ILogger,
) *Engine {
	if maxChunks <= 0 {
		maxChunks = 5
	}
	if maxContextChars <= 0 {
		maxContextChars = 3000
	}
	return &Engine{
		embedder:        embedder,
		index:           index,
		llm:             llm,
		maxChunks:       maxChunks,
		scoreThreshold:  scoreThreshold,
		maxContextChars: maxContextChars,
		logger:          logger,
	}
}

// Query answers a question from the tenant's documents. When nothing
// relevant is retrieved it short-circuits with a fixed answer and no model
// call.
func (e *Engine) Query(ctx context.Context, tenantID, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &QueryError{Err: fmt.Errorf("question cannot be empty")}
	}

	vector, err := e.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, &QueryError{Err: err}
	}

	threshold := e.scoreThreshold
	if threshold > thresholdFloor {
		threshold = thresholdFloor
	}

	matches, err := e.index.Search(ctx, tenantID, vector, e.maxChunks, threshold)
	if err != nil {
		return nil, &QueryError{Err: err}
	}

	if len(matches) == 0 {
		e.logger.Debug().Str("tenant_id", tenantID).Msg("No relevant chunks retrieved")
		return &Result{
			Answer:     noResultsAnswer,
			Citations:  []models.Citation{},
			ChunksUsed: 0,
		}, nil
	}

	contextText := buildContextText(matches, e.maxContextChars)
	citations := collectCitations(matches)

	messages := []interfaces.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", contextText, question)},
	}

	answer, err := e.llm.Chat(ctx, messages)
	if err != nil {
		return nil, &QueryError{Err: err}
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = emptyAnswerFallback
	}

	e.logger.Debug().
		Str("tenant_id", tenantID).
		Int("chunks_used", len(matches)).
		Int("citations", len(citations)).
		Msg("Answered query")

	return &Result{
		Answer:     answer,
		Citations:  citations,
		ChunksUsed: len(matches),
	}, nil
}

// buildContextText renders matches as labeled blocks in retrieval order and
// enforces the character budget with an explicit truncation marker.
func buildContextText(matches []interfaces.VectorMatch, maxChars int) string {
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, fmt.Sprintf("[Document: %s, Page %d]\n%s",
			m.Payload.Filename, m.Payload.PageNumber, m.Payload.Text))
	}

	text := strings.Join(blocks, "\n\n")
	if len(text) > maxChars {
		text = text[:maxChars] + truncationMarker
	}
	return text
}

// collectCitations deduplicates by (document, page) keeping first-seen
// order, which follows descending relevance.
func collectCitations(matches []interfaces.VectorMatch) []models.Citation {
	seen := make(map[string]bool, len(matches))
	citations := make([]models.Citation, 0, len(matches))

	for _, m := range matches {
		key := fmt.Sprintf("%s:%d", m.Payload.DocumentID, m.Payload.PageNumber)
		if seen[key] {
			continue
		}
		seen[key] = true
		citations = append(citations, models.Citation{
			DocumentID:   m.Payload.DocumentID,
			DocumentName: m.Payload.Filename,
			PageNumber:   m.Payload.PageNumber,
		})
	}
	return citations
}
