package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/quaestor-ai/quaestor/internal/interfaces"
)

const (
	defaultBatchSize = 100
	// Large inputs use smaller batches to keep request payloads manageable
	largeInputBatchSize = 50
	largeInputCutoff    = 200
)

// GenerationError reports a batch that failed after all retry attempts
type GenerationError struct {
	Batch    int
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("embedding generation failed for batch %d after %d attempts: %v", e.Batch, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// CountMismatchError reports a provider returning the wrong number of
// vectors. This is never retried or papered over: a silent mismatch would
// attach embeddings to the wrong chunks.
type CountMismatchError struct {
	Want int
	Got  int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("embedding count mismatch: expected %d vectors, got %d", e.Want, e.Got)
}

// Service generates embeddings through an LLM provider with batching,
// exponential-backoff retry and rate limiting.
type Service struct {
	llm        interfaces.LLMService
	limiter    *rate.Limiter
	maxRetries int
	dimension  int
	logger     arbor.ILogger
}

var _ interfaces.EmbeddingService = (*Service)(nil)

// NewService creates an embedding service. rateLimit is the minimum gap
// between provider calls ("1s"); maxRetries is per-batch attempts.
func NewService(llm interfaces.LLMService, dimension, maxRetries int, rateLimit string, logger arbor.ILogger) (*Service, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if rateLimit != "" {
		gap, err := time.ParseDuration(rateLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid embedding rate limit %q: %w", rateLimit, err)
		}
		if gap > 0 {
			limiter = rate.NewLimiter(rate.Every(gap), 1)
		}
	}

	return &Service{
		llm:        llm,
		limiter:    limiter,
		maxRetries: maxRetries,
		dimension:  dimension,
		logger:     logger,
	}, nil
}

// EmbedBatch embeds all texts, preserving input order. Batches of 100 (50
// when more than 200 texts) are sent sequentially; each batch retries with
// exponential backoff before the whole call fails.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batchSize := defaultBatchSize
	if len(texts) > largeInputCutoff {
		batchSize = largeInputBatchSize
	}

	vectors := make([][]float32, 0, len(texts))
	batchNum := 0
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := s.embedWithRetry(ctx, texts[start:end], batchNum)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
		batchNum++
	}

	if len(vectors) != len(texts) {
		return nil, &CountMismatchError{Want: len(texts), Got: len(vectors)}
	}

	s.logger.Debug().
		Int("texts", len(texts)).
		Int("batches", batchNum).
		Msg("Generated embeddings")

	return vectors, nil
}

// embedWithRetry runs one batch against the provider, backing off between
// attempts. A count mismatch is fatal immediately.
func (s *Service) embedWithRetry(ctx context.Context, batch []string, batchNum int) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
		}

		vectors, err := s.llm.EmbedBatch(ctx, batch)
		if err == nil {
			if len(vectors) != len(batch) {
				return nil, &CountMismatchError{Want: len(batch), Got: len(vectors)}
			}
			return vectors, nil
		}

		lastErr = err
		s.logger.Warn().
			Err(err).
			Int("batch", batchNum).
			Int("attempt", attempt+1).
			Int("max_attempts", s.maxRetries).
			Msg("Embedding batch failed")

		if attempt < s.maxRetries-1 {
			if err := sleepCtx(ctx, Backoff(attempt)); err != nil {
				return nil, err
			}
		}
	}

	return nil, &GenerationError{Batch: batchNum, Attempts: s.maxRetries, Err: lastErr}
}

// EmbedQuery embeds a single query text
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	vector, err := s.llm.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vector, nil
}

// EstimateTokens approximates token count as len/4
func (s *Service) EstimateTokens(text string) int {
	return len(text) / 4
}

// Dimension returns the configured embedding dimensionality
func (s *Service) Dimension() int {
	return s.dimension
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
