package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/common"
	"github.com/quaestor-ai/quaestor/internal/interfaces"
	"github.com/quaestor-ai/quaestor/internal/models"
	"github.com/quaestor-ai/quaestor/internal/services/chunker"
)

// maxErrorMessageLength bounds the stored failure reason
const maxErrorMessageLength = 2000

// Processor drives a document through extract -> chunk -> embed -> index.
// Status transitions: pending -> processing -> completed or failed. A failure
// anywhere marks the document failed and still propagates the error.
type Processor struct {
	docs           interfaces.DocumentStorage
	extractor      interfaces.PDFExtractor
	chunker        *chunker.Chunker
	embedder       interfaces.EmbeddingService
	index          interfaces.VectorIndex
	logger         arbor.ILogger
	processTimeout time.Duration
}

// NewProcessor creates a document processor
func NewProcessor(
	docs interfaces.DocumentStorage,
	ext interfaces.PDFExtractor,
	chk *chunker.Chunker,
	embedder interfaces.EmbeddingService,
	index interfaces.VectorIndex,
	processTimeout time.Duration,
	logger arbor.ILogger,
) *Processor {
	if processTimeout <= 0 {
		processTimeout = 10 * time.Minute
	}
	return &Processor{
		docs:           docs,
		extractor:      ext,
		chunker:        chk,
		embedder:       embedder,
		index:          index,
		logger:         logger,
		processTimeout: processTimeout,
	}
}

// Process runs the pipeline for one document. With reprocess set, existing
// chunks are removed first and the document re-enters the pipeline from
// scratch. Returns the document in its terminal state.
func (p *Processor) Process(ctx context.Context, tenantID, documentID string, reprocess bool) (*models.Document, error) {
	doc, err := p.docs.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}

	if reprocess {
		if doc.Status == models.DocumentStatusProcessing {
			return nil, interfaces.ErrProcessingInProgress
		}
		if err := p.clearPreviousRun(ctx, doc); err != nil {
			return nil, err
		}
	}

	if err := p.docs.ClaimForProcessing(ctx, tenantID, documentID); err != nil {
		return nil, err
	}
	doc.Status = models.DocumentStatusProcessing
	doc.ErrorMessage = ""

	p.logger.Info().
		Str("document_id", documentID).
		Str("tenant_id", tenantID).
		Bool("reprocess", reprocess).
		Msg("Processing document")

	if err := p.run(ctx, doc); err != nil {
		p.markFailed(ctx, doc, err)
		return doc, err
	}

	now := time.Now().UTC()
	doc.Status = models.DocumentStatusCompleted
	doc.ProcessedAt = &now
	doc.ErrorMessage = ""
	if err := p.docs.UpdateDocument(ctx, doc); err != nil {
		return doc, fmt.Errorf("failed to persist completed state: %w", err)
	}

	p.logger.Info().
		Str("document_id", documentID).
		Int("pages", derefInt(doc.PageCount)).
		Int("chunks", derefInt(doc.ChunkCount)).
		Msg("Document processing completed")

	return doc, nil
}

// ProcessAsync runs Process detached from the caller with its own timeout.
// Failures are logged; the document row carries the error state.
func (p *Processor) ProcessAsync(tenantID, documentID string, reprocess bool) {
	common.SafeGo(p.logger, "processDocument", func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.processTimeout)
		defer cancel()

		if _, err := p.Process(ctx, tenantID, documentID, reprocess); err != nil {
			p.logger.Error().
				Err(err).
				Str("document_id", documentID).
				Str("tenant_id", tenantID).
				Msg("Background document processing failed")
		}
	})
}

// run executes the pipeline stages against a claimed document
func (p *Processor) run(ctx context.Context, doc *models.Document) error {
	pages, err := p.extractor.ExtractPages(ctx, doc.StorageKey)
	if err != nil {
		return err
	}
	pageCount := len(pages)
	doc.PageCount = &pageCount

	chunks, err := p.chunker.ChunkPages(pages)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return &chunker.ChunkingError{Err: fmt.Errorf("document produced no chunks")}
	}
	chunkCount := len(chunks)
	doc.ChunkCount = &chunkCount

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count %d does not match chunk count %d", len(vectors), len(chunks))
	}

	// Chunk rows are persisted before the vector write so every indexed
	// point has a relational row behind it
	now := time.Now().UTC()
	rows := make([]*models.DocumentChunk, len(chunks))
	points := make([]interfaces.VectorPoint, len(chunks))
	for i, c := range chunks {
		id := common.NewChunkID()
		rows[i] = &models.DocumentChunk{
			ID:         id,
			DocumentID: doc.ID,
			TenantID:   doc.TenantID,
			ChunkIndex: c.Index,
			PageNumber: c.PageNumber,
			Text:       c.Text,
			TokenCount: p.embedder.EstimateTokens(c.Text),
			CreatedAt:  now,
		}
		points[i] = interfaces.VectorPoint{
			ID:     id,
			Vector: vectors[i],
			Payload: interfaces.ChunkPayload{
				DocumentID: doc.ID,
				TenantID:   doc.TenantID,
				PageNumber: c.PageNumber,
				ChunkIndex: c.Index,
				Text:       c.Text,
				Filename:   doc.Filename,
			},
		}
	}

	if err := p.docs.SaveChunks(ctx, rows); err != nil {
		return fmt.Errorf("failed to persist chunks: %w", err)
	}

	if err := p.index.Upsert(ctx, doc.TenantID, points); err != nil {
		return err
	}

	return nil
}

// clearPreviousRun removes prior chunks before a reprocess. The vector
// delete is best-effort: a failure there leaves orphaned points that the
// next upsert-by-ID overwrites, so it only warrants a warning.
func (p *Processor) clearPreviousRun(ctx context.Context, doc *models.Document) error {
	if err := p.index.DeleteByDocument(ctx, doc.TenantID, doc.ID); err != nil {
		p.logger.Warn().
			Err(err).
			Str("document_id", doc.ID).
			Msg("Failed to delete vector points before reprocess")
	}

	deleted, err := p.docs.DeleteChunks(ctx, doc.TenantID, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks before reprocess: %w", err)
	}

	doc.Status = models.DocumentStatusPending
	doc.PageCount = nil
	doc.ChunkCount = nil
	doc.ProcessedAt = nil
	doc.ErrorMessage = ""
	if err := p.docs.UpdateDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to reset document for reprocess: %w", err)
	}

	p.logger.Info().
		Str("document_id", doc.ID).
		Int64("chunks_deleted", deleted).
		Msg("Cleared previous processing run")

	return nil
}

// markFailed records the terminal failed state. Counts computed before the
// failure stay on the row for diagnostics.
func (p *Processor) markFailed(ctx context.Context, doc *models.Document, cause error) {
	now := time.Now().UTC()
	doc.Status = models.DocumentStatusFailed
	doc.ErrorMessage = truncateError(cause)
	doc.ProcessedAt = &now

	if err := p.docs.UpdateDocument(ctx, doc); err != nil {
		p.logger.Error().
			Err(err).
			Str("document_id", doc.ID).
			Msg("Failed to persist failed state")
	}
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > maxErrorMessageLength {
		msg = msg[:maxErrorMessageLength]
	}
	return msg
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
