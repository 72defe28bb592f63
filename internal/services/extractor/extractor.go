// -----------------------------------------------------------------------
// PDF Extractor Service - Extract text content from PDF documents
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/interfaces"
)

// ExtractionError indicates the source document could not produce any text
type ExtractionError struct {
	StorageKey string
	Err        error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.StorageKey, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

var (
	spaceRuns   = regexp.MustCompile(` +`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
)

// Extractor implements the PDFExtractor interface using pdfcpu
type Extractor struct {
	blob    interfaces.BlobStorage
	logger  arbor.ILogger
	tempDir string
}

// Compile-time interface assertion
var _ interfaces.PDFExtractor = (*Extractor)(nil)

// NewExtractor creates a new PDF extractor service
func NewExtractor(blob interfaces.BlobStorage, logger arbor.ILogger) *Extractor {
	tempDir := filepath.Join(os.TempDir(), "quaestor-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		blob:    blob,
		logger:  logger,
		tempDir: tempDir,
	}
}

// ExtractPages extracts cleaned text content by page from a stored PDF.
// Pages that fail to extract or clean down to nothing are skipped with a
// warning. Returns ExtractionError when the document is unreadable or no
// page yields text.
func (e *Extractor) ExtractPages(ctx context.Context, storageKey string) ([]interfaces.PDFPageContent, error) {
	pdfContent, err := e.blob.Get(ctx, storageKey)
	if err != nil {
		return nil, &ExtractionError{StorageKey: storageKey, Err: fmt.Errorf("failed to read stored file: %w", err)}
	}

	// pdfcpu works on files, so stage the bytes in the temp directory
	runID := uuid.New().String()
	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("extract_%s.pdf", runID))
	if err := os.WriteFile(tempFile, pdfContent, 0644); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	defer os.Remove(tempFile)

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, &ExtractionError{StorageKey: storageKey, Err: fmt.Errorf("failed to read PDF: %w", err)}
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%s", runID))
	os.MkdirAll(outDir, 0755)
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return nil, &ExtractionError{StorageKey: storageKey, Err: fmt.Errorf("failed to extract content: %w", err)}
	}

	pageTexts := e.readPageFiles(outDir)

	pages := make([]interfaces.PDFPageContent, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		raw, ok := pageTexts[pageNum]
		if !ok {
			e.logger.Warn().
				Str("storage_key", storageKey).
				Int("page", pageNum).
				Msg("Skipping page with no extractable content")
			continue
		}

		text := CleanText(raw)
		if text == "" {
			continue
		}

		pages = append(pages, interfaces.PDFPageContent{
			PageNumber: pageNum,
			Text:       text,
		})
	}

	if len(pages) == 0 {
		return nil, &ExtractionError{StorageKey: storageKey, Err: fmt.Errorf("no text content found in %d pages", pageCount)}
	}

	e.logger.Debug().
		Str("storage_key", storageKey).
		Int("total_pages", pageCount).
		Int("text_pages", len(pages)).
		Msg("Extracted PDF text")

	return pages, nil
}

// readPageFiles collects per-page content written by pdfcpu. Unreadable page
// files are skipped.
func (e *Extractor) readPageFiles(outDir string) map[int]string {
	pageTexts := make(map[int]string)

	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err != nil {
				continue
			}
		}

		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			e.logger.Warn().Err(err).Int("page", pageNum).Msg("Failed to read extracted page content")
			continue
		}
		pageTexts[pageNum] = string(content)
	}

	return pageTexts
}

// CleanText normalizes extracted text: runs of spaces collapse to one space,
// runs of three or more newlines collapse to a paragraph break, and the
// result is trimmed.
func CleanText(text string) string {
	text = spaceRuns.ReplaceAllString(text, " ")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
