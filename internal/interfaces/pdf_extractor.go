// -----------------------------------------------------------------------
// PDF Extractor Interface - Extract text content from PDF documents
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
)

// PDFPageContent represents extracted content from a single PDF page
type PDFPageContent struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// PDFExtractor defines the interface for extracting text from stored PDF
// documents. Implementations resolve the storage key through blob storage.
type PDFExtractor interface {
	// ExtractPages extracts cleaned text content by page. Pages whose
	// extraction fails or whose text is empty after cleanup are skipped.
	// Returns an error when the document is unreadable or no page yields text.
	ExtractPages(ctx context.Context, storageKey string) ([]PDFPageContent, error)
}
