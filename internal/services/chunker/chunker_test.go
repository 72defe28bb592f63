package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quaestor-ai/quaestor/internal/common"
	"github.com/quaestor-ai/quaestor/internal/interfaces"
)

func TestChunkPages_SingleShortPage(t *testing.T) {
	c := NewChunker(1000, 200, common.GetLogger())

	chunks, err := c.ChunkPages([]interfaces.PDFPageContent{
		{PageNumber: 1, Text: "short page text"},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Equal(t, "short page text", chunks[0].Text)
}

func TestChunkPages_WindowSizeAndOverlap(t *testing.T) {
	c := NewChunker(100, 20, common.GetLogger())
	text := strings.Repeat("abcdefghij", 25) // 250 chars

	chunks, err := c.ChunkPages([]interfaces.PDFPageContent{
		{PageNumber: 1, Text: text},
	})
	require.NoError(t, err)

	// Steps of 80: windows start at 0, 80, 160, 240
	require.Len(t, chunks, 4)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), 100)
	}
	// Consecutive windows share the overlap region
	first := []rune(text)[80:100]
	assert.True(t, strings.HasPrefix(chunks[1].Text, string(first)))
}

func TestChunkPages_IndexContinuousAcrossPages(t *testing.T) {
	c := NewChunker(100, 0, common.GetLogger())
	long := strings.Repeat("x", 150)

	chunks, err := c.ChunkPages([]interfaces.PDFPageContent{
		{PageNumber: 1, Text: long},
		{PageNumber: 3, Text: long},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
	}
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Equal(t, 1, chunks[1].PageNumber)
	assert.Equal(t, 3, chunks[2].PageNumber)
	assert.Equal(t, 3, chunks[3].PageNumber)
}

func TestChunkPages_SkipsEmptyPages(t *testing.T) {
	c := NewChunker(100, 0, common.GetLogger())

	chunks, err := c.ChunkPages([]interfaces.PDFPageContent{
		{PageNumber: 1, Text: "   "},
		{PageNumber: 2, Text: "real content"},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 2, chunks[0].PageNumber)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestChunkPages_EmptyInput(t *testing.T) {
	c := NewChunker(100, 0, common.GetLogger())

	chunks, err := c.ChunkPages(nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkPages_OverlapAtLeastSizeForcesProgress(t *testing.T) {
	// overlap >= size would stall the window; it degrades to no overlap
	c := NewChunker(10, 15, common.GetLogger())
	text := strings.Repeat("y", 35)

	chunks, err := c.ChunkPages([]interfaces.PDFPageContent{
		{PageNumber: 1, Text: text},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, 3, chunks[3].Index)
}

func TestChunkPages_WhitespaceWindowSkippedWithoutIndexGap(t *testing.T) {
	c := NewChunker(10, 0, common.GetLogger())
	// Second window is entirely whitespace
	text := "0123456789" + strings.Repeat(" ", 10) + "abcdefghij"

	chunks, err := c.ChunkPages([]interfaces.PDFPageContent{
		{PageNumber: 1, Text: text},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, "abcdefghij", chunks[1].Text)
}
