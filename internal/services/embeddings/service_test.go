package embeddings

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quaestor-ai/quaestor/internal/common"
	"github.com/quaestor-ai/quaestor/internal/interfaces"
)

// fakeLLM returns one vector per input text, encoding a sequence number so
// order can be verified. failures counts down before calls succeed.
type fakeLLM struct {
	failures   int
	calls      int
	batchSizes []int
	seq        float32
	badCount   bool
}

func (f *fakeLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeLLM) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batchSizes = append(f.batchSizes, len(texts))

	if f.failures > 0 {
		f.failures--
		return nil, errors.New("provider unavailable")
	}

	n := len(texts)
	if f.badCount {
		n--
	}
	vectors := make([][]float32, 0, n)
	for i := 0; i < n; i++ {
		vectors = append(vectors, []float32{f.seq})
		f.seq++
	}
	return vectors, nil
}

func (f *fakeLLM) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeLLM) Provider() string                      { return "fake" }
func (f *fakeLLM) Close() error                          { return nil }

func newTestService(t *testing.T, llm *fakeLLM, maxRetries int) *Service {
	t.Helper()

	svc, err := NewService(llm, 768, maxRetries, "", common.GetLogger())
	require.NoError(t, err)
	return svc
}

func makeTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	return texts
}

func TestEmbedBatch_PreservesOrderAcrossBatches(t *testing.T) {
	llm := &fakeLLM{}
	svc := newTestService(t, llm, 3)

	vectors, err := svc.EmbedBatch(context.Background(), makeTexts(120))
	require.NoError(t, err)
	require.Len(t, vectors, 120)

	for i, v := range vectors {
		assert.Equal(t, float32(i), v[0])
	}
	assert.Equal(t, []int{100, 20}, llm.batchSizes)
}

func TestEmbedBatch_SmallerBatchesForLargeInputs(t *testing.T) {
	llm := &fakeLLM{}
	svc := newTestService(t, llm, 3)

	vectors, err := svc.EmbedBatch(context.Background(), makeTexts(210))
	require.NoError(t, err)
	require.Len(t, vectors, 210)

	assert.Equal(t, []int{50, 50, 50, 50, 10}, llm.batchSizes)
}

func TestEmbedBatch_RetriesThenSucceeds(t *testing.T) {
	llm := &fakeLLM{failures: 1}
	svc := newTestService(t, llm, 3)

	vectors, err := svc.EmbedBatch(context.Background(), makeTexts(3))
	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.Equal(t, 2, llm.calls)
}

func TestEmbedBatch_ExhaustedRetries(t *testing.T) {
	llm := &fakeLLM{failures: 10}
	svc := newTestService(t, llm, 2)

	_, err := svc.EmbedBatch(context.Background(), makeTexts(3))

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, 0, genErr.Batch)
	assert.Equal(t, 2, genErr.Attempts)
	assert.Equal(t, 2, llm.calls)
}

func TestEmbedBatch_CountMismatchIsFatal(t *testing.T) {
	llm := &fakeLLM{badCount: true}
	svc := newTestService(t, llm, 3)

	_, err := svc.EmbedBatch(context.Background(), makeTexts(3))

	var mismatch *CountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 3, mismatch.Want)
	assert.Equal(t, 2, mismatch.Got)
	// No retry on mismatch
	assert.Equal(t, 1, llm.calls)
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	llm := &fakeLLM{}
	svc := newTestService(t, llm, 3)

	vectors, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, llm.calls)
}

func TestEmbedQuery(t *testing.T) {
	llm := &fakeLLM{}
	svc := newTestService(t, llm, 3)

	vector, err := svc.EmbedQuery(context.Background(), "what is the policy?")
	require.NoError(t, err)
	assert.Equal(t, []float32{0}, vector)
}

func TestEstimateTokens(t *testing.T) {
	svc := newTestService(t, &fakeLLM{}, 3)

	assert.Equal(t, 0, svc.EstimateTokens("abc"))
	assert.Equal(t, 1, svc.EstimateTokens("abcd"))
	assert.Equal(t, 25, svc.EstimateTokens(string(make([]byte, 100))))
}
