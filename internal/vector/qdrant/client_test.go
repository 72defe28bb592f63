package qdrant

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quaestor-ai/quaestor/internal/common"
	"github.com/quaestor-ai/quaestor/internal/interfaces"
)

// fakeQdrant is an in-memory stand-in for the Qdrant REST API, covering the
// subset of endpoints the client uses.
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string]map[string]fakePoint
	createCalls int
}

type fakePoint struct {
	ID      string                  `json:"id"`
	Vector  []float32               `json:"vector"`
	Payload interfaces.ChunkPayload `json:"payload"`
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{collections: make(map[string]map[string]fakePoint)}
}

func (f *fakeQdrant) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 2 || parts[0] != "collections" {
			http.NotFound(w, r)
			return
		}
		name := parts[1]

		switch {
		case len(parts) == 2 && r.Method == http.MethodGet:
			if _, ok := f.collections[name]; !ok {
				http.NotFound(w, r)
				return
			}
			writeJSON(w, map[string]interface{}{"result": map[string]interface{}{"status": "green"}})

		case len(parts) == 2 && r.Method == http.MethodPut:
			f.createCalls++
			if _, ok := f.collections[name]; !ok {
				f.collections[name] = make(map[string]fakePoint)
			}
			writeJSON(w, map[string]interface{}{"result": true})

		case len(parts) == 2 && r.Method == http.MethodDelete:
			if _, ok := f.collections[name]; !ok {
				http.NotFound(w, r)
				return
			}
			delete(f.collections, name)
			writeJSON(w, map[string]interface{}{"result": true})

		case len(parts) == 3 && parts[2] == "points" && r.Method == http.MethodPut:
			coll, ok := f.collections[name]
			if !ok {
				http.NotFound(w, r)
				return
			}
			var body struct {
				Points []fakePoint `json:"points"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			for _, p := range body.Points {
				coll[p.ID] = p
			}
			writeJSON(w, map[string]interface{}{"result": map[string]interface{}{"status": "completed"}})

		case len(parts) == 4 && parts[2] == "points" && parts[3] == "search":
			coll, ok := f.collections[name]
			if !ok {
				http.NotFound(w, r)
				return
			}
			var body struct {
				Vector         []float32 `json:"vector"`
				Limit          int       `json:"limit"`
				ScoreThreshold float32   `json:"score_threshold"`
			}
			json.NewDecoder(r.Body).Decode(&body)

			type hit struct {
				ID      string                  `json:"id"`
				Score   float32                 `json:"score"`
				Payload interfaces.ChunkPayload `json:"payload"`
			}
			var hits []hit
			for _, p := range coll {
				score := cosine(body.Vector, p.Vector)
				if body.ScoreThreshold > 0 && score < body.ScoreThreshold {
					continue
				}
				hits = append(hits, hit{ID: p.ID, Score: score, Payload: p.Payload})
			}
			sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
			if body.Limit > 0 && len(hits) > body.Limit {
				hits = hits[:body.Limit]
			}
			writeJSON(w, map[string]interface{}{"result": hits})

		case len(parts) == 4 && parts[2] == "points" && parts[3] == "delete":
			coll, ok := f.collections[name]
			if !ok {
				http.NotFound(w, r)
				return
			}
			var body struct {
				Filter struct {
					Must []struct {
						Key   string `json:"key"`
						Match struct {
							Value string `json:"value"`
						} `json:"match"`
					} `json:"must"`
				} `json:"filter"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			for id, p := range coll {
				for _, cond := range body.Filter.Must {
					if cond.Key == "document_id" && p.Payload.DocumentID == cond.Match.Value {
						delete(coll, id)
					}
				}
			}
			writeJSON(w, map[string]interface{}{"result": true})

		default:
			http.NotFound(w, r)
		}
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func newTestClient(t *testing.T) (*Client, *fakeQdrant) {
	t.Helper()

	fake := newFakeQdrant()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	client, err := NewClient(&common.VectorConfig{URL: server.URL}, 3, common.GetLogger())
	require.NoError(t, err)
	return client, fake
}

func testPoint(id, documentID string, vector []float32) interfaces.VectorPoint {
	return interfaces.VectorPoint{
		ID:     id,
		Vector: vector,
		Payload: interfaces.ChunkPayload{
			DocumentID: documentID,
			PageNumber: 1,
			Text:       "text for " + id,
			Filename:   "file.pdf",
		},
	}
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "tenant_a1b2_c3d4", CollectionName("a1b2-c3d4"))
	assert.Equal(t, "tenant_plain", CollectionName("plain"))
}

func TestClient_EnsureNamespaceIdempotent(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.EnsureNamespace(ctx, "tenant-a"))
	require.NoError(t, client.EnsureNamespace(ctx, "tenant-a"))
	require.NoError(t, client.EnsureNamespace(ctx, "tenant-a"))

	assert.Equal(t, 1, fake.createCalls)
	assert.Contains(t, fake.collections, "tenant_tenant_a")
}

func TestClient_UpsertIsIdempotentByID(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	p := testPoint("11111111-1111-1111-1111-111111111111", "doc_1", []float32{1, 0, 0})
	require.NoError(t, client.Upsert(ctx, "tenant-a", []interfaces.VectorPoint{p}))

	p.Payload.Text = "updated"
	require.NoError(t, client.Upsert(ctx, "tenant-a", []interfaces.VectorPoint{p}))

	coll := fake.collections["tenant_tenant_a"]
	require.Len(t, coll, 1)
	assert.Equal(t, "updated", coll[p.ID].Payload.Text)
}

func TestClient_UpsertSelfHealsAfterExternalDelete(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.EnsureNamespace(ctx, "tenant-a"))

	// Drop the collection behind the client's back; the cache still says it exists
	fake.mu.Lock()
	delete(fake.collections, "tenant_tenant_a")
	fake.mu.Unlock()

	p := testPoint("22222222-2222-2222-2222-222222222222", "doc_1", []float32{1, 0, 0})
	require.NoError(t, client.Upsert(ctx, "tenant-a", []interfaces.VectorPoint{p}))

	assert.Len(t, fake.collections["tenant_tenant_a"], 1)
}

func TestClient_SearchIsTenantIsolated(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Upsert(ctx, "tenant-a", []interfaces.VectorPoint{
		testPoint("33333333-3333-3333-3333-333333333333", "doc_a", []float32{1, 0, 0}),
	}))
	require.NoError(t, client.Upsert(ctx, "tenant-b", []interfaces.VectorPoint{
		testPoint("44444444-4444-4444-4444-444444444444", "doc_b", []float32{1, 0, 0}),
	}))

	matches, err := client.Search(ctx, "tenant-a", []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "doc_a", matches[0].Payload.DocumentID)
}

func TestClient_SearchOrdersByScoreAndAppliesThreshold(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Upsert(ctx, "tenant-a", []interfaces.VectorPoint{
		testPoint("55555555-5555-5555-5555-555555555551", "doc_1", []float32{1, 0, 0}),
		testPoint("55555555-5555-5555-5555-555555555552", "doc_2", []float32{0.7, 0.7, 0}),
		testPoint("55555555-5555-5555-5555-555555555553", "doc_3", []float32{0, 1, 0}),
	}))

	matches, err := client.Search(ctx, "tenant-a", []float32{1, 0, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "doc_1", matches[0].Payload.DocumentID)
	assert.Equal(t, "doc_2", matches[1].Payload.DocumentID)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestClient_SearchMissingNamespaceReturnsEmpty(t *testing.T) {
	client, fake := newTestClient(t)

	matches, err := client.Search(context.Background(), "tenant-new", []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)

	// The namespace was created on the way out
	assert.Contains(t, fake.collections, "tenant_tenant_new")
}

func TestClient_DeleteByDocument(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Upsert(ctx, "tenant-a", []interfaces.VectorPoint{
		testPoint("66666666-6666-6666-6666-666666666661", "doc_1", []float32{1, 0, 0}),
		testPoint("66666666-6666-6666-6666-666666666662", "doc_1", []float32{0, 1, 0}),
		testPoint("66666666-6666-6666-6666-666666666663", "doc_2", []float32{0, 0, 1}),
	}))

	require.NoError(t, client.DeleteByDocument(ctx, "tenant-a", "doc_1"))

	coll := fake.collections["tenant_tenant_a"]
	require.Len(t, coll, 1)
	for _, p := range coll {
		assert.Equal(t, "doc_2", p.Payload.DocumentID)
	}

	// Deleting again, or from a missing namespace, is a no-op
	assert.NoError(t, client.DeleteByDocument(ctx, "tenant-a", "doc_1"))
	assert.NoError(t, client.DeleteByDocument(ctx, "tenant-missing", "doc_1"))
}

func TestClient_DeleteNamespaceIdempotent(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.EnsureNamespace(ctx, "tenant-a"))
	require.NoError(t, client.DeleteNamespace(ctx, "tenant-a"))
	assert.NotContains(t, fake.collections, "tenant_tenant_a")

	assert.NoError(t, client.DeleteNamespace(ctx, "tenant-a"))
}
