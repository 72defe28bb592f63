package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/common"
	"github.com/quaestor-ai/quaestor/internal/interfaces"
)

// VectorIndexError wraps a failed index operation with its namespace
type VectorIndexError struct {
	Op        string
	Namespace string
	Err       error
}

func (e *VectorIndexError) Error() string {
	return fmt.Sprintf("vector index %s on %s: %v", e.Op, e.Namespace, e.Err)
}

func (e *VectorIndexError) Unwrap() error {
	return e.Err
}

// Client implements interfaces.VectorIndex against the Qdrant REST API.
// Each tenant gets its own collection named tenant_<id with - replaced by _>,
// so isolation holds at the collection level.
type Client struct {
	baseURL    string
	apiKey     string
	dimension  int
	httpClient *http.Client
	cache      *namespaceCache
	logger     arbor.ILogger
}

var _ interfaces.VectorIndex = (*Client)(nil)

// NewClient creates a Qdrant REST client
func NewClient(cfg *common.VectorConfig, dimension int, logger arbor.ILogger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}

	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant timeout %q: %w", cfg.Timeout, err)
		}
		timeout = parsed
	}

	cacheTTL := 5 * time.Minute
	if cfg.CacheTTL != "" {
		parsed, err := time.ParseDuration(cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant cache_ttl %q: %w", cfg.CacheTTL, err)
		}
		cacheTTL = parsed
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: timeout},
		cache:      newNamespaceCache(cacheTTL),
		logger:     logger,
	}, nil
}

// CollectionName derives the per-tenant collection name
func CollectionName(tenantID string) string {
	return "tenant_" + strings.ReplaceAll(tenantID, "-", "_")
}

// EnsureNamespace creates the tenant's collection if it does not exist
func (c *Client) EnsureNamespace(ctx context.Context, tenantID string) error {
	name := CollectionName(tenantID)
	if c.cache.known(name) {
		return nil
	}

	status, _, err := c.do(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return &VectorIndexError{Op: "ensure", Namespace: name, Err: err}
	}
	if status == http.StatusOK {
		c.cache.remember(name)
		return nil
	}
	if status != http.StatusNotFound {
		return &VectorIndexError{Op: "ensure", Namespace: name,
			Err: fmt.Errorf("unexpected status %d checking collection", status)}
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     c.dimension,
			"distance": "Cosine",
		},
	}
	status, respBody, err := c.do(ctx, http.MethodPut, "/collections/"+name, body)
	if err != nil {
		return &VectorIndexError{Op: "create", Namespace: name, Err: err}
	}
	// 409 means another writer created it first, which is fine
	if status != http.StatusOK && status != http.StatusConflict {
		return &VectorIndexError{Op: "create", Namespace: name,
			Err: fmt.Errorf("status %d: %s", status, respBody)}
	}

	c.logger.Info().Str("collection", name).Int("dimension", c.dimension).Msg("Created vector collection")
	c.cache.remember(name)
	return nil
}

// Upsert writes points into the tenant's collection, creating it on demand
func (c *Client) Upsert(ctx context.Context, tenantID string, points []interfaces.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	name := CollectionName(tenantID)

	if err := c.EnsureNamespace(ctx, tenantID); err != nil {
		return err
	}

	type qdrantPoint struct {
		ID      string                  `json:"id"`
		Vector  []float32               `json:"vector"`
		Payload interfaces.ChunkPayload `json:"payload"`
	}
	body := map[string]interface{}{"points": make([]qdrantPoint, 0, len(points))}
	qp := body["points"].([]qdrantPoint)
	for _, p := range points {
		qp = append(qp, qdrantPoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload})
	}
	body["points"] = qp

	path := "/collections/" + name + "/points?wait=true"
	status, respBody, err := c.do(ctx, http.MethodPut, path, body)
	if err != nil {
		return &VectorIndexError{Op: "upsert", Namespace: name, Err: err}
	}

	// Self-heal: the collection may have been dropped since the cache entry
	if status == http.StatusNotFound {
		c.cache.forget(name)
		if err := c.EnsureNamespace(ctx, tenantID); err != nil {
			return err
		}
		status, respBody, err = c.do(ctx, http.MethodPut, path, body)
		if err != nil {
			return &VectorIndexError{Op: "upsert", Namespace: name, Err: err}
		}
	}

	if status != http.StatusOK {
		return &VectorIndexError{Op: "upsert", Namespace: name,
			Err: fmt.Errorf("status %d: %s", status, respBody)}
	}

	c.logger.Debug().Str("collection", name).Int("points", len(points)).Msg("Upserted vector points")
	return nil
}

// Search returns up to limit matches in descending score order. A missing
// collection is created and yields no matches.
func (c *Client) Search(ctx context.Context, tenantID string, vector []float32, limit int, scoreThreshold float32) ([]interfaces.VectorMatch, error) {
	name := CollectionName(tenantID)

	body := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if scoreThreshold > 0 {
		body["score_threshold"] = scoreThreshold
	}

	status, respBody, err := c.do(ctx, http.MethodPost, "/collections/"+name+"/points/search", body)
	if err != nil {
		return nil, &VectorIndexError{Op: "search", Namespace: name, Err: err}
	}
	if status == http.StatusNotFound {
		c.cache.forget(name)
		if err := c.EnsureNamespace(ctx, tenantID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, &VectorIndexError{Op: "search", Namespace: name,
			Err: fmt.Errorf("status %d: %s", status, respBody)}
	}

	var parsed struct {
		Result []struct {
			ID      json.RawMessage         `json:"id"`
			Score   float32                 `json:"score"`
			Payload interfaces.ChunkPayload `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &VectorIndexError{Op: "search", Namespace: name,
			Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	matches := make([]interfaces.VectorMatch, 0, len(parsed.Result))
	for _, r := range parsed.Result {
		matches = append(matches, interfaces.VectorMatch{
			ID:      strings.Trim(string(r.ID), `"`),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return matches, nil
}

// DeleteByDocument removes all points whose payload references the document
func (c *Client) DeleteByDocument(ctx context.Context, tenantID, documentID string) error {
	name := CollectionName(tenantID)

	body := map[string]interface{}{
		"filter": map[string]interface{}{
			"must": []map[string]interface{}{
				{
					"key":   "document_id",
					"match": map[string]interface{}{"value": documentID},
				},
			},
		},
	}

	status, respBody, err := c.do(ctx, http.MethodPost, "/collections/"+name+"/points/delete?wait=true", body)
	if err != nil {
		return &VectorIndexError{Op: "delete_points", Namespace: name, Err: err}
	}
	if status == http.StatusNotFound {
		// Nothing to delete
		c.cache.forget(name)
		return nil
	}
	if status != http.StatusOK {
		return &VectorIndexError{Op: "delete_points", Namespace: name,
			Err: fmt.Errorf("status %d: %s", status, respBody)}
	}
	return nil
}

// DeleteNamespace drops the tenant's collection entirely
func (c *Client) DeleteNamespace(ctx context.Context, tenantID string) error {
	name := CollectionName(tenantID)
	c.cache.forget(name)

	status, respBody, err := c.do(ctx, http.MethodDelete, "/collections/"+name, nil)
	if err != nil {
		return &VectorIndexError{Op: "delete_namespace", Namespace: name, Err: err}
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return &VectorIndexError{Op: "delete_namespace", Namespace: name,
			Err: fmt.Errorf("status %d: %s", status, respBody)}
	}
	return nil
}

// do executes a JSON request against the Qdrant API
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
