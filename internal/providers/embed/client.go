package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the embedding sidecar. The service answers with one item
// per input, each carrying a list of row vectors; the first row is the
// pooled sentence embedding.
type Client struct {
	client  *http.Client
	baseURL string
	dim     int
}

func NewClient(baseURL string, dim int) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL: baseURL,
		dim:     dim,
	}
}

type embeddingItem struct {
	Embedding [][]float32 `json:"embedding"`
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	data, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embedding", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	var items []embeddingItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(items) == 0 || len(items[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding service returned no vectors")
	}

	vec := items[0].Embedding[0]
	if c.dim > 0 && len(vec) != c.dim {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), c.dim)
	}
	return vec, nil
}

// Healthy probes the sidecar with a tiny embedding request.
func (c *Client) Healthy(ctx context.Context) error {
	_, err := c.Embed(ctx, "ping")
	return err
}
