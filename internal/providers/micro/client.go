package micro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandevgo/memobot/internal/core"
)

// Client talks to the micromodels sidecar: small single-purpose classifiers
// and the named-entity extractor. The core treats them as synchronous black
// boxes.
type Client struct {
	client  *http.Client
	baseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

type classifyRequest struct {
	Text string `json:"text"`
	Task string `json:"task"`
}

type classifyResponse struct {
	Label string `json:"label"`
}

func (c *Client) ClassifyIntent(ctx context.Context, text string) (core.Intent, error) {
	var resp classifyResponse
	if err := c.post(ctx, "/classify", classifyRequest{Text: text, Task: "intent"}, &resp); err != nil {
		return core.IntentUnknown, err
	}

	switch resp.Label {
	case "Question":
		return core.IntentQuestion, nil
	case "Statement":
		return core.IntentStatement, nil
	default:
		return core.IntentUnknown, nil
	}
}

func (c *Client) ClassifyConfirmation(ctx context.Context, text string) (core.Confirmation, error) {
	var resp classifyResponse
	if err := c.post(ctx, "/classify", classifyRequest{Text: text, Task: "confirmation"}, &resp); err != nil {
		return core.ConfirmUnknown, err
	}

	switch resp.Label {
	case "Affirm":
		return core.ConfirmAffirm, nil
	case "Deny":
		return core.ConfirmDeny, nil
	default:
		return core.ConfirmUnknown, nil
	}
}

func (c *Client) ExtractEntities(ctx context.Context, text string) ([]string, error) {
	var resp struct {
		Entities []string `json:"entities"`
	}
	if err := c.post(ctx, "/ner", map[string]string{"text": text}, &resp); err != nil {
		return nil, err
	}
	return resp.Entities, nil
}
