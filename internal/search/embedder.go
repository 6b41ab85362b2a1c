package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultEmbeddingURL   = "http://localhost:7997/v1"
	defaultEmbeddingModel = "nomic-ai/nomic-embed-text-v1.5"

	taskDocument = "search_document"
	taskQuery    = "search_query"
)

// Embedder calls an OpenAI-compatible embeddings endpoint. Documents and
// queries are tagged with their usage intent but go through the same model,
// so their vectors stay comparable.
type Embedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewEmbedder creates an Embedder. Empty baseURL or model fall back to the
// local defaults; a nil client gets a 15s timeout.
func NewEmbedder(baseURL, model string, client *http.Client) *Embedder {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	if model == "" {
		model = defaultEmbeddingModel
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Embedder{
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
	}
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
	Task  string   `json:"task"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedDocument embeds text with the document task label, for ingestion-time
// backfill.
func (e *Embedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, taskDocument)
}

// EmbedQuery embeds text with the query task label, for search requests.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, taskQuery)
}

func (e *Embedder) embed(ctx context.Context, text, task string) ([]float32, error) {
	reqBody, _ := json.Marshal(embedRequest{
		Input: []string{text},
		Model: e.model,
		Task:  task,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	if len(result.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	return result.Data[0].Embedding, nil
}
