package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ServiceProvider talks to the sentence-transformers embedding service
// (POST /embed, GET /health, GET /info).
type ServiceProvider struct {
	BaseURL   string
	Model     string
	Dim       int
	Client    *http.Client
}

func NewServiceProvider(baseURL, model string, dimension int, timeout time.Duration) *ServiceProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ServiceProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Dim:     dimension,
		Client:  &http.Client{Timeout: timeout},
	}
}

type serviceEmbedRequest struct {
	Text string `json:"text"`
}

type serviceEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
	Dimension int       `json:"dimension"`
	Model     string    `json:"model"`
}

// ServiceInfo mirrors GET /info.
type ServiceInfo struct {
	Model             string `json:"model"`
	Dimension         int    `json:"dimension"`
	MaxSequenceLength int    `json:"max_sequence_length"`
}

func (p *ServiceProvider) ModelName() string { return p.Model }

func (p *ServiceProvider) Dimension() int { return p.Dim }

func (p *ServiceProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	// taskType has no meaning for sentence-transformers models.
	jsonBody, err := json.Marshal(serviceEmbedRequest{Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/embed", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding service request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var serviceResp serviceEmbedResponse
	if err := json.Unmarshal(bodyBytes, &serviceResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(serviceResp.Embedding) != p.Dim {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(serviceResp.Embedding), p.Dim)
	}

	model := serviceResp.Model
	if model == "" {
		model = p.Model
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: serviceResp.Embedding},
		Model:     model,
	}, nil
}

func (p *ServiceProvider) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("embedding service unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// Info queries GET /info.
func (p *ServiceProvider) Info(ctx context.Context) (*ServiceInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/info", nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service info: status %d", resp.StatusCode)
	}

	var info ServiceInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode info: %w", err)
	}
	return &info, nil
}
