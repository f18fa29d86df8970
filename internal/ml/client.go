package ml

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

// TextClassifier produce scores crudos por rasgo a partir de texto.
type TextClassifier interface {
	ClassifyText(ctx context.Context, text string) ([]float64, error)
}

// ImageClassifier produce un vector de features a partir de una imagen JPEG.
type ImageClassifier interface {
	ClassifyImage(ctx context.Context, image []byte) ([]float64, error)
}

// HTTPTextClassifier llama a un servidor de inferencia compatible por HTTP.
type HTTPTextClassifier struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewHTTPTextClassifier(baseURL, apiKey, model string) *HTTPTextClassifier {
	return &HTTPTextClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type textRequest struct {
	Model  string `json:"model"`
	Inputs string `json:"inputs"`
}

type scoresResponse struct {
	Scores []float64 `json:"scores"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *HTTPTextClassifier) ClassifyText(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(textRequest{Model: c.model, Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	return decodeScores(resp)
}

// HTTPImageClassifier llama a un servidor de inferencia de vision por HTTP.
type HTTPImageClassifier struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewHTTPImageClassifier(baseURL, apiKey, model string) *HTTPImageClassifier {
	return &HTTPImageClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *HTTPImageClassifier) ClassifyImage(ctx context.Context, image []byte) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/features?model="+c.model, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	return decodeScores(resp)
}

func decodeScores(resp *http.Response) ([]float64, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("inference http error: status=%d", resp.StatusCode)
	}

	var parsed scoresResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("inference api error: %s", parsed.Error.Message)
	}
	if len(parsed.Scores) == 0 {
		return nil, fmt.Errorf("inference empty response")
	}
	return parsed.Scores, nil
}
