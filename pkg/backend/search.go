package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const serperBaseURL = "https://google.serper.dev"

// SearchTool performs web searches for tool-enabled tasks. Like Backend, it
// may fail with classifiable errors and carries no retry logic of its own.
type SearchTool interface {
	Search(ctx context.Context, query string) (string, error)
}

// SerperSearch implements SearchTool against the Serper search API.
type SerperSearch struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxResults int
}

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// NewSerperSearch creates a search client for the Serper API.
func NewSerperSearch(apiKey string) (*SerperSearch, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("serper API key is required")
	}
	return &SerperSearch{
		apiKey:     apiKey,
		baseURL:    serperBaseURL,
		httpClient: &http.Client{},
		maxResults: 5,
	}, nil
}

// Search runs a web search and returns the top results as plain text suitable
// for inclusion in a prompt.
func (s *SerperSearch) Search(ctx context.Context, query string) (string, error) {
	reqBody := serperRequest{Query: query, Num: s.maxResults}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/search", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &Error{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("search API returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var searchResp serperResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return "", fmt.Errorf("failed to parse search response: %w", err)
	}

	if len(searchResp.Organic) == 0 {
		return "no search results found", nil
	}

	var sb strings.Builder
	for i, result := range searchResp.Organic {
		if i >= s.maxResults {
			break
		}
		fmt.Fprintf(&sb, "- %s (%s): %s\n", result.Title, result.Link, result.Snippet)
	}
	return sb.String(), nil
}

// MockSearch returns a canned result for tests and offline runs.
type MockSearch struct {
	Result string
	Err    error
	Calls  int
}

// Search returns the configured result or error.
func (m *MockSearch) Search(_ context.Context, query string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	if m.Result != "" {
		return m.Result, nil
	}
	return fmt.Sprintf("mock search results for: %s", query), nil
}
