package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type Client struct {
	host       string
	apiKey     string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host, apiKey string) *Client {
	if host == "" {
		host = "https://api.exa.ai"
	}
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Configured reports whether an API key was supplied. Callers map a false
// result to a 503 rather than dialing out.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) doRequest(ctx context.Context, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// SearchParams shapes one /search call. Zero values are omitted from the
// wire request.
type SearchParams struct {
	Query              string
	Category           string
	NumResults         int
	IncludeDomains     []string
	StartPublishedDate string
	EndPublishedDate   string
	MaxCharacters      int
	Highlights         bool
}

type searchRequest struct {
	Query              string          `json:"query"`
	Category           string          `json:"category,omitempty"`
	NumResults         int             `json:"numResults,omitempty"`
	IncludeDomains     []string        `json:"includeDomains,omitempty"`
	StartPublishedDate string          `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string          `json:"endPublishedDate,omitempty"`
	Contents           *contentsParams `json:"contents,omitempty"`
}

type contentsParams struct {
	Text       any `json:"text,omitempty"`
	Highlights any `json:"highlights,omitempty"`
}

type Result struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	PublishedDate string   `json:"publishedDate"`
	Author        string   `json:"author"`
	Text          string   `json:"text"`
	Highlights    []string `json:"highlights"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

func (c *Client) Search(ctx context.Context, params SearchParams) ([]Result, error) {
	if params.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	req := searchRequest{
		Query:              params.Query,
		Category:           params.Category,
		NumResults:         params.NumResults,
		IncludeDomains:     params.IncludeDomains,
		StartPublishedDate: params.StartPublishedDate,
		EndPublishedDate:   params.EndPublishedDate,
	}
	contents := &contentsParams{}
	if params.MaxCharacters > 0 {
		contents.Text = map[string]int{"maxCharacters": params.MaxCharacters}
	} else {
		contents.Text = true
	}
	if params.Highlights {
		contents.Highlights = true
	}
	req.Contents = contents
	body, err := c.doRequest(ctx, "/search", req)
	if err != nil {
		return nil, err
	}
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return parsed.Results, nil
}

// Answer runs a highlight-bearing search and returns the top highlight as
// the direct answer with the result list as citations.
func (c *Client) Answer(ctx context.Context, question string) (string, []Result, error) {
	if question == "" {
		return "", nil, fmt.Errorf("question is required")
	}
	req := searchRequest{
		Query:      question,
		NumResults: 5,
		Contents: &contentsParams{
			Highlights: map[string]int{"maxCharacters": 1000},
		},
	}
	body, err := c.doRequest(ctx, "/search", req)
	if err != nil {
		return "", nil, err
	}
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	answer := "No direct answer found"
	if len(parsed.Results) > 0 && len(parsed.Results[0].Highlights) > 0 {
		answer = parsed.Results[0].Highlights[0]
	}
	return answer, parsed.Results, nil
}
