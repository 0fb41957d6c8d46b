package twitterapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
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
		host = "https://api.twitterapi.io"
	}
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type Author struct {
	UserName       string `json:"userName"`
	Name           string `json:"name"`
	Followers      int    `json:"followers"`
	IsBlueVerified bool   `json:"isBlueVerified"`
}

type Tweet struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Text         string `json:"text"`
	CreatedAt    string `json:"createdAt"`
	LikeCount    int    `json:"likeCount"`
	RetweetCount int    `json:"retweetCount"`
	Author       Author `json:"author"`
}

// Engagement is the combined like plus retweet count used by credibility
// filtering.
func (t *Tweet) Engagement() int {
	return t.LikeCount + t.RetweetCount
}

// Link returns the tweet URL, synthesizing one from author and id when the
// API omits it.
func (t *Tweet) Link() string {
	if t.URL != "" {
		return t.URL
	}
	return fmt.Sprintf("https://x.com/%s/status/%s", t.Author.UserName, t.ID)
}

type searchResponse struct {
	Tweets []Tweet `json:"tweets"`
}

// SearchLatest runs an advanced search ordered by recency.
func (c *Client) SearchLatest(ctx context.Context, query string, count int) ([]Tweet, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if count <= 0 {
		count = 10
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("search_type", "Latest")
	params.Set("count", strconv.Itoa(count))
	fullURL := c.host + "/twitter/tweet/advanced_search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
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
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Tweets == nil {
		return nil, fmt.Errorf("no tweets in response")
	}
	return parsed.Tweets, nil
}
