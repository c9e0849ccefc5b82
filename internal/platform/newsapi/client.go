// Package newsapi provides a thin read-only client for the NewsAPI.org
// "everything" endpoint, used to attach recent headlines to market reports.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/liqlens/liqlens/internal/domain"
)

// Article is one headline returned by a search.
type Article struct {
	Title       string
	Source      string
	URL         string
	PublishedAt time.Time
}

// Client is an HTTP client for NewsAPI.org.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

// NewClient creates a new NewsAPI client.
//
// baseURL is the API root, e.g. "https://newsapi.org/v2". maxResults caps
// how many articles a search returns; values outside [1, 100] fall back
// to 10.
func NewClient(baseURL, apiKey string, maxResults int) *Client {
	if maxResults < 1 || maxResults > 100 {
		maxResults = 10
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiArticle is the NewsAPI wire representation of a single article.
type apiArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// searchResponse is the NewsAPI response envelope.
type searchResponse struct {
	Status   string       `json:"status"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Articles []apiArticle `json:"articles"`
}

// Search returns recent articles matching the query, newest first.
func (c *Client) Search(ctx context.Context, query string, since time.Time) ([]Article, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(c.maxResults))
	if !since.IsZero() {
		params.Set("from", since.UTC().Format(time.RFC3339))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi: search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("newsapi: read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("newsapi: search: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope searchResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("newsapi: decode response: %w", err)
	}
	if envelope.Status != "ok" {
		return nil, fmt.Errorf("newsapi: %s: %s", envelope.Code, envelope.Message)
	}

	articles := make([]Article, 0, len(envelope.Articles))
	for _, a := range envelope.Articles {
		if a.Title == "" || a.URL == "" {
			continue
		}
		publishedAt, _ := time.Parse(time.RFC3339, a.PublishedAt)
		articles = append(articles, Article{
			Title:       a.Title,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: publishedAt,
		})
	}
	return articles, nil
}
