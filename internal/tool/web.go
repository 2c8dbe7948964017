package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	readability "codeberg.org/readeck/go-readability/v2"
)

const (
	webTimeout    = 30 * time.Second
	maxPageBytes  = 50 << 10 // extracted text cap per fetch
	maxSearchHits = 10
)

// webGet issues a GET with the shared timeout and identifying User-Agent.
// The caller owns the response body.
func webGet(ctx context.Context, rawURL string, header map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "daykeeper/1.0")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	client := &http.Client{Timeout: webTimeout}
	return client.Do(req)
}

// --- WebSearch ---

// WebSearchTool queries the Brave Search API. Without an API key it
// degrades to a fixed notice instead of erroring, so agents granted the
// tool still complete their run.
type WebSearchTool struct {
	APIKey string
}

func (t *WebSearchTool) Name() string        { return "web_search" }
func (t *WebSearchTool) Description() string { return "Search the web for titles, links, and snippets" }
func (t *WebSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"query"},
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Search query"},
			"count": map[string]any{"type": "integer", "description": "Number of results, 1 to 10 (default 5)"},
		},
	}
}

type braveHit struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (t *WebSearchTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	query := getString(params, "query")
	if query == "" {
		return "", fmt.Errorf("web_search: query is required")
	}
	if t.APIKey == "" {
		return "web search is not available (no API key configured)", nil
	}

	count := getInt(params, "count")
	if count < 1 || count > maxSearchHits {
		count = 5
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))

	resp, err := webGet(ctx, "https://api.search.brave.com/res/v1/web/search?"+q.Encode(), map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": t.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("web_search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("web_search: API returned %d: %s", resp.StatusCode, string(detail))
	}

	var parsed struct {
		Web struct {
			Results []braveHit `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("web_search: parse response: %w", err)
	}
	if len(parsed.Web.Results) == 0 {
		return "No results found.", nil
	}

	var b strings.Builder
	for _, hit := range parsed.Web.Results {
		fmt.Fprintf(&b, "- %s\n  %s\n", hit.Title, hit.URL)
		if hit.Description != "" {
			fmt.Fprintf(&b, "  %s\n", hit.Description)
		}
	}
	return b.String(), nil
}

// --- WebFetch ---

// WebFetchTool fetches an http(s) URL and reduces it to readable text so
// agents get article content rather than markup.
type WebFetchTool struct{}

func (t *WebFetchTool) Name() string        { return "web_fetch" }
func (t *WebFetchTool) Description() string { return "Fetch a URL and extract readable text content" }
func (t *WebFetchTool) Parameters() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"url"},
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "description": "URL to fetch (http or https)"},
		},
	}
}

func (t *WebFetchTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	rawURL := getString(params, "url")
	if rawURL == "" {
		return "", fmt.Errorf("web_fetch: url is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("web_fetch: invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("web_fetch: unsupported scheme %q", parsed.Scheme)
	}

	resp, err := webGet(ctx, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("web_fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("web_fetch: HTTP %d", resp.StatusCode)
	}

	// Non-HTML payloads pass through untouched, capped.
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
		if err != nil {
			return "", fmt.Errorf("web_fetch: read: %w", err)
		}
		return string(raw), nil
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return "", fmt.Errorf("web_fetch: extract: %w", err)
	}
	var buf bytes.Buffer
	if err := article.RenderText(&buf); err != nil {
		return "", fmt.Errorf("web_fetch: render: %w", err)
	}

	text := buf.String()
	if len(text) > maxPageBytes {
		text = text[:maxPageBytes] + "\n... [truncated]"
	}
	return fmt.Sprintf("Title: %s\nURL: %s\n\n%s", article.Title(), rawURL, text), nil
}
