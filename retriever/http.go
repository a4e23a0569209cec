package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/searchforge/rank_aggregator/passage"
)

const (
	defaultTimeout  = 2 * time.Second
	defaultRetryMax = 2
	minBackoff      = 100 * time.Millisecond
	maxBackoff      = 2 * time.Second
	searchPath      = "/api/search"
)

// HTTPClient represents a minimal http client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSource queries a passage-search server (ColBERT-style: GET /api/search
// with query and k parameters) with retry and timeout controls.
type HTTPSource struct {
	baseURL  string
	client   HTTPClient
	retryMax int
}

// NewHTTPSource creates an HTTP passage source.
func NewHTTPSource(baseURL string, client HTTPClient, retryMax int) (*HTTPSource, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("retriever baseURL required")
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if retryMax < 0 {
		retryMax = defaultRetryMax
	}

	return &HTTPSource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		retryMax: retryMax,
	}, nil
}

// NewHTTPSourceFromEnv builds the source using environment variables.
func NewHTTPSourceFromEnv() (*HTTPSource, error) {
	baseURL := strings.TrimSpace(os.Getenv("RETRIEVER_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("RETRIEVER_URL not set")
	}

	timeout := parseDurationFromEnv("RETRIEVER_TIMEOUT_MS", defaultTimeout)
	retryMax := parseIntFromEnv("RETRIEVER_RETRY_MAX", defaultRetryMax)

	return NewHTTPSource(baseURL, &http.Client{Timeout: timeout}, retryMax)
}

type searchHit struct {
	Text  string  `json:"text"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

type searchResponse struct {
	TopK []searchHit `json:"topk"`
}

// Retrieve executes a search and converts hits to passages, tagging each
// with its 0-based rank. SourceQuery is left at zero; the controller assigns
// it when feeding the pool.
func (s *HTTPSource) Retrieve(ctx context.Context, query string, k int) ([]passage.Passage, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	body, err := s.execute(ctx, query, k)
	if err != nil {
		return nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	passages := make([]passage.Passage, 0, len(parsed.TopK))
	for i, hit := range parsed.TopK {
		if i >= k {
			break
		}
		text := hit.Text
		if text == "" {
			text = hit.Title
		}
		passages = append(passages, passage.FromText(text, 0, i))
	}
	return passages, nil
}

// Ping validates upstream readiness with a single-document probe.
func (s *HTTPSource) Ping(ctx context.Context) error {
	_, err := s.execute(ctx, "ping", 1)
	return err
}

func (s *HTTPSource) execute(ctx context.Context, query string, k int) ([]byte, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("k", strconv.Itoa(k))
	fullURL := s.baseURL + searchPath + "?" + params.Encode()

	var (
		attempt   int
		lastError error
		backoff   = minBackoff
	)

	for {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastError = err
		} else {
			status := resp.StatusCode
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()

			switch {
			case readErr != nil:
				lastError = fmt.Errorf("read response: %w", readErr)
			case status >= 500 && attempt <= s.retryMax:
				lastError = fmt.Errorf("server error: %s", strings.TrimSpace(string(body)))
			case status >= 400:
				return nil, fmt.Errorf("retriever error (%d): %s", status, strings.TrimSpace(string(body)))
			default:
				return body, nil
			}
		}

		if attempt > s.retryMax {
			if lastError == nil {
				lastError = fmt.Errorf("request failed after %d attempts", attempt-1)
			}
			return nil, lastError
		}

		if !sleepWithContext(ctx, backoff) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("retry interrupted")
		}
		backoff = nextBackoff(backoff)
	}
}

func (s *HTTPSource) String() string {
	return fmt.Sprintf("http_source{base=%s,retry_max=%d}", s.baseURL, s.retryMax)
}

func parseDurationFromEnv(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	ms, err := strconv.Atoi(value)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func parseIntFromEnv(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
