package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxDocumentSize bounds the key-set response body
const maxDocumentSize = 1 << 20

// Fetcher retrieves the current signing keys from the identity provider
type Fetcher interface {
	Fetch(ctx context.Context) ([]SigningKey, error)
}

// FetcherFunc adapts an ordinary function to a Fetcher
type FetcherFunc func(ctx context.Context) ([]SigningKey, error)

// Fetch calls f
func (f FetcherFunc) Fetch(ctx context.Context) ([]SigningKey, error) {
	return f(ctx)
}

// HTTPFetcher fetches a JWKS document over HTTP
type HTTPFetcher struct {
	url        string
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher for the JWKS document at url.
// A nil client gets a default client with a 10s timeout.
func NewHTTPFetcher(url string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{url: url, httpClient: client}
}

// URL returns the endpoint the fetcher reads from
func (f *HTTPFetcher) URL() string {
	return f.url
}

// Fetch downloads and parses the key-set document
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]SigningKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch JWKS: unexpected status %d", resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentSize)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode JWKS: %w", err)
	}
	if doc.Keys == nil {
		return nil, errors.New("decode JWKS: missing keys array")
	}

	return doc.SigningKeys(), nil
}
