package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Transport posts a JSON payload and returns the decoded JSON object.
// Numbers are decoded as json.Number so 64-bit identifiers survive.
type Transport interface {
	Post(ctx context.Context, url string, payload any) (map[string]any, error)
}

// HTTPStatusError is returned for non-2xx responses.
type HTTPStatusError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// HTTPTransport talks to the research API with a bearer token.
type HTTPTransport struct {
	client *http.Client
	token  string
}

// NewHTTPTransport returns a transport using client (nil = Cfg.HTTPClient) and a bearer token.
func NewHTTPTransport(client *http.Client, token string) *HTTPTransport {
	if client == nil {
		client = Cfg.HTTPClient
	}
	return &HTTPTransport{client: client, token: token}
}

// Post sends payload as JSON. Non-2xx statuses and undecodable bodies are errors.
func (t *HTTPTransport) Post(ctx context.Context, url string, payload any) (map[string]any, error) {
	body, err := t.postRaw(ctx, url, payload)
	if err != nil {
		return nil, err
	}
	return DecodeObject(body)
}

func (t *HTTPTransport) postRaw(ctx context.Context, url string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(excerpt)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// DecodeObject decodes a JSON object, keeping numbers as json.Number.
func DecodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("decode json: not an object")
	}
	return out, nil
}

// CachingTransport serves repeated identical requests from the page cache.
// Only successful responses are stored.
type CachingTransport struct {
	next Transport
}

// NewCachingTransport wraps next with the engine page cache.
func NewCachingTransport(next Transport) *CachingTransport {
	return &CachingTransport{next: next}
}

// Post returns a cached response for the same url and payload, or forwards the request.
func (t *CachingTransport) Post(ctx context.Context, url string, payload any) (map[string]any, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	key := CacheKey("page", url, string(buf))

	if data, ok := CacheGet(ctx, key); ok {
		if out, err := DecodeObject(data); err == nil {
			return out, nil
		}
	}

	out, err := t.next.Post(ctx, url, payload)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(out); err == nil {
		CacheSet(ctx, key, data)
	} else {
		slog.Debug("cache: encode response failed", slog.Any("error", err))
	}
	return out, nil
}
