package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// Transport performs the actual HTTP exchange on behalf of providers.
// The engine never opens sockets directly, which keeps vendor clients fully
// testable without a network.
type Transport interface {
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (status int, respBody []byte, err error)
}

// HTTPTransport is the production Transport backed by an *http.Client with a
// bounded timeout.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport with the given request timeout.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

func (t *HTTPTransport) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}
