package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// aiClient is the shared HTTP client for completion requests.
// Transport-level timeouts protect against unreachable servers.
// No overall Client.Timeout: streams are bounded by the idle timer instead.
var aiClient = &http.Client{
	Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		// Local servers may load the model before sending headers.
		ResponseHeaderTimeout: 90 * time.Second,
	},
}

// requestTimeout bounds buffered requests, including the body read.
const requestTimeout = 120 * time.Second

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 64 << 10

// post sends body as JSON and returns the open response.
// The caller is responsible for closing resp.Body.
func post(ctx context.Context, client *http.Client, url string, body any, headers map[string]string) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return resp, nil
}

// checkStatus turns a non-2xx response into an UpstreamError.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &UpstreamError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}
