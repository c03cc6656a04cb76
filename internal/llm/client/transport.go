package client

import (
	"io"
	"net/http"
)

const maxErrorBodyBytes = 32 << 10

// openRouterTransport attaches OpenRouter's identification headers and turns
// non-2xx responses into typed *ProviderError values before the model layer
// tries to decode them. It never logs request headers, so the bearer key
// stays out of the logs.
type openRouterTransport struct {
	base     http.RoundTripper
	siteURL  string
	siteName string
}

func (t *openRouterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	clone := req.Clone(req.Context())
	if t.siteURL != "" {
		clone.Header.Set("HTTP-Referer", t.siteURL)
	}
	if t.siteName != "" {
		clone.Header.Set("X-Title", t.siteName)
	}

	resp, err := base.RoundTrip(clone)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		resp.Body.Close()
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(body, resp.StatusCode),
		}
	}

	return resp, nil
}
