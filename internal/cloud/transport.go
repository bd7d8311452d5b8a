// Package cloud pushes profile bundles to a sync server and pulls them back.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/verte-zerg/klondike/internal/model"
)

// Transport moves bundles between this device and remote storage.
type Transport interface {
	Push(ctx context.Context, profile string, b model.Bundle) error
	Pull(ctx context.Context, profile string) (model.Bundle, bool, error)
}

// HTTPTransport talks to a sync Server over HTTP.
type HTTPTransport struct {
	base   string
	client *http.Client
}

// NewHTTPTransport returns a transport for the server at baseURL. A nil client
// uses one with a 10 second timeout.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPTransport{base: strings.TrimRight(baseURL, "/"), client: client}
}

func (t *HTTPTransport) bundleURL(profile string) string {
	return t.base + "/v1/profiles/" + url.PathEscape(profile) + "/bundle"
}

// Push uploads b as the latest bundle of profile.
func (t *HTTPTransport) Push(ctx context.Context, profile string, b model.Bundle) error {
	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.bundleURL(profile), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("push bundle: %w", err)
	}
	defer closeBody(resp)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("push bundle: unexpected status %s", resp.Status)
	}
	return nil
}

// Pull downloads the latest bundle of profile. It reports false when the
// server has none.
func (t *HTTPTransport) Pull(ctx context.Context, profile string) (model.Bundle, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.bundleURL(profile), nil)
	if err != nil {
		return model.Bundle{}, false, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return model.Bundle{}, false, fmt.Errorf("pull bundle: %w", err)
	}
	defer closeBody(resp)
	if resp.StatusCode == http.StatusNotFound {
		return model.Bundle{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return model.Bundle{}, false, fmt.Errorf("pull bundle: unexpected status %s", resp.Status)
	}
	var b model.Bundle
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return model.Bundle{}, false, fmt.Errorf("decode bundle: %w", err)
	}
	return b, true, nil
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	if cerr := resp.Body.Close(); cerr != nil {
		// Best-effort body close.
		_ = cerr
	}
}
