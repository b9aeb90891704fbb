// Package source opens the byte stream the read command parses: an HTTP(S)
// response body, a file, or stdin.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/papercomputeco/ssetap/pkg/utils"
)

// Stdin is the location naming standard input.
const Stdin = "-"

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// Spec describes a byte source.
type Spec struct {
	// Location is a http:// or https:// URL, a file path, or "-" (or empty)
	// for stdin.
	Location string

	// Headers are added to HTTP requests.
	Headers http.Header

	// Client performs HTTP requests. Defaults to a client without an overall
	// timeout, since streams are long-lived.
	Client *http.Client
}

// IsURL reports whether loc names an HTTP(S) resource.
func IsURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// Open returns the byte stream described by s. The caller owns the returned
// ReadCloser; closing the stdin source leaves os.Stdin open.
func Open(ctx context.Context, s Spec) (io.ReadCloser, error) {
	switch {
	case s.Location == "" || s.Location == Stdin:
		return io.NopCloser(os.Stdin), nil

	case IsURL(s.Location):
		return openURL(ctx, s)

	default:
		f, err := os.Open(s.Location)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", s.Location, err)
		}
		return f, nil
	}
}

func openURL(ctx context.Context, s Spec) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Location, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, vs := range s.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/event-stream")
	}
	req.Header.Set("Cache-Control", "no-cache")

	client := s.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", s.Location, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
		resp.Body.Close()
		return nil, fmt.Errorf("requesting %s: unexpected status %s: %s",
			s.Location, resp.Status, utils.Truncate(strings.TrimSpace(string(body)), maxErrorBody))
	}

	return resp.Body, nil
}

// ParseHeaders converts "Key: Value" strings into a header set.
func ParseHeaders(raw []string) (http.Header, error) {
	h := http.Header{}
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid header %q: want \"Key: Value\"", kv)
		}
		h.Add(strings.TrimSpace(k), strings.TrimSpace(v))
	}
	return h, nil
}
