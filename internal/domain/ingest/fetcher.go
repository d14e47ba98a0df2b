package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"imaged/internal/platform/logging"
)

const defaultFetchTimeout = 15 * time.Second

// Fetcher downloads remote images with a bounded timeout and body size.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	logger   *logging.Logger
}

// NewFetcher creates a fetcher enforcing the given per-request timeout and
// maximum body size.
func NewFetcher(timeout time.Duration, maxBytes int64, logger *logging.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Fetcher{
		client:   &http.Client{},
		timeout:  timeout,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Fetch performs an HTTP GET for the URL and returns the body bytes together
// with the declared content type. The response must carry an image/* content
// type and fit within the configured size limit; oversized bodies abort the
// read early instead of buffering to completion.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", newError(ReasonFetchFailed, "create request", err)
	}
	req.Header.Set("User-Agent", "imaged/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, "", newError(ReasonFetchTimeout, fmt.Sprintf("fetch %s timed out after %s", url, f.timeout), err)
		}
		return nil, "", newError(ReasonFetchFailed, "fetch image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", newError(ReasonFetchFailed, fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, "", newError(ReasonUnsupportedContentType, fmt.Sprintf("content type %q is not an image", contentType), nil)
	}

	if resp.ContentLength > 0 && f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return nil, "", newError(ReasonPayloadTooLarge, fmt.Sprintf("declared length %d exceeds limit %d", resp.ContentLength, f.maxBytes), nil)
	}

	limited := &io.LimitedReader{R: resp.Body, N: f.maxBytes + 1}
	buf := bytes.NewBuffer(make([]byte, 0, 32*1024))
	if _, err := io.Copy(buf, limited); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, "", newError(ReasonFetchTimeout, fmt.Sprintf("fetch %s timed out after %s", url, f.timeout), err)
		}
		return nil, "", newError(ReasonFetchFailed, "read response body", err)
	}
	if limited.N <= 0 {
		return nil, "", newError(ReasonPayloadTooLarge, fmt.Sprintf("response body exceeds limit %d", f.maxBytes), nil)
	}

	f.logger.DebugTag("FETCH", "fetched %s: %d bytes, content type %s", url, buf.Len(), contentType)
	return buf.Bytes(), contentType, nil
}
