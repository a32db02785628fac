package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrTooLarge signals that the remote file exceeds the configured size limit,
// either by its Content-Length header or by the bytes actually received.
var ErrTooLarge = errors.New("file exceeds size limit")

const defaultAttempts = 3

// Fetcher downloads manifest PDFs over HTTP. Retry policy lives here, not in
// the parse core: transient network failures are retried, oversize and
// client-side errors are not.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	attempts uint
}

// New creates a fetcher with the given size cap and per-request timeout.
func New(maxBytes int64, timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		attempts: defaultAttempts,
	}
}

// Fetch downloads the file at fileURL and returns its bytes. The
// Content-Length header is pre-checked against the size cap, and the body
// read is hard-capped regardless of what the header claimed.
func (f *Fetcher) Fetch(ctx context.Context, fileURL string) ([]byte, error) {
	var data []byte

	err := retry.Do(
		func() error {
			body, err := f.fetchOnce(ctx, fileURL)
			if err != nil {
				return err
			}
			data = body
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(f.attempts),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("invalid URL: %w", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, retry.Unrecoverable(ErrTooLarge)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.maxBytes {
		return nil, retry.Unrecoverable(ErrTooLarge)
	}
	return body, nil
}
