package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"minerwatch/internal/model"
	"minerwatch/pkg/logger"
)

// ErrBadStatus the endpoint answered with a non-2xx status
var ErrBadStatus = errors.New("unexpected status code")

const (
	// DefaultTimeout bounds a single endpoint fetch
	DefaultTimeout = 5 * time.Second

	maxBodySize = 1 << 20
)

// HTTPSource fetches worker status over HTTP GET
type HTTPSource struct {
	httpClient *http.Client
	timeout    time.Duration
	now        func() time.Time
}

// NewHTTPSource creates an HTTP source with a per-fetch timeout
func NewHTTPSource(timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSource{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
		now:     time.Now,
	}
}

// Fetch implements interfaces.WorkerSource
func (s *HTTPSource) Fetch(ctx context.Context, target model.Target) (*model.WorkerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	logger.DebugCtx(ctx, "fetching worker status: %s", target.URL)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	record, err := DecodeStatus(ctx, body)
	if err != nil {
		return nil, err
	}
	record.SourceURL = target.URL
	record.LastSeen = s.now().UTC()
	return record, nil
}
