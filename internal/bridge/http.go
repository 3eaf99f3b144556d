package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
)

const defaultHTTPTimeout = 10 * time.Second

// APIError is a non-2xx answer from the entries API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("entries api: status %d", e.Status)
	}
	return fmt.Sprintf("entries api: status %d: %s", e.Status, e.Message)
}

type entriesResponse struct {
	Entries []string `json:"entries"`
	Error   string   `json:"error,omitempty"`
}

// HTTPBridge talks to a remote rorilog serve instance. Reads are retried
// with backoff; appends are sent once so a lost answer never appends twice.
type HTTPBridge struct {
	baseURL   string
	client    *http.Client
	scheduler Scheduler
	ctx       context.Context

	// ReadBackOff builds the retry policy for GetEntries.
	ReadBackOff func() backoff.BackOff
}

func NewHTTPBridge(ctx context.Context, baseURL string, scheduler Scheduler, client *http.Client) *HTTPBridge {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPBridge{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		scheduler: scheduler,
		ctx:       ctx,
		ReadBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
		},
	}
}

func (h *HTTPBridge) Submit(text string, onSuccess SuccessHandler, onFailure FailureHandler) {
	res := newResolver(h.scheduler, onSuccess, onFailure)
	go func() {
		entries, err := h.post(text)
		if err != nil {
			slog.Error("remote append failed", "url", h.baseURL, "error", err)
			res.fail(describeHTTPSaveError(err))
			return
		}
		res.succeed(entries)
	}()
}

func (h *HTTPBridge) GetEntries(onSuccess SuccessHandler, onFailure FailureHandler) {
	res := newResolver(h.scheduler, onSuccess, onFailure)
	go func() {
		var entries []string
		op := func() error {
			var err error
			entries, err = h.get()
			if err != nil {
				slog.Warn("remote read failed", "url", h.baseURL, "error", err)
			}
			return err
		}
		if err := backoff.Retry(op, backoff.WithContext(h.ReadBackOff(), h.ctx)); err != nil {
			res.fail(LoadFailureMessage)
			return
		}
		res.succeed(entries)
	}()
}

func (h *HTTPBridge) post(text string) ([]string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(h.ctx, http.MethodPost, h.baseURL+"/api/entries", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return h.do(req)
}

func (h *HTTPBridge) get() ([]string, error) {
	req, err := http.NewRequestWithContext(h.ctx, http.MethodGet, h.baseURL+"/api/entries", nil)
	if err != nil {
		return nil, err
	}
	return h.do(req)
}

func (h *HTTPBridge) do(req *http.Request) ([]string, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var decoded entriesResponse
	if len(data) > 0 {
		if err := json.Unmarshal(data, &decoded); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("decoding entries: %w", err)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: decoded.Error}
	}
	if decoded.Entries == nil {
		decoded.Entries = []string{}
	}
	return decoded.Entries, nil
}

func describeHTTPSaveError(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && apiErr.Message != "" {
		return SaveFailure(apiErr.Message)
	}
	return FailureMessage
}
