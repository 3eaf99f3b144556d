package bridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/stretchr/testify/assert"
)

func newHTTPBridge(t *testing.T, url string) (*HTTPBridge, *outcome, func()) {
	t.Helper()
	ed := newDispatcher(t)
	b := NewHTTPBridge(context.Background(), url, ed, nil)
	b.ReadBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 2)
	}
	out := &outcome{}
	wait := func() { runOne(t, ed) }
	return b, out, wait
}

func TestHTTPBridge_ServerErrorOnAppendIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"disk full"}`))
	}))
	defer ts.Close()

	b, out, wait := newHTTPBridge(t, ts.URL)
	b.Submit("x", out.onSuccess, out.onFailure)
	wait()

	assert.Equal(t, []string{FailureMessage}, out.failures)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPBridge_ReadRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entries":["a","b"]}`))
	}))
	defer ts.Close()

	b, out, wait := newHTTPBridge(t, ts.URL)
	b.GetEntries(out.onSuccess, out.onFailure)
	wait()

	assert.Equal(t, [][]string{{"a", "b"}}, out.successes)
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPBridge_ReadGivesUp(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	b, out, wait := newHTTPBridge(t, ts.URL)
	b.GetEntries(out.onSuccess, out.onFailure)
	wait()

	assert.Equal(t, []string{LoadFailureMessage}, out.failures)
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPBridge_UnreachableServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	b, out, wait := newHTTPBridge(t, url)
	b.Submit("x", out.onSuccess, out.onFailure)
	wait()

	assert.Equal(t, []string{FailureMessage}, out.failures)
	assert.Empty(t, out.successes)
}

func TestAPIError(t *testing.T) {
	assert.Equal(t, "entries api: status 500", (&APIError{Status: 500}).Error())
	assert.Equal(t, "entries api: status 400: bad", (&APIError{Status: 400, Message: "bad"}).Error())
	assert.Equal(t, "Failed to save: bad", describeHTTPSaveError(&APIError{Status: 400, Message: "bad"}))
	assert.Equal(t, FailureMessage, describeHTTPSaveError(&APIError{Status: 500, Message: "bad"}))
}
