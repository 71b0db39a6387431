package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payloadServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(r.URL.Query().Get("bytes"))
		if err != nil {
			http.Error(w, "bad bytes", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(n))
		_, _ = w.Write([]byte(strings.Repeat("0", n)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fakeClock advances one second per call so elapsed time is deterministic.
func fakeClock() func() time.Time {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	return func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
}

func TestNewDefaults(t *testing.T) {
	p := New(Config{})
	assert.Equal(t, DefaultURL, p.config.URL)
	assert.Equal(t, int64(DefaultPayloadBytes), p.PayloadBytes())
}

func TestMeasure(t *testing.T) {
	srv := payloadServer(t)
	p := New(Config{URL: srv.URL, PayloadBytes: 200_000})
	p.now = fakeClock()

	var lastRead, lastTotal int64
	p.SetProgressFunc(func(read, total int64) {
		lastRead, lastTotal = read, total
	})

	speed, err := p.Measure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200_000.0, speed)
	assert.Equal(t, int64(200_000), lastRead)
	assert.Equal(t, int64(200_000), lastTotal)
}

func TestMeasureKeepsExistingQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	p := New(Config{URL: srv.URL + "/__down?measId=7", PayloadBytes: 10})
	_, err := p.Measure(context.Background())
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "measId=7")
	assert.Contains(t, gotQuery, "bytes=10")
}

func TestMeasureFailures(t *testing.T) {
	statusSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer statusSrv.Close()

	shortSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tiny"))
	}))
	defer shortSrv.Close()

	closedSrv := httptest.NewServer(http.NotFoundHandler())
	closedURL := closedSrv.URL
	closedSrv.Close()

	tests := []struct {
		name string
		url  string
	}{
		{"bad status", statusSrv.URL},
		{"short body", shortSrv.URL},
		{"connection refused", closedURL},
		{"bad scheme", "ftp://example.com/file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Config{URL: tt.url, PayloadBytes: 1000})
			_, err := p.Measure(context.Background())
			assert.ErrorIs(t, err, ErrProbeFailed)
		})
	}
}

func TestMeasureZeroElapsed(t *testing.T) {
	srv := payloadServer(t)
	p := New(Config{URL: srv.URL, PayloadBytes: 10})
	fixed := time.Now()
	p.now = func() time.Time { return fixed }

	_, err := p.Measure(context.Background())
	assert.ErrorIs(t, err, ErrProbeFailed)
}

func TestStart(t *testing.T) {
	srv := payloadServer(t)
	p := New(Config{URL: srv.URL, PayloadBytes: 5000})
	p.now = fakeClock()

	resultCh := p.Start(context.Background())
	select {
	case res, ok := <-resultCh:
		require.True(t, ok)
		require.NoError(t, res.Err)
		assert.Equal(t, 5000.0, res.Speed)
	case <-time.After(5 * time.Second):
		t.Fatal("probe did not report a result")
	}
	_, open := <-resultCh
	assert.False(t, open, "result channel should be closed after one result")
}

func TestStartRecoversPanic(t *testing.T) {
	srv := payloadServer(t)
	p := New(Config{URL: srv.URL, PayloadBytes: 10})
	p.SetProgressFunc(func(read, total int64) { panic("boom") })

	res := <-p.Start(context.Background())
	assert.ErrorIs(t, res.Err, ErrProbeFailed)
	assert.Contains(t, res.Err.Error(), "boom")
}
