package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDltimeHTTPClientDefaults(t *testing.T) {
	c := NewDltimeHTTPClient(HTTPClientConfig{})
	assert.Equal(t, 60*time.Second, c.client.Timeout)
	transport, ok := c.client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.DisableCompression)
	assert.Equal(t, 60*time.Second, transport.IdleConnTimeout)
}

func TestDltimeHTTPClientHeaders(t *testing.T) {
	var gotUA, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Test")
	}))
	defer srv.Close()

	c := NewDltimeHTTPClient(HTTPClientConfig{Headers: map[string]string{"X-Test": "yes"}})
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, ToolUserAgent, gotUA)
	assert.Equal(t, "yes", gotCustom)

	c = NewDltimeHTTPClient(HTTPClientConfig{UserAgent: "custom/1.0"})
	req, err = http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err = c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "custom/1.0", gotUA)
}
