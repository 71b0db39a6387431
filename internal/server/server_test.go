package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/dltime/internal/dispatch"
	"github.com/tanq16/dltime/internal/estimate"
	"github.com/tanq16/dltime/internal/probe"
)

type fixedProbe struct {
	result probe.Result
}

func (f fixedProbe) Start(ctx context.Context) <-chan probe.Result {
	ch := make(chan probe.Result, 1)
	ch <- f.result
	close(ch)
	return ch
}

func newTestServer(t *testing.T, p dispatch.SpeedProbe) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	projector := estimate.NewProjector(time.UTC)
	projector.Now = func() time.Time { return time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC) }
	d := dispatch.NewDispatcher(dispatch.NewMetrics(reg))
	dispatch.RegisterCommands(d, projector, p)
	srv := httptest.NewServer(NewRouter(d, Options{
		Version:        "test",
		Gatherer:       reg,
		AllowedOrigins: []string{"http://localhost:*"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func invoke(t *testing.T, srv *httptest.Server, command, body string) (int, InvokeReply) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/invoke/"+command, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var reply InvokeReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	return resp.StatusCode, reply
}

func TestInvokeDownloadTime(t *testing.T) {
	srv := newTestServer(t, fixedProbe{})
	status, reply := invoke(t, srv, dispatch.CmdDownloadTime, `{"fileSize": 10000000, "downloadSpeed": 1000000}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, dispatch.CmdDownloadTime, reply.Command)
	assert.NotEmpty(t, reply.ID)
	assert.Empty(t, reply.Error)
	assert.Equal(t, map[string]any{"hours": 0.0, "minutes": 0.0, "seconds": 10.0}, reply.Result)
}

func TestInvokeFinishTime(t *testing.T) {
	srv := newTestServer(t, fixedProbe{})
	status, reply := invoke(t, srv, dispatch.CmdFinishTime, `{"downloadTime": 2}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "00:00:01", reply.Result)
}

func TestInvokeSpeedTest(t *testing.T) {
	srv := newTestServer(t, fixedProbe{result: probe.Result{Speed: 42}})
	status, reply := invoke(t, srv, dispatch.CmdSpeedTest, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 42.0, reply.Result)
}

func TestInvokeErrors(t *testing.T) {
	srv := newTestServer(t, fixedProbe{result: probe.Result{Err: fmt.Errorf("%w: unreachable", probe.ErrProbeFailed)}})
	tests := []struct {
		command, body string
		status        int
		kind          string
	}{
		{dispatch.CmdDownloadTime, `{"fileSize": 1, "downloadSpeed": 0}`, http.StatusBadRequest, dispatch.KindInvalidInput},
		{dispatch.CmdDownloadTime, `not json`, http.StatusBadRequest, dispatch.KindInvalidInput},
		{dispatch.CmdDownloadTime, `{"fileSize": 1e12, "downloadSpeed": 1e-300}`, http.StatusUnprocessableEntity, dispatch.KindOverflow},
		{dispatch.CmdFinishTime, `{"downloadTime": 9223372036854775807}`, http.StatusUnprocessableEntity, dispatch.KindOverflow},
		{dispatch.CmdSpeedTest, ``, http.StatusBadGateway, dispatch.KindProbeFailed},
		{"greet", `{"name": "x"}`, http.StatusNotFound, dispatch.KindUnknownCommand},
	}
	for _, tt := range tests {
		status, reply := invoke(t, srv, tt.command, tt.body)
		assert.Equal(t, tt.status, status, "%s %s", tt.command, tt.body)
		assert.Equal(t, tt.kind, reply.Kind, "%s %s", tt.command, tt.body)
		assert.NotEmpty(t, reply.Error)
		assert.Nil(t, reply.Result)
	}
}

func TestCommandsAndVersion(t *testing.T) {
	srv := newTestServer(t, fixedProbe{})

	resp, err := http.Get(srv.URL + "/commands")
	require.NoError(t, err)
	var commands CommandsReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&commands))
	resp.Body.Close()
	assert.Equal(t, []string{dispatch.CmdDownloadTime, dispatch.CmdFinishTime, dispatch.CmdSpeedTest}, commands.Commands)

	resp, err = http.Get(srv.URL + "/version")
	require.NoError(t, err)
	var version VersionReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&version))
	resp.Body.Close()
	assert.Equal(t, "test", version.Version)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, fixedProbe{})
	invoke(t, srv, dispatch.CmdFinishTime, `{"downloadTime": 0}`)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dltime_invocations_total{command="calculate_finish_time",status="success"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, fixedProbe{})
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/invoke/"+dispatch.CmdFinishTime, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:1420")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:1420", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusForKind(dispatch.KindCanceled))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(dispatch.KindInternal))
}

func TestServerRunShutdown(t *testing.T) {
	s := New("127.0.0.1:0", http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
