package prometheus

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prysmaticlabs/epoch-engine/runtime"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

type mockService struct {
	status error
}

func (_ *mockService) Start() {
}

func (_ *mockService) Stop() error {
	return nil
}

func (m *mockService) Status() error {
	return m.status
}

func TestLifecycle(t *testing.T) {
	prometheusService := NewService(":2112", nil)
	prometheusService.Start()
	// Give service time to start.
	time.Sleep(time.Second)

	// Query the service to ensure it really started.
	resp, err := http.Get("http://localhost:2112/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	err = prometheusService.Stop()
	require.NoError(t, err)
	// Give service time to stop.
	time.Sleep(time.Second)

	// Query the service to ensure it really stopped.
	_, err = http.Get("http://localhost:2112/metrics")
	assert.NotNil(t, err, "Service still running after Stop()")
}

func TestHealthz(t *testing.T) {
	registry := runtime.NewServiceRegistry()
	m := &mockService{}
	require.NoError(t, registry.RegisterService(m))

	s := NewService("", registry)

	req, err := http.NewRequest(http.MethodGet, "/healthz", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "prometheus.mockService: OK\n", rr.Body.String())

	m.status = errors.New("something really bad has happened")

	rr = httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := rr.Body.String()
	assert.Equal(t, true, strings.Contains(body, "ERROR something really bad has happened"), body)
}

func TestHealthz_JSON(t *testing.T) {
	registry := runtime.NewServiceRegistry()
	m := &mockService{status: errors.New("not synced")}
	require.NoError(t, registry.RegisterService(m))

	s := NewService("", registry)

	req, err := http.NewRequest(http.MethodGet, "/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")

	rr := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, contentTypeJSON, rr.Header().Get("Content-Type"))

	resp := struct {
		Data []struct {
			Name   string `json:"service"`
			Status bool   `json:"status"`
			Err    string `json:"error"`
		} `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 1, len(resp.Data))
	assert.Equal(t, "prometheus.mockService", resp.Data[0].Name)
	assert.Equal(t, false, resp.Data[0].Status)
	assert.Equal(t, "not synced", resp.Data[0].Err)
}

func TestAdditionalHandlers(t *testing.T) {
	s := NewService("", nil, Handler{
		Path: "/db/backup",
		Handler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		},
	})

	req, err := http.NewRequest(http.MethodPost, "/db/backup", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestGoroutinez(t *testing.T) {
	s := NewService("", nil)
	req, err := http.NewRequest(http.MethodGet, "/goroutinez", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, strings.Contains(rr.Body.String(), "goroutine"))
}

func TestStatus(t *testing.T) {
	s := NewService("", nil)
	assert.NoError(t, s.Status())
	s.setFailStatus(errors.New("failed"))
	assert.ErrorContains(t, "failed", s.Status())
}

func TestStart_PortInUse(t *testing.T) {
	hook := logTest.NewGlobal()
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	s := NewService(srv.Listener.Addr().String(), nil)
	s.Start()
	time.Sleep(500 * time.Millisecond)
	require.LogsContain(t, hook, "Port already in use")
	assert.ErrorContains(t, "already in use", s.Status())
}
