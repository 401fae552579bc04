package httpclient

import (
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/core/proxy"

	"github.com/elazarl/goproxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoggingRoundTripper verifies that requests are logged.
func TestLoggingRoundTripper(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	logger.Init("development", "debug")

	client := NewClient(1*time.Second, proxy.Settings{})
	resp, err := client.Get(ts.URL + "?api_key=secret")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestLoggingRoundTripper_Error verifies that failed requests are logged.
func TestLoggingRoundTripper_Error(t *testing.T) {
	logger.Init("development", "debug")

	client := NewClient(1*time.Second, proxy.Settings{}, "secret")
	_, err := client.Get("http://invalid-url-that-does-not-exist.local")
	require.Error(t, err)
}

// TestNewClient_Proxy verifies that requests go through the configured proxy.
func TestNewClient_Proxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	var proxied int32
	fwd := goproxy.NewProxyHttpServer()
	fwd.OnRequest().DoFunc(func(r *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
		atomic.AddInt32(&proxied, 1)
		return r, nil
	})
	proxyServer := httptest.NewServer(fwd)
	defer proxyServer.Close()

	host, portStr, err := net.SplitHostPort(proxyServer.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client := NewClient(2*time.Second, proxy.Settings{
		Enabled:  true,
		Hostname: host,
		Port:     port,
		Username: "user",
		Password: "pass",
	})

	resp, err := client.Get(upstream.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&proxied))
}

func TestErrorText_StripsURL(t *testing.T) {
	err := &url.Error{Op: "Get", URL: "https://api.example.com/x?api_key=abc", Err: assert.AnError}
	assert.Equal(t, "Get: "+assert.AnError.Error(), errorText(err))
	assert.Equal(t, assert.AnError.Error(), errorText(assert.AnError))
}
