package mcptools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dusk-indust/humanizer/internal/normalize"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHTTPTestServer(t *testing.T, d *mockDetector) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(NewHTTPHandler(NewServer(newTestService(&mockHumanizer{}, d)), zerolog.Nop()))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTPHandler_Healthz(t *testing.T) {
	ts := newHTTPTestServer(t, &mockDetector{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPHandler_CORSPreflight(t *testing.T) {
	ts := newHTTPTestServer(t, &mockDetector{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+MCPPath, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:6274")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Mcp-Session-Id")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHTTPHandler_UnknownPath(t *testing.T) {
	ts := newHTTPTestServer(t, &mockDetector{})

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPHandler_StreamableClient(t *testing.T) {
	d := &mockDetector{result: normalize.DetectionResult{Label: normalize.LabelHuman, Confidence: 70, AIProbability: 30}}
	ts := newHTTPTestServer(t, d)

	ctx := context.Background()
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL + MCPPath}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "detect_text",
		Arguments: map[string]any{"text": "A short passage."},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, 1, d.calls)
}
