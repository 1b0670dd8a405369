package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSpaces serves both remote Spaces from one server. Each function maps
// to the raw SSE body streamed back for every call.
func fakeSpaces(t *testing.T, streams map[string]string) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /gradio_api/call/{fn}", func(w http.ResponseWriter, r *http.Request) {
		fn := r.PathValue("fn")
		if _, ok := streams[fn]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"event_id": "evt-" + fn})
	})
	mux.HandleFunc("GET /gradio_api/call/{fn}/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(streams[r.PathValue("fn")]))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	t.Setenv("HUMANIZER_DETECTOR_SPACE", ts.URL)
	t.Setenv("HUMANIZER_HUMANIZER_SPACE", ts.URL)
	t.Setenv("HUMANIZER_TIMEOUT", "10s")
	t.Setenv("LOG_LEVEL", "off")
}

func complete(data string) string {
	return "event: heartbeat\ndata: null\n\nevent: complete\ndata: " + data + "\n\n"
}

var healthySpaces = map[string]string{
	"process_text_advanced": complete(`["It was fine. We left early.", {"flesch": 80}]`),
	"detect":                complete(`["Human", 0.93]`),
}

type result struct {
	err    error
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	a := &app{stdin: strings.NewReader(stdin), stdout: &out, stderr: &errOut}
	args = append([]string{"--config-dir", t.TempDir()}, args...)
	err := a.run(context.Background(), args)
	return result{err: err, stdout: out.String(), stderr: errOut.String()}
}

func TestRun_Version(t *testing.T) {
	res := runCLI(t, "", "--version")
	require.NoError(t, res.err)
	assert.Equal(t, "dev\n", res.stdout)
}

func TestRun_HumanizeJSON(t *testing.T) {
	fakeSpaces(t, healthySpaces)

	res := runCLI(t, "", "humanize", "--json", "--intensity", "heavy", "The", "results", "were", "satisfactory.")
	require.NoError(t, res.err, res.stderr)

	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &rep))
	assert.Equal(t, "The results were satisfactory.", rep["original"])
	assert.Equal(t, "It was fine. We left early.", rep["humanized"])
	assert.Equal(t, "heavy", rep["intensity"])
	assert.Equal(t, "passed", rep["verdict"])
	assert.Empty(t, res.stderr, "JSON mode prints no progress")
}

func TestRun_HumanizeTextFromStdin(t *testing.T) {
	fakeSpaces(t, healthySpaces)

	res := runCLI(t, "Some long passage written by a model.", "humanize")
	require.NoError(t, res.err, res.stderr)

	assert.Contains(t, res.stdout, "Humanized (standard):")
	assert.Contains(t, res.stdout, "It was fine. We left early.")
	assert.Contains(t, res.stdout, "Detection: Human-Written (7.0% AI) - PASSED!")
	assert.Contains(t, res.stderr, "humanize complete", "progress goes to stderr")
}

func TestRun_HumanizeCompare(t *testing.T) {
	fakeSpaces(t, healthySpaces)

	res := runCLI(t, "", "--quiet", "--compare", "humanize", "Original text.")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Original:  Human-Written (7.0% AI)")
	assert.Empty(t, res.stderr)
}

func TestRun_HumanizeFromFile(t *testing.T) {
	fakeSpaces(t, healthySpaces)
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("File input."), 0o644))

	res := runCLI(t, "", "--json", "--file", path, "humanize")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `"original": "File input."`)
}

func TestRun_HumanizerLoading(t *testing.T) {
	fakeSpaces(t, map[string]string{
		"process_text_advanced": "event: error\ndata: \"Queue is full\"\n\n",
		"detect":                complete(`"AI"`),
	})

	res := runCLI(t, "", "--quiet", "humanize", "text")
	require.ErrorIs(t, res.err, errFailed)
	assert.Contains(t, res.stdout, "Error: Space is starting up, please wait 30 seconds")
	assert.Contains(t, res.stdout, "If the Space is loading, wait 30 seconds and try again.")
}

func TestRun_Detect(t *testing.T) {
	fakeSpaces(t, map[string]string{"analyze": complete(`[{"label": "AI", "score": 0.81}]`)})

	res := runCLI(t, "", "--quiet", "detect", "Delve into the tapestry.")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Label:          AI-Generated")
	assert.Contains(t, res.stdout, "AI probability: 81.0%")
}

func TestRun_DetectNoEndpoint(t *testing.T) {
	fakeSpaces(t, map[string]string{})

	res := runCLI(t, "", "--json", "detect", "text")
	require.ErrorIs(t, res.err, errFailed)

	var det map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &det))
	assert.Equal(t, "Error", det["label"])
	assert.Equal(t, "Could not find API endpoint", det["error"])
}

func TestRun_Batch(t *testing.T) {
	fakeSpaces(t, healthySpaces)
	path := filepath.Join(t.TempDir(), "batch.txt")
	require.NoError(t, os.WriteFile(path, []byte("First passage.\n\n\nSecond passage\nspans two lines.\n"), 0o644))

	res := runCLI(t, "", "--json", "--concurrency", "2", "batch", path)
	require.NoError(t, res.err)

	var exp struct {
		Count   int `json:"count"`
		Failed  int `json:"failed"`
		Reports []struct {
			Original string `json:"original"`
		} `json:"reports"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &exp))
	assert.Equal(t, 2, exp.Count)
	assert.Zero(t, exp.Failed)
	require.Len(t, exp.Reports, 2)
	assert.Equal(t, "First passage.", exp.Reports[0].Original)
	assert.Equal(t, "Second passage\nspans two lines.", exp.Reports[1].Original)
}

func TestRun_BatchEmpty(t *testing.T) {
	fakeSpaces(t, healthySpaces)

	res := runCLI(t, "\n\n  \n", "batch", "-")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "no passages")
}

func TestRun_CommandErrors(t *testing.T) {
	fakeSpaces(t, healthySpaces)

	res := runCLI(t, "", "paraphrase", "x")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), `unknown command "paraphrase"`)

	res = runCLI(t, "")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "missing command")
	assert.Contains(t, res.stderr, "usage: humanizer")
}

func TestRun_InvalidConfig(t *testing.T) {
	fakeSpaces(t, healthySpaces)
	t.Setenv("HUMANIZER_INTENSITY", "extreme")

	res := runCLI(t, "", "detect", "x")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "intensity")
}

func TestRun_Init(t *testing.T) {
	dir := t.TempDir()
	existing := `{"mcpServers": {"other": {"command": "other"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mcp.json"), []byte(existing), 0o644))

	var out bytes.Buffer
	a := &app{stdin: strings.NewReader(""), stdout: &out, stderr: &bytes.Buffer{}}
	require.NoError(t, a.run(context.Background(), []string{"--config-dir", dir, "init"}))
	assert.Contains(t, out.String(), "updated .mcp.json")

	data, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	require.NoError(t, err)
	var cfg mcpConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Contains(t, cfg.MCPServers, "other")
	assert.Contains(t, cfg.MCPServers, "humanizer")
	assert.Contains(t, string(cfg.MCPServers["humanizer"]), "--serve-mcp")

	out.Reset()
	require.NoError(t, a.run(context.Background(), []string{"--config-dir", dir, "init"}))
	assert.Contains(t, out.String(), "skipped")

	out.Reset()
	require.NoError(t, a.run(context.Background(), []string{"--config-dir", dir, "init", "--force"}))
	assert.Contains(t, out.String(), "updated")
}

func TestSplitPassages(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"one", []string{"one"}},
		{"one\n\ntwo", []string{"one", "two"}},
		{"  a\nb  \n \n\n c \r\n\r\nd", []string{"a\nb", "c", "d"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitPassages(tt.in), "%q", tt.in)
	}
}

func TestRunInit_FreshDirectory(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, runInit(&out, dir, false))
	assert.Contains(t, out.String(), "created .mcp.json")

	data, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	require.NoError(t, err)
	var cfg mcpConfig
	require.NoError(t, json.Unmarshal(data, &cfg))

	var entry stdioServer
	require.NoError(t, json.Unmarshal(cfg.MCPServers[mcpServerName], &entry))
	assert.Equal(t, stdioServer{Type: "stdio", Command: "humanizer", Args: []string{"--serve-mcp"}}, entry)
}

func TestRunInit_InvalidExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mcp.json"), []byte("{not json"), 0o644))

	err := runInit(&bytes.Buffer{}, dir, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}
