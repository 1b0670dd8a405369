package mcptools

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with the three tools registered:
// detect_text, humanize_text and humanize_and_verify.
func NewServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "humanizer",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_text",
		Description: "Estimate how likely a passage is to be AI-generated. Returns a label, confidence and AI probability (0-100).",
	}, svc.DetectText)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "humanize_text",
		Description: "Rewrite a passage to read as human-written, at light, standard or heavy intensity.",
	}, svc.HumanizeText)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "humanize_and_verify",
		Description: "Rewrite a passage, then run AI detection on the rewrite. Detection failures are reported as degraded without discarding the rewrite.",
	}, svc.HumanizeAndVerify)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP server over streamable HTTP on addr until ctx is
// cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string, log zerolog.Logger) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           NewHTTPHandler(server, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("mcp http listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
