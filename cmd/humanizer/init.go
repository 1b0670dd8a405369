package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// mcpServerName is the key humanizer registers under in .mcp.json.
const mcpServerName = "humanizer"

// mcpConfig is the part of .mcp.json init touches. Other servers are kept
// as raw JSON so their fields survive a rewrite untouched.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// stdioServer is a stdio MCP server entry.
type stdioServer struct {
	Type    string   `json:"type"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// runInit registers humanizer as a stdio MCP server in dir/.mcp.json. An
// existing humanizer entry is left alone unless force is set.
func runInit(w io.Writer, dir string, force bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("init: resolve %s: %w", dir, err)
	}
	path := filepath.Join(abs, ".mcp.json")

	cfg := mcpConfig{MCPServers: map[string]json.RawMessage{}}
	action := "created"
	switch data, err := os.ReadFile(path); {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("init: parse %s: %w", path, err)
		}
		if cfg.MCPServers == nil {
			cfg.MCPServers = map[string]json.RawMessage{}
		}
		action = "updated"
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("init: read %s: %w", path, err)
	}

	if _, ok := cfg.MCPServers[mcpServerName]; ok && !force {
		fmt.Fprintf(w, "  skipped .mcp.json %s entry (exists, use --force to overwrite)\n", mcpServerName)
		return nil
	}

	entry, err := json.Marshal(stdioServer{Type: "stdio", Command: "humanizer", Args: []string{"--serve-mcp"}})
	if err != nil {
		return fmt.Errorf("init: encode entry: %w", err)
	}
	cfg.MCPServers[mcpServerName] = entry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("init: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("init: write %s: %w", path, err)
	}
	fmt.Fprintf(w, "  %s .mcp.json with %s MCP server\n", action, mcpServerName)
	return nil
}
