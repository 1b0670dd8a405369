package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ConfigDir   string
	Intensity   string
	File        string
	JSON        bool
	Compare     bool
	Quiet       bool
	Concurrency int
	Force       bool
	ServeMCP    bool
	MCPAddr     string
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage: humanizer [flags] <command> [text]

commands:
  humanize [text]   rewrite text, then run AI detection on the rewrite
  detect [text]     run AI detection only
  batch <file>      humanize every blank-line separated passage in file ("-" for stdin)
  init              register the MCP server in .mcp.json under --config-dir

Flags may appear before or after the command. Text is read from the
arguments, from --file, or from stdin when omitted.

flags:
`

// errFailed signals that the result has already been printed and the
// process should exit non-zero.
var errFailed = errors.New("request failed")

// app carries the process streams so commands can be exercised in tests.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("humanizer", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprint(a.stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&flags.ConfigDir, "config-dir", ".", "directory holding humanizer.yml and .env")
	fs.StringVar(&flags.Intensity, "intensity", "", "rewrite intensity: light, standard or heavy")
	fs.StringVar(&flags.File, "file", "", "read input text from this file")
	fs.BoolVar(&flags.JSON, "json", false, "print results as JSON")
	fs.BoolVar(&flags.Compare, "compare", false, "also run detection on the original text")
	fs.BoolVar(&flags.Quiet, "quiet", false, "suppress progress output")
	fs.IntVar(&flags.Concurrency, "concurrency", 0, "batch requests in flight (default from config)")
	fs.BoolVar(&flags.Force, "force", false, "init: overwrite an existing .mcp.json entry")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as an MCP server on stdio")
	fs.StringVar(&flags.MCPAddr, "mcp-addr", "", "serve MCP over streamable HTTP on this address instead of stdio")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	// Flags may also follow the command name.
	var cmd string
	var cmdArgs []string
	if rest := fs.Args(); len(rest) > 0 {
		cmd = rest[0]
		if err := fs.Parse(rest[1:]); err != nil {
			return err
		}
		cmdArgs = fs.Args()
	}

	if flags.Version {
		fmt.Fprintln(a.stdout, version)
		return nil
	}

	if cmd == "init" {
		return runInit(a.stdout, flags.ConfigDir, flags.Force)
	}

	env, err := newEnv(flags, a.stderr)
	if err != nil {
		return err
	}

	if flags.ServeMCP || flags.MCPAddr != "" {
		return env.serveMCP(ctx, flags.MCPAddr)
	}

	if cmd == "" {
		fs.Usage()
		return fmt.Errorf("missing command")
	}

	switch cmd {
	case "humanize":
		text, err := a.readText(cmdArgs, flags.File)
		if err != nil {
			return err
		}
		return env.humanize(ctx, a.stdout, text)
	case "detect":
		text, err := a.readText(cmdArgs, flags.File)
		if err != nil {
			return err
		}
		return env.detect(ctx, a.stdout, text)
	case "batch":
		passages, err := a.readBatch(cmdArgs, flags.File)
		if err != nil {
			return err
		}
		return env.batch(ctx, a.stdout, passages)
	default:
		return fmt.Errorf("unknown command %q (want humanize, detect, batch or init)", cmd)
	}
}

// readText takes the input from args, then --file, then stdin.
func (a *app) readText(args []string, file string) (string, error) {
	switch {
	case len(args) > 0 && !(len(args) == 1 && args[0] == "-"):
		return strings.Join(args, " "), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
}

// readBatch loads passages from the named file, --file or stdin.
func (a *app) readBatch(args []string, file string) ([]string, error) {
	if len(args) > 0 {
		file = args[0]
	}
	var r io.Reader = a.stdin
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("read batch: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	passages := splitPassages(string(data))
	if len(passages) == 0 {
		return nil, fmt.Errorf("batch input has no passages")
	}
	return passages, nil
}

// splitPassages splits text on blank lines.
func splitPassages(text string) []string {
	var out []string
	var cur []string
	flush := func() {
		if p := strings.TrimSpace(strings.Join(cur, "\n")); p != "" {
			out = append(out, p)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}
