// AiChan is a chat front-end for an Anthropic model with optional web
// search augmentation.
//
// It serves a small browser UI, a streaming chat endpoint (server-sent
// events or WebSocket) and a handful of session and settings endpoints.
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]); without one the
// built-in defaults are used.
//
// Usage:
//
//	aichan serve              Start the HTTP server
//	aichan init [dir]         Write an example config and .env file
//	aichan version            Print version and build information
//	aichan -o json version    Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nawka12/AiChanWeb/examples"
	"github.com/nawka12/AiChanWeb/internal/api"
	"github.com/nawka12/AiChanWeb/internal/buildinfo"
	"github.com/nawka12/AiChanWeb/internal/config"
	"github.com/nawka12/AiChanWeb/internal/credential"
	"github.com/nawka12/AiChanWeb/internal/llm"
	"github.com/nawka12/AiChanWeb/internal/pipeline"
	"github.com/nawka12/AiChanWeb/internal/search"
	"github.com/nawka12/AiChanWeb/internal/session"
)

// shutdownTimeout bounds how long in-flight chat streams may keep the
// process alive after a signal.
const shutdownTimeout = 30 * time.Second

// main only builds the OS-level environment and hands off to [run], so
// the whole lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. Logs go to stdout, fatal errors are
// returned for main to print. Arguments are parsed by hand because the
// flag package's globals get in the way of parallel tests.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, stderr, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "AiChan - chat with optional web search")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: aichan [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the HTTP server")
	fmt.Fprintln(w, "  init [dir]   Write example config.yaml and .env (default: .)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/aichan/config.yaml, /etc/aichan/config.yaml")
	return nil
}

// runInit writes the bundled example files into dir. Existing files
// are never overwritten.
func runInit(w io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	fmt.Fprintf(w, "Initializing AiChan in %s\n", dir)

	files := []struct {
		name    string
		content []byte
		perm    os.FileMode
	}{
		{"config.yaml", examples.ConfigYAML, 0o644},
		{".env", examples.EnvFile, 0o600},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		wrote, err := writeIfMissing(path, f.content, f.perm)
		if err != nil {
			return err
		}
		if wrote {
			fmt.Fprintf(w, "  ✓ %s\n", path)
		} else {
			fmt.Fprintf(w, "  - %s (exists, skipped)\n", path)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Set ANTHROPIC_API_KEY in .env, or save it from the settings dialog.")
	return nil
}

// writeIfMissing writes content to path only if the file does not
// already exist.
func writeIfMissing(path string, content []byte, perm os.FileMode) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.WriteFile(path, content, perm); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

func runServe(ctx context.Context, stdout io.Writer, stderr io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo, "text")
	build := buildinfo.Current()
	logger.Info("starting AiChan", "version", build.Version, "commit", build.Commit, "branch", build.Branch, "built", build.Time, "dirty", build.Dirty)

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := config.LoadEnv(cfg.Anthropic.EnvFile); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Reconfigure now that the level and format are known.
	level, _ := config.ParseLogLevel(cfg.Log.Level)
	out := stdout
	if cfg.Log.File.Enabled() {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Log.File.Path,
			MaxSize:    cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAge:     cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		}
		defer rotator.Close()
		out = io.MultiWriter(stdout, rotator)
	}
	logger = newLogger(out, level, cfg.Log.Format)

	if cfgPath == "" {
		cfgPath = "(defaults)"
	}
	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"model", cfg.Anthropic.Model,
		"search_provider", cfg.Search.Provider,
	)

	// --- Search ---
	searcher := search.NewManager(cfg.Search.Provider)
	if cfg.Search.SearXNG.Configured() {
		searcher.Register(search.NewSearXNG(cfg.Search.SearXNG.URL, logger,
			search.WithExcludedEngines(cfg.Search.SearXNG.ExcludeEngines...)))
	}
	if cfg.Search.Brave.Configured() {
		searcher.Register(search.NewBrave(cfg.Search.Brave.APIKey, logger))
	}
	logger.Info("search configured", "primary", searcher.Primary(), "providers", searcher.Providers())

	// --- Credential ---
	creds := credential.New(cfg.Anthropic.EnvFile, cfg.Anthropic.APIKey, logger)
	if err := creds.Load(); err != nil {
		logger.Warn("credential file unreadable", "path", creds.Path(), "error", err)
	}
	if !creds.IsSet() {
		logger.Warn("no API key configured; chat requests fail until one is saved", "env_var", credential.EnvVar)
	}

	// --- Completion provider ---
	// A client is built per request from whatever key is current.
	var clientOpts []llm.AnthropicOption
	if cfg.Anthropic.BaseURL != "" {
		clientOpts = append(clientOpts, llm.WithBaseURL(cfg.Anthropic.BaseURL))
	}
	newClient := func(key string) llm.Client {
		return llm.NewAnthropicClient(key, cfg.Anthropic.Model, logger, clientOpts...)
	}

	sessions := session.NewMemoryStore(logger)
	chat := pipeline.New(sessions, creds, newClient, searcher, logger)
	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, chat, sessions, creds, logger)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// Losing hot reload is not fatal; saves through the API still apply.
		if err := creds.Watch(gctx); err != nil {
			logger.Warn("credential watcher stopped", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("AiChan stopped", "sessions", sessions.Len())
	return nil
}

// newLogger creates a structured logger that writes to w at the given
// level and format. Any format other than "json" yields text.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// loadConfig locates and parses the YAML configuration file. An explicit
// path must exist; when none is given and nothing is found on the search
// path, the defaults are returned with an empty path.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if errors.Is(err, config.ErrNoConfig) {
		return config.Default(), "", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}
