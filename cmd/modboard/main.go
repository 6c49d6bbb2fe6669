// Package main is the modboard CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/modboard/internal/cli"
	"github.com/hyperjump/modboard/internal/config"
	"github.com/hyperjump/modboard/internal/highlight"
	"github.com/hyperjump/modboard/internal/metrics"
	"github.com/hyperjump/modboard/internal/models"
	"github.com/hyperjump/modboard/internal/render"
	"github.com/hyperjump/modboard/internal/review"
	"github.com/hyperjump/modboard/internal/server"
	"github.com/hyperjump/modboard/internal/upstream"
	"github.com/hyperjump/modboard/internal/watcher"
	"github.com/hyperjump/modboard/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/modboard/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory takes precedence if it exists, so running from the
// project dir picks up the project's config. Returns the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// loadClientConfig is loadConfig for commands that only talk to the backend:
// a missing default config falls back to defaults plus environment.
func loadClientConfig(path, upstreamURL string) (*config.Config, error) {
	cfg, _, err := loadConfig(path)
	if err != nil {
		if path != defaultConfigPath || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = &config.Config{}
		if err := config.ApplyEnv(cfg); err != nil {
			return nil, err
		}
		config.ApplyDefaults(cfg)
	}
	if upstreamURL != "" {
		cfg.Upstream.BaseURL = upstreamURL
	}
	return cfg, nil
}

func newUpstreamClient(cfg *config.Config, opts ...upstream.ClientOption) (*upstream.Client, error) {
	if cfg.Upstream.APIToken != "" {
		opts = append(opts, upstream.WithToken(cfg.Upstream.APIToken))
	}
	return upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, opts...)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	var err error
	switch command {
	case "server":
		runServer(args)
		return
	case "highlight":
		err = runHighlight(args, os.Stdin, os.Stdout)
	case "approve":
		err = runDecision(args, models.StatusApproved, os.Stdin, os.Stdout)
	case "reject":
		err = runDecision(args, models.StatusRejected, os.Stdin, os.Stdout)
	case "refresh-metrics":
		err = runRefreshMetrics(args, os.Stdout)
	case "version", "--version", "-v":
		fmt.Printf("modboard version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (upstream calls, template reloads)")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("upstream", cfg.Upstream.BaseURL),
	)

	rec := metrics.NewRecorder(nil)
	client, err := newUpstreamClient(cfg, upstream.WithObserver(rec), upstream.WithLogger(logger))
	if err != nil {
		logger.Fatal("Failed to create upstream client", zap.Error(err))
	}
	renderer, err := render.New(cfg.Templates.Dir, render.WithLogger(logger))
	if err != nil {
		logger.Fatal("Failed to load templates", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Templates.Watch && cfg.Templates.Dir != "" {
		tw := watcher.New([]string{cfg.Templates.Dir}, []string{".html"}, func(path string) {
			if err := renderer.Reload(); err != nil {
				logger.Warn("template reload failed", zap.String("path", path), zap.Error(err))
				return
			}
			logger.Info("templates reloaded", zap.String("path", path))
		}, watcher.WithLogger(logger))
		if err := tw.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start template watcher", zap.Error(err))
		}
		defer tw.Stop()
	}

	srv, err := server.NewServer(cfg, client, renderer, rec, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// runHighlight annotates content with an explanation set. Either input may be
// read from stdin, but not both. With --id the content and explanations of an
// upstream item are used instead.
func runHighlight(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("highlight", flag.ContinueOnError)
	fs.SetOutput(stdout)
	contentPath := fs.String("content", "", "content file (- for stdin)")
	explanationsPath := fs.String("explanations", "", "explanations JSON file (- for stdin)")
	id := fs.Int64("id", 0, "highlight an upstream content item instead of local files")
	configPath := fs.String("config", defaultConfigPath, "config file path (used with --id)")
	upstreamURL := fs.String("upstream", "", "moderation backend URL (used with --id)")
	policyFlag := fs.String("policy", "", "collision policy for terms in several categories: last or first (default: config with --id, else last)")
	prefix := fs.String("class-prefix", "", "CSS class prefix of emitted spans (default: config with --id, else highlight)")
	formatFlag := fs.String("format", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := cli.ParseOutputFormat(*formatFlag)
	if err != nil {
		return err
	}

	var content string
	var set models.ExplanationSet
	if *id > 0 {
		cfg, err := loadClientConfig(*configPath, *upstreamURL)
		if err != nil {
			return err
		}
		if *policyFlag == "" {
			*policyFlag = cfg.Highlight.CollisionPolicy
		}
		if *prefix == "" {
			*prefix = cfg.Highlight.ClassPrefix
		}
		client, err := newUpstreamClient(cfg)
		if err != nil {
			return err
		}
		detail, err := client.GetContent(context.Background(), *id)
		if err != nil {
			return err
		}
		content, set = detail.Content.ContentText, detail.Explanations()
	} else {
		if *contentPath == "" && *explanationsPath == "" {
			return errors.New("--content or --explanations is required")
		}
		if isStdin(*contentPath) && *explanationsPath == "-" {
			return errors.New("only one of --content and --explanations can read stdin")
		}
		data, err := cli.ReadInput(*contentPath, stdin)
		if err != nil {
			return fmt.Errorf("read content: %w", err)
		}
		content = string(data)
		if *explanationsPath != "" {
			raw, err := cli.ReadInput(*explanationsPath, stdin)
			if err != nil {
				return fmt.Errorf("read explanations: %w", err)
			}
			if set, err = models.ParseExplanationSet(raw); err != nil {
				return err
			}
		}
	}

	policy, err := highlight.ParseCollisionPolicy(*policyFlag)
	if err != nil {
		return err
	}
	if *prefix != "" && !highlight.ValidClassPrefix(*prefix) {
		return fmt.Errorf("invalid class prefix %q (want lower-case letters, digits and -)", *prefix)
	}
	res, err := highlight.New(highlight.WithCollisionPolicy(policy), highlight.WithClassPrefix(*prefix)).Annotate(content, set)
	if err != nil {
		return err
	}
	return cli.WriteHighlightResult(stdout, res, format)
}

func isStdin(path string) bool {
	return path == "" || path == "-"
}

// runDecision approves or rejects one or more content ids after terminal
// confirmation.
func runDecision(args []string, status models.Status, stdin io.Reader, stdout io.Writer) error {
	verb := "approve"
	if status == models.StatusRejected {
		verb = "reject"
	}
	fs := flag.NewFlagSet(verb, flag.ContinueOnError)
	fs.SetOutput(stdout)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	upstreamURL := fs.String("upstream", "", "moderation backend URL (overrides config)")
	notes := fs.String("notes", "", "notes recorded with the decision")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	formatFlag := fs.String("format", "text", "output format: text or json")
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}
	format, err := cli.ParseOutputFormat(*formatFlag)
	if err != nil {
		return err
	}
	ids, err := parseIDArgs(fs.Args())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("usage: modboard %s [flags] <id>...", verb)
	}
	cfg, err := loadClientConfig(*configPath, *upstreamURL)
	if err != nil {
		return err
	}
	client, err := newUpstreamClient(cfg)
	if err != nil {
		return err
	}
	confirmer := &review.TerminalConfirmer{In: stdin, Out: stdout, AssumeYes: *yes}
	action := review.NewStatusAction(confirmer, client)
	ctx := context.Background()

	if len(ids) == 1 {
		if err := action.Submit(ctx, ids[0], status, *notes); err != nil {
			if errors.Is(err, review.ErrNotConfirmed) {
				fmt.Fprintln(stdout, "Cancelled.")
				return nil
			}
			return err
		}
		return cli.WriteStatusResult(stdout, ids[0], status, format)
	}
	res, err := action.Batch(ctx, ids, status, *notes)
	if err != nil {
		if errors.Is(err, review.ErrNotConfirmed) {
			fmt.Fprintln(stdout, "Cancelled.")
			return nil
		}
		return err
	}
	fmt.Fprintln(stdout, res.String())
	if res.Succeeded < res.Total {
		return fmt.Errorf("failed ids: %v", res.Failed)
	}
	return nil
}

func parseIDArgs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		for _, f := range strings.Split(a, ",") {
			if f = strings.TrimSpace(f); f == "" {
				continue
			}
			id, err := strconv.ParseInt(f, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid content id %q", f)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// reorderArgs moves flags that follow the positional ids to the front, since
// flag parsing stops at the first non-flag argument.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runRefreshMetrics(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("refresh-metrics", flag.ContinueOnError)
	fs.SetOutput(stdout)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	upstreamURL := fs.String("upstream", "", "moderation backend URL (overrides config)")
	formatFlag := fs.String("format", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := cli.ParseOutputFormat(*formatFlag)
	if err != nil {
		return err
	}
	cfg, err := loadClientConfig(*configPath, *upstreamURL)
	if err != nil {
		return err
	}
	client, err := newUpstreamClient(cfg)
	if err != nil {
		return err
	}
	res := review.NewMetricsRefresher(client).Refresh(context.Background())
	if err := cli.WriteRefreshResult(stdout, res, format); err != nil {
		return err
	}
	if !res.Success {
		return errors.New("metrics refresh failed")
	}
	return nil
}

func printUsage() {
	fmt.Println(`modboard - Content moderation review dashboard

Usage:
  modboard server [flags]                  Start the admin web server
  modboard highlight [flags]               Highlight flagged terms in content
  modboard approve [flags] <id>...         Approve content items
  modboard reject [flags] <id>...          Reject content items
  modboard refresh-metrics [flags]         Regenerate dashboard metrics upstream
  modboard version                         Show version
  modboard help                            Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/modboard/config.yaml)
  --debug            Enable debug logging

Highlight Flags:
  --content string        Content file, - for stdin
  --explanations string   Explanations JSON file ({"category": [{"term", "coefficient"}]}), - for stdin
  --id int                Highlight an upstream content item instead
  --policy string         Collision policy: last or first (default: config with --id, else last)
  --class-prefix string   CSS class prefix (default: config with --id, else highlight)
  --format string         Output format: text or json (default: text)

Approve/Reject Flags:
  --config string    Config file path
  --upstream string  Moderation backend URL (overrides config)
  --notes string     Notes recorded with the decision
  --yes              Skip the confirmation prompt
  --format string    Output format: text or json (default: text)

Refresh-metrics Flags:
  --config string    Config file path
  --upstream string  Moderation backend URL (overrides config)
  --format string    Output format: text or json (default: text)

Environment:
  MODBOARD_* variables override config values, e.g. MODBOARD_UPSTREAM_BASE_URL.

Examples:
  modboard server --config ./config.yaml
  modboard highlight --content post.txt --explanations flags.json
  echo "you jerk" | modboard highlight --explanations flags.json --format json
  modboard highlight --id 42
  modboard reject --notes "slur" 42
  modboard approve --yes 7,8,9
  modboard refresh-metrics`)
}
