// go_harvest: research API harvester.
//
// Harvests videos by hashtag, videos and comment threads by account, and
// account profiles over arbitrary date ranges, and writes fixed-column tables
// plus per-target summaries. Runs as an HTTP MCP server, or as a one-shot
// batch with `go_harvest run` configured from HARVEST_* variables.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_harvest/internal/engine"
	"github.com/anatolykoptev/go_harvest/internal/engine/research"
	"github.com/anatolykoptev/go_harvest/internal/engine/sink"
	"github.com/anatolykoptev/go_harvest/internal/harvestserver"
	"github.com/anatolykoptev/go_harvest/internal/toolutil"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	batch := len(os.Args) > 1 && os.Args[1] == "run"
	transport := initEngine(batch)

	if batch {
		if err := runBatch(context.Background(), transport); err != nil {
			slog.Error("batch failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	slog.Info("starting go_harvest",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_harvest",
		Version: version,
	}, nil)

	harvestserver.RegisterTools(server, transport)
	slog.Info("tools registered", slog.Int("count", 3))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_harvest",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 3600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine(batch bool) engine.Transport {
	c := engine.Config{
		APIBase:              env.Str("RESEARCH_API_BASE", research.DefaultAPIBase),
		AccessToken:          env.Str("RESEARCH_ACCESS_TOKEN", ""),
		PageSize:             env.Int("PAGE_SIZE", 100),
		MaxSpanDays:          env.Int("MAX_SPAN_DAYS", 30),
		Workers:              env.Int("HARVEST_WORKERS", 1),
		OutputDir:            env.Str("OUTPUT_DIR", "."),
		SQLitePath:           env.Str("SQLITE_PATH", ""),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		ReadableDates:        env.Str("READABLE_DATES", "false") == "true",
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 5000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: env.Duration("HTTP_TIMEOUT", 30*time.Second),
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
	if c.AccessToken == "" {
		slog.Warn("RESEARCH_ACCESS_TOKEN is empty, requests will be unauthenticated")
	}

	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", defaultCacheTTL(batch))
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)

	return engine.NewCachingTransport(engine.NewHTTPTransport(c.HTTPClient, c.AccessToken))
}

// defaultCacheTTL is the page cache lifetime when CACHE_TTL is unset. Batch
// runs fetch fresh pages; the server reuses pages of repeated tool calls.
func defaultCacheTTL(batch bool) time.Duration {
	if batch {
		return 0
	}
	return 15 * time.Minute
}

// runBatch harvests the hashtags and usernames named in the environment.
func runBatch(ctx context.Context, t engine.Transport) error {
	start, end, err := toolutil.ParseRange(env.Str("HARVEST_START", ""), env.Str("HARVEST_END", ""))
	if err != nil {
		return err
	}
	hashtags := toolutil.NormTargets(env.List("HARVEST_HASHTAGS", ""))
	usernames := toolutil.NormTargets(env.List("HARVEST_USERNAMES", ""))
	withInfo := env.Str("HARVEST_USER_INFO", "false") == "true"

	runID := uuid.New()
	s, err := sink.Open(ctx, runID.String())
	if err != nil {
		return err
	}
	defer s.Close()

	runner := research.NewRunner(runID, research.NewClient(t), s)
	slog.Info("batch started",
		slog.String("run_id", runID.String()),
		slog.String("output_dir", sink.RunDir(runID.String())),
		slog.Int("hashtags", len(hashtags)),
		slog.Int("usernames", len(usernames)),
		slog.String("start", start.Format(time.DateOnly)),
		slog.String("end", end.Format(time.DateOnly)))

	if len(hashtags) > 0 {
		if _, err := runner.Hashtags(ctx, hashtags, start, end); err != nil {
			return err
		}
	}
	if len(usernames) > 0 {
		if _, err := runner.Users(ctx, usernames, start, end, withInfo); err != nil {
			return err
		}
	}

	slog.Info("batch finished", slog.String("run_id", runID.String()))
	return nil
}
