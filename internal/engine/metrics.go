package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	PageRequests     atomic.Int64
	PageErrors       atomic.Int64
	RecordsHarvested atomic.Int64
	RowsRejected     atomic.Int64
	InnerStreams     atomic.Int64
	TargetsHarvested atomic.Int64
	SinkErrors       atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"page_requests":     metrics.PageRequests.Load(),
		"page_errors":       metrics.PageErrors.Load(),
		"records_harvested": metrics.RecordsHarvested.Load(),
		"rows_rejected":     metrics.RowsRejected.Load(),
		"inner_streams":     metrics.InnerStreams.Load(),
		"targets_harvested": metrics.TargetsHarvested.Load(),
		"sink_errors":       metrics.SinkErrors.Load(),
		"cache_hits":        hits,
		"cache_misses":      misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"page_requests", "page_errors",
		"records_harvested", "rows_rejected",
		"inner_streams", "targets_harvested", "sink_errors",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for paging/ and research/ sub-packages.
func IncrPageRequests()          { metrics.PageRequests.Add(1) }
func IncrPageErrors()            { metrics.PageErrors.Add(1) }
func IncrInnerStreams()          { metrics.InnerStreams.Add(1) }
func IncrTargetsHarvested()      { metrics.TargetsHarvested.Add(1) }
func IncrSinkErrors()            { metrics.SinkErrors.Add(1) }
func IncrRecordsHarvested(n int) { metrics.RecordsHarvested.Add(int64(n)) }
func IncrRowsRejected(n int)     { metrics.RowsRejected.Add(int64(n)) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
