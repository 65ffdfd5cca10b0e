package harvestserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_harvest/internal/engine"
	"github.com/anatolykoptev/go_harvest/internal/engine/research"
	"github.com/anatolykoptev/go_harvest/internal/engine/sink"
	"github.com/anatolykoptev/go_harvest/internal/toolutil"
)

// RegisterTools registers the harvest tools on the given MCP server:
// hashtag_harvest, user_harvest, user_info. All requests go through t.
func RegisterTools(server *mcp.Server, t engine.Transport) {
	registerHashtagHarvest(server, t)
	registerUserHarvest(server, t)
	registerUserInfo(server, t)
}

// KindSummary is the row count and totals of one output kind.
type KindSummary struct {
	Kind string           `json:"kind"`
	Rows int              `json:"rows"`
	Sums map[string]int64 `json:"sums"`
}

// TargetSummary reports one harvested target.
type TargetSummary struct {
	Target string        `json:"target"`
	Kinds  []KindSummary `json:"kinds"`
	Errors []string      `json:"errors,omitempty"`
}

// HarvestOutput is the result of a harvest tool.
type HarvestOutput struct {
	RunID     string          `json:"run_id"`
	OutputDir string          `json:"output_dir"`
	Targets   []TargetSummary `json:"targets"`
}

// Summaries converts harvests to their tool output form.
func Summaries(runID uuid.UUID, hs []research.Harvest) HarvestOutput {
	out := HarvestOutput{RunID: runID.String(), OutputDir: sink.RunDir(runID.String())}
	for _, h := range hs {
		ts := TargetSummary{Target: h.Target}
		for _, p := range h.Parts {
			ts.Kinds = append(ts.Kinds, KindSummary{
				Kind: p.Kind.Name,
				Rows: p.Summary.RowCount,
				Sums: p.Summary.Sums,
			})
		}
		for _, err := range h.Errors {
			ts.Errors = append(ts.Errors, err.Error())
		}
		out.Targets = append(out.Targets, ts)
	}
	return out
}

// runWith opens the configured sinks for a fresh run and hands a Runner to fn.
func runWith(ctx context.Context, t engine.Transport, fn func(r *research.Runner) ([]research.Harvest, error)) (HarvestOutput, error) {
	runID := uuid.New()
	s, err := sink.Open(ctx, runID.String())
	if err != nil {
		return HarvestOutput{}, fmt.Errorf("open sinks: %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Warn("close sinks", slog.Any("error", err))
		}
	}()

	hs, err := fn(research.NewRunner(runID, research.NewClient(t), s))
	if err != nil {
		return HarvestOutput{}, err
	}
	return Summaries(runID, hs), nil
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start and end are required")
	}
	return toolutil.ParseRange(start, end)
}
