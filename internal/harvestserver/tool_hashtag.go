package harvestserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_harvest/internal/engine"
	"github.com/anatolykoptev/go_harvest/internal/engine/research"
	"github.com/anatolykoptev/go_harvest/internal/toolutil"
)

type HashtagHarvestInput struct {
	Hashtags []string `json:"hashtags" jsonschema:"Hashtags to harvest, without or with leading #"`
	Start    string   `json:"start" jsonschema:"First day, YYYY-MM-DD"`
	End      string   `json:"end" jsonschema:"Last day (inclusive), YYYY-MM-DD"`
}

func registerHashtagHarvest(server *mcp.Server, t engine.Transport) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "hashtag_harvest",
		Description: "Harvest all videos tagged with each hashtag in a date range. Long ranges are split into 30-day windows and every window is paged to the end. Writes one videos table per hashtag plus a summary table (total videos, likes, comments, shares) and returns the summaries. Pages fetched within the last CACHE_TTL (15 minutes by default) are reused, so repeating a harvest inside that window returns the same pages.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input HashtagHarvestInput) (*mcp.CallToolResult, HarvestOutput, error) {
		tags := toolutil.NormTargets(input.Hashtags)
		if len(tags) == 0 {
			return nil, HarvestOutput{}, fmt.Errorf("hashtags is required")
		}
		start, end, err := parseRange(input.Start, input.End)
		if err != nil {
			return nil, HarvestOutput{}, err
		}

		out, err := runWith(ctx, t, func(r *research.Runner) ([]research.Harvest, error) {
			return r.Hashtags(ctx, tags, start, end)
		})
		if err != nil {
			slog.Warn("hashtag_harvest error", slog.Any("error", err))
			return nil, HarvestOutput{}, err
		}
		return nil, out, nil
	})
}
