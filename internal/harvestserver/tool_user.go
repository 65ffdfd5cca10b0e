package harvestserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_harvest/internal/engine"
	"github.com/anatolykoptev/go_harvest/internal/engine/research"
	"github.com/anatolykoptev/go_harvest/internal/engine/tabular"
	"github.com/anatolykoptev/go_harvest/internal/toolutil"
)

type UserHarvestInput struct {
	Usernames   []string `json:"usernames" jsonschema:"Account usernames, without or with leading @"`
	Start       string   `json:"start" jsonschema:"First day, YYYY-MM-DD"`
	End         string   `json:"end" jsonschema:"Last day (inclusive), YYYY-MM-DD"`
	IncludeInfo bool     `json:"include_info,omitempty" jsonschema:"Also fetch each account's profile"`
}

type UserInfoInput struct {
	Username string `json:"username" jsonschema:"Account username"`
}

type UserInfoOutput struct {
	Username string         `json:"username"`
	Found    bool           `json:"found"`
	Profile  map[string]any `json:"profile,omitempty"`
}

func registerUserHarvest(server *mcp.Server, t engine.Transport) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "user_harvest",
		Description: "Harvest the videos an account published in a date range and the full comment thread of every video. Comments without text are dropped. Writes videos and comments tables per account plus summary tables and returns the summaries. Pages fetched within the last CACHE_TTL (15 minutes by default) are reused, so repeating a harvest inside that window returns the same pages.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input UserHarvestInput) (*mcp.CallToolResult, HarvestOutput, error) {
		names := toolutil.NormTargets(input.Usernames)
		if len(names) == 0 {
			return nil, HarvestOutput{}, fmt.Errorf("usernames is required")
		}
		start, end, err := parseRange(input.Start, input.End)
		if err != nil {
			return nil, HarvestOutput{}, err
		}

		out, err := runWith(ctx, t, func(r *research.Runner) ([]research.Harvest, error) {
			return r.Users(ctx, names, start, end, input.IncludeInfo)
		})
		if err != nil {
			slog.Warn("user_harvest error", slog.Any("error", err))
			return nil, HarvestOutput{}, err
		}
		return nil, out, nil
	})
}

func registerUserInfo(server *mcp.Server, t engine.Transport) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "user_info",
		Description: "Fetch the public profile of one account: display name, bio, avatar, verification and follower, following, likes and video counts.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input UserInfoInput) (*mcp.CallToolResult, UserInfoOutput, error) {
		names := toolutil.NormTargets([]string{input.Username})
		if len(names) == 0 {
			return nil, UserInfoOutput{}, fmt.Errorf("username is required")
		}
		name := names[0]

		cacheKey := engine.CacheKey("user_info", name)
		if out, ok := toolutil.CacheLoadJSON[UserInfoOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		part, err := research.NewClient(t).FetchUserInfo(ctx, name)
		if err != nil {
			slog.Warn("user_info error", slog.String("username", name), slog.Any("error", err))
			return nil, UserInfoOutput{Username: name}, nil
		}

		out := UserInfoOutput{Username: name, Found: part.Table.Len() > 0}
		if out.Found {
			out.Profile = rowMap(part.Table, 0)
		}
		toolutil.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}

// rowMap turns row i into a column → value map.
func rowMap(t tabular.Table, i int) map[string]any {
	m := make(map[string]any, len(t.Schema))
	for j, col := range t.Schema {
		m[col] = t.Rows[i][j]
	}
	return m
}
