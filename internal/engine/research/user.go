package research

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_harvest/internal/engine/paging"
	"github.com/anatolykoptev/go_harvest/internal/engine/tabular"
)

// HarvestUser collects the videos of username between start and end and the
// comment thread of every video. Comments follow their video's order.
// Only an invalid range is returned as an error.
func (c *Client) HarvestUser(ctx context.Context, username string, start, end time.Time) (Harvest, error) {
	windows, err := c.windows(start, end)
	if err != nil {
		return Harvest{}, err
	}

	h := Harvest{Target: username}
	var videos, comments []paging.Record
	for _, w := range windows {
		res := c.pager.HarvestNested(ctx, c.videoStream(UserVideos, UsernameQuery(username), w), c.commentStream)
		videos = append(videos, res.Outer...)
		comments = append(comments, res.Inner...)
		if res.OuterErr != nil {
			h.Errors = append(h.Errors, res.OuterErr)
		}
		h.Errors = append(h.Errors, res.InnerErrs...)
	}

	h.Parts = []Part{
		c.part(username, UserVideos, videos),
		c.part(username, Comments, comments),
	}
	slog.Info("user harvested",
		slog.String("username", username),
		slog.Int("videos", h.Parts[0].Table.Len()),
		slog.Int("comments", h.Parts[1].Table.Len()),
		slog.Int("page_errors", len(h.Errors)))
	return h, nil
}

// FetchUserInfo fetches the profile of username as a one-row table.
// A failed or empty response yields an empty table and the error.
func (c *Client) FetchUserInfo(ctx context.Context, username string) (Part, error) {
	empty := c.part(username, UserInfo, nil)
	url := endpointURL(c.base, userInfoPath, UserInfo.Fields)

	resp, err := c.transport.Post(ctx, url, map[string]any{"username": username})
	if err != nil {
		return empty, &paging.PageRequestError{URL: url, Err: err}
	}
	data, ok := resp["data"].(map[string]any)
	if !ok || len(data) == 0 {
		return empty, &paging.PageRequestError{URL: url, Err: fmt.Errorf("%w: no user data", paging.ErrMalformedPage)}
	}

	rec := make(map[string]any, len(data)+1)
	for k, v := range data {
		rec[k] = v
	}
	rec["username"] = username

	t, _ := tabular.Normalize([]map[string]any{rec}, UserInfo.Schema, UserInfo.Filter)
	return Part{Kind: UserInfo, Table: t, Summary: tabular.Summarize(username, t, UserInfo.Numeric)}, nil
}
