package research

import (
	"context"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_harvest/internal/engine/paging"
)

// HarvestHashtag collects all videos tagged hashtag between start and end,
// one date chunk at a time. Only an invalid range is returned as an error.
func (c *Client) HarvestHashtag(ctx context.Context, hashtag string, start, end time.Time) (Harvest, error) {
	windows, err := c.windows(start, end)
	if err != nil {
		return Harvest{}, err
	}

	h := Harvest{Target: hashtag}
	var videos []paging.Record
	for _, w := range windows {
		slog.Debug("hashtag window",
			slog.String("hashtag", hashtag),
			slog.String("start", w.StartString()),
			slog.String("end", w.EndString()))

		recs, err := c.pager.Drain(ctx, c.videoStream(HashtagVideos, HashtagQuery(hashtag, w), w))
		videos = append(videos, recs...)
		if err != nil {
			h.Errors = append(h.Errors, err)
			slog.Warn("hashtag window cut short",
				slog.String("hashtag", hashtag),
				slog.String("start", w.StartString()),
				slog.Int("videos", len(recs)),
				slog.Any("error", err))
		}
	}

	h.Parts = []Part{c.part(hashtag, HashtagVideos, videos)}
	slog.Info("hashtag harvested", slog.String("hashtag", hashtag), slog.Int("videos", len(videos)))
	return h, nil
}
