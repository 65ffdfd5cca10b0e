// Package research harvests videos, comments and user profiles from the
// research API and folds them into fixed-column tables.
package research

import (
	"time"

	"github.com/anatolykoptev/go_harvest/internal/engine"
	"github.com/anatolykoptev/go_harvest/internal/engine/paging"
	"github.com/anatolykoptev/go_harvest/internal/engine/tabular"
)

// DefaultAPIBase is the research API root.
const DefaultAPIBase = "https://open.tiktokapis.com/v2/research"

const (
	videoQueryPath  = "/video/query/"
	commentListPath = "/video/comment/list/"
	userInfoPath    = "/user/info/"
)

// Client binds the pagination engine to the research API endpoints.
type Client struct {
	transport     engine.Transport
	pager         *paging.Paginator
	base          string
	pageSize      int
	maxSpanDays   int
	readableDates bool
}

// NewClient returns a Client using t and the current engine configuration.
func NewClient(t engine.Transport) *Client {
	base := engine.Cfg.APIBase
	if base == "" {
		base = DefaultAPIBase
	}
	pageSize := engine.Cfg.PageSize
	if pageSize <= 0 {
		pageSize = paging.DefaultPageSize
	}
	span := engine.Cfg.MaxSpanDays
	if span <= 0 {
		span = 30
	}
	return &Client{
		transport:     t,
		pager:         paging.NewPaginator(t),
		base:          base,
		pageSize:      pageSize,
		maxSpanDays:   span,
		readableDates: engine.Cfg.ReadableDates,
	}
}

// videoStream is the video query stream for one window.
func (c *Client) videoStream(k Kind, q Query, w paging.DateWindow) paging.Stream {
	return paging.Stream{
		URL: endpointURL(c.base, videoQueryPath, k.Fields),
		Body: map[string]any{
			"query":      q,
			"start_date": w.StartString(),
			"end_date":   w.EndString(),
			"max_count":  c.pageSize,
		},
		ItemsField: "videos",
		TokenField: "search_id",
		PageSize:   c.pageSize,
	}
}

// commentStream is the comment stream of one video; ok=false when the
// video carries no id.
func (c *Client) commentStream(video paging.Record) (paging.Stream, bool) {
	id, ok := video["id"]
	if !ok || id == nil {
		return paging.Stream{}, false
	}
	return paging.Stream{
		URL: endpointURL(c.base, commentListPath, Comments.Fields),
		Body: map[string]any{
			"video_id":  id,
			"max_count": c.pageSize,
		},
		ItemsField: "comments",
		PageSize:   c.pageSize,
	}, true
}

// windows validates the range and returns its chunks.
func (c *Client) windows(start, end time.Time) ([]paging.DateWindow, error) {
	seq, err := paging.Chunks(start, end, c.maxSpanDays)
	if err != nil {
		return nil, err
	}
	var out []paging.DateWindow
	for w := range seq {
		out = append(out, w)
	}
	return out, nil
}

// table normalizes records of kind k and appends derived columns.
func (c *Client) table(k Kind, records []paging.Record) tabular.Table {
	t, rejected := tabular.Normalize(records, k.Schema, k.Filter)
	if rejected > 0 {
		engine.IncrRowsRejected(rejected)
	}
	if c.readableDates && k.Schema.Index("create_time") >= 0 {
		t = tabular.Derive(t, "create_date", tabular.UnixToReadable("create_time"))
	}
	return t
}

// Part is the table and totals of one kind for one target.
type Part struct {
	Kind    Kind
	Table   tabular.Table
	Summary tabular.SummaryRow
}

// Harvest is everything collected for one target. Errors lists page
// failures that cut streams short; they never abort the harvest.
type Harvest struct {
	Target string
	Parts  []Part
	Errors []error
}

func (c *Client) part(target string, k Kind, records []paging.Record) Part {
	t := c.table(k, records)
	return Part{Kind: k, Table: t, Summary: tabular.Summarize(target, t, k.Numeric)}
}
