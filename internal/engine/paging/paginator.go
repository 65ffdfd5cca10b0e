package paging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"

	"github.com/anatolykoptev/go_harvest/internal/engine"
)

// Record is one raw item as returned by the API. Fields vary per record.
type Record = map[string]any

// DefaultPageSize is the max_count sent with every page request.
const DefaultPageSize = 100

// Stream describes one paginated request shape: endpoint, fixed body and
// the response fields that carry items and the continuation token.
type Stream struct {
	URL         string
	Body        map[string]any // fixed part of every request (query, window, max_count)
	ItemsField  string         // e.g. "videos", "comments"
	CursorField string         // defaults to "cursor"
	TokenField  string         // e.g. "search_id"; empty when the endpoint issues none
	PageSize    int            // defaults to DefaultPageSize
}

func (s Stream) pageSize() int {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return DefaultPageSize
}

func (s Stream) cursorField() string {
	if s.CursorField != "" {
		return s.CursorField
	}
	return "cursor"
}

// request merges the fixed body with the cursor position.
func (s Stream) request(cur *PageCursor) map[string]any {
	req := make(map[string]any, len(s.Body)+2)
	maps.Copy(req, s.Body)
	req[s.cursorField()] = cur.Offset
	if s.TokenField != "" && cur.ContinuationToken != "" {
		req[s.TokenField] = cur.ContinuationToken
	}
	return req
}

// Paginator drives query streams through a transport, one page at a time.
type Paginator struct {
	transport engine.Transport
}

// NewPaginator returns a Paginator issuing requests through t.
func NewPaginator(t engine.Transport) *Paginator {
	return &Paginator{transport: t}
}

// Drain requests pages of s until the stream is exhausted and returns all
// items in response order. A failed page ends the stream: the items gathered
// so far are returned together with a *PageRequestError. There is no retry.
func (p *Paginator) Drain(ctx context.Context, s Stream) ([]Record, error) {
	cur := NewCursor(s.pageSize())
	var out []Record

	for !cur.Exhausted {
		engine.IncrPageRequests()
		resp, err := p.transport.Post(ctx, s.URL, s.request(cur))
		if err == nil {
			var page PageResult
			page, err = parsePage(resp, s.ItemsField, s.TokenField)
			if err == nil {
				out = append(out, page.Items...)
				cur.Advance(page)
				engine.IncrRecordsHarvested(len(page.Items))
				slog.Debug("page fetched",
					slog.String("url", s.URL),
					slog.Int("offset", cur.Offset),
					slog.Int("items", len(page.Items)),
					slog.Bool("exhausted", cur.Exhausted))
				continue
			}
		}

		engine.IncrPageErrors()
		cur.Stop()
		return out, &PageRequestError{URL: s.URL, Offset: cur.Offset, Err: err}
	}
	return out, nil
}

// parsePage extracts items, has_more and the continuation token from
// {"data": {<itemsField>: [...], "has_more": bool, <tokenField>: ...}}.
func parsePage(resp map[string]any, itemsField, tokenField string) (PageResult, error) {
	data, ok := resp["data"].(map[string]any)
	if !ok {
		return PageResult{}, fmt.Errorf("%w: no data object", ErrMalformedPage)
	}
	raw, ok := data[itemsField].([]any)
	if !ok {
		return PageResult{}, fmt.Errorf("%w: no %q array", ErrMalformedPage, itemsField)
	}

	items := make([]Record, 0, len(raw))
	for i, it := range raw {
		rec, ok := it.(map[string]any)
		if !ok {
			return PageResult{}, fmt.Errorf("%w: %s[%d] is not an object", ErrMalformedPage, itemsField, i)
		}
		items = append(items, rec)
	}

	page := PageResult{Items: items}
	page.HasMore, _ = data["has_more"].(bool)
	if tokenField != "" {
		page.ContinuationToken = tokenString(data[tokenField])
	}
	return page, nil
}

func tokenString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
