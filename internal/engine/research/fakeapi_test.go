package research

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/anatolykoptev/go_harvest/internal/engine"
	"github.com/anatolykoptev/go_harvest/internal/engine/sink"
)

const testBase = "https://api.test/v2/research"

// fakeAPI serves the three research endpoints from in-memory fixtures.
// Videos are keyed by "<hashtag or username>|<window start>".
type fakeAPI struct {
	mu       sync.Mutex
	videos   map[string][]map[string]any
	comments map[string][]map[string]any // by video id
	failing  map[string]bool             // video ids whose comment stream fails
	users    map[string]map[string]any
	reqs     []fakeReq
}

type fakeReq struct {
	Path    string
	Fields  string
	Payload map[string]any
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		videos:   map[string][]map[string]any{},
		comments: map[string][]map[string]any{},
		failing:  map[string]bool{},
		users:    map[string]map[string]any{},
	}
}

func (f *fakeAPI) Post(_ context.Context, rawURL string, payload any) (map[string]any, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	body := payload.(map[string]any)
	path := strings.TrimPrefix(u.Path, "/v2/research")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, fakeReq{Path: path, Fields: u.Query().Get("fields"), Payload: body})

	switch path {
	case videoQueryPath:
		q := body["query"].(Query)
		key := q.And[0].FieldValues[0] + "|" + body["start_date"].(string)
		return page("videos", f.videos[key], body, "search-"+key), nil
	case commentListPath:
		id := toString(body["video_id"])
		if f.failing[id] {
			return nil, &engine.HTTPStatusError{StatusCode: 500, Body: "boom"}
		}
		return page("comments", f.comments[id], body, ""), nil
	case userInfoPath:
		data, ok := f.users[body["username"].(string)]
		if !ok {
			return map[string]any{"data": map[string]any{}}, nil
		}
		return map[string]any{"data": data}, nil
	}
	return nil, errors.New("unknown path " + path)
}

// page slices items by the cursor and max_count of the request.
func page(field string, items []map[string]any, body map[string]any, token string) map[string]any {
	cursor := body["cursor"].(int)
	size := body["max_count"].(int)
	end := min(cursor+size, len(items))
	var chunk []any
	for i := cursor; i < end; i++ {
		chunk = append(chunk, items[i])
	}
	if chunk == nil {
		chunk = []any{}
	}
	data := map[string]any{field: chunk, "has_more": end < len(items)}
	if token != "" {
		data["search_id"] = token
	}
	return map[string]any{"data": data}
}

func (f *fakeAPI) requests(path string) []fakeReq {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeReq
	for _, r := range f.reqs {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	}
	return ""
}

func video(id, username string, likes, comments int64) map[string]any {
	return map[string]any{
		"id":            json.Number(id),
		"username":      username,
		"create_time":   json.Number("1704067200"),
		"like_count":    json.Number(jsonInt(likes)),
		"comment_count": json.Number(jsonInt(comments)),
		"share_count":   json.Number("1"),
		"view_count":    json.Number("10"),
		"hashtag_names": []any{"cats"},
	}
}

func comment(id, videoID, text string, likes int64) map[string]any {
	return map[string]any{
		"id":          json.Number(id),
		"video_id":    json.Number(videoID),
		"text":        text,
		"like_count":  json.Number(jsonInt(likes)),
		"reply_count": json.Number("0"),
	}
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

// memSink records batches in write order.
type memSink struct {
	mu      sync.Mutex
	batches []sink.Batch
}

func (m *memSink) Write(_ context.Context, b sink.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, b)
	return nil
}

func (m *memSink) Close() error { return nil }

func (m *memSink) byName(name string) (sink.Batch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.batches {
		if b.Name == name {
			return b, true
		}
	}
	return sink.Batch{}, false
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testClient(api *fakeAPI, pageSize int, readable bool) *Client {
	engine.Init(engine.Config{
		APIBase:       testBase,
		PageSize:      pageSize,
		MaxSpanDays:   30,
		ReadableDates: readable,
	})
	return NewClient(api)
}
