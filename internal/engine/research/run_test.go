package research

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_harvest/internal/engine"
	"github.com/anatolykoptev/go_harvest/internal/engine/paging"
	"github.com/anatolykoptev/go_harvest/internal/engine/sink"
)

func TestRunTargets_Order(t *testing.T) {
	targets := []string{"a", "b", "c", "d", "e"}
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var running, peak atomic.Int32
			got := RunTargets(context.Background(), targets, workers, func(_ context.Context, s string) string {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				// later targets finish first
				time.Sleep(time.Duration(len(targets)-int(s[0]-'a')) * time.Millisecond)
				running.Add(-1)
				return s + "!"
			})
			assert.Equal(t, []string{"a!", "b!", "c!", "d!", "e!"}, got)
			assert.LessOrEqual(t, int(peak.Load()), workers)
		})
	}
}

func TestRunner_Hashtags(t *testing.T) {
	api := newFakeAPI()
	api.videos["cats|20240101"] = []map[string]any{video("1", "a", 10, 0), video("2", "b", 5, 0)}
	c := testClient(api, 100, false)
	prevWorkers := engine.Cfg.Workers
	engine.Cfg.Workers = 2
	t.Cleanup(func() { engine.Cfg.Workers = prevWorkers })

	s := &memSink{}
	r := NewRunner(uuid.New(), c, s)
	hs, err := r.Hashtags(context.Background(), []string{"cats", "nothing"}, day("2024-01-01"), day("2024-01-05"))
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, "cats", hs[0].Target)
	assert.Equal(t, "nothing", hs[1].Target)

	b, ok := s.byName("hashtag_videos_cats")
	require.True(t, ok)
	assert.Equal(t, "hashtag_videos", b.Kind)
	assert.Equal(t, "cats", b.Target)
	assert.Equal(t, 2, b.Table.Len())

	empty, ok := s.byName("hashtag_videos_nothing")
	require.True(t, ok)
	assert.Equal(t, 0, empty.Table.Len())
	assert.Equal(t, HashtagVideos.Schema, empty.Table.Schema)

	sum, ok := s.byName("hashtag_videos_summary")
	require.True(t, ok)
	assert.Equal(t, HashtagVideos.SummaryHeader(), sum.Table.Schema)
	require.Equal(t, 2, sum.Table.Len())
	assert.Equal(t, "cats", sum.Table.Get(0, "hashtag"))
	assert.Equal(t, int64(2), sum.Table.Get(0, "total_videos"))
	assert.Equal(t, int64(15), sum.Table.Get(0, "total_likes"))
	assert.Equal(t, "nothing", sum.Table.Get(1, "hashtag"))
	assert.Equal(t, int64(0), sum.Table.Get(1, "total_videos"))
	assert.Equal(t, int64(0), sum.Table.Get(1, "total_shares"))
}

func TestRunner_InvalidRangeWritesNothing(t *testing.T) {
	c := testClient(newFakeAPI(), 100, false)
	s := &memSink{}
	r := NewRunner(uuid.New(), c, s)

	_, err := r.Users(context.Background(), []string{"alice"}, day("2024-03-01"), day("2024-01-01"), true)
	var rangeErr *paging.InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Empty(t, s.batches)
}

func TestRunner_UsersWithInfo(t *testing.T) {
	api := newFakeAPI()
	api.videos["alice|20240101"] = []map[string]any{video("1", "alice", 3, 1)}
	api.comments["1"] = []map[string]any{comment("9", "1", "hey", 2)}
	api.users["alice"] = map[string]any{"display_name": "Alice", "follower_count": json.Number("1000")}
	c := testClient(api, 100, false)

	s := &memSink{}
	r := NewRunner(uuid.New(), c, s)
	hs, err := r.Users(context.Background(), []string{"alice", "ghost"}, day("2024-01-01"), day("2024-01-01"), true)
	require.NoError(t, err)
	require.Len(t, hs, 2)

	require.Len(t, hs[0].Parts, 3)
	assert.Equal(t, "user_info", hs[0].Parts[0].Kind.Name)
	assert.Empty(t, hs[0].Errors)

	// ghost has no profile: the error is recorded, the rest still written
	require.Len(t, hs[1].Parts, 3)
	assert.Len(t, hs[1].Errors, 1)

	for _, name := range []string{
		"username_user_info_alice", "username_videos_alice", "username_comments_alice",
		"username_user_info_ghost", "username_videos_ghost", "username_comments_ghost",
		"username_user_info_summary", "username_videos_summary", "username_comments_summary",
	} {
		_, ok := s.byName(name)
		assert.True(t, ok, "missing batch %s", name)
	}

	info, _ := s.byName("username_user_info_summary")
	require.Equal(t, 2, info.Table.Len())
	assert.Equal(t, int64(1), info.Table.Get(0, "profiles"))
	assert.Equal(t, int64(1000), info.Table.Get(0, "followers"))
	assert.Equal(t, int64(0), info.Table.Get(1, "profiles"))

	comments, _ := s.byName("username_comments_summary")
	assert.Equal(t, int64(1), comments.Table.Get(0, "total_comments"))
	assert.Equal(t, int64(2), comments.Table.Get(0, "total_likes"))
}

// csvRows reads a written CSV file and returns its data rows.
func csvRows(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	recs, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, recs, "missing header in %s", path)
	return recs[1:]
}

func TestRunner_CollidingTargetsKeepAllTables(t *testing.T) {
	api := newFakeAPI()
	api.videos["Cats|20240101"] = []map[string]any{video("1", "a", 1, 0), video("2", "b", 1, 0)}
	api.videos["cats|20240101"] = []map[string]any{video("3", "c", 1, 0)}
	api.videos["john.doe|20240101"] = []map[string]any{video("4", "john.doe", 1, 0)}
	api.videos["john_doe|20240101"] = []map[string]any{video("5", "john_doe", 1, 0), video("6", "john_doe", 1, 0)}
	c := testClient(api, 100, false)

	out := sink.NewCSV(t.TempDir())
	r := NewRunner(uuid.New(), c, out)
	ctx := context.Background()
	from, to := day("2024-01-01"), day("2024-01-01")

	_, err := r.Hashtags(ctx, []string{"Cats", "cats"}, from, to)
	require.NoError(t, err)
	_, err = r.Users(ctx, []string{"cats", "john.doe", "john_doe"}, from, to, false)
	require.NoError(t, err)

	want := map[string]int{
		"hashtag_videos_Cats":      2,
		"hashtag_videos_cats":      1,
		"username_videos_cats":     0,
		"username_videos_john.doe": 1,
		"username_videos_john_doe": 2,
	}
	paths := map[string]bool{}
	for name, n := range want {
		p := out.Path(name)
		assert.False(t, paths[p], "%s shares a file with another table", name)
		paths[p] = true
		assert.Len(t, csvRows(t, p), n, name)
	}
}
