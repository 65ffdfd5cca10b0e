package research

import (
	"github.com/anatolykoptev/go_harvest/internal/engine/tabular"
)

// Kind describes one output entity: its fixed columns, row filter and totals.
type Kind struct {
	Name    string // "videos", "comments", "user_info"
	Fields  []string
	Schema  tabular.Schema
	Filter  tabular.Filter
	Numeric []string
	// Summary header labels: target, row count, then one per Numeric column.
	TargetLabel string
	CountLabel  string
	SumLabels   []string
}

// HashtagVideos are videos found by hashtag.
var HashtagVideos = Kind{
	Name: "videos",
	Fields: []string{"id", "create_time", "username", "video_description", "voice_to_text",
		"region_code", "hashtag_names", "like_count", "comment_count", "share_count"},
	Schema: tabular.Schema{"id", "create_time", "username", "video_description", "voice_to_text",
		"region_code", "hashtag_names", "like_count", "comment_count", "share_count"},
	Filter:      tabular.KeepAll,
	Numeric:     []string{"like_count", "comment_count", "share_count"},
	TargetLabel: "hashtag",
	CountLabel:  "total_videos",
	SumLabels:   []string{"total_likes", "total_comments", "total_shares"},
}

// UserVideos are videos published by one account.
var UserVideos = Kind{
	Name: "videos",
	Fields: []string{"id", "create_time", "username", "region_code", "video_description", "music_id",
		"like_count", "comment_count", "share_count", "view_count", "effect_ids", "hashtag_names",
		"playlist_id", "voice_to_text", "is_stem_verified", "video_duration"},
	Schema: tabular.Schema{"username", "id", "create_time", "region_code", "video_description", "music_id",
		"like_count", "comment_count", "share_count", "view_count", "effect_ids", "hashtag_names",
		"playlist_id", "voice_to_text", "is_stem_verified", "video_duration"},
	Filter:      tabular.KeepAll,
	Numeric:     []string{"like_count", "comment_count", "share_count", "view_count"},
	TargetLabel: "username",
	CountLabel:  "total_videos",
	SumLabels:   []string{"total_likes", "total_comments", "total_shares", "total_views"},
}

// Comments are comments on harvested videos. Deleted comments come back
// without text and are dropped.
var Comments = Kind{
	Name:        "comments",
	Fields:      []string{"id", "text", "video_id", "parent_comment_id", "like_count", "reply_count", "create_time"},
	Schema:      tabular.Schema{"id", "video_id", "parent_comment_id", "text", "like_count", "reply_count", "create_time"},
	Filter:      tabular.NonEmptyText("text"),
	Numeric:     []string{"like_count", "reply_count"},
	TargetLabel: "username",
	CountLabel:  "total_comments",
	SumLabels:   []string{"total_likes", "total_replies"},
}

// UserInfo is the profile of one account.
var UserInfo = Kind{
	Name: "user_info",
	Fields: []string{"display_name", "bio_description", "avatar_url", "is_verified",
		"follower_count", "following_count", "likes_count", "video_count"},
	Schema: tabular.Schema{"username", "display_name", "bio_description", "avatar_url", "is_verified",
		"following_count", "follower_count", "video_count", "likes_count"},
	Filter:      tabular.KeepAll,
	Numeric:     []string{"follower_count", "following_count", "video_count", "likes_count"},
	TargetLabel: "username",
	CountLabel:  "profiles",
	SumLabels:   []string{"followers", "following", "videos", "likes"},
}

// TableName is the database table of k, unique across kinds.
func (k Kind) TableName() string {
	return k.TargetLabel + "_" + k.Name
}

// SummaryHeader returns the summary columns of k.
func (k Kind) SummaryHeader() tabular.Schema {
	h := tabular.Schema{k.TargetLabel, k.CountLabel}
	return h.With(k.SumLabels...)
}

// SummaryTable lays out summaries of k as a table, one row per target.
func (k Kind) SummaryTable(rows []tabular.SummaryRow) tabular.Table {
	t := tabular.Table{Schema: k.SummaryHeader(), Rows: make([]tabular.Row, 0, len(rows))}
	for _, s := range rows {
		r := tabular.Row{s.Target, int64(s.RowCount)}
		for _, col := range k.Numeric {
			r = append(r, s.Sums[col])
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}
