package toolutil

import (
	"context"
	"testing"
	"time"

	"github.com/anatolykoptev/go_harvest/internal/engine"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2024-03-05", false},
		{"20240305", false},
		{" 2024-03-05 ", false},
		{"2024/03/05", true},
		{"", true},
		{"2024-02-30", true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, want)
		}
	}
}

func TestParseRange(t *testing.T) {
	if _, _, err := ParseRange("2024-01-01", "bad"); err == nil {
		t.Error("expected error for bad end")
	}
	s, e, err := ParseRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatal(err)
	}
	if e.Sub(s) != 30*24*time.Hour {
		t.Errorf("range = %v", e.Sub(s))
	}
}

func TestNormTargets(t *testing.T) {
	got := NormTargets([]string{" #cats", "dogs", "@cats", "", "  ", "#", "birds", "dogs"})
	want := []string{"cats", "dogs", "birds"}
	if len(got) != len(want) {
		t.Fatalf("NormTargets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormTargets[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCacheJSONRoundTrip(t *testing.T) {
	engine.InitCache("", time.Minute, 100, time.Minute)
	ctx := context.Background()

	type profile struct {
		Name      string `json:"name"`
		Followers int64  `json:"followers"`
	}
	key := engine.CacheKey("toolutil", "profile")
	if _, ok := CacheLoadJSON[profile](ctx, key); ok {
		t.Fatal("expected miss")
	}
	CacheStoreJSON(ctx, key, profile{Name: "carol", Followers: 12})

	got, ok := CacheLoadJSON[profile](ctx, key)
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Name != "carol" || got.Followers != 12 {
		t.Errorf("got %+v", got)
	}

	engine.CacheSet(ctx, key, []byte("not json"))
	if _, ok := CacheLoadJSON[profile](ctx, key); ok {
		t.Error("expected miss on undecodable entry")
	}
}
