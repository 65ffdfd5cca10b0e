package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFormatMetrics(t *testing.T) {
	before := GetMetrics()
	IncrPageRequests()
	IncrPageErrors()
	IncrRecordsHarvested(5)
	IncrRowsRejected(2)

	after := GetMetrics()
	if d := after["page_requests"] - before["page_requests"]; d != 1 {
		t.Errorf("page_requests delta = %d, want 1", d)
	}
	if d := after["records_harvested"] - before["records_harvested"]; d != 5 {
		t.Errorf("records_harvested delta = %d, want 5", d)
	}
	if d := after["rows_rejected"] - before["rows_rejected"]; d != 2 {
		t.Errorf("rows_rejected delta = %d, want 2", d)
	}

	out := FormatMetrics()
	for _, k := range []string{"page_requests ", "page_errors ", "sink_errors ", "cache_hits "} {
		if !strings.Contains(out, k) {
			t.Errorf("FormatMetrics missing %q:\n%s", k, out)
		}
	}
}

func TestTrackOperation(t *testing.T) {
	want := errors.New("boom")
	err := TrackOperation(context.Background(), "op", time.Hour, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("TrackOperation error = %v, want %v", err, want)
	}
}
