package paging

import (
	"iter"
	"time"
)

// DateLayout is the YYYYMMDD form the research API expects for window bounds.
const DateLayout = "20060102"

// DateWindow is an inclusive range of calendar days.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// StartString returns Start as YYYYMMDD.
func (w DateWindow) StartString() string { return w.Start.Format(DateLayout) }

// EndString returns End as YYYYMMDD.
func (w DateWindow) EndString() string { return w.End.Format(DateLayout) }

// Days returns the number of calendar days covered by the window.
func (w DateWindow) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Chunks splits [start, end] into contiguous windows of at most maxSpanDays days.
// The returned sequence holds no state and may be ranged over any number of times.
func Chunks(start, end time.Time, maxSpanDays int) (iter.Seq[DateWindow], error) {
	start, end = Day(start), Day(end)
	if maxSpanDays < 1 || start.After(end) {
		return nil, &InvalidRangeError{
			Start:   start.Format(time.DateOnly),
			End:     end.Format(time.DateOnly),
			MaxSpan: maxSpanDays,
		}
	}

	return func(yield func(DateWindow) bool) {
		for cur := start; !cur.After(end); {
			last := cur.AddDate(0, 0, maxSpanDays-1)
			if last.After(end) {
				last = end
			}
			if !yield(DateWindow{Start: cur, End: last}) {
				return
			}
			cur = last.AddDate(0, 0, 1)
		}
	}, nil
}
