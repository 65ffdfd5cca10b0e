package paging

import (
	"context"
	"log/slog"

	"github.com/anatolykoptev/go_harvest/internal/engine"
)

// InnerFunc builds the dependent stream for one outer item.
// ok=false skips the item (e.g. it carries no identifier).
type InnerFunc func(outer Record) (s Stream, ok bool)

// NestedResult holds both levels of a nested harvest.
// Inner rows are in outer-then-inner traversal order.
type NestedResult struct {
	Outer     []Record
	Inner     []Record
	OuterErr  error   // set when the outer stream ended on a failed page
	InnerErrs []error // one entry per inner stream that ended on a failed page
}

// HarvestNested drains the outer stream, then drains a fresh inner stream
// for every outer item in order. An inner failure only ends that item's
// stream; the next item is still harvested.
func (p *Paginator) HarvestNested(ctx context.Context, outer Stream, inner InnerFunc) NestedResult {
	var res NestedResult
	res.Outer, res.OuterErr = p.Drain(ctx, outer)
	if res.OuterErr != nil {
		slog.Warn("outer stream ended early",
			slog.String("url", outer.URL),
			slog.Int("items", len(res.Outer)),
			slog.Any("error", res.OuterErr))
	}

	for _, item := range res.Outer {
		s, ok := inner(item)
		if !ok {
			continue
		}
		engine.IncrInnerStreams()
		rows, err := p.Drain(ctx, s)
		res.Inner = append(res.Inner, rows...)
		if err != nil {
			res.InnerErrs = append(res.InnerErrs, err)
			slog.Warn("inner stream ended early",
				slog.String("url", s.URL),
				slog.Int("items", len(rows)),
				slog.Any("error", err))
		}
	}
	return res
}
