package research

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/anatolykoptev/go_harvest/internal/engine"
	"github.com/anatolykoptev/go_harvest/internal/engine/sink"
	"github.com/anatolykoptev/go_harvest/internal/engine/tabular"
)

// slowTarget is the per-target duration above which a warning is logged.
const slowTarget = 2 * time.Minute

// RunTargets calls fn for every target and returns the results in target
// order. With workers <= 1 targets run one after another; otherwise up to
// workers targets run at once. fn must own all its pagination state.
func RunTargets[T any](ctx context.Context, targets []string, workers int, fn func(ctx context.Context, target string) T) []T {
	out := make([]T, len(targets))
	if workers <= 1 {
		for i, t := range targets {
			out[i] = fn(ctx, t)
		}
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range targets {
		g.Go(func() error {
			out[i] = fn(gctx, t)
			return nil
		})
	}
	_ = g.Wait() // fn reports failures in its result
	return out
}

// Runner harvests many targets and writes their tables and summaries.
type Runner struct {
	ID      uuid.UUID
	client  *Client
	sink    sink.Sink
	workers int
}

// NewRunner returns a Runner tagging its output with id.
func NewRunner(id uuid.UUID, c *Client, s sink.Sink) *Runner {
	return &Runner{ID: id, client: c, sink: s, workers: engine.Cfg.Workers}
}

// Hashtags harvests every hashtag over [start, end]. The range is checked
// once up front; an invalid range is the only error returned.
func (r *Runner) Hashtags(ctx context.Context, hashtags []string, start, end time.Time) ([]Harvest, error) {
	if _, err := r.client.windows(start, end); err != nil {
		return nil, err
	}
	hs := RunTargets(ctx, hashtags, r.workers, func(ctx context.Context, tag string) Harvest {
		return r.target(ctx, tag, []Kind{HashtagVideos}, func(ctx context.Context) (Harvest, error) {
			return r.client.HarvestHashtag(ctx, tag, start, end)
		})
	})
	r.writeSummaries(ctx, hs)
	return hs, nil
}

// Users harvests videos and comments of every username over [start, end],
// with the profile first when withInfo is set.
func (r *Runner) Users(ctx context.Context, usernames []string, start, end time.Time, withInfo bool) ([]Harvest, error) {
	if _, err := r.client.windows(start, end); err != nil {
		return nil, err
	}
	kinds := []Kind{UserVideos, Comments}
	if withInfo {
		kinds = append([]Kind{UserInfo}, kinds...)
	}
	hs := RunTargets(ctx, usernames, r.workers, func(ctx context.Context, name string) Harvest {
		return r.target(ctx, name, kinds, func(ctx context.Context) (Harvest, error) {
			h, err := r.client.HarvestUser(ctx, name, start, end)
			if err != nil || !withInfo {
				return h, err
			}
			info, infoErr := r.client.FetchUserInfo(ctx, name)
			if infoErr != nil {
				slog.Warn("user info unavailable", slog.String("username", name), slog.Any("error", infoErr))
				h.Errors = append(h.Errors, infoErr)
			}
			h.Parts = append([]Part{info}, h.Parts...)
			return h, nil
		})
	})
	r.writeSummaries(ctx, hs)
	return hs, nil
}

// target runs one harvest and writes its parts. Failures are logged and
// kept on the result; they never reach the other targets. A failed target
// still gets an empty part per kind so summaries stay rectangular.
func (r *Runner) target(ctx context.Context, name string, kinds []Kind, harvest func(context.Context) (Harvest, error)) Harvest {
	var h Harvest
	_ = engine.TrackOperation(ctx, "harvest "+name, slowTarget, func(ctx context.Context) error {
		var err error
		h, err = harvest(ctx)
		if err != nil {
			slog.Warn("harvest failed", slog.String("target", name), slog.Any("error", err))
			h = Harvest{Target: name, Errors: []error{err}}
			for _, k := range kinds {
				h.Parts = append(h.Parts, r.client.part(name, k, nil))
			}
		}
		return err
	})
	engine.IncrTargetsHarvested()

	for _, p := range h.Parts {
		b := sink.Batch{
			Name:   p.Kind.TableName() + "_" + name,
			Kind:   p.Kind.TableName(),
			Target: name,
			Table:  p.Table,
		}
		if err := r.sink.Write(ctx, b); err != nil {
			slog.Warn("write failed",
				slog.String("run_id", r.ID.String()),
				slog.String("target", name),
				slog.String("kind", p.Kind.Name),
				slog.Any("error", err))
		}
	}
	return h
}

// writeSummaries writes one summary table per kind, one row per target in
// target order, zero-row targets included.
func (r *Runner) writeSummaries(ctx context.Context, hs []Harvest) {
	var kinds []Kind
	byKind := map[string][]Part{}
	for _, h := range hs {
		for _, p := range h.Parts {
			key := p.Kind.TableName()
			if _, seen := byKind[key]; !seen {
				kinds = append(kinds, p.Kind)
			}
			byKind[key] = append(byKind[key], p)
		}
	}

	for _, k := range kinds {
		parts := byKind[k.TableName()]
		rows := make([]tabular.SummaryRow, 0, len(parts))
		for _, p := range parts {
			rows = append(rows, p.Summary)
		}
		b := sink.Batch{
			Name:  k.TableName() + "_summary",
			Kind:  k.TableName() + "_summary",
			Table: k.SummaryTable(rows),
		}
		if err := r.sink.Write(ctx, b); err != nil {
			slog.Warn("summary write failed",
				slog.String("run_id", r.ID.String()),
				slog.String("kind", b.Kind),
				slog.Any("error", err))
		}
	}
	slog.Info("run finished", slog.String("run_id", r.ID.String()), slog.Int("targets", len(hs)))
}
