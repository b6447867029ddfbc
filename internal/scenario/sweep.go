package scenario

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/dynvec/internal/vector"
	"github.com/san-kum/dynvec/internal/vector/vectortest"
)

type SweepConfig struct {
	Size    int
	Workers int
	// Panic makes the failing copy panic instead of returning an error.
	Panic  bool
	Policy vector.GrowthPolicy
}

// FaultResult is the outcome of one growing push whose k-th copy fails.
type FaultResult struct {
	FailAt   int      `json:"fail_at"`
	Failed   bool     `json:"failed"`
	Panicked bool     `json:"panicked"`
	Intact   bool     `json:"intact"`
	Len      int      `json:"len"`
	Cap      int      `json:"cap"`
	Live     int      `json:"live"`
	Problems []string `json:"problems,omitempty"`
}

func (f FaultResult) OK() bool { return len(f.Problems) == 0 }

// Sweep fills a vector to capacity and pushes one more element with the
// copy countdown set to every k in [1, Size+2]. A push needs Size+1 copies,
// so the last k never fires and serves as a control.
func Sweep(ctx context.Context, cfg SweepConfig) ([]FaultResult, error) {
	if cfg.Size < 1 {
		return nil, fmt.Errorf("sweep size must be positive, got %d", cfg.Size)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	results := make([]FaultResult, cfg.Size+2)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i := range results {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = fault(cfg, i+1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func fault(cfg SweepConfig, k int) (res FaultResult) {
	res.FailAt = k
	tr := vectortest.NewTracker[int]()
	tr.SetPanic(cfg.Panic)

	opts := []vector.Option[elem]{vector.WithLifecycle[elem](tr)}
	if cfg.Policy != nil {
		opts = append(opts, vector.WithGrowth[elem](cfg.Policy))
	}
	v := vector.New(opts...)

	want := make([]int, cfg.Size)
	if err := v.Reserve(cfg.Size); err != nil {
		res.Problems = append(res.Problems, "reserve: "+err.Error())
		return res
	}
	for i := range want {
		want[i] = i
		if err := tr.Temp(i, v.PushBack); err != nil {
			res.Problems = append(res.Problems, "fill: "+err.Error())
			return res
		}
	}
	data := v.Data()

	tr.SetThrowCountdown(k)
	res.Failed, res.Panicked = push(tr, v, 42)
	tr.SetThrowCountdown(0)

	res.Len, res.Cap = v.Len(), v.Cap()
	got := tr.Values(v)
	res.Intact = v.Data() == data && res.Cap == cfg.Size && slices.Equal(got, want)

	control := k > cfg.Size+1
	switch {
	case control && (res.Failed || res.Panicked):
		res.Problems = append(res.Problems, "push failed without an armed copy")
	case control:
		if res.Len != cfg.Size+1 || got[cfg.Size] != 42 {
			res.Problems = append(res.Problems, fmt.Sprintf("push did not append: %v", got))
		}
	case !res.Failed && !res.Panicked:
		res.Problems = append(res.Problems, "armed copy did not fail")
	case !res.Intact:
		res.Problems = append(res.Problems, fmt.Sprintf("vector modified: len=%d cap=%d values=%v", res.Len, res.Cap, got))
	}

	v.Destroy()
	res.Live = tr.Live()
	if err := tr.Verify(); err != nil {
		res.Problems = append(res.Problems, err.Error())
	}
	return res
}

// push reports whether PushBack returned an error or panicked.
func push(tr *vectortest.Tracker[int], v *vector.Vector[elem], val int) (failed, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
		}
	}()
	return tr.Temp(val, v.PushBack) != nil, false
}
