package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/dynvec/internal/vector"
)

type NamedPolicy struct {
	Name   string
	Policy vector.GrowthPolicy
}

// BenchResult summarizes count appends under one growth policy.
type BenchResult struct {
	Policy        string        `json:"policy"`
	Pushes        int           `json:"pushes"`
	Allocations   int           `json:"allocations"`
	Copies        int           `json:"copies"`
	CopiesPerPush float64       `json:"copies_per_push"`
	FinalCap      int           `json:"final_cap"`
	Capacities    []int         `json:"capacities"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Bench appends count plain ints under each policy. observerFor may be nil;
// otherwise its observer for a policy name sees every event of that run.
func Bench(ctx context.Context, count int, policies []NamedPolicy, observerFor func(string) vector.Observer) ([]BenchResult, error) {
	if count < 1 {
		return nil, fmt.Errorf("bench count must be positive, got %d", count)
	}

	results := make([]BenchResult, 0, len(policies))
	for _, p := range policies {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := BenchResult{Policy: p.Name, Pushes: count}
		var extra vector.Observer
		if observerFor != nil {
			extra = observerFor(p.Name)
		}
		obs := vector.ObserverFunc(func(e vector.Event) {
			switch e.Kind {
			case vector.EventAllocate:
				res.Allocations++
				res.Capacities = append(res.Capacities, e.Capacity)
			case vector.EventCopy:
				res.Copies++
			}
			if extra != nil {
				extra.Observe(e)
			}
		})

		start := time.Now()
		v := vector.New(vector.WithGrowth[int](p.Policy), vector.WithObserver[int](obs))
		for i := 0; i < count; i++ {
			if err := v.PushBack(i); err != nil {
				return results, fmt.Errorf("%s: %w", p.Name, err)
			}
		}
		res.Elapsed = time.Since(start)
		res.FinalCap = v.Cap()
		res.CopiesPerPush = float64(res.Copies) / float64(count)
		v.Destroy()

		results = append(results, res)
	}
	return results, nil
}
