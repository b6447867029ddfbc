package scenario

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/san-kum/dynvec/internal/metrics"
	"github.com/san-kum/dynvec/internal/vector"
	"github.com/san-kum/dynvec/internal/vector/vectortest"
)

type elem = vectortest.Element[int]

// Step records the vector after one scripted op.
type Step struct {
	Index       int      `json:"index"`
	Op          string   `json:"op"`
	Len         int      `json:"len"`
	Cap         int      `json:"cap"`
	Values      []int    `json:"values"`
	Reallocated bool     `json:"reallocated"`
	Err         string   `json:"error,omitempty"`
	Intact      bool     `json:"intact"`
	Problems    []string `json:"problems,omitempty"`
}

type Result struct {
	Script     string             `json:"script"`
	Policy     string             `json:"policy"`
	Steps      []Step             `json:"steps"`
	Final      []int              `json:"final"`
	Metrics    map[string]float64 `json:"metrics"`
	Violations []string           `json:"violations"`
	Elapsed    time.Duration      `json:"elapsed"`
}

// OK reports whether every expectation held and no instance was leaked or
// misused.
func (r *Result) OK() bool { return len(r.Violations) == 0 }

// Runner executes scripts against a vector of tracked elements.
type Runner struct {
	policy     vector.GrowthPolicy
	policyName string
	logger     *zap.Logger
	observers  []vector.Observer
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithObserver adds an observer to every vector the runner builds.
func WithObserver(o vector.Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

func WithPolicyName(name string) Option {
	return func(r *Runner) { r.policyName = name }
}

func NewRunner(policy vector.GrowthPolicy, opts ...Option) *Runner {
	if policy == nil {
		policy = vector.Doubling
	}
	r := &Runner{policy: policy, policyName: "double", logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type snapshot struct {
	len, cap int
	data     *elem
	values   []int
}

func take(tr *vectortest.Tracker[int], v *vector.Vector[elem]) snapshot {
	return snapshot{len: v.Len(), cap: v.Cap(), data: v.Data(), values: tr.Values(v)}
}

func (s snapshot) equal(o snapshot) bool {
	return s.len == o.len && s.cap == o.cap && s.data == o.data && slices.Equal(s.values, o.values)
}

func (r *Runner) Run(ctx context.Context, s *Script) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	tr := vectortest.NewTracker[int]()
	set := metrics.Default()
	observers := append([]vector.Observer{set}, r.observers...)
	v := vector.New(
		vector.WithLifecycle[elem](tr),
		vector.WithGrowth[elem](r.policy),
		vector.WithObserver[elem](fanout(observers)),
	)
	defer v.Destroy()

	log := r.logger.With(zap.String("script", s.Name), zap.String("policy", r.policyName))
	result := &Result{
		Script: s.Name,
		Policy: r.policyName,
		Steps:  make([]Step, 0, len(s.Ops)),
	}

	for i, op := range s.Ops {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		before := take(tr, v)
		pre, problems, err := r.apply(tr, v, op)
		tr.SetThrowCountdown(0)
		if errors.Is(err, ErrInvalidScript) {
			return result, fmt.Errorf("step %d: %w", i+1, err)
		}
		after := take(tr, v)

		step := Step{
			Index:       i + 1,
			Op:          op.String(),
			Len:         after.len,
			Cap:         after.cap,
			Values:      after.values,
			Reallocated: after.data != before.data,
			Intact:      true,
			Problems:    problems,
		}

		if err != nil {
			step.Err = err.Error()
			step.Intact = pre.equal(after)
			if !step.Intact {
				step.Problems = append(step.Problems, "failed op modified the vector")
			}
			if op.FailAfter == 0 && (op.Expect == nil || !op.Expect.Fails) {
				step.Problems = append(step.Problems, "unexpected error: "+err.Error())
			}
			log.Warn("op failed",
				zap.Int("step", step.Index),
				zap.String("op", step.Op),
				zap.Bool("intact", step.Intact),
				zap.Error(err),
			)
		} else {
			log.Debug("op applied",
				zap.Int("step", step.Index),
				zap.String("op", step.Op),
				zap.Int("len", step.Len),
				zap.Int("cap", step.Cap),
				zap.Bool("reallocated", step.Reallocated),
			)
		}

		step.Problems = append(step.Problems, check(op.Expect, err, before, after)...)
		for _, p := range step.Problems {
			result.Violations = append(result.Violations, fmt.Sprintf("step %d (%s): %s", step.Index, step.Op, p))
		}
		result.Steps = append(result.Steps, step)
	}

	result.Final = tr.Values(v)
	v.Destroy()
	for _, err := range multierr.Errors(tr.Verify()) {
		result.Violations = append(result.Violations, err.Error())
	}
	result.Metrics = set.Values()
	result.Elapsed = time.Since(start)

	if result.OK() {
		log.Info("script passed", zap.Int("steps", len(result.Steps)), zap.Duration("elapsed", result.Elapsed))
	} else {
		log.Warn("script failed", zap.Strings("violations", result.Violations))
	}
	return result, nil
}

// apply runs op and returns the vector state right before the call that
// failed, if any.
func (r *Runner) apply(tr *vectortest.Tracker[int], v *vector.Vector[elem], op Op) (pre snapshot, problems []string, err error) {
	arm := func() {
		if op.FailAfter > 0 {
			tr.SetThrowCountdown(op.FailAfter)
		}
	}
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidScript}, args...)...)
	}

	switch op.Kind {
	case OpPush:
		arm()
		for k := 0; k < op.times(); k++ {
			pre = take(tr, v)
			if err = tr.Temp(op.Value+k, v.PushBack); err != nil {
				return pre, nil, err
			}
		}

	case OpPushSelf:
		arm()
		for k := 0; k < op.times(); k++ {
			if op.Index < 0 || op.Index >= v.Len() {
				return pre, nil, invalid("push_self index %d out of range [0:%d]", op.Index, v.Len())
			}
			pre = take(tr, v)
			if err = v.PushBack(v.At(op.Index)); err != nil {
				return pre, nil, err
			}
		}

	case OpInsert:
		arm()
		for k := 0; k < op.times(); k++ {
			if op.Index < 0 || op.Index > v.Len() {
				return pre, nil, invalid("insert position %d out of range [0:%d]", op.Index, v.Len()+1)
			}
			pre = take(tr, v)
			err = tr.Temp(op.Value+k, func(e elem) error { return v.Insert(op.Index, e) })
			if err != nil {
				return pre, nil, err
			}
		}

	case OpErase:
		for k := 0; k < op.times(); k++ {
			if op.Index < 0 || op.Index >= v.Len() {
				return pre, nil, invalid("erase position %d out of range [0:%d]", op.Index, v.Len())
			}
			v.Erase(op.Index)
		}

	case OpPop:
		for k := 0; k < op.times(); k++ {
			if v.Empty() {
				return pre, nil, invalid("pop on empty vector")
			}
			v.PopBack()
		}

	case OpReserve:
		pre = take(tr, v)
		arm()
		err = v.Reserve(op.N)

	case OpShrink:
		pre = take(tr, v)
		arm()
		err = v.ShrinkToFit()

	case OpClear:
		v.Clear()

	case OpClone:
		pre = take(tr, v)
		arm()
		var c *vector.Vector[elem]
		if c, err = v.Clone(); err != nil {
			return pre, nil, err
		}
		if !vector.Equal(v, c, tr.Equal) {
			problems = append(problems, "clone differs from source")
		}
		if c.Data() == v.Data() && c.Data() != nil {
			problems = append(problems, "clone shares storage with source")
		}
		c.Destroy()

	case OpAssign:
		src := vector.New(vector.WithLifecycle[elem](tr))
		defer src.Destroy()
		for _, val := range op.Values {
			if err = tr.Temp(val, src.PushBack); err != nil {
				return pre, nil, err
			}
		}
		pre = take(tr, v)
		arm()
		err = v.Assign(src)

	case OpAssignSelf:
		pre = take(tr, v)
		arm()
		err = v.Assign(v)
	}

	return pre, problems, err
}

func check(e *Expect, err error, before, after snapshot) []string {
	if e == nil {
		return nil
	}

	var problems []string
	if e.Fails && err == nil {
		problems = append(problems, "expected the op to fail")
	}
	if e.Len != nil && after.len != *e.Len {
		problems = append(problems, fmt.Sprintf("len = %d, want %d", after.len, *e.Len))
	}
	if e.Cap != nil && after.cap != *e.Cap {
		problems = append(problems, fmt.Sprintf("cap = %d, want %d", after.cap, *e.Cap))
	}
	if e.MinCap != nil && after.cap < *e.MinCap {
		problems = append(problems, fmt.Sprintf("cap = %d, want >= %d", after.cap, *e.MinCap))
	}
	if e.Values != nil && !slices.Equal(after.values, e.Values) {
		problems = append(problems, fmt.Sprintf("values = %v, want %v", after.values, e.Values))
	}
	switch e.Storage {
	case "none":
		if after.data != nil {
			problems = append(problems, "storage still allocated")
		}
	case "allocated":
		if after.data == nil {
			problems = append(problems, "no storage allocated")
		}
	}
	if e.DataStable && after.data != before.data {
		problems = append(problems, "storage address changed")
	}
	return problems
}

func fanout(observers []vector.Observer) vector.Observer {
	return vector.ObserverFunc(func(e vector.Event) {
		for _, o := range observers {
			o.Observe(e)
		}
	})
}
