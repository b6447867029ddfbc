package scenario

import (
	"fmt"
	"sort"
)

type Registry struct {
	scripts map[string]func() *Script
}

// NewRegistry returns a registry holding the built-in scripts.
func NewRegistry() *Registry {
	r := &Registry{scripts: make(map[string]func() *Script)}

	r.scripts["push_200"] = func() *Script {
		return &Script{
			Name:        "push_200",
			Description: "push 0..199 and read them back in order",
			Ops: []Op{
				{Kind: OpPush, Value: 0, Repeat: 200, Expect: &Expect{Len: ptr(200), Values: seq(0, 200)}},
			},
		}
	}
	r.scripts["reserve_shrink"] = func() *Script {
		return &Script{
			Name:        "reserve_shrink",
			Description: "reserve 10, push 3, shrink to exactly 3",
			Ops: []Op{
				{Kind: OpReserve, N: 10, Expect: &Expect{MinCap: ptr(10), Len: ptr(0)}},
				{Kind: OpPush, Value: 5, Repeat: 3, Expect: &Expect{MinCap: ptr(10), DataStable: true}},
				{Kind: OpShrink, Expect: &Expect{Cap: ptr(3), Values: []int{5, 6, 7}}},
			},
		}
	}
	r.scripts["realloc_throw"] = func() *Script {
		return &Script{
			Name:        "realloc_throw",
			Description: "fill 10 slots, fail the 7th copy of the growing push",
			Ops: []Op{
				{Kind: OpReserve, N: 10},
				{Kind: OpPush, Value: 0, Repeat: 10, Expect: &Expect{Len: ptr(10), Cap: ptr(10)}},
				{Kind: OpPush, Value: 42, FailAfter: 7, Expect: &Expect{
					Fails: true, Len: ptr(10), Cap: ptr(10), Values: seq(0, 10), DataStable: true,
				}},
			},
		}
	}
	r.scripts["insert_front"] = func() *Script {
		return &Script{
			Name:        "insert_front",
			Description: "insert 0..99 at the front, then pop them back in order",
			Ops: []Op{
				{Kind: OpInsert, Index: 0, Value: 0, Repeat: 100, Expect: &Expect{Len: ptr(100), Values: reversed(seq(0, 100))}},
				{Kind: OpPop, Repeat: 100, Expect: &Expect{Len: ptr(0), Storage: "allocated"}},
			},
		}
	}
	r.scripts["erase_middle"] = func() *Script {
		return &Script{
			Name:        "erase_middle",
			Description: "erase index 2 from [4 5 6 7]",
			Ops: []Op{
				{Kind: OpPush, Value: 4, Repeat: 4},
				{Kind: OpErase, Index: 2, Expect: &Expect{Len: ptr(3), Values: []int{4, 5, 7}, DataStable: true}},
			},
		}
	}
	r.scripts["self_append"] = func() *Script {
		return &Script{
			Name:        "self_append",
			Description: "append the first element to itself 100 times across reallocations",
			Ops: []Op{
				{Kind: OpPush, Value: 42},
				{Kind: OpPushSelf, Index: 0, Repeat: 100, Expect: &Expect{Len: ptr(101), Values: repeat(42, 101)}},
			},
		}
	}
	r.scripts["copy_roundtrip"] = func() *Script {
		return &Script{
			Name:        "copy_roundtrip",
			Description: "clone preserves contents and order, and a failed clone leaks nothing",
			Ops: []Op{
				{Kind: OpPush, Value: 0, Repeat: 5},
				{Kind: OpClone, Expect: &Expect{Values: seq(0, 5), DataStable: true}},
				{Kind: OpClone, FailAfter: 3, Expect: &Expect{Fails: true, Values: seq(0, 5)}},
			},
		}
	}
	r.scripts["shrink_twice"] = func() *Script {
		return &Script{
			Name:        "shrink_twice",
			Description: "a second shrink does not reallocate",
			Ops: []Op{
				{Kind: OpReserve, N: 16},
				{Kind: OpPush, Value: 1, Repeat: 3},
				{Kind: OpShrink, Expect: &Expect{Cap: ptr(3)}},
				{Kind: OpShrink, Expect: &Expect{Cap: ptr(3), DataStable: true}},
			},
		}
	}
	r.scripts["superfluous_reserve"] = func() *Script {
		return &Script{
			Name:        "superfluous_reserve",
			Description: "a smaller reserve never reduces capacity",
			Ops: []Op{
				{Kind: OpReserve, N: 10, Expect: &Expect{MinCap: ptr(10)}},
				{Kind: OpReserve, N: 5, Expect: &Expect{MinCap: ptr(10), DataStable: true}},
			},
		}
	}
	r.scripts["clear_keeps_capacity"] = func() *Script {
		return &Script{
			Name:        "clear_keeps_capacity",
			Description: "clear destroys elements but keeps the storage",
			Ops: []Op{
				{Kind: OpReserve, N: 4},
				{Kind: OpPush, Value: 5, Repeat: 3, Expect: &Expect{Cap: ptr(4)}},
				{Kind: OpClear, Expect: &Expect{Len: ptr(0), Cap: ptr(4), DataStable: true}},
			},
		}
	}
	r.scripts["empty_shrink"] = func() *Script {
		return &Script{
			Name:        "empty_shrink",
			Description: "shrinking an emptied vector releases its storage",
			Ops: []Op{
				{Kind: OpPush, Value: 5},
				{Kind: OpPop, Expect: &Expect{Len: ptr(0), Storage: "allocated"}},
				{Kind: OpShrink, Expect: &Expect{Cap: ptr(0), Storage: "none"}},
			},
		}
	}
	r.scripts["assign"] = func() *Script {
		return &Script{
			Name:        "assign",
			Description: "assignment replaces contents, self-assignment is identity, failed assignment changes nothing",
			Ops: []Op{
				{Kind: OpPush, Value: 42},
				{Kind: OpAssign, Values: seq(0, 5), Expect: &Expect{Len: ptr(5), Values: seq(0, 5)}},
				{Kind: OpPush, Value: 5, Expect: &Expect{Values: seq(0, 6)}},
				{Kind: OpAssignSelf, Expect: &Expect{Values: seq(0, 6), DataStable: true}},
				{Kind: OpAssign, Values: seq(100, 110), FailAfter: 4, Expect: &Expect{
					Fails: true, Values: seq(0, 6), DataStable: true,
				}},
			},
		}
	}

	return r
}

func (r *Registry) Get(name string) (*Script, error) {
	fn, ok := r.scripts[name]
	if !ok {
		return nil, fmt.Errorf("unknown script: %s", name)
	}
	return fn(), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scripts))
	for name := range r.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ptr(n int) *int { return &n }

// seq returns from, from+1, ..., to-1.
func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func reversed(xs []int) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		out[len(xs)-1-i] = x
	}
	return out
}

func repeat(x, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = x
	}
	return out
}
