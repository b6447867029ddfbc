package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScript indicates a script that cannot be executed.
var ErrInvalidScript = errors.New("scenario: invalid script")

type OpKind string

const (
	OpPush       OpKind = "push"
	OpPushSelf   OpKind = "push_self"
	OpPop        OpKind = "pop"
	OpInsert     OpKind = "insert"
	OpErase      OpKind = "erase"
	OpReserve    OpKind = "reserve"
	OpShrink     OpKind = "shrink"
	OpClear      OpKind = "clear"
	OpClone      OpKind = "clone"
	OpAssign     OpKind = "assign"
	OpAssignSelf OpKind = "assign_self"
)

var knownOps = map[OpKind]bool{
	OpPush: true, OpPushSelf: true, OpPop: true, OpInsert: true, OpErase: true,
	OpReserve: true, OpShrink: true, OpClear: true, OpClone: true, OpAssign: true,
	OpAssignSelf: true,
}

// Script is a named sequence of vector operations.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Ops         []Op   `yaml:"ops"`
}

// Op is a single scripted operation.
//
// push and insert place Value, Value+1, ... Repeat times (once when Repeat
// is zero). push_self appends copies of the element at Index. reserve uses
// N. assign replaces the contents with Values. FailAfter arms the throw
// countdown so that the FailAfter-th copy made by this op fails.
type Op struct {
	Kind      OpKind  `yaml:"op"`
	Value     int     `yaml:"value,omitempty"`
	Index     int     `yaml:"index,omitempty"`
	N         int     `yaml:"n,omitempty"`
	Repeat    int     `yaml:"repeat,omitempty"`
	Values    []int   `yaml:"values,omitempty"`
	FailAfter int     `yaml:"fail_after,omitempty"`
	Expect    *Expect `yaml:"expect,omitempty"`
}

// Expect lists the conditions checked after an op. MinCap is a lower bound
// on the capacity, Storage is "none" or "allocated", and DataStable requires
// the op to keep the storage address.
type Expect struct {
	Len        *int   `yaml:"len,omitempty"`
	Cap        *int   `yaml:"cap,omitempty"`
	MinCap     *int   `yaml:"min_cap,omitempty"`
	Values     []int  `yaml:"values,omitempty"`
	Fails      bool   `yaml:"fails,omitempty"`
	Storage    string `yaml:"storage,omitempty"`
	DataStable bool   `yaml:"data_stable,omitempty"`
}

func (o Op) times() int {
	if o.Repeat > 0 {
		return o.Repeat
	}
	return 1
}

func (o Op) String() string {
	var s string
	switch o.Kind {
	case OpPush:
		s = fmt.Sprintf("push %d", o.Value)
	case OpPushSelf:
		s = fmt.Sprintf("push_self [%d]", o.Index)
	case OpInsert:
		s = fmt.Sprintf("insert [%d] %d", o.Index, o.Value)
	case OpErase:
		s = fmt.Sprintf("erase [%d]", o.Index)
	case OpReserve:
		s = fmt.Sprintf("reserve %d", o.N)
	case OpAssign:
		s = fmt.Sprintf("assign %v", o.Values)
	default:
		s = string(o.Kind)
	}
	if o.Repeat > 1 {
		s += fmt.Sprintf(" x%d", o.Repeat)
	}
	if o.FailAfter > 0 {
		s += fmt.Sprintf(" !%d", o.FailAfter)
	}
	return s
}

// LoadScript loads a script from a YAML file
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, err
	}
	if script.Name == "" {
		script.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

func (s *Script) Validate() error {
	if len(s.Ops) == 0 {
		return fmt.Errorf("%w: %s has no ops", ErrInvalidScript, s.Name)
	}
	for i, op := range s.Ops {
		if !knownOps[op.Kind] {
			return fmt.Errorf("%w: op %d: unknown kind %q", ErrInvalidScript, i+1, op.Kind)
		}
		if op.Repeat < 0 || op.FailAfter < 0 || op.N < 0 {
			return fmt.Errorf("%w: op %d: negative count", ErrInvalidScript, i+1)
		}
		if op.Expect != nil && op.Expect.Storage != "" && op.Expect.Storage != "none" && op.Expect.Storage != "allocated" {
			return fmt.Errorf("%w: op %d: storage must be none or allocated", ErrInvalidScript, i+1)
		}
	}
	return nil
}
