package vector

import (
	"fmt"
	"math"
)

// GrowthPolicy picks the capacity used when an append finds the vector full.
// Grow must return a value strictly greater than capacity and at least
// required.
type GrowthPolicy interface {
	Grow(capacity, required int) int
}

// Geometric multiplies the capacity by Factor on each growth, adding at
// least MinStep slots.
type Geometric struct {
	Factor  float64
	MinStep int
}

// Doubling is the default policy.
var Doubling = Geometric{Factor: 2, MinStep: 1}

// NewGeometric validates factor and step.
func NewGeometric(factor float64, minStep int) (Geometric, error) {
	if factor <= 1 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return Geometric{}, fmt.Errorf("vector: growth factor must be > 1, got %v", factor)
	}
	if minStep < 1 {
		return Geometric{}, fmt.Errorf("vector: minimum growth step must be >= 1, got %d", minStep)
	}
	return Geometric{Factor: factor, MinStep: minStep}, nil
}

// Grow panics when capacity is already math.MaxInt.
func (g Geometric) Grow(capacity, required int) int {
	if capacity == math.MaxInt {
		panic(errCapacityOverflow)
	}
	step := g.MinStep
	if step < 1 {
		step = 1
	}

	next := math.MaxInt
	if capacity < math.MaxInt-step {
		next = capacity + step
	}
	if g.Factor > 1 {
		scaled := math.Ceil(float64(capacity) * g.Factor)
		if scaled >= math.MaxInt {
			return math.MaxInt
		}
		if int(scaled) > next {
			next = int(scaled)
		}
	}
	if next < required {
		next = required
	}
	return next
}

func (g Geometric) String() string {
	return fmt.Sprintf("geometric(x%.2f, +%d)", g.Factor, g.MinStep)
}
