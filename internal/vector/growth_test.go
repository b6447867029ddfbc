package vector_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynvec/internal/vector"
)

var _ = Describe("GrowthPolicy", func() {
	DescribeTable("Doubling",
		func(capacity, required, expected int) {
			Expect(vector.Doubling.Grow(capacity, required)).To(Equal(expected))
		},
		Entry("first allocation", 0, 1, 1),
		Entry("one slot", 1, 2, 2),
		Entry("power of two", 4, 5, 8),
		Entry("large requirement wins", 4, 100, 100),
	)

	DescribeTable("golden-ish factor",
		func(capacity, required, expected int) {
			g, err := vector.NewGeometric(1.5, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(g.Grow(capacity, required)).To(Equal(expected))
		},
		Entry("empty", 0, 1, 1),
		Entry("small capacity still grows", 1, 2, 2),
		Entry("rounds up", 2, 3, 3),
		Entry("scales", 10, 11, 15),
	)

	It("honors the minimum step", func() {
		g, err := vector.NewGeometric(1.5, 8)
		Expect(err).ToNot(HaveOccurred())
		Expect(g.Grow(0, 1)).To(Equal(8))
		Expect(g.Grow(8, 9)).To(Equal(16))
		Expect(g.Grow(200, 201)).To(Equal(300))
	})

	It("rejects factors that do not grow", func() {
		_, err := vector.NewGeometric(1, 1)
		Expect(err).To(HaveOccurred())

		_, err = vector.NewGeometric(0.5, 1)
		Expect(err).To(HaveOccurred())

		_, err = vector.NewGeometric(2, 0)
		Expect(err).To(HaveOccurred())
	})

	It("always grows strictly", func() {
		for _, p := range []vector.Geometric{vector.Doubling, {Factor: 1.25, MinStep: 1}, {Factor: 3, MinStep: 2}} {
			capacity := 0
			for capacity < math.MaxInt {
				next := p.Grow(capacity, capacity+1)
				Expect(next).To(BeNumerically(">", capacity), p.String())
				capacity = next
			}
		}
	})

	It("saturates at the largest int near the limit", func() {
		Expect(vector.Doubling.Grow(math.MaxInt-1, math.MaxInt)).To(Equal(math.MaxInt))
		Expect(vector.Geometric{Factor: 1.5, MinStep: 8}.Grow(math.MaxInt-3, math.MaxInt-2)).To(Equal(math.MaxInt))
	})

	It("panics instead of overflowing past the largest int", func() {
		Expect(func() { vector.Doubling.Grow(math.MaxInt, math.MaxInt) }).To(PanicWith("vector: capacity overflow"))
	})

	It("keeps push_back amortized constant", func() {
		const n = 10000
		copies := 0
		v := vector.New(vector.WithObserver[int](vector.ObserverFunc(func(e vector.Event) {
			if e.Kind == vector.EventCopy {
				copies++
			}
		})))
		for i := 0; i < n; i++ {
			Expect(v.PushBack(i)).To(Succeed())
		}
		// n copies of the pushed values plus the relocations, which sum to
		// less than 2n under doubling.
		Expect(copies).To(BeNumerically("<", 3*n))
		Expect(v.Len()).To(Equal(n))
	})
})
