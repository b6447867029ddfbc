package vector_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynvec/internal/vector"
	"github.com/san-kum/dynvec/internal/vector/vectortest"
)

type elem = vectortest.Element[int]

var _ = Describe("Vector", func() {
	var (
		tr  *vectortest.Tracker[int]
		vec func() *vector.Vector[elem]
		// push appends x the way a caller passing a temporary would.
		push func(v *vector.Vector[elem], x int) error
		fill func(v *vector.Vector[elem], xs ...int)
		// expectNoInstances destroys the given vectors and checks that
		// every instance ever created has been destroyed exactly once.
		expectNoInstances func(vs ...*vector.Vector[elem])
	)

	BeforeEach(func() {
		tr = vectortest.NewTracker[int]()
		vec = func() *vector.Vector[elem] {
			return vector.New(vector.WithLifecycle[elem](tr))
		}
		push = func(v *vector.Vector[elem], x int) error {
			return tr.Temp(x, v.PushBack)
		}
		fill = func(v *vector.Vector[elem], xs ...int) {
			for _, x := range xs {
				Expect(push(v, x)).To(Succeed())
			}
		}
		expectNoInstances = func(vs ...*vector.Vector[elem]) {
			for _, v := range vs {
				v.Destroy()
			}
			Expect(tr.Verify()).To(Succeed())
		}
	})

	Context("construction", func() {
		It("starts empty without storage", func() {
			a := vec()
			Expect(tr.Live()).To(BeZero())
			Expect(a.Empty()).To(BeTrue())
			Expect(a.Len()).To(BeZero())
			Expect(a.Cap()).To(BeZero())
			Expect(a.Data()).To(BeNil())
		})

		It("has a usable zero value", func() {
			var a vector.Vector[int]
			Expect(a.PushBack(4)).To(Succeed())
			Expect(a.PushBack(8)).To(Succeed())
			Expect(a.Slice()).To(Equal([]int{4, 8}))
		})
	})

	Context("push_back", func() {
		It("keeps 200 values in insertion order", func() {
			a := vec()
			for i := 0; i < 200; i++ {
				Expect(push(a, i)).To(Succeed())
			}
			Expect(a.Len()).To(Equal(200))
			for i := 0; i < 200; i++ {
				Expect(tr.Value(a.At(i))).To(Equal(i))
			}
			expectNoInstances(a)
		})

		It("appends copies of its own first element across reallocations", func() {
			a := vec()
			fill(a, 42)
			for i := 0; i < 100; i++ {
				Expect(a.PushBack(a.At(0))).To(Succeed())
			}
			Expect(a.Len()).To(Equal(101))
			for _, x := range tr.Values(a) {
				Expect(x).To(Equal(42))
			}
			Expect(tr.Violations()).To(BeEmpty())
			expectNoInstances(a)
		})

		It("appends through a reference into its own storage", func() {
			a := vec()
			fill(a, 7)
			Expect(a.ShrinkToFit()).To(Succeed())
			Expect(a.PushBack(*a.Ref(0))).To(Succeed())
			Expect(tr.Values(a)).To(Equal([]int{7, 7}))
			expectNoInstances(a)
		})
	})

	Context("access", func() {
		It("subscripts plain values", func() {
			a := vector.New[int]()
			for _, x := range []int{4, 8, 15, 16, 23, 42} {
				Expect(a.PushBack(x)).To(Succeed())
			}
			for i, x := range []int{4, 8, 15, 16, 23, 42} {
				Expect(a.At(i)).To(Equal(x))
			}

			*a.Ref(0) = 5
			Expect(a.At(0)).To(Equal(5))
		})

		It("exposes the storage through Data and Slice", func() {
			a := vec()
			fill(a, 5, 6, 7)

			s := a.Slice()
			Expect(s).To(HaveLen(3))
			Expect(&s[0]).To(BeIdenticalTo(a.Data()))
			Expect(tr.Value(s[0])).To(Equal(5))
			Expect(tr.Value(s[1])).To(Equal(6))
			Expect(tr.Value(s[2])).To(Equal(7))
			Expect(cap(s)).To(Equal(3))
			expectNoInstances(a)
		})

		It("returns front and back", func() {
			a := vec()
			fill(a, 5, 6, 7)

			Expect(tr.Value(a.Front())).To(Equal(5))
			Expect(tr.Value(a.Back())).To(Equal(7))
			Expect(a.FrontRef()).To(BeIdenticalTo(a.Ref(0)))
			Expect(a.BackRef()).To(BeIdenticalTo(a.Ref(2)))
			expectNoInstances(a)
		})

		It("iterates both ways", func() {
			a := vector.New[int]()
			for i := 0; i < 5; i++ {
				Expect(a.PushBack(i * 10)).To(Succeed())
			}

			var fwd, bwd []int
			for i, x := range a.All() {
				Expect(x).To(Equal(i * 10))
				fwd = append(fwd, x)
			}
			for _, x := range a.Backward() {
				bwd = append(bwd, x)
			}
			Expect(fwd).To(Equal([]int{0, 10, 20, 30, 40}))
			Expect(bwd).To(Equal([]int{40, 30, 20, 10, 0}))

			n := 0
			for range a.All() {
				n++
				if n == 2 {
					break
				}
			}
			Expect(n).To(Equal(2))
		})

		It("panics on contract violations", func() {
			a := vector.New[int]()
			Expect(func() { a.PopBack() }).To(PanicWith(ContainSubstring("empty")))
			Expect(func() { a.Front() }).To(Panic())
			Expect(func() { a.Back() }).To(Panic())

			Expect(a.Reserve(4)).To(Succeed())
			Expect(a.PushBack(1)).To(Succeed())
			Expect(func() { a.At(1) }).To(PanicWith(ContainSubstring("out of range")))
			Expect(func() { a.At(-1) }).To(Panic())
			Expect(func() { a.Erase(a.End()) }).To(Panic())
			Expect(func() { _ = a.Insert(a.End()+1, 3) }).To(Panic())
			Expect(func() { _ = a.Insert(-1, 3) }).To(Panic())
		})
	})

	Context("capacity", func() {
		It("reserves and shrinks to fit", func() {
			a := vec()
			Expect(a.Reserve(10)).To(Succeed())
			Expect(a.Cap()).To(BeNumerically(">=", 10))
			fill(a, 5, 6, 7)
			Expect(a.Cap()).To(BeNumerically(">=", 10))
			Expect(a.ShrinkToFit()).To(Succeed())
			Expect(a.Cap()).To(Equal(3))
			Expect(tr.Values(a)).To(Equal([]int{5, 6, 7}))
			expectNoInstances(a)
		})

		It("never shrinks on a smaller reserve", func() {
			a := vec()
			Expect(a.Reserve(10)).To(Succeed())
			c := a.Cap()
			Expect(c).To(BeNumerically(">=", 10))
			Expect(a.Reserve(5)).To(Succeed())
			Expect(a.Cap()).To(Equal(c))
			expectNoInstances(a)
		})

		It("keeps capacity on clear", func() {
			a := vec()
			fill(a, 5, 6, 7)
			c := a.Cap()
			data := a.Data()
			a.Clear()
			Expect(a.Len()).To(BeZero())
			Expect(a.Cap()).To(Equal(c))
			Expect(a.Data()).To(BeIdenticalTo(data))
			Expect(tr.Live()).To(BeZero())
			expectNoInstances(a)
		})

		It("does not reallocate when already tight", func() {
			allocs := 0
			a := vector.New(
				vector.WithLifecycle[elem](tr),
				vector.WithObserver[elem](vector.ObserverFunc(func(e vector.Event) {
					if e.Kind == vector.EventAllocate {
						allocs++
					}
				})),
			)
			Expect(a.Reserve(10)).To(Succeed())
			for i := 0; i < a.Cap(); i++ {
				Expect(push(a, i)).To(Succeed())
			}

			before := allocs
			data := a.Data()
			Expect(a.ShrinkToFit()).To(Succeed())
			Expect(a.Data()).To(BeIdenticalTo(data))
			Expect(allocs).To(Equal(before))
			expectNoInstances(a)
		})

		It("reallocates at most once over two shrinks", func() {
			a := vec()
			Expect(a.Reserve(16)).To(Succeed())
			fill(a, 1, 2, 3)

			Expect(a.ShrinkToFit()).To(Succeed())
			data := a.Data()
			Expect(a.ShrinkToFit()).To(Succeed())
			Expect(a.Data()).To(BeIdenticalTo(data))
			expectNoInstances(a)
		})

		It("releases storage when shrinking an empty vector", func() {
			a := vector.New[int]()
			Expect(a.PushBack(5)).To(Succeed())
			a.PopBack()
			Expect(a.Data()).ToNot(BeNil())
			Expect(a.ShrinkToFit()).To(Succeed())
			Expect(a.Data()).To(BeNil())
			Expect(a.Cap()).To(BeZero())
		})

		It("grows strictly on every implicit reallocation", func() {
			a := vector.New[int]()
			last := a.Cap()
			for i := 0; i < 500; i++ {
				Expect(a.PushBack(i)).To(Succeed())
				if a.Cap() != last {
					Expect(a.Cap()).To(BeNumerically(">", last))
					last = a.Cap()
				}
			}
		})

		It("uses the configured growth policy", func() {
			a := vector.New(vector.WithGrowth[int](vector.Geometric{Factor: 1.5, MinStep: 4}))
			Expect(a.PushBack(1)).To(Succeed())
			Expect(a.Cap()).To(Equal(4))
			for i := 0; i < 4; i++ {
				Expect(a.PushBack(i)).To(Succeed())
			}
			Expect(a.Cap()).To(Equal(8))
		})
	})

	Context("copies", func() {
		It("clones contents and order", func() {
			a := vec()
			fill(a, 0, 1, 2, 3, 4)

			b, err := a.Clone()
			Expect(err).ToNot(HaveOccurred())
			Expect(tr.Values(b)).To(Equal([]int{0, 1, 2, 3, 4}))
			Expect(b.Cap()).To(BeNumerically(">=", b.Len()))
			Expect(vector.Equal(a, b, tr.Equal)).To(BeTrue())

			b.Ref(0).Val = 99
			Expect(tr.Value(a.At(0))).To(Equal(0))
			expectNoInstances(a, b)
		})

		It("assigns over existing contents", func() {
			a := vec()
			fill(a, 0, 1, 2, 3, 4)
			b := vec()
			fill(b, 42)

			Expect(b.Assign(a)).To(Succeed())
			Expect(b.Len()).To(Equal(5))
			Expect(tr.Values(b)).To(Equal([]int{0, 1, 2, 3, 4}))

			fill(b, 5)
			Expect(tr.Value(b.At(5))).To(Equal(5))
			Expect(a.Len()).To(Equal(5))
			expectNoInstances(a, b)
		})

		It("treats self-assignment as identity", func() {
			a := vec()
			fill(a, 5, 6, 7)
			data, c := a.Data(), a.Cap()
			copies := tr.Copies()

			Expect(a.Assign(a)).To(Succeed())
			Expect(tr.Values(a)).To(Equal([]int{5, 6, 7}))
			Expect(a.Data()).To(BeIdenticalTo(data))
			Expect(a.Cap()).To(Equal(c))
			Expect(tr.Copies()).To(Equal(copies))
			expectNoInstances(a)
		})

		It("keeps empty copies without storage", func() {
			a := vector.New[int]()
			Expect(a.Data()).To(BeNil())
			b, err := a.Clone()
			Expect(err).ToNot(HaveOccurred())
			Expect(b.Data()).To(BeNil())
			Expect(a.Assign(b)).To(Succeed())
			Expect(a.Data()).To(BeNil())
		})

		It("swaps complete state", func() {
			a := vec()
			fill(a, 1, 2)
			b := vec()
			fill(b, 3)

			a.Swap(b)
			Expect(tr.Values(a)).To(Equal([]int{3}))
			Expect(tr.Values(b)).To(Equal([]int{1, 2}))
			expectNoInstances(a, b)
		})
	})

	Context("removal", func() {
		It("pops from the back", func() {
			a := vec()
			fill(a, 5, 6, 7)
			c := a.Cap()

			for _, want := range []int{7, 6, 5} {
				Expect(tr.Value(a.Back())).To(Equal(want))
				a.PopBack()
				Expect(a.Cap()).To(Equal(c))
			}
			Expect(a.Empty()).To(BeTrue())
			Expect(tr.Live()).To(BeZero())
			expectNoInstances(a)
		})

		It("reports emptiness", func() {
			a := vec()
			Expect(a.Empty()).To(BeTrue())
			fill(a, 5)
			Expect(a.Empty()).To(BeFalse())
			a.PopBack()
			Expect(a.Empty()).To(BeTrue())
			expectNoInstances(a)
		})

		It("erases from the middle", func() {
			a := vec()
			fill(a, 4, 5, 6, 7)
			c := a.Cap()

			a.Erase(a.Begin() + 2)
			Expect(a.Len()).To(Equal(3))
			Expect(a.Cap()).To(Equal(c))
			Expect(tr.Values(a)).To(Equal([]int{4, 5, 7}))
			expectNoInstances(a)
		})

		It("erases the first and last element", func() {
			a := vec()
			fill(a, 1, 2, 3)
			a.Erase(a.Begin())
			a.Erase(a.End() - 1)
			Expect(tr.Values(a)).To(Equal([]int{2}))
			expectNoInstances(a)
		})
	})

	Context("insert", func() {
		It("reverses order when inserting at the front", func() {
			a := vec()
			for i := 0; i < 100; i++ {
				Expect(tr.Temp(i, func(e elem) error { return a.Insert(a.Begin(), e) })).To(Succeed())
			}
			for i := 0; i < 100; i++ {
				Expect(tr.Value(a.Back())).To(Equal(i))
				a.PopBack()
			}
			expectNoInstances(a)
		})

		It("appends when inserting at the end", func() {
			a := vec()
			fill(a, 4, 5, 6, 7)
			Expect(a.Len()).To(Equal(4))

			Expect(tr.Temp(8, func(e elem) error { return a.Insert(a.End(), e) })).To(Succeed())
			Expect(a.Len()).To(Equal(5))
			Expect(tr.Value(a.Back())).To(Equal(8))

			Expect(tr.Temp(9, func(e elem) error { return a.Insert(a.End(), e) })).To(Succeed())
			Expect(a.Len()).To(Equal(6))
			Expect(tr.Value(a.Back())).To(Equal(9))
			expectNoInstances(a)
		})

		It("shifts later elements", func() {
			a := vec()
			fill(a, 4, 5, 7)
			Expect(tr.Temp(6, func(e elem) error { return a.Insert(a.Begin()+2, e) })).To(Succeed())
			Expect(tr.Values(a)).To(Equal([]int{4, 5, 6, 7}))
			Expect(tr.Value(a.At(2))).To(Equal(6))
			expectNoInstances(a)
		})

		It("inserts a copy of one of its own elements", func() {
			a := vec()
			fill(a, 1, 2)
			Expect(a.ShrinkToFit()).To(Succeed())
			Expect(a.Insert(a.Begin(), a.Back())).To(Succeed())
			Expect(tr.Values(a)).To(Equal([]int{2, 1, 2}))
			Expect(tr.Violations()).To(BeEmpty())
			expectNoInstances(a)
		})
	})

	Context("failing copies", func() {
		var (
			a               *vector.Vector[elem]
			before          []int
			cap0            int
			data0           *elem
			expectUnchanged func()
		)

		BeforeEach(func() {
			a = vec()
			Expect(a.Reserve(10)).To(Succeed())
			for i := 0; i < a.Cap(); i++ {
				Expect(push(a, i)).To(Succeed())
			}
			before = tr.Values(a)
			cap0, data0 = a.Cap(), a.Data()
			expectUnchanged = func() {
				Expect(a.Len()).To(Equal(len(before)))
				Expect(a.Cap()).To(Equal(cap0))
				Expect(a.Data()).To(BeIdenticalTo(data0))
				Expect(tr.Values(a)).To(Equal(before))
			}
		})

		It("leaves a full vector untouched when the 7th copy of a push fails", func() {
			tr.SetThrowCountdown(7)
			err := push(a, 42)
			Expect(err).To(MatchError(vectortest.ErrCopyFailed))

			var opErr *vector.OpError
			Expect(errors.As(err, &opErr)).To(BeTrue())
			Expect(opErr.Op).To(Equal("push_back"))
			Expect(opErr.Len).To(Equal(10))

			expectUnchanged()
			expectNoInstances(a)
		})

		It("keeps the strong guarantee for every failing copy of a growing push", func() {
			// one copy of the pushed value plus one per existing element
			for k := 1; k <= len(before)+1; k++ {
				live := tr.Live()
				tr.SetThrowCountdown(k)
				Expect(push(a, 42)).To(MatchError(vectortest.ErrCopyFailed), "k=%d", k)
				Expect(tr.Live()).To(Equal(live), "k=%d", k)
				expectUnchanged()
			}
			Expect(tr.Violations()).To(BeEmpty())
			expectNoInstances(a)
		})

		It("rolls back a failing insert at the front", func() {
			tr.SetThrowCountdown(4)
			err := tr.Temp(-1, func(e elem) error { return a.Insert(a.Begin(), e) })
			Expect(err).To(MatchError(vectortest.ErrCopyFailed))
			expectUnchanged()
			expectNoInstances(a)
		})

		It("rolls back a failing reserve", func() {
			tr.SetThrowCountdown(3)
			Expect(a.Reserve(100)).To(MatchError(vectortest.ErrCopyFailed))
			expectUnchanged()
			expectNoInstances(a)
		})

		It("rolls back a failing shrink", func() {
			a.PopBack()
			a.PopBack()
			before = tr.Values(a)
			tr.SetThrowCountdown(5)
			Expect(a.ShrinkToFit()).To(MatchError(vectortest.ErrCopyFailed))
			expectUnchanged()
			expectNoInstances(a)
		})

		It("releases a partially built clone", func() {
			live := tr.Live()
			tr.SetThrowCountdown(6)
			b, err := a.Clone()
			Expect(err).To(MatchError(vectortest.ErrCopyFailed))
			Expect(b).To(BeNil())
			Expect(tr.Live()).To(Equal(live))
			expectUnchanged()
			expectNoInstances(a)
		})

		It("leaves the target of a failing assignment unmodified", func() {
			b := vec()
			fill(b, 100, 200)
			bData, bCap := b.Data(), b.Cap()

			tr.SetThrowCountdown(8)
			Expect(b.Assign(a)).To(MatchError(vectortest.ErrCopyFailed))
			Expect(tr.Values(b)).To(Equal([]int{100, 200}))
			Expect(b.Data()).To(BeIdenticalTo(bData))
			Expect(b.Cap()).To(Equal(bCap))
			expectUnchanged()
			expectNoInstances(a, b)
		})

		It("cleans up when the copy panics", func() {
			tr.SetPanic(true)
			tr.SetThrowCountdown(4)
			Expect(func() { _ = push(a, 42) }).To(PanicWith(vectortest.ErrCopyFailed))
			expectUnchanged()
			expectNoInstances(a)
		})

		It("recovers after the failure", func() {
			tr.SetThrowCountdown(2)
			Expect(push(a, 42)).ToNot(Succeed())
			Expect(push(a, 42)).To(Succeed())
			Expect(a.Len()).To(Equal(11))
			Expect(a.Cap()).To(BeNumerically(">", cap0))
			Expect(tr.Value(a.Back())).To(Equal(42))
			expectNoInstances(a)
		})
	})

	Context("observer", func() {
		It("reports allocations and releases in pairs", func() {
			var allocs, releases, destroys int
			a := vector.New(
				vector.WithLifecycle[elem](tr),
				vector.WithObserver[elem](vector.ObserverFunc(func(e vector.Event) {
					switch e.Kind {
					case vector.EventAllocate:
						allocs++
					case vector.EventRelease:
						releases++
					case vector.EventDestroy:
						destroys++
					}
				})),
			)
			fill(a, 1, 2, 3, 4, 5)
			a.Destroy()

			Expect(allocs).To(Equal(releases))
			Expect(destroys).To(Equal(tr.Destroys() - 5))
			Expect(tr.Verify()).To(Succeed())
		})
	})
})
