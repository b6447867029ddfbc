package metrics_test

import (
	"github.com/prometheus/client_golang/prometheus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynvec/internal/metrics"
	"github.com/san-kum/dynvec/internal/vector"
)

var _ = Describe("Vector metrics", func() {
	Describe("Set", func() {
		It("counts events pushed through a vector", func() {
			set := metrics.Default()
			v := vector.New(vector.WithObserver[int](set))
			for i := 0; i < 5; i++ {
				Expect(v.PushBack(i)).To(Succeed())
			}

			values := set.Values()
			// capacities 1, 2, 4, 8
			Expect(values["allocations"]).To(Equal(4.0))
			Expect(values["releases"]).To(Equal(3.0))
			// 5 pushed values plus 1+2+4 relocated elements
			Expect(values["copies"]).To(Equal(12.0))
			Expect(values["destructions"]).To(Equal(7.0))
			Expect(values["peak_capacity"]).To(Equal(8.0))

			v.Destroy()
			Expect(set.Values()["releases"]).To(Equal(4.0))
		})

		It("resets every metric", func() {
			set := metrics.Default()
			set.Observe(vector.Event{Kind: vector.EventAllocate, Capacity: 16})
			set.Reset()
			for name, val := range set.Values() {
				Expect(val).To(BeZero(), name)
			}
		})
	})

	Describe("Collectors", func() {
		It("can be registered with prometheus", func() {
			registry := prometheus.NewRegistry()
			collectors := metrics.NewCollectors()

			err := collectors.Register(registry)
			Expect(err).ToNot(HaveOccurred())

			err = collectors.Register(registry)
			Expect(err).To(HaveOccurred())
		})

		It("records reallocations per policy", func() {
			registry := prometheus.NewRegistry()
			collectors := metrics.NewCollectors()
			Expect(collectors.Register(registry)).To(Succeed())

			v := vector.New(vector.WithObserver[int](collectors.Observer("double")))
			for i := 0; i < 9; i++ {
				Expect(v.PushBack(i)).To(Succeed())
			}

			samples, err := metrics.Gather(registry)
			Expect(err).ToNot(HaveOccurred())

			byKey := map[string]float64{}
			for _, s := range samples {
				byKey[s.Name+"{"+s.Labels+"}"] = s.Value
			}
			Expect(byKey).To(HaveKeyWithValue("dynvec_vector_capacity{policy=double}", 16.0))
			Expect(byKey).To(HaveKeyWithValue("dynvec_vector_events_total{kind=allocate,policy=double}", 5.0))
			Expect(byKey).To(HaveKeyWithValue("dynvec_vector_reallocations_total{policy=double}", 4.0))
		})

		It("does not count a clone's storage as a reallocation", func() {
			registry := prometheus.NewRegistry()
			collectors := metrics.NewCollectors()
			Expect(collectors.Register(registry)).To(Succeed())

			v := vector.New(vector.WithObserver[int](collectors.Observer("double")))
			for i := 0; i < 3; i++ {
				Expect(v.PushBack(i)).To(Succeed())
			}
			c, err := v.Clone()
			Expect(err).ToNot(HaveOccurred())
			Expect(c.PushBack(3)).To(Succeed())
			Expect(c.PushBack(4)).To(Succeed())

			samples, err := metrics.Gather(registry)
			Expect(err).ToNot(HaveOccurred())

			byKey := map[string]float64{}
			for _, s := range samples {
				byKey[s.Name+"{"+s.Labels+"}"] = s.Value
			}
			// v: 1, 2, 4 (two moves); clone: 3, then 6 (one move)
			Expect(byKey).To(HaveKeyWithValue("dynvec_vector_events_total{kind=allocate,policy=double}", 5.0))
			Expect(byKey).To(HaveKeyWithValue("dynvec_vector_reallocations_total{policy=double}", 3.0))
		})
	})
})
