package sampler

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/memprobe/timing"
	"github.com/sarchlab/memprobe/workload"
)

var _ = Describe("Sampler", func() {
	var (
		mockCtrl *gomock.Controller
		source   *MockSource
		s        Sampler
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		source = NewMockSource(mockCtrl)

		s = NewWithSource(source)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should panic without a source", func() {
		Expect(func() { NewWithSource(nil) }).To(Panic())
	})

	It("should default to the machine's best counter", func() {
		Expect(New().Source()).To(Equal(timing.BestSource()))
	})

	Context("when timing a pointer chase", func() {
		var chase workload.Chase

		BeforeEach(func() {
			rng := rand.New(rand.NewSource(1))
			chase = workload.BuildChase(256, rng)
		})

		It("should average the counter delta over all accesses", func() {
			source.EXPECT().Now().Return(timing.Ticks(1000))
			source.EXPECT().Now().Return(timing.Ticks(5000))

			latency := s.TimeChase(chase, 0, 256, 2)

			Expect(latency).To(Equal(4000.0 / 512.0))
		})

		It("should finish where it started after whole laps", func() {
			source.EXPECT().Now().Return(timing.Ticks(0)).Times(2)

			s.TimeChase(chase, 7, 256, 3)

			Expect(timing.Sink).To(Equal(uint64(7)))
		})

		It("should follow the chase link by link", func() {
			source.EXPECT().Now().Return(timing.Ticks(0)).Times(2)

			s.TimeChase(chase, 7, 3, 1)

			Expect(timing.Sink).To(Equal(chase.Walk(7, 3)))
		})
	})

	Context("when timing a strided scan", func() {
		It("should average the counter delta over all passes", func() {
			buf := workload.NewScanBuffer(64)

			source.EXPECT().Now().Return(timing.Ticks(100))
			source.EXPECT().Now().Return(timing.Ticks(180))

			latency := s.TimeStride(buf, 16, 2)

			Expect(latency).To(Equal(10.0))
		})

		It("should read one byte per stride", func() {
			buf := workload.NewScanBuffer(64)

			source.EXPECT().Now().Return(timing.Ticks(0)).Times(2)

			s.TimeStride(buf, 16, 2)

			Expect(timing.Sink).To(Equal(uint64(2 * (0 + 16 + 32 + 48))))
		})

		It("should ignore a tail shorter than the stride", func() {
			buf := workload.NewScanBuffer(70)

			source.EXPECT().Now().Return(timing.Ticks(0)).Times(2)

			s.TimeStride(buf, 16, 1)

			Expect(timing.Sink).To(Equal(uint64(0 + 16 + 32 + 48)))
		})
	})

	Context("when timing a conflict set", func() {
		It("should average the counter delta over all accesses", func() {
			set := workload.NewConflictSet(2, 4, 8)

			source.EXPECT().Now().Return(timing.Ticks(0))
			source.EXPECT().Now().Return(timing.Ticks(120))

			latency := s.TimeConflict(set, 3, 2)

			Expect(latency).To(Equal(10.0))
		})

		It("should read each way once per pass", func() {
			set := workload.NewConflictSet(2, 4, 8)

			source.EXPECT().Now().Return(timing.Ticks(0)).Times(2)

			s.TimeConflict(set, 3, 2)

			Expect(timing.Sink).To(Equal(uint64(6 * (0 + 8))))
		})
	})
})
