package workload

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BuildPageChase", func() {
	const slotsPerPage = 512

	It("should panic when the slot slice is too small", func() {
		slots := make([]uint64, slotsPerPage)

		Expect(func() {
			BuildPageChase(slots, 2, slotsPerPage, rand.New(rand.NewSource(1)))
		}).To(Panic())
	})

	It("should visit the first slot of each page exactly once", func() {
		const n = 64

		slots := make([]uint64, n*slotsPerPage)
		pc := BuildPageChase(slots, n, slotsPerPage,
			rand.New(rand.NewSource(54321)))

		Expect(pc.Start % slotsPerPage).To(Equal(uint64(0)))

		seen := make(map[uint64]bool, n)
		idx := pc.Start

		for i := 0; i < n; i++ {
			Expect(idx % slotsPerPage).To(Equal(uint64(0)))
			Expect(seen[idx]).To(BeFalse())
			seen[idx] = true

			idx = pc.Slots[idx]
		}

		Expect(idx).To(Equal(pc.Start))
	})

	It("should leave slots beyond the first of each page untouched", func() {
		const n = 8

		slots := make([]uint64, n*slotsPerPage)
		BuildPageChase(slots, n, slotsPerPage, rand.New(rand.NewSource(1)))

		for p := 0; p < n; p++ {
			for s := 1; s < slotsPerPage; s++ {
				Expect(slots[p*slotsPerPage+s]).To(Equal(uint64(0)))
			}
		}
	})

	It("should return to the start after one full lap", func() {
		const n = 32

		slots := make([]uint64, n*slotsPerPage)
		pc := BuildPageChase(slots, n, slotsPerPage,
			rand.New(rand.NewSource(54321)))

		Expect(pc.Walk(n)).To(Equal(pc.Start))
		Expect(pc.Walk(n + 1)).To(Equal(pc.Slots[pc.Start]))
	})

	It("should rewrite links in place on reuse", func() {
		const n = 16

		slots := make([]uint64, n*slotsPerPage)

		first := BuildPageChase(slots, n, slotsPerPage,
			rand.New(rand.NewSource(1)))
		second := BuildPageChase(slots, n, slotsPerPage,
			rand.New(rand.NewSource(2)))

		Expect(&first.Slots[0]).To(BeIdenticalTo(&second.Slots[0]))

		seen := make(map[uint64]bool, n)
		idx := second.Start

		for i := 0; i < n; i++ {
			Expect(seen[idx]).To(BeFalse())
			seen[idx] = true

			idx = second.Slots[idx]
		}

		Expect(idx).To(Equal(second.Start))
	})
})
