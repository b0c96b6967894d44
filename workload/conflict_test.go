package workload

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ConflictSet", func() {
	It("should allocate room for the largest way count", func() {
		set := NewConflictSet(2, 32, 4096)

		Expect(set.Buf).To(HaveLen(32 * 4096))
		Expect(set.Ways).To(Equal(2))
		Expect(set.SetStride).To(Equal(4096))
	})

	It("should space addresses one set stride apart", func() {
		set := NewConflictSet(4, 8, 4096)

		Expect(set.Addresses()).To(Equal([]int{0, 4096, 8192, 12288}))
	})

	It("should resize within the same buffer", func() {
		set := NewConflictSet(2, 32, 4096)
		grown := set.Resize(16)

		Expect(grown.Ways).To(Equal(16))
		Expect(&grown.Buf[0]).To(BeIdenticalTo(&set.Buf[0]))
	})

	It("should panic when resized past the buffer", func() {
		set := NewConflictSet(2, 8, 4096)

		Expect(func() { set.Resize(9) }).To(Panic())
	})

	It("should panic on invalid parameters", func() {
		Expect(func() { NewConflictSet(0, 8, 4096) }).To(Panic())
		Expect(func() { NewConflictSet(9, 8, 4096) }).To(Panic())
		Expect(func() { NewConflictSet(2, 8, 0) }).To(Panic())
	})
})
