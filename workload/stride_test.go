package workload

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("StrideScan", func() {
	It("should count one access per stride", func() {
		scan := StrideScan{Buf: make([]byte, 4096), Stride: 64}

		Expect(scan.Accesses()).To(Equal(64))
	})

	It("should panic on a non-positive stride", func() {
		scan := StrideScan{Buf: make([]byte, 4096), Stride: 0}

		Expect(func() { scan.Accesses() }).To(Panic())
	})
})

var _ = Describe("NewScanBuffer", func() {
	It("should write every byte", func() {
		buf := NewScanBuffer(1024)

		Expect(buf).To(HaveLen(1024))

		for i := range buf {
			Expect(buf[i]).To(Equal(byte(i)))
		}
	})
})

var _ = Describe("TouchPages", func() {
	It("should write one byte per step", func() {
		buf := make([]byte, 4*4096)
		for i := range buf {
			buf[i] = 0xff
		}

		TouchPages(buf, 4096)

		for i := range buf {
			if i%4096 == 0 {
				Expect(buf[i]).To(Equal(byte(i)))
			} else {
				Expect(buf[i]).To(Equal(byte(0xff)))
			}
		}
	})

	It("should panic on a non-positive step", func() {
		Expect(func() {
			TouchPages(make([]byte, 16), 0)
		}).To(Panic())
	})
})
