package detect

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PlateauRise", func() {
	strides := []int{8, 16, 32, 64, 128, 256, 512, 1024}

	It("should report the stride before the final plateau", func() {
		curve := Curve{1.0, 1.0, 1.05, 1.4, 1.42, 1.0, 1.0, 1.0}

		Expect(PlateauRise(curve, strides, 1.3, 64)).To(Equal(128))
	})

	It("should detect a single step at the configuration before it", func() {
		candidates := []int{1, 2, 3, 4, 5, 6, 7}

		curve := Curve{1, 1, 1, 1, 3, 3, 3}

		Expect(PlateauRise(curve, candidates, 1.3, 0)).To(Equal(4))
	})

	It("should not depend on the curve length beyond the step", func() {
		candidates := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}

		short := Curve{1, 1, 1, 1, 3, 3}
		long := Curve{1, 1, 1, 1, 3, 3, 3, 3, 3}

		Expect(PlateauRise(short, candidates, 1.3, 0)).To(Equal(4))
		Expect(PlateauRise(long, candidates, 1.3, 0)).To(Equal(4))
	})

	It("should fall back on a flat curve", func() {
		curve := Curve{1, 1, 1, 1, 1, 1, 1, 1}

		Expect(PlateauRise(curve, strides, 1.3, 64)).To(Equal(64))
	})

	It("should fall back when the curve is still rising at the end", func() {
		curve := Curve{1, 2, 4, 8, 16, 32, 64, 128}

		Expect(PlateauRise(curve, strides, 1.3, 64)).To(Equal(64))
	})

	It("should fall back when the curve only drops", func() {
		curve := Curve{8, 2, 1, 1, 1, 1, 1, 1}

		Expect(PlateauRise(curve, strides, 1.3, 64)).To(Equal(64))
	})

	It("should not treat a ratio of exactly the threshold as a rise", func() {
		curve := Curve{1, 1, 1, 1, 1.3, 1.3, 1.3, 1.3}

		Expect(PlateauRise(curve, strides, 1.3, 64)).To(Equal(64))
	})

	It("should fall back on short curves", func() {
		Expect(PlateauRise(Curve{}, strides, 1.3, 64)).To(Equal(64))
		Expect(PlateauRise(Curve{1}, strides, 1.3, 64)).To(Equal(64))
		Expect(PlateauRise(Curve{1, 3}, strides, 1.3, 64)).To(Equal(64))
	})

	It("should tolerate zeros, infinities, and NaN", func() {
		Expect(func() {
			PlateauRise(Curve{0, 0, 1, 1, 1}, strides, 1.3, 64)
			PlateauRise(Curve{1, math.Inf(1), 1, 1, 1}, strides, 1.3, 64)
			PlateauRise(Curve{1, math.NaN(), 1, 1, 1}, strides, 1.3, 64)
		}).NotTo(Panic())
	})

	It("should only return a candidate or the fallback", func() {
		curves := []Curve{
			{1, 1, 2, 3, 1, 1, 1, 1},
			{5, 1, 9, 1, 5, 1, 9, 1},
			{0, 1, 0, 1, 0, 1, 0, 1},
			{1, 1, 1, 9, 9, 9, 1, 1},
		}

		for _, curve := range curves {
			value := PlateauRise(curve, strides, 1.3, 64)
			Expect(append([]int{64}, strides...)).To(ContainElement(value))
		}
	})
})

var _ = Describe("PlateauDrop", func() {
	strides := []int{512, 1024, 2048, 4096, 8192, 16384}

	It("should report the stride before the first drop", func() {
		curve := Curve{1.0, 1.1, 1.15, 1.2, 0.5, 0.45}

		Expect(PlateauDrop(curve, strides, 0.6, 4096)).To(Equal(4096))
	})

	It("should ignore a drop at the first ratio", func() {
		curve := Curve{2.0, 0.5, 0.5, 0.5, 0.5, 0.5}

		Expect(PlateauDrop(curve, strides, 0.6, 4096)).To(Equal(4096))
	})

	It("should fall back on a flat curve", func() {
		curve := Curve{1, 1, 1, 1, 1, 1}

		Expect(PlateauDrop(curve, strides, 0.6, 4096)).To(Equal(4096))
	})

	It("should fall back on a rising curve", func() {
		curve := Curve{1, 2, 3, 4, 5, 6}

		Expect(PlateauDrop(curve, strides, 0.6, 4096)).To(Equal(4096))
	})

	It("should report the first of several drops", func() {
		curve := Curve{1.0, 1.0, 0.5, 1.0, 0.4, 1.0}

		Expect(PlateauDrop(curve, strides, 0.6, 4096)).To(Equal(1024))
	})
})

var _ = Describe("Knee", func() {
	const (
		kib = 1024
		mib = 1024 * 1024
	)

	footprints := []int{
		4 * kib, 8 * kib, 16 * kib, 32 * kib, 48 * kib, 64 * kib,
		96 * kib, 128 * kib, 192 * kib, 256 * kib, 384 * kib, 512 * kib,
		768 * kib, 1 * mib, 1536 * kib, 2 * mib, 3 * mib, 4 * mib,
		6 * mib, 8 * mib, 12 * mib, 16 * mib, 24 * mib, 32 * mib,
	}

	tiers := []Tier{
		{MaxFootprint: 192 * kib, Threshold: 1.3},
		{MinFootprint: 192 * kib, MaxFootprint: 16 * mib, Threshold: 1.3},
		{MinFootprint: 4 * mib, Threshold: 1.5},
	}

	flatCurve := func() Curve {
		curve := make(Curve, len(footprints))
		for i := range curve {
			curve[i] = 1.0
		}
		return curve
	}

	It("should latch three ordered tiers from a three-step curve", func() {
		curve := flatCurve()
		// Jumps after 48KiB, 1MiB, and 8MiB.
		for i := 5; i < len(curve); i++ {
			curve[i] = 2.0
		}
		for i := 14; i < len(curve); i++ {
			curve[i] = 4.5
		}
		for i := 20; i < len(curve); i++ {
			curve[i] = 9.0
		}

		sizes := Knee(curve, footprints, tiers)

		Expect(sizes).To(Equal([]int{48 * kib, 1 * mib, 8 * mib}))
		Expect(sizes[0]).To(BeNumerically("<", sizes[1]))
		Expect(sizes[1]).To(BeNumerically("<", sizes[2]))
	})

	It("should report 0 for tiers without a qualifying jump", func() {
		curve := flatCurve()
		for i := 5; i < len(curve); i++ {
			curve[i] = 2.0
		}

		Expect(Knee(curve, footprints, tiers)).
			To(Equal([]int{48 * kib, 0, 0}))
	})

	It("should report all zeros on a flat curve", func() {
		Expect(Knee(flatCurve(), footprints, tiers)).
			To(Equal([]int{0, 0, 0}))
	})

	It("should latch each tier only once", func() {
		curve := flatCurve()
		// Two jumps inside the first tier's range.
		for i := 3; i < len(curve); i++ {
			curve[i] = 2.0
		}
		for i := 7; i < len(curve); i++ {
			curve[i] = 4.0
		}

		sizes := Knee(curve, footprints, tiers)

		Expect(sizes[0]).To(Equal(16 * kib))
	})

	It("should give an overlapping jump to the earlier tier", func() {
		curve := flatCurve()
		// One jump after 8MiB, inside both the second and third ranges,
		// exceeding both thresholds.
		for i := 20; i < len(curve); i++ {
			curve[i] = 2.0
		}

		Expect(Knee(curve, footprints, tiers)).
			To(Equal([]int{0, 8 * mib, 0}))
	})

	It("should require the higher threshold for the third tier", func() {
		curve := flatCurve()
		for i := 14; i < len(curve); i++ {
			curve[i] = 1.4
		}
		for i := 20; i < len(curve); i++ {
			curve[i] = 1.96 // ratio 1.4: enough for tier two, spent; not 1.5
		}

		sizes := Knee(curve, footprints, tiers)

		Expect(sizes).To(Equal([]int{0, 1 * mib, 0}))
	})

	It("should never panic on arbitrary input", func() {
		Expect(func() {
			Knee(Curve{0, math.NaN(), math.Inf(1)}, footprints, tiers)
			Knee(Curve{}, footprints, tiers)
			Knee(flatCurve(), nil, tiers)
		}).NotTo(Panic())
	})
})

var _ = Describe("MaxRatio", func() {
	ways := []int{2, 4, 6, 8, 10, 12, 14, 16, 20, 24, 32}

	It("should report the candidate before the largest jump", func() {
		curve := Curve{1, 1, 1.5, 1.5, 1.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5}

		Expect(MaxRatio(curve, ways, 1.3, 8)).To(Equal(10))
	})

	It("should prefer the largest jump over the first", func() {
		curve := Curve{1, 1.4, 1.4, 1.4, 1.4, 4.2, 4.2, 4.2, 4.2, 4.2, 4.2}

		Expect(MaxRatio(curve, ways, 1.3, 8)).To(Equal(10))
	})

	It("should keep the earliest of tied jumps", func() {
		curve := Curve{1, 2, 2, 4, 4, 4, 4, 4, 4, 4, 4}

		Expect(MaxRatio(curve, ways, 1.3, 8)).To(Equal(2))
	})

	It("should fall back on a flat curve", func() {
		curve := Curve{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

		Expect(MaxRatio(curve, ways, 1.3, 8)).To(Equal(8))
	})

	It("should ignore jumps below the threshold", func() {
		curve := Curve{1, 1.2, 1.44, 1.7, 2.0, 2.4, 2.8, 3.3, 3.9, 4.6, 5.5}

		Expect(MaxRatio(curve, ways, 1.25, 64)).To(Equal(64))
	})

	It("should fall back on empty and single-point curves", func() {
		Expect(MaxRatio(Curve{}, ways, 1.3, 8)).To(Equal(8))
		Expect(MaxRatio(Curve{1}, ways, 1.3, 8)).To(Equal(8))
	})

	It("should only return a candidate or the fallback", func() {
		curves := []Curve{
			{0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0},
			{math.NaN(), 1, 2, math.Inf(1), 4, 1, 1, 1, 1, 1, 1},
		}

		for _, curve := range curves {
			value := MaxRatio(curve, ways, 1.3, 8)
			Expect(append([]int{8}, ways...)).To(ContainElement(value))
		}
	})
})
