package report_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memprobe/coreclass"
	"github.com/sarchlab/memprobe/cpuid"
	"github.com/sarchlab/memprobe/report"
	"github.com/sarchlab/memprobe/session"
	"github.com/sarchlab/memprobe/sysfs"
)

var _ = Describe("Format", func() {
	It("should render a full set of results", func() {
		out := report.Format(session.Results{
			LineSize:   64,
			L1:         32 * 1024,
			L2:         1024 * 1024,
			L3:         8 * 1024 * 1024,
			Ways:       8,
			PageSize:   4096,
			TLBEntries: 64,
		})

		Expect(out).To(Equal("Cache Line Size: 64 bytes\n" +
			"L1 Data Cache:   32 KB\n" +
			"L2 Cache:        1 MB\n" +
			"L3 Cache:        8 MB\n" +
			"L1 Associativity: 8-way (heuristic)\n" +
			"Page Size: 4096 bytes (4 KB)\n" +
			"TLB Size:  64 entries\n"))
	})

	It("should render a sub-megabyte L2 in KB", func() {
		out := report.Format(session.Results{L2: 512 * 1024})

		Expect(out).To(Equal("L2 Cache:        512 KB\n"))
	})

	It("should leave out parameters that were not measured", func() {
		out := report.Format(session.Results{
			LineSize: 128,
			PageSize: 16384,
		})

		Expect(out).To(Equal("Cache Line Size: 128 bytes\n" +
			"Page Size: 16384 bytes (16 KB)\n"))
		Expect(out).NotTo(ContainSubstring("L1"))
		Expect(out).NotTo(ContainSubstring("TLB"))
	})

	It("should render nothing when everything was skipped", func() {
		Expect(report.Format(session.Results{})).To(BeEmpty())
	})
})

var _ = Describe("ClassHeading", func() {
	It("should name each core class", func() {
		Expect(report.ClassHeading(coreclass.Performance)).
			To(Equal("Performance Cores (P-cores)"))
		Expect(report.ClassHeading(coreclass.Efficiency)).
			To(Equal("Efficiency Cores (E-cores)"))
		Expect(report.ClassHeading(coreclass.Default)).
			To(Equal("Default Core"))
	})
})

var _ = Describe("FormatTopology", func() {
	It("should render one block per cache index", func() {
		out := report.FormatTopology(0, []sysfs.CacheInfo{
			{
				Index:         0,
				Level:         1,
				Type:          "Data",
				SizeBytes:     48 * 1024,
				LineSizeBytes: 64,
				Ways:          12,
				SharedCPUList: "0-1",
			},
			{
				Index:     2,
				Level:     2,
				Type:      "Unified",
				SizeBytes: 2 * 1024 * 1024,
			},
		})

		Expect(out).To(Equal(
			"=== Processor Cache Info (CPU 0) ===\n" +
				"\n[Cache Level Index 0]:\n" +
				"  Level:         L1\n" +
				"  Type:          Data\n" +
				"  Size:          48 KB\n" +
				"  Associativity: 12-way\n" +
				"  Line Size:     64 bytes\n" +
				"  Shared CPUs:   0-1\n" +
				"\n[Cache Level Index 2]:\n" +
				"  Level:         L2\n" +
				"  Type:          Unified\n" +
				"  Size:          2 MB\n"))
	})

	It("should render the heading alone when no caches are listed", func() {
		out := report.FormatTopology(3, nil)

		Expect(out).To(Equal("=== Processor Cache Info (CPU 3) ===\n"))
	})
})

var _ = Describe("FormatCPUID", func() {
	It("should render the values the processor exposes", func() {
		out := report.FormatCPUID(cpuid.Info{
			Brand:    "Example CPU",
			LineSize: 64,
			L1Data:   32 * 1024,
			L1Inst:   32 * 1024,
			L2:       512 * 1024,
			L3:       32 * 1024 * 1024,
		})

		Expect(out).To(Equal("=== CPUID Reported Values ===\n" +
			"Brand:           Example CPU\n" +
			"Cache Line Size: 64 bytes\n" +
			"L1 Data Cache:   32 KB\n" +
			"L1 Inst Cache:   32 KB\n" +
			"L2 Cache:        512 KB\n" +
			"L3 Cache:        32 MB\n"))
	})

	It("should leave out values the processor does not expose", func() {
		out := report.FormatCPUID(cpuid.Info{LineSize: 64})

		Expect(out).To(Equal("=== CPUID Reported Values ===\n" +
			"Cache Line Size: 64 bytes\n"))
	})
})
