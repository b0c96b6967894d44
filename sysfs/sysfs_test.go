package sysfs

import (
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// writeIndex lays out one cache index directory with the given entries.
func writeIndex(root string, cpu, index int, entries map[string]string) {
	dir := filepath.Join(
		root, "devices", "system", "cpu",
		fmt.Sprintf("cpu%d", cpu), "cache", fmt.Sprintf("index%d", index))
	Expect(os.MkdirAll(dir, 0o755)).To(Succeed())

	for name, value := range entries {
		err := os.WriteFile(
			filepath.Join(dir, name), []byte(value+"\n"), 0o644)
		Expect(err).ToNot(HaveOccurred())
	}
}

var _ = Describe("DescribeCPU", func() {
	It("should read every cache index of a CPU", func() {
		root := GinkgoT().TempDir()
		writeIndex(root, 0, 0, map[string]string{
			"level":                 "1",
			"type":                  "Data",
			"size":                  "48K",
			"coherency_line_size":   "64",
			"ways_of_associativity": "12",
			"shared_cpu_list":       "0-1",
		})
		writeIndex(root, 0, 1, map[string]string{
			"level": "1",
			"type":  "Instruction",
			"size":  "32K",
		})
		writeIndex(root, 0, 2, map[string]string{
			"level": "2",
			"type":  "Unified",
			"size":  "2M",
		})

		caches, err := DescribeCPU(root, 0)

		Expect(err).ToNot(HaveOccurred())
		Expect(caches).To(Equal([]CacheInfo{
			{
				Index:         0,
				Level:         1,
				Type:          "Data",
				SizeBytes:     48 * 1024,
				LineSizeBytes: 64,
				Ways:          12,
				SharedCPUList: "0-1",
			},
			{Index: 1, Level: 1, Type: "Instruction", SizeBytes: 32 * 1024},
			{Index: 2, Level: 2, Type: "Unified", SizeBytes: 2 * 1024 * 1024},
		}))
	})

	It("should stop at the first missing index", func() {
		root := GinkgoT().TempDir()
		writeIndex(root, 0, 0, map[string]string{
			"level": "1",
			"type":  "Data",
			"size":  "32K",
		})
		writeIndex(root, 0, 2, map[string]string{
			"level": "3",
			"type":  "Unified",
			"size":  "8M",
		})

		caches, err := DescribeCPU(root, 0)

		Expect(err).ToNot(HaveOccurred())
		Expect(caches).To(HaveLen(1))
	})

	It("should fail on a CPU without cache topology", func() {
		_, err := DescribeCPU(GinkgoT().TempDir(), 0)

		Expect(err).To(HaveOccurred())
	})

	It("should fail on a malformed size", func() {
		root := GinkgoT().TempDir()
		writeIndex(root, 0, 0, map[string]string{
			"level": "1",
			"type":  "Data",
			"size":  "lots",
		})

		_, err := DescribeCPU(root, 0)

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("parseSize", func() {
	It("should scale unit suffixes", func() {
		Expect(parseSize("48K")).To(Equal(48 * 1024))
		Expect(parseSize("2M")).To(Equal(2 * 1024 * 1024))
		Expect(parseSize("1G")).To(Equal(1024 * 1024 * 1024))
	})

	It("should accept plain byte counts", func() {
		Expect(parseSize("512")).To(Equal(512))
	})
})

var _ = Describe("KernelPageSize", func() {
	It("should report a power of two", func() {
		size := KernelPageSize()

		Expect(size).To(BeNumerically(">", 0))
		Expect(size & (size - 1)).To(BeZero())
	})
})
