// The memprobe command measures the memory hierarchy of the machine it
// runs on through timing alone. It reports the cache line size, the data
// cache sizes, the L1 associativity, the page size, and the TLB reach,
// and can cross-check the measurements against what the kernel and the
// processor report about themselves.
package main

import (
	"github.com/joho/godotenv"
)

func main() {
	// A .env file next to the binary is optional.
	_ = godotenv.Load()

	Execute()
}
