package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/memprobe/coreclass"
	"github.com/sarchlab/memprobe/cpuid"
	"github.com/sarchlab/memprobe/report"
	"github.com/sarchlab/memprobe/sysfs"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Print what the kernel and the processor report about the caches.",
	Long: "`topology` prints the cache hierarchy as the kernel and CPUID " +
		"report it, so probed values can be checked against the hardware's " +
		"own description.",
	Run: func(cmd *cobra.Command, args []string) {
		cpu, _ := cmd.Flags().GetInt("cpu")

		infos, err := sysfs.DescribeCPU(sysfs.DefaultRoot, cpu)
		if err != nil {
			fmt.Fprintf(os.Stderr,
				"The kernel does not expose the cache topology here (%s).\n",
				err)
		} else {
			fmt.Print(report.FormatTopology(cpu, infos))
		}

		fmt.Println()
		fmt.Print(report.FormatCPUID(cpuid.Describe()))

		fmt.Println()
		fmt.Printf("Kernel Page Size: %d bytes\n", sysfs.KernelPageSize())

		printCoreSets()
	},
}

func init() {
	rootCmd.AddCommand(topologyCmd)

	topologyCmd.Flags().Int("cpu", 0, "CPU whose cache topology to print")
}

func printCoreSets() {
	performance, efficiency, err := coreclass.Sets(coreclass.DefaultRoot)
	if err != nil {
		return
	}

	fmt.Printf("Performance CPUs: %v\n", performance)
	fmt.Printf("Efficiency CPUs:  %v\n", efficiency)
}
