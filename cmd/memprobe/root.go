package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "memprobe",
	Short: "Memprobe infers the memory hierarchy of the current machine " +
		"by timing memory accesses.",
	Long: `Memprobe infers the memory hierarchy of the current machine by ` +
		`timing memory accesses. It measures the cache line size, the data ` +
		`cache sizes, the L1 associativity, the page size, and the TLB ` +
		`reach, without consulting what the hardware reports about itself.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// envOverride applies an environment default to a flag the user left
// unset. A .env file loaded at startup can provide the variables.
func envOverride(cmd *cobra.Command, flag, env string) {
	if cmd.Flags().Changed(flag) {
		return
	}

	if v, ok := os.LookupEnv(env); ok && v != "" {
		_ = cmd.Flags().Set(flag, v)
	}
}
