package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped by the release build.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the memprobe version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("memprobe " + version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
