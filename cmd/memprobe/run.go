package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/memprobe/coreclass"
	"github.com/sarchlab/memprobe/report"
	"github.com/sarchlab/memprobe/session"
)

// skipTokens maps the names accepted by --skip to probe names.
var skipTokens = map[string]string{
	"linesize":      session.LineSizeProbeName,
	"cachesize":     session.CacheSizeProbeName,
	"associativity": session.AssociativityProbeName,
	"pagesize":      session.PageSizeProbeName,
	"tlb":           session.TLBProbeName,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Probe the memory hierarchy and print the results.",
	Long: "`run` measures the cache line size, the data cache sizes, the " +
		"L1 associativity, the page size, and the TLB reach on the current " +
		"machine and prints one line per measured parameter.",
	Run: func(cmd *cobra.Command, args []string) {
		envOverride(cmd, "db", "MEMPROBE_DB")
		envOverride(cmd, "port", "MEMPROBE_PORT")
		envOverride(cmd, "cores", "MEMPROBE_CORE_CLASS")

		classes := parseClasses(cmd)
		skip := parseSkips(cmd)

		serve, _ := cmd.Flags().GetBool("serve")
		if serve && len(classes) > 1 {
			fmt.Fprintln(os.Stderr,
				"Error: --serve supports a single core class")
			os.Exit(1)
		}

		trials, _ := cmd.Flags().GetInt("trials")
		if trials < 1 {
			fmt.Fprintln(os.Stderr, "Error: --trials must be at least 1")
			os.Exit(1)
		}

		for _, class := range classes {
			if len(classes) > 1 {
				fmt.Printf("\n=== %s ===\n", report.ClassHeading(class))
			}

			runClass(cmd, class, skip, len(classes) > 1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("cores", "default",
		"Comma-separated core classes to probe "+
			"(default, performance, efficiency)")
	runCmd.Flags().String("db", "",
		"Record measurements into this SQLite file")
	runCmd.Flags().Int("trials", 10, "TLB majority-vote trials")
	runCmd.Flags().Bool("serve", false,
		"Serve live progress over HTTP while probing")
	runCmd.Flags().Int("port", 0,
		"Port for the live progress server (0 picks a free port)")
	runCmd.Flags().Int64("seed", 0, "Seed for the pointer-chase layouts")
	runCmd.Flags().String("skip", "",
		"Comma-separated probes to skip "+
			"(linesize, cachesize, associativity, pagesize, tlb)")
	runCmd.Flags().BoolP("verbose", "v", false,
		"Log each sweep point to stderr")
}

func runClass(
	cmd *cobra.Command,
	class coreclass.Class,
	skip []string,
	multi bool,
) {
	b := session.MakeBuilder().
		WithCoreClass(class).
		WithSkippedProbes(skip...)

	b = applyRecording(cmd, b, class, multi)
	b = applyMonitoring(cmd, b)
	b = applyTuning(cmd, b)

	s := b.Build()
	results := s.Run()
	s.Terminate()

	fmt.Print(report.Format(results))
}

func applyRecording(
	cmd *cobra.Command,
	b session.Builder,
	class coreclass.Class,
	multi bool,
) session.Builder {
	db, _ := cmd.Flags().GetString("db")
	if db == "" {
		return b
	}

	// Each class records into its own file. The recorder refuses to
	// overwrite an existing one.
	if multi {
		db = fmt.Sprintf("%s_%s", db, class)
	}

	return b.WithOutputFileName(db)
}

func applyMonitoring(cmd *cobra.Command, b session.Builder) session.Builder {
	serve, _ := cmd.Flags().GetBool("serve")
	if !serve {
		return b.WithoutMonitoring()
	}

	port, _ := cmd.Flags().GetInt("port")
	if port > 0 {
		b = b.WithMonitorPort(port)
	}

	return b
}

func applyTuning(cmd *cobra.Command, b session.Builder) session.Builder {
	trials, _ := cmd.Flags().GetInt("trials")
	b = b.WithTLBTrials(trials)

	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		b = b.WithSeed(seed)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		b = b.WithVerbose()
	}

	return b
}

func parseClasses(cmd *cobra.Command) []coreclass.Class {
	coresFlag, _ := cmd.Flags().GetString("cores")

	var classes []coreclass.Class

	for _, token := range strings.Split(coresFlag, ",") {
		class, err := coreclass.ParseClass(token)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}

		classes = append(classes, class)
	}

	return classes
}

func parseSkips(cmd *cobra.Command) []string {
	skipFlag, _ := cmd.Flags().GetString("skip")
	if skipFlag == "" {
		return nil
	}

	var names []string

	for _, token := range strings.Split(skipFlag, ",") {
		name, ok := skipTokens[strings.ToLower(strings.TrimSpace(token))]
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown probe %q\n", token)
			os.Exit(1)
		}

		names = append(names, name)
	}

	return names
}
