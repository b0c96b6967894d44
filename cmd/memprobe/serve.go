package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/memprobe/record"
)

var resultsDB record.Reader

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recorded measurements from a results database.",
	Long: "`serve --db [file]` exposes the probe results and latency " +
		"curves recorded by `run --db` as a JSON API.",
	Run: func(cmd *cobra.Command, args []string) {
		envOverride(cmd, "db", "MEMPROBE_DB")
		envOverride(cmd, "port", "MEMPROBE_PORT")

		db, _ := cmd.Flags().GetString("db")
		if db == "" {
			fmt.Fprintln(os.Stderr, "Error: a results database is required")
			os.Exit(1)
		}

		if !strings.HasSuffix(db, ".sqlite3") {
			db += ".sqlite3"
		}

		resultsDB = record.NewReader(db)
		resultsDB.MapTable(record.ProbeResultsTable, record.ProbeResult{})
		resultsDB.MapTable(record.LatencyCurvesTable, record.CurveSample{})

		startResultsServer(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("db", "",
		"SQLite results file recorded by run --db")
	serveCmd.Flags().Int("port", 3001, "HTTP port to listen on")
	serveCmd.Flags().Bool("open", false, "Open the results in a browser")
}

func startResultsServer(cmd *cobra.Command) {
	http.HandleFunc("/api/tables", httpTables)
	http.HandleFunc("/api/results", httpResults)
	http.HandleFunc("/api/curves", httpCurves)

	port, _ := cmd.Flags().GetInt("port")
	addr := fmt.Sprintf(":%d", port)
	fmt.Printf("Listening %s\n", addr)

	if open, _ := cmd.Flags().GetBool("open"); open {
		url := fmt.Sprintf("http://localhost:%d/api/results", port)
		_ = browser.OpenURL(url)
	}

	err := http.ListenAndServe(addr, nil)
	dieOnErr(err)
}

func httpTables(w http.ResponseWriter, r *http.Request) {
	rsp, err := json.Marshal(resultsDB.ListTables())
	dieOnErr(err)

	_, err = w.Write(rsp)
	dieOnErr(err)
}

func httpResults(w http.ResponseWriter, r *http.Request) {
	params := record.QueryParams{OrderBy: "StartedAt ASC"}
	addFilter(&params, "RunID", r.FormValue("run"))
	addFilter(&params, "Probe", r.FormValue("probe"))

	writeQuery(w, r, record.ProbeResultsTable, params)
}

func httpCurves(w http.ResponseWriter, r *http.Request) {
	params := record.QueryParams{OrderBy: "Config ASC"}
	addFilter(&params, "RunID", r.FormValue("run"))
	addFilter(&params, "Probe", r.FormValue("probe"))

	if limit := r.FormValue("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		dieOnErr(err)

		params.Limit = n
	}

	if offset := r.FormValue("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		dieOnErr(err)

		params.Offset = n
	}

	writeQuery(w, r, record.LatencyCurvesTable, params)
}

func addFilter(params *record.QueryParams, column, value string) {
	if value == "" {
		return
	}

	if params.Where != "" {
		params.Where += " AND "
	}

	params.Where += column + " = ?"
	params.Args = append(params.Args, value)
}

type queryRsp struct {
	Total int   `json:"total"`
	Rows  []any `json:"rows"`
}

func writeQuery(
	w http.ResponseWriter,
	r *http.Request,
	table string,
	params record.QueryParams,
) {
	rows, total, err := resultsDB.Query(r.Context(), table, params)
	dieOnErr(err)

	rsp, err := json.Marshal(queryRsp{Total: total, Rows: rows})
	dieOnErr(err)

	_, err = w.Write(rsp)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
