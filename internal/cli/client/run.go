package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/podquery/internal/api/handlers"
	"github.com/cloo-solutions/podquery/internal/domain"
	"github.com/cloo-solutions/podquery/internal/pipeline"
	"github.com/cloo-solutions/podquery/internal/session"
)

type runOutput struct {
	Results []domain.PipelineResult `json:"results"`
	History []session.Entry         `json:"history,omitempty"`
}

// remoteResult is a PipelineResult as returned by podqueryd. It is only
// decoded; the embedded MarshalJSON would drop Error.
type remoteResult struct {
	domain.PipelineResult
	Error *domain.ErrorView `json:"error,omitempty"`
}

// RunCmd creates the run command.
func RunCmd() *cobra.Command {
	var (
		search      bool
		maxResults  int
		concurrency int
		showHistory bool
		server      string
	)

	cmd := &cobra.Command{
		Use:   "run <query> [query...]",
		Short: "Interpret queries and optionally search",
		Long: `Runs every query through the full pipeline: sanitize, interpret,
normalize and, with --search, a PodcastIndex lookup.

Queries run concurrently; results are printed in argument order. With
--server (or PODQUERY_SERVER_URL) the queries are sent to podqueryd.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.BatchOptions{
				RunOptions:  pipeline.RunOptions{Search: search, MaxResults: maxResults},
				Concurrency: concurrency,
			}
			if url := serverURL(cmd); url != "" {
				return runRemote(cmd, url, args, opts.RunOptions)
			}
			return runLocal(cmd, args, opts, showHistory)
		},
	}

	cmd.Flags().BoolVarP(&search, "search", "s", false, "Search PodcastIndex with the interpretation")
	cmd.Flags().IntVarP(&maxResults, "max", "n", 0, "Maximum number of search results (default from config)")
	cmd.Flags().IntVar(&concurrency, "concurrency", pipeline.DefaultConcurrency, "Maximum concurrent runs")
	cmd.Flags().BoolVar(&showHistory, "show-history", false, "Print the redacted session history afterwards")
	cmd.Flags().StringVar(&server, "server", "", "podqueryd base URL")

	return cmd
}

func runLocal(cmd *cobra.Command, inputs []string, opts pipeline.BatchOptions, showHistory bool) error {
	d, err := loadDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	p, err := d.pipeline(nil, opts.Search)
	if err != nil {
		return err
	}

	results := p.RunBatch(cmd.Context(), inputs, opts)

	if d.outputJSON {
		out := runOutput{Results: results}
		if showHistory {
			out.History = d.history.Entries()
		}
		if err := printJSON(d.out, out); err != nil {
			return err
		}
	} else {
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(d.out)
			}
			printResult(d.out, res)
		}
		if showHistory {
			fmt.Fprintln(d.out)
			printHistory(d.out, d.history.Entries())
		}
	}

	return failedRuns(len(results), func(i int) bool { return results[i].Error != nil })
}

func runRemote(cmd *cobra.Command, url string, inputs []string, opts pipeline.RunOptions) error {
	d, err := loadDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	api := NewAPIClient(url, d.cfg.RequestTimeout)
	defer api.Close()

	raw := make([]json.RawMessage, 0, len(inputs))
	results := make([]remoteResult, 0, len(inputs))
	for _, input := range inputs {
		resp, err := api.Post(cmd.Context(), "/v1/queries", handlers.QueryRequest{
			Query:      input,
			Search:     opts.Search,
			MaxResults: opts.MaxResults,
		})
		if err != nil {
			return err
		}

		var res remoteResult
		if err := json.Unmarshal(resp.Data, &res); err != nil {
			return fmt.Errorf("failed to parse result: %w", err)
		}
		raw = append(raw, resp.Data)
		results = append(results, res)
	}

	if d.outputJSON {
		if err := printJSON(d.out, raw); err != nil {
			return err
		}
	} else {
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(d.out)
			}
			printResult(d.out, res.PipelineResult)
			if res.Error != nil {
				fmt.Fprintf(d.out, "Error:       %s: %s", res.Error.Stage, res.Error.Reason)
				if res.Error.Message != "" {
					fmt.Fprintf(d.out, ": %s", res.Error.Message)
				}
				fmt.Fprintln(d.out)
			}
		}
	}

	return failedRuns(len(results), func(i int) bool { return results[i].Error != nil })
}

func failedRuns(total int, failed func(int) bool) error {
	n := 0
	for i := 0; i < total; i++ {
		if failed(i) {
			n++
		}
	}
	if n > 0 {
		return fmt.Errorf("%d of %d runs failed", n, total)
	}
	return nil
}
