package client

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/podquery/internal/eval"
	"github.com/cloo-solutions/podquery/internal/fixtures"
	"github.com/cloo-solutions/podquery/internal/pipeline"
	"github.com/cloo-solutions/podquery/internal/podcastindex"
	"github.com/cloo-solutions/podquery/internal/storage"
)

// offlineCredential signs requests that never leave the process.
const offlineCredential = "offline"

type evalFlags struct {
	cases       string
	offline     bool
	search      bool
	maxResults  int
	concurrency int
	format      string
	upload      string
	failUnder   float64
}

// EvalCmd creates the eval command.
func EvalCmd() *cobra.Command {
	var f evalFlags

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score interpretation against test cases",
		Long: `Runs every test case through the pipeline and reports which ones
produced the expected category and query.

Cases come from --cases (JSON5, either {"cases": [...]} or a bare array)
or the built-in set. --offline answers every case from a replayed model
reply and a recorded search payload, so no network access is needed.`,
		Example: `  podquery eval --offline
  podquery eval --cases cases.json5 --format yaml
  podquery eval --search --upload eval/nightly.json --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.cases, "cases", "", "JSON5 test case file (default: built-in cases)")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "Replay recorded replies instead of calling services")
	cmd.Flags().BoolVarP(&f.search, "search", "s", false, "Also run the search stage")
	cmd.Flags().IntVarP(&f.maxResults, "max", "n", 0, "Maximum number of search results (default from config)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", pipeline.DefaultConcurrency, "Maximum concurrent runs")
	cmd.Flags().StringVarP(&f.format, "format", "f", eval.FormatText, "Report format: text, json or yaml")
	cmd.Flags().StringVar(&f.upload, "upload", "", "Upload the report to S3 under this key")
	cmd.Flags().Float64Var(&f.failUnder, "fail-under", 0, "Exit non-zero when the pass rate (percent) is below this")

	return cmd
}

func runEval(cmd *cobra.Command, f evalFlags) error {
	cases, err := eval.LoadCases(f.cases)
	if err != nil {
		return err
	}

	d, err := loadDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	format := f.format
	if d.outputJSON {
		format = eval.FormatJSON
	}

	var p *pipeline.Pipeline
	if f.offline {
		p, err = offlinePipeline(d, cases, f.search)
	} else {
		p, err = d.pipeline(nil, f.search)
	}
	if err != nil {
		return err
	}

	report := eval.Run(cmd.Context(), p, cases, eval.Options{
		Concurrency: f.concurrency,
		Search:      f.search,
		MaxResults:  f.maxResults,
		Offline:     f.offline,
	})

	var buf bytes.Buffer
	if err := eval.Write(&buf, report, format); err != nil {
		return err
	}
	if _, err := d.out.Write(buf.Bytes()); err != nil {
		return err
	}

	if f.upload != "" {
		link, err := uploadReport(cmd, d, f.upload, format, buf.Bytes())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report uploaded: %s\n", link)
	}

	if report.Summary.PassRate < f.failUnder {
		return fmt.Errorf("pass rate %.1f%% is below %.1f%%", report.Summary.PassRate, f.failUnder)
	}
	return nil
}

// offlinePipeline answers cases from the oracle transport and, when
// searching, from a recorded PodcastIndex payload.
func offlinePipeline(d *deps, cases []fixtures.TestCase, withSearch bool) (*pipeline.Pipeline, error) {
	interp, err := d.interpreter(fixtures.NewOracleTransport(cases...))
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{MaxResults: d.cfg.MaxResults, Logger: d.logger}
	if withSearch {
		doer, err := fixtures.NewSearchDoer(fixtures.SearchThreeFeedsNoCount)
		if err != nil {
			return nil, err
		}
		searcher, err := podcastindex.NewClient(podcastindex.Config{
			APIKey:     offlineCredential,
			APISecret:  offlineCredential,
			HTTPClient: doer,
			History:    d.history,
			Logger:     d.logger,
		})
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, searcher)
		opts.Searcher = searcher
	}
	return pipeline.New(interp, opts), nil
}

func uploadReport(cmd *cobra.Command, d *deps, key, format string, body []byte) (string, error) {
	store, err := storage.FromConfig(cmd.Context(), d.cfg)
	if err != nil {
		return "", err
	}
	return store.UploadReport(cmd.Context(), key, eval.ContentType(format), body)
}
