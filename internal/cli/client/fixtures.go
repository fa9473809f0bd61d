package client

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/podquery/internal/fixtures"
	"github.com/cloo-solutions/podquery/internal/pipeline"
)

type fixtureList struct {
	Replies        []fixtureEntry `json:"replies"`
	SearchPayloads []fixtureEntry `json:"search_payloads"`
	Cases          int            `json:"cases"`
}

type fixtureEntry struct {
	Name   string `json:"name"`
	Status int    `json:"status"`
}

// FixturesCmd creates the fixtures command group.
func FixturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Inspect and replay recorded replies",
	}

	cmd.AddCommand(fixturesListCmd())
	cmd.AddCommand(fixturesReplayCmd())

	return cmd
}

func fixturesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded model replies and search payloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := fixtureList{Cases: len(fixtures.Cases())}
			for _, name := range fixtures.ReplyNames() {
				list.Replies = append(list.Replies, fixtureEntry{Name: name, Status: fixtures.MustReply(name).Status})
			}
			for _, name := range fixtures.SearchPayloadNames() {
				p, _ := fixtures.LookupSearchPayload(name)
				list.SearchPayloads = append(list.SearchPayloads, fixtureEntry{Name: name, Status: p.Status})
			}

			out := cmd.OutOrStdout()
			if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
				return printJSON(out, list)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tSTATUS")
			for _, e := range list.Replies {
				fmt.Fprintf(w, "reply\t%s\t%d\n", e.Name, e.Status)
			}
			for _, e := range list.SearchPayloads {
				fmt.Fprintf(w, "search\t%s\t%d\n", e.Name, e.Status)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d built-in test cases\n", list.Cases)
			return nil
		},
	}
}

func fixturesReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <scenario> [query]",
		Short: "Run a query against a recorded model reply",
		Long: `Interprets the query with the named reply scenario in place of the
model. The query defaults to "joe rogan".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := "joe rogan"
			if len(args) == 2 {
				query = args[1]
			}
			return runReplay(cmd, args[0], query)
		},
	}
}

func runReplay(cmd *cobra.Command, scenario, query string) error {
	transport, err := fixtures.NewScenarioTransport(scenario)
	if err != nil {
		return err
	}

	d, err := loadDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	p, err := d.pipeline(transport, false)
	if err != nil {
		return err
	}

	res := p.Run(cmd.Context(), query, pipeline.RunOptions{})
	if d.outputJSON {
		if err := printJSON(d.out, res); err != nil {
			return err
		}
	} else {
		printResult(d.out, res)
	}

	if res.Error != nil {
		return res.Error
	}
	return nil
}
