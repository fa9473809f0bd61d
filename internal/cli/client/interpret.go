package client

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/podquery/internal/domain"
	"github.com/cloo-solutions/podquery/internal/fixtures"
	"github.com/cloo-solutions/podquery/internal/llm"
	"github.com/cloo-solutions/podquery/internal/pipeline"
	"github.com/cloo-solutions/podquery/internal/session"
)

type interpretOutput struct {
	Result  domain.PipelineResult `json:"result"`
	History []session.Entry       `json:"history,omitempty"`
}

// InterpretCmd creates the interpret command.
func InterpretCmd() *cobra.Command {
	var (
		fixture string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "interpret <query>",
		Short: "Classify a query without searching",
		Long: `Sanitizes the query and asks the model for a search category and query.

With --fixture the model is replaced by a recorded reply, so no network
access or API key is needed. See 'podquery fixtures list'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterpret(cmd, args[0], fixture, verbose)
		},
	}

	cmd.Flags().StringVar(&fixture, "fixture", "", "Replay a recorded model reply instead of calling the model")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the redacted request and response log")

	return cmd
}

func runInterpret(cmd *cobra.Command, raw, fixture string, verbose bool) error {
	d, err := loadDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	var transport llm.Transport
	if fixture != "" {
		st, err := fixtures.NewScenarioTransport(fixture)
		if err != nil {
			return err
		}
		transport = st
	}

	p, err := d.pipeline(transport, false)
	if err != nil {
		return err
	}

	res := p.Run(cmd.Context(), raw, pipeline.RunOptions{})

	if d.outputJSON {
		out := interpretOutput{Result: res}
		if verbose {
			out.History = d.history.Entries()
		}
		if err := printJSON(d.out, out); err != nil {
			return err
		}
	} else {
		if res.Interpretation != nil {
			printInterpretation(d.out, *res.Interpretation)
		}
		if verbose {
			fmt.Fprintln(d.out)
			printHistory(d.out, d.history.Entries())
		}
	}

	if res.Error != nil {
		return res.Error
	}
	return nil
}
