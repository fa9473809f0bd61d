package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cloo-solutions/podquery/internal/domain"
	"github.com/cloo-solutions/podquery/internal/session"
)

func printJSON(w io.Writer, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func printInterpretation(w io.Writer, interp domain.Interpretation) {
	fmt.Fprintf(w, "Category:    %s\n", interp.Category)
	fmt.Fprintf(w, "Query:       %s\n", interp.Query)
	if interp.Explanation != "" {
		fmt.Fprintf(w, "Explanation: %s\n", interp.Explanation)
	}
}

func printOutcome(w io.Writer, outcome *domain.SearchOutcome) {
	if len(outcome.Records) == 0 {
		fmt.Fprintln(w, "No podcasts found.")
		return
	}

	fmt.Fprintf(w, "Found %d podcasts (showing %d):\n\n", outcome.Total, len(outcome.Records))
	for i, r := range outcome.Records {
		fmt.Fprintf(w, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(w, "   by %s", r.Author)
		if r.EpisodeCount > 0 {
			fmt.Fprintf(w, " | %d episodes", r.EpisodeCount)
		}
		fmt.Fprintln(w)
		if r.Description != "" {
			fmt.Fprintf(w, "   %s\n", r.Description)
		}
		if r.URL != "" {
			fmt.Fprintf(w, "   %s\n", r.URL)
		}
		if i < len(outcome.Records)-1 {
			fmt.Fprintln(w, strings.Repeat("-", 40))
		}
	}
}

func printResult(w io.Writer, res domain.PipelineResult) {
	fmt.Fprintf(w, "> %s\n", res.Input)
	if res.Interpretation != nil {
		printInterpretation(w, *res.Interpretation)
	}
	if res.Search != nil {
		fmt.Fprintln(w)
		printOutcome(w, res.Search)
	}
	if res.Error != nil {
		fmt.Fprintf(w, "Error:       %s\n", res.Error.Error())
	}
}

func printHistory(w io.Writer, entries []session.Entry) {
	fmt.Fprintf(w, "Session history (%d calls):\n", len(entries))
	for i, e := range entries {
		status := "no reply"
		if e.Response != nil {
			status = fmt.Sprintf("%d in %.0fms", e.Response.StatusCode, e.Response.ElapsedMS)
		}
		fmt.Fprintf(w, "%d. [%s] %s %s (%s)\n", i+1, e.Service, e.Request.Method, e.Request.URL, status)
		for _, name := range e.Request.HeaderNames() {
			fmt.Fprintf(w, "   %s: %s\n", name, e.Request.Headers[name])
		}
		if e.Error != "" {
			fmt.Fprintf(w, "   error: %s\n", e.Error)
		}
	}
}
