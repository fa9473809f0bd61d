package client

import (
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/podquery/internal/domain"
)

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	category := newCategoryFlag(domain.CategoryByTerm)
	var maxResults int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search PodcastIndex directly",
		Long:  "Searches PodcastIndex with an explicit category, skipping interpretation.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], category.Category(), maxResults)
		},
	}

	cmd.Flags().VarP(category, "category", "c", "Search category: byperson, bytitle or byterm")
	cmd.Flags().IntVarP(&maxResults, "max", "n", 0, "Maximum number of results (default from config)")

	return cmd
}

func runSearch(cmd *cobra.Command, raw string, category domain.Category, maxResults int) error {
	query, err := domain.SanitizeQuery(raw)
	if err != nil {
		return err
	}

	d, err := loadDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	searcher, err := d.searcher()
	if err != nil {
		return err
	}

	if maxResults <= 0 {
		maxResults = d.cfg.MaxResults
	}

	outcome, err := searcher.Search(cmd.Context(), category, query.String(), maxResults)
	if err != nil {
		return err
	}

	if d.outputJSON {
		return printJSON(d.out, outcome)
	}
	printOutcome(d.out, outcome)
	return nil
}
