package client

import (
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/podquery/internal/cli"
)

// RootCmd builds the podquery command tree.
func RootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "podquery",
		Short: "podquery - natural-language podcast search",
		Long: `podquery turns a natural-language request into a podcast search.

Environment variables:
  ANTHROPIC_API_KEY         Model API key (or OPENAI_API_KEY with PODQUERY_MODEL_PROVIDER=openai)
  PODCASTINDEX_API_KEY      PodcastIndex API key
  PODCASTINDEX_API_SECRET   PodcastIndex API secret
  PODQUERY_CREDENTIALS_FILE KEY=value file read for missing keys (default: gradle.properties)
  PODQUERY_SERVER_URL       podqueryd URL used by 'run' instead of calling services directly`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(InterpretCmd())
	rootCmd.AddCommand(SearchCmd())
	rootCmd.AddCommand(RunCmd())
	rootCmd.AddCommand(EvalCmd())
	rootCmd.AddCommand(FixturesCmd())

	return rootCmd
}
