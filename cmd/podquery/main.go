package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/podquery/internal/cli"
	"github.com/cloo-solutions/podquery/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := client.RootCmd(version)

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
