package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guilhermexp/zenith-tasks/cmd/zenithctl/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "zenithctl",
		Short: "Offline analysis tool for Zenith Tasks",
		Long:  "CLI tool for running prioritization, pattern and conflict analysis over an items file",
	}

	rootCmd.AddCommand(commands.NewAnalyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
