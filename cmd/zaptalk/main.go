package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zaptalkhq/zaptalk/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:   "zaptalk",
		Short: "ZapTalk messaging backend",
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the API server and webhook ingestion pipeline",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	})

	root.AddCommand(newTokenCommand())

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.GetInfo())
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
