package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/carecost/carecost/estimate"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the estimation pipeline topology as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Topology is fixed at construction; no collaborators are invoked.
		pipeline := estimate.NewPipeline(nil, nil, nil, nil, nil)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pipeline.Routes())
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
}
