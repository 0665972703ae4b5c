package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/wsanon/pkg/wsanon/output"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List run report formats",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range output.Available() {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
