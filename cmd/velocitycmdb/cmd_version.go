package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scottpeterman/velocitycmdb/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the velocitycmdb build version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(buildinfo.Info())
		return nil
	},
}
