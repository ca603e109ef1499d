package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// 由构建时 -ldflags "-X" 注入。
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
}

func addVersion(topLevel *cobra.Command) {
	oo := &OutputOptions{}
	shortened := false

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print querydesk version.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if shortened {
				fmt.Fprintln(cmd.OutOrStdout(), Version)
				return nil
			}
			return oo.Write(cmd.OutOrStdout(), versionInfo{
				Version:   Version,
				Commit:    Commit,
				Date:      Date,
				GoVersion: runtime.Version(),
			})
		},
	}
	cmd.Flags().BoolVarP(&shortened, "short", "s", false, "Print just the version number.")
	addOutputArgs(cmd, oo)

	topLevel.AddCommand(cmd)
}
