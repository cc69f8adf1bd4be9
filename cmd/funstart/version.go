package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"funstart/internal/version"
)

type versionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go"`
	Platform  string `json:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show funstart build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := cmd.Flags().GetBool("json")
		if err != nil {
			return fmt.Errorf("failed to get json flag: %w", err)
		}
		info := collectVersionInfo(debug.ReadBuildInfo)
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		return renderVersion(cmd.OutOrStdout(), info)
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "print build information as JSON")
}

// collectVersionInfo prefers the ldflags values and falls back to the VCS
// stamp the go tool embeds in module builds.
func collectVersionInfo(readBuild func() (*debug.BuildInfo, bool)) versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version.Version),
		GitCommit: strings.TrimSpace(version.GitCommit),
		BuildDate: strings.TrimSpace(version.BuildDate),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	if bi, ok := readBuild(); ok && bi != nil {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "" {
					info.BuildDate = s.Value
				}
			}
		}
	}
	return info
}

func renderVersion(out io.Writer, info versionInfo) error {
	var b strings.Builder
	fmt.Fprintf(&b, "funstart %s (%s, %s)\n", version.Colorize(info.Version), info.GoVersion, info.Platform)
	if info.GitCommit != "" {
		fmt.Fprintf(&b, "commit: %s\n", info.GitCommit)
	}
	if info.BuildDate != "" {
		fmt.Fprintf(&b, "built:  %s\n", info.BuildDate)
	}
	_, err := io.WriteString(out, b.String())
	return err
}
