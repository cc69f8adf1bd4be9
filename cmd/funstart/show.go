package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"funstart/internal/session"
)

var showCmd = &cobra.Command{
	Use:   "show <staging-root|session-file>",
	Short: "Show the session recorded in a staging root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if st, err := os.Stat(path); err == nil && st.IsDir() {
			path = session.Path(path)
		}
		rec, err := session.Read(path)
		if err != nil {
			return err
		}
		return renderSession(cmd.OutOrStdout(), rec)
	},
}

func renderSession(out io.Writer, rec *session.Record) error {
	p := message.NewPrinter(language.English)
	var b strings.Builder
	fmt.Fprintf(&b, "build:    %d-bit %s %s\n", rec.Arch, rec.Profile, rec.Branch)
	tip := ""
	if rec.Tip {
		tip = " (default tip)"
	}
	fmt.Fprintf(&b, "revision: %s:%s%s\n", rec.Revision, rec.Hash, tip)
	for i, patch := range rec.Patches {
		fmt.Fprintf(&b, "patch %d:  %s\n", i+1, patch)
	}
	if rec.Valgrind {
		b.WriteString("valgrind: yes\n")
	}
	fmt.Fprintf(&b, "host:     %s %s (%s)\n", rec.HostOS, rec.HostMachine, rec.HostNode)
	fmt.Fprintf(&b, "staging:  %s\n", rec.StagingRoot)
	kind := "optimized"
	if rec.BinaryDebug {
		kind = "debug"
	}
	b.WriteString(p.Sprintf("binary:   %s (%s %d-bit %s, %d bytes)\n",
		filepath.Base(rec.Binary), rec.BinaryFormat, rec.BinaryArch, kind, rec.BinarySize))
	fmt.Fprintf(&b, "log:      %s\n", rec.LogPath)
	fmt.Fprintf(&b, "created:  %s\n", rec.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(&b, "command:  %s %s\n", rec.Program, strings.Join(rec.Args, " "))
	if len(rec.Timings) > 0 {
		names := make([]string, 0, len(rec.Timings))
		for name := range rec.Timings {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("timings:\n")
		for _, name := range names {
			fmt.Fprintf(&b, "  %-10s %s\n", name, time.Duration(rec.Timings[name]).Round(time.Millisecond))
		}
	}
	_, err := io.WriteString(out, b.String())
	return err
}
