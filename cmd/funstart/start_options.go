package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// uiMode selects the progress view of the start command.
type uiMode uint8

const (
	uiAuto uiMode = iota
	uiOn
	uiOff
)

var uiModeNames = map[string]uiMode{"": uiAuto, "auto": uiAuto, "on": uiOn, "off": uiOff}

func parseUIMode(value string) (uiMode, error) {
	mode, ok := uiModeNames[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return uiAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
	return mode, nil
}

// active reports whether the TUI should draw on out. Auto mode requires a
// terminal; quiet always wins.
func (m uiMode) active(out io.Writer, quiet bool) bool {
	if quiet || m == uiOff {
		return false
	}
	if m == uiOn {
		return true
	}
	f, ok := out.(*os.File)
	return ok && isTerminal(f)
}

type startOptions struct {
	ui            uiMode
	printCommands bool
	noLaunch      bool
	quiet         bool
	timings       bool
	configPath    string
}

func readStartOptions(cmd *cobra.Command) (startOptions, error) {
	var opts startOptions
	flags := cmd.Flags()
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = parseUIMode(uiValue); err != nil {
		return opts, err
	}
	bools := []struct {
		name string
		dst  *bool
	}{
		{"print-commands", &opts.printCommands},
		{"no-launch", &opts.noLaunch},
		{"quiet", &opts.quiet},
		{"timings", &opts.timings},
	}
	for _, b := range bools {
		if *b.dst, err = flags.GetBool(b.name); err != nil {
			return opts, fmt.Errorf("failed to get %s flag: %w", b.name, err)
		}
	}
	if opts.configPath, err = flags.GetString("config"); err != nil {
		return opts, fmt.Errorf("failed to get config flag: %w", err)
	}
	return opts, nil
}
