package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Mercurial identifies checkouts with the hg command line.
type Mercurial struct {
	// Binary defaults to "hg".
	Binary string
}

// Identify reads the working-copy parent and compares it with the default tip.
func (m Mercurial) Identify(ctx context.Context) (Revision, error) {
	out, err := m.output(ctx, "identify", "-i", "-n")
	if err != nil {
		return Revision{}, err
	}
	rev, err := parseIdentify(out)
	if err != nil {
		return Revision{}, err
	}
	tip, err := m.output(ctx, "log", "-r", "default", "--template", "{node|short}")
	if err != nil {
		return Revision{}, err
	}
	rev.Tip = strings.TrimSpace(tip) == rev.Hash
	return rev, nil
}

func (m Mercurial) output(ctx context.Context, args ...string) (string, error) {
	bin := m.Binary
	if bin == "" {
		bin = "hg"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
		}
		return "", fmt.Errorf("%s %s: %s", bin, strings.Join(args, " "), msg)
	}
	return string(out), nil
}

// parseIdentify parses `hg identify -i -n` output such as "1a2b3c4d5e6f+ 1234+".
// A trailing + marks uncommitted changes and is dropped.
func parseIdentify(out string) (Revision, error) {
	fields := strings.Fields(out)
	if len(fields) < 2 {
		return Revision{}, fmt.Errorf("unexpected hg identify output %q", strings.TrimSpace(out))
	}
	hash := strings.TrimRight(fields[0], "+")
	num := strings.TrimRight(fields[1], "+")
	if hash == "" || num == "" {
		return Revision{}, fmt.Errorf("unexpected hg identify output %q", strings.TrimSpace(out))
	}
	return Revision{Number: num, Hash: hash}, nil
}
