package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"funstart/internal/buildpipeline"
	"funstart/internal/config"
	"funstart/internal/host"
	"funstart/internal/launch"
	"funstart/internal/paths"
	"funstart/internal/session"
)

var startCmd = &cobra.Command{
	Use:   "start " + config.Usage,
	Short: "Stage and build a branch, then start fuzzing it",
	Long: `start stages a fresh copy of the branch checkout under the desktop root,
applies up to two patches, builds the requested shell and its opposite
profile, and starts the jsfunfuzz harness on the requested one.

Branches: 192, mc, tm, jm, im, mi, larch (see "funstart branches").`,
	Example: `  funstart start 32 opt mc
  funstart start 64 dbg im patch ~/fix.diff valgrind`,
	Args: cobra.ArbitraryArgs,
	RunE: runStart,
}

func init() {
	startCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	startCmd.Flags().Bool("print-commands", false, "print build commands as they run")
	startCmd.Flags().Bool("no-launch", false, "prepare the session but do not start the harness")
}

func runStart(cmd *cobra.Command, args []string) error {
	opts, err := readStartOptions(cmd)
	if err != nil {
		return err
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to find home directory: %w", err)
	}
	settings, err := loadSettings(opts.configPath, userHome)
	if err != nil {
		return err
	}
	h, err := host.Detect()
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}
	cfg, err := config.Resolve(args, h, settings, cwd)
	if err != nil {
		return err
	}
	layout := paths.NewLayout(cfg.Paths, userHome)
	logger.Debug("resolved configuration",
		zap.String("arch", cfg.Arch.String()),
		zap.String("profile", string(cfg.Profile)),
		zap.String("branch", string(cfg.Branch)),
		zap.Strings("patches", cfg.Patches),
		zap.Bool("valgrind", cfg.Valgrind),
		zap.String("host", h.OS+"/"+h.Machine),
		zap.Int("timeout", cfg.Timeout))

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := host.EnableCoreDumps(); err != nil {
		logger.Warn("could not enable core dumps", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	useUI := opts.ui.active(out, opts.quiet)
	runner := buildpipeline.Runner{PrintCommands: opts.printCommands, Log: logger}
	if useUI {
		// Build output would tear the progress view.
		runner.Stdout = io.Discard
	}
	tc := buildpipeline.DefaultToolchain(runner)
	prepare := func(ctx context.Context, sink buildpipeline.ProgressSink) (buildpipeline.Session, error) {
		return buildpipeline.Prepare(ctx, tc, buildpipeline.Request{
			Config:   cfg,
			Layout:   layout,
			Progress: sink,
			Log:      logger,
		})
	}

	var sess buildpipeline.Session
	title := fmt.Sprintf("%s-bit %s %s", cfg.Arch, cfg.Profile, cfg.Branch)
	switch {
	case useUI:
		sess, err = runWithUI(ctx, out, title, rowKeys(cfg.Profile), prepare)
	case opts.quiet:
		sess, err = prepare(ctx, nil)
	default:
		sess, err = prepare(ctx, lineSink{out: out})
	}
	if err != nil {
		return err
	}

	if opts.timings {
		if err := printStageTimings(out, sess.Timings); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "fuzzCmd is: %s\n", sess.Command)

	rec, err := session.New(cfg, sess, time.Now())
	if err != nil {
		return err
	}
	if err := session.Write(session.Path(sess.Staging.Root), rec); err != nil {
		return fmt.Errorf("failed to write session record: %w", err)
	}
	if opts.noLaunch {
		return nil
	}

	if err := launch.Banner(out, cfg, time.Now()); err != nil {
		return err
	}
	return launch.Run(ctx, launch.ExecHarness{WaitDelay: 10 * time.Second}, sess.Command, sess.Staging, out)
}

// loadSettings reads the settings file, or returns the defaults when there is
// none.
func loadSettings(explicit, userHome string) (config.Settings, error) {
	path, ok, err := config.FindSettings(explicit, userHome)
	if err != nil {
		return config.Settings{}, err
	}
	if !ok {
		return config.DefaultSettings(), nil
	}
	logger.Debug("loading settings", zap.String("path", path))
	return config.LoadSettings(path)
}

func rowKeys(profile config.Profile) []string {
	rows := buildpipeline.Rows(profile)
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.Key())
	}
	return keys
}

var (
	stepDoneColor  = color.New(color.FgGreen)
	stepErrorColor = color.New(color.FgRed)
	stepSkipColor  = color.New(color.FgYellow)
)

// lineSink prints one line per finished step when the TUI is off.
type lineSink struct {
	out io.Writer
}

func (s lineSink) OnEvent(ev buildpipeline.Event) {
	var status string
	switch ev.Status {
	case buildpipeline.StatusDone:
		status = stepDoneColor.Sprint("done")
	case buildpipeline.StatusSkipped:
		status = stepSkipColor.Sprint("skip")
	case buildpipeline.StatusError:
		status = stepErrorColor.Sprint("fail")
	default:
		return
	}
	line := fmt.Sprintf("%s %-16s", status, ev.Key())
	if ev.Elapsed > 0 {
		line += fmt.Sprintf(" %8s", ev.Elapsed.Round(time.Millisecond))
	}
	if ev.Detail != "" {
		line += " " + ev.Detail
	}
	fmt.Fprintln(s.out, line)
}
