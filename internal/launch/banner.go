package launch

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"funstart/internal/config"
)

var (
	bannerRule = color.New(color.FgCyan)
	bannerText = color.New(color.FgGreen, color.Bold)
)

// Banner announces the start of a fuzzing session.
func Banner(w io.Writer, cfg config.RunConfig, now time.Time) error {
	title := fmt.Sprintf("!  Fuzzing %s-bit %s %s js shell builds now  !", cfg.Arch, cfg.Profile, cfg.Branch)
	rule := strings.Repeat("=", len(title))
	_, err := fmt.Fprintf(w, "\n%s\n%s\n   DATE: %s\n%s\n\n",
		bannerRule.Sprint(rule),
		bannerText.Sprint(title),
		now.Format(time.ANSIC),
		bannerRule.Sprint(rule))
	return err
}
