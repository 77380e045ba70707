package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/spigell/resume-screener/internal/summary"
)

// PrintSummary writes the colorized batch counts to w.
func PrintSummary(w io.Writer, sum summary.Summary) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "Screened %d resume(s), %d valid, average score %.1f\n", sum.Total, sum.Valid, sum.AvgScore)

	color.New(color.FgGreen).Fprintf(w, "  Shortlisted:  %d\n", sum.Green)
	color.New(color.FgYellow).Fprintf(w, "  Under review: %d\n", sum.Yellow)
	color.New(color.FgRed).Fprintf(w, "  Rejected:     %d\n", sum.Red)
	color.New(color.FgCyan).Fprintf(w, "  Duplicates:   %d\n", sum.Duplicates)
	color.New(color.FgMagenta).Fprintf(w, "  Errors:       %d\n", sum.Errors)
	fmt.Fprintln(w)
}
