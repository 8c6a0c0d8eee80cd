// Package report renders the terminal summary printed at the end of a run.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange

	boxStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63"))
)

// maxDiagnostics caps the diagnostics listed in the summary.
const maxDiagnostics = 5

// Summary is what the terminal summary shows.
type Summary struct {
	RunID       string
	Policy      string
	Candidates  int
	Critical    int
	Discarded   int
	Dropped     int
	Inherited   int
	Truncated   int
	Removed     int
	Diagnostics []string
	Output      string
	Elapsed     time.Duration
}

// Render returns the summary as a bordered block.
func Render(s Summary) string {
	rows := [][2]string{
		{"run", s.RunID},
		{"policy", s.Policy},
		{"candidates", fmt.Sprint(s.Candidates)},
		{"critical", fmt.Sprint(s.Critical)},
		{"discarded", fmt.Sprint(s.Discarded)},
		{"dropped", fmt.Sprint(s.Dropped)},
		{"inherited", fmt.Sprint(s.Inherited)},
		{"truncated", fmt.Sprint(s.Truncated)},
		{"removed", fmt.Sprint(s.Removed)},
		{"output", s.Output},
		{"elapsed", s.Elapsed.Round(time.Millisecond).String()},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("floodpath summary"))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(r[0]), valueStyle.Render(r[1])))
		b.WriteString("\n")
	}

	if n := len(s.Diagnostics); n > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d diagnostic(s):", n)))
		for i, d := range s.Diagnostics {
			if i == maxDiagnostics {
				b.WriteString("\n" + warnStyle.Render(fmt.Sprintf("  ... and %d more", n-maxDiagnostics)))
				break
			}
			b.WriteString("\n" + warnStyle.Render("  "+d))
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}
