package cloud

import (
	"fmt"
	"strings"
)

const (
	branchMid  = "├── "
	branchLast = "╰── "
	indentMid  = "│   "
	indentLast = "    "
)

// ConsoleFormatter provides console output formatting for cloud entities
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// FormatProjects formats a list of projects
func (f *ConsoleFormatter) FormatProjects(projects []Project) string {
	if len(projects) == 0 {
		return "No projects found"
	}

	var sb strings.Builder
	writeHeader(&sb, "Project", len(projects))

	for i, p := range projects {
		prefix, indent := branch(i, len(projects))
		fmt.Fprintf(&sb, "%s%s (ID: %d)\n", prefix, p.Name, p.ProjectID)
		fmt.Fprintf(&sb, "%sLanguage: %s\n", indent, p.Language)
		if p.Description != "" {
			fmt.Fprintf(&sb, "%sDescription: %s\n", indent, p.Description)
		}
		if !p.Modified.IsZero() {
			fmt.Fprintf(&sb, "%sModified: %s\n", indent, p.Modified.Format("2006-01-02 15:04"))
		}
	}

	return sb.String()
}

// FormatFiles formats the files of a project without their content
func (f *ConsoleFormatter) FormatFiles(files []ProjectFile) string {
	if len(files) == 0 {
		return "No files found"
	}

	var sb strings.Builder
	writeHeader(&sb, "File", len(files))

	for i, file := range files {
		prefix, _ := branch(i, len(files))
		fmt.Fprintf(&sb, "%s%s (%d bytes)\n", prefix, file.Name, len(file.Content))
	}

	return sb.String()
}

// FormatCompile formats a compile job and its logs
func (f *ConsoleFormatter) FormatCompile(c *Compile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Compile %s: %s\n", c.CompileID, c.State)
	for i, line := range c.Logs {
		prefix, _ := branch(i, len(c.Logs))
		fmt.Fprintf(&sb, "%s%s\n", prefix, line)
	}
	return sb.String()
}

// FormatBacktest formats a single backtest with its statistics
func (f *ConsoleFormatter) FormatBacktest(b *Backtest) string {
	var sb strings.Builder
	f.formatBacktest(&sb, b, branchLast, indentLast)
	return sb.String()
}

// FormatBacktests formats a list of backtests
func (f *ConsoleFormatter) FormatBacktests(backtests []Backtest) string {
	if len(backtests) == 0 {
		return "No backtests found"
	}

	var sb strings.Builder
	writeHeader(&sb, "Backtest", len(backtests))

	for i := range backtests {
		prefix, indent := branch(i, len(backtests))
		f.formatBacktest(&sb, &backtests[i], prefix, indent)
	}

	return sb.String()
}

func (f *ConsoleFormatter) formatBacktest(sb *strings.Builder, b *Backtest, prefix, indent string) {
	name := b.Name
	if name == "" {
		name = "Untitled Backtest"
	}
	fmt.Fprintf(sb, "%s%s (%s)\n", prefix, name, b.BacktestID)

	if !b.Completed {
		fmt.Fprintf(sb, "%sProgress: %.1f%%\n", indent, b.Progress*100)
		return
	}
	if b.Error != "" {
		fmt.Fprintf(sb, "%sError: %s\n", indent, b.Error)
		return
	}

	fmt.Fprintf(sb, "%sTrades: %d | Win rate: %.1f%%\n", indent, b.Trades(), b.WinRate()*100)
	fmt.Fprintf(sb, "%sNet profit: %.2f%% | Sharpe: %.2f\n", indent, b.NetProfit()*100, b.SharpeRatio())
}

// FormatLiveAlgorithms formats a list of deployments
func (f *ConsoleFormatter) FormatLiveAlgorithms(algorithms []LiveAlgorithm) string {
	if len(algorithms) == 0 {
		return "No live algorithms found"
	}

	var sb strings.Builder
	writeHeader(&sb, "Live algorithm", len(algorithms))

	for i, a := range algorithms {
		prefix, indent := branch(i, len(algorithms))
		fmt.Fprintf(&sb, "%s%s [%s]\n", prefix, a.DeployID, a.Status)
		fmt.Fprintf(&sb, "%sProject: %d\n", indent, a.ProjectID)
		if !a.Launched.IsZero() {
			fmt.Fprintf(&sb, "%sLaunched: %s\n", indent, a.Launched.Format("2006-01-02 15:04"))
		}
		if a.Stopped != nil {
			fmt.Fprintf(&sb, "%sStopped: %s\n", indent, a.Stopped.Format("2006-01-02 15:04"))
		}
	}

	return sb.String()
}

// FormatLogs formats log lines, one per row
func (f *ConsoleFormatter) FormatLogs(lines []string) string {
	if len(lines) == 0 {
		return "No log lines"
	}
	return strings.Join(lines, "\n") + "\n"
}

// FormatBacktestRun summarizes a complete workflow run
func (f *ConsoleFormatter) FormatBacktestRun(run *BacktestRun) string {
	var sb strings.Builder
	if run.Project != nil {
		fmt.Fprintf(&sb, "Project: %s (ID: %d)\n", run.Project.Name, run.Project.ProjectID)
	}
	if run.Compile != nil {
		fmt.Fprintf(&sb, "Compile: %s [%s]\n", run.Compile.CompileID, run.Compile.State)
	}
	if run.Backtest != nil {
		sb.WriteString(f.FormatBacktest(run.Backtest))
	}
	return sb.String()
}

func writeHeader(sb *strings.Builder, noun string, n int) {
	sb.WriteString("\n")
	sb.WriteString(noun)
	if n != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(sb, " (%d):\n\n", n)
}

func branch(i, n int) (prefix, indent string) {
	if i == n-1 {
		return branchLast, indentLast
	}
	return branchMid, indentMid
}
