package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/Traubert/nlp-tools/pkg/graph"
	"github.com/Traubert/nlp-tools/pkg/pipeline"
	"github.com/Traubert/nlp-tools/pkg/sink"
)

// Progress bar styles
var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	barWidth       = 32
	maxProblemRows = 10 // problems listed after a sweep
)

// interactive reports whether progress UIs should be drawn: stderr is a
// terminal and debug logging is off.
func (c *CLI) interactive() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) && c.Logger.GetLevel() > LogDebug
}

// =============================================================================
// SweepModel - Ego sweep progress
// =============================================================================

// targetMsg reports one finished ego target.
type targetMsg pipeline.TargetResult

// sweepDoneMsg is sent once the sweep has returned.
type sweepDoneMsg struct{}

// SweepModel is the bubbletea model showing ego sweep progress.
type SweepModel struct {
	Total    int
	Done     int
	Exported int
	Skipped  int
	Failed   int
	Last     string
	Problems []pipeline.TargetResult
	Stopping bool

	start  time.Time
	cancel context.CancelFunc
}

// NewSweepModel creates a model for a sweep over total centers. cancel is
// called when the user interrupts.
func NewSweepModel(total int, cancel context.CancelFunc) SweepModel {
	return SweepModel{Total: total, start: time.Now(), cancel: cancel}
}

func (m SweepModel) Init() tea.Cmd {
	return nil
}

func (m SweepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.Stopping && m.cancel != nil {
				m.cancel()
			}
			m.Stopping = true
		}
	case targetMsg:
		tr := pipeline.TargetResult(msg)
		m.Done++
		m.Last = tr.Name
		switch tr.Status {
		case pipeline.StatusExported:
			m.Exported++
		case pipeline.StatusSkipped:
			m.Skipped++
			m.Problems = append(m.Problems, tr)
		case pipeline.StatusFailed:
			m.Failed++
			m.Problems = append(m.Problems, tr)
		}
	case sweepDoneMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m SweepModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Ego sweep"))
	b.WriteString("\n\n")
	b.WriteString(progressBar(m.Done, m.Total, barWidth))
	b.WriteString(" ")
	b.WriteString(StyleNumber.Render(fmt.Sprintf("%d/%d", m.Done, m.Total)))
	b.WriteString("\n")

	stats := fmt.Sprintf("%d exported · %d skipped · %d failed · %s",
		m.Exported, m.Skipped, m.Failed, time.Since(m.start).Round(time.Second))
	b.WriteString(StyleDim.Render(stats))
	b.WriteString("\n")
	if m.Last != "" {
		b.WriteString(StyleDim.Render(iconArrow+" ") + StyleValue.Render(m.Last))
		b.WriteString("\n")
	}
	if m.Stopping {
		b.WriteString(StyleWarning.Render("Stopping after the current ego graph..."))
		b.WriteString("\n")
	} else {
		b.WriteString(StyleDim.Render("q quit"))
		b.WriteString("\n")
	}
	return b.String()
}

// progressBar renders done/total as a bar of the given width.
func progressBar(done, total, width int) string {
	filled := width
	if total > 0 {
		filled = min(width, done*width/total)
	}
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// =============================================================================
// Sweep execution
// =============================================================================

// runEgo runs the ego sweep, drawing a progress bar on terminals and
// logging per-target outcomes otherwise.
func (c *CLI) runEgo(ctx context.Context, runner *pipeline.Runner, g *graph.Graph, exp sink.Exporter, opts pipeline.Options) (*pipeline.Result, error) {
	if !c.interactive() {
		opts.OnTarget = func(tr pipeline.TargetResult) {
			c.Logger.Debug("ego graph", "name", tr.Name, "status", tr.Status, "nodes", tr.Nodes, "rounds", tr.Rounds, "cached", tr.CacheHit)
		}
		return runner.Run(ctx, g, exp, opts)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewSweepModel(g.NodeCount(), cancel), tea.WithOutput(os.Stderr))
	opts.Logger = newLogger(os.Stderr, log.ErrorLevel) // only errors while the bar is drawn
	opts.OnTarget = func(tr pipeline.TargetResult) { p.Send(targetMsg(tr)) }

	var (
		res    *pipeline.Result
		runErr error
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		res, runErr = runner.Run(ctx, g, exp, opts)
		p.Send(sweepDoneMsg{})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
	}
	<-done
	if err != nil {
		return nil, fmt.Errorf("progress display: %w", err)
	}

	if m, ok := final.(SweepModel); ok {
		printProblems(m.Problems)
	}
	return res, runErr
}

// printProblems lists skipped and failed targets.
func printProblems(problems []pipeline.TargetResult) {
	for i, tr := range problems {
		if i == maxProblemRows {
			printDetail("... and %d more", len(problems)-maxProblemRows)
			return
		}
		printWarning("%s %s: %v", tr.Name, tr.Status, tr.Err)
	}
}
