package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shuntaka9576/ddbrestore"
	"github.com/shuntaka9576/ddbrestore/cli/timer"
)

var (
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Render
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Render
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF00F2"))
)

type Model struct {
	TableCount       int
	ItemCount        int
	Phase            ddbrestore.Phase
	ProvisionedCount int
	ReadyCount       int
	Skipped          []string
	SuccessCount     int
	FailedCount      int
	Percent          float64
	Done             bool
	spinner          spinner.Model
	timer            *timer.Timer
	cancel           context.CancelFunc
	tableItems       map[string]int
}

type Option struct {
	TableCount int
	ItemCount  int
	// TableItems is the record count per table. Records of a skipped table
	// are taken out of ItemCount.
	TableItems map[string]int
	// Cancel is called when the user quits before the restore finished.
	Cancel context.CancelFunc
}

// EventMsg carries one restore event into the program.
type EventMsg ddbrestore.Event

func InitModel(opt *Option) Model {
	m := Model{
		TableCount: opt.TableCount,
		ItemCount:  opt.ItemCount,
		timer:      &timer.Timer{},
		cancel:     opt.Cancel,
		tableItems: opt.TableItems,
	}
	m.resetSpinner()

	return m
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case EventMsg:
		return m.handle(ddbrestore.Event(msg))
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handle(e ddbrestore.Event) (tea.Model, tea.Cmd) {
	switch e.Kind {
	case ddbrestore.EventPhase:
		m.Phase = e.Phase
		switch e.Phase {
		case ddbrestore.PhaseReplay:
			m.timer.Start()
		case ddbrestore.PhaseDone:
			m.Done = true
			return m, tea.Quit
		}
	case ddbrestore.EventProvisioned:
		m.ProvisionedCount++
		if e.Err != nil {
			m.skip(e.Table)
		}
	case ddbrestore.EventReady:
		m.ReadyCount++
	case ddbrestore.EventNotReady:
		m.skip(e.Table)
	case ddbrestore.EventItemRestored:
		m.SuccessCount++
	case ddbrestore.EventItemFailed:
		m.FailedCount++
	}

	if m.ItemCount > 0 {
		m.Percent = float64(m.SuccessCount+m.FailedCount) / float64(m.ItemCount)
	}

	return m, nil
}

func (m *Model) skip(table string) {
	m.Skipped = append(m.Skipped, table)
	m.ItemCount -= m.tableItems[table]
}

func (m *Model) resetSpinner() {
	m.spinner = spinner.New()
	m.spinner.Style = spinnerStyle
	m.spinner.Spinner = spinner.Dot
}

func (m Model) View() string {
	var s string

	switch m.Phase {
	case ddbrestore.PhaseDone:
		s = fmt.Sprintln("All done!")
	case ddbrestore.PhaseProvision:
		s = fmt.Sprintf("%s%s", m.spinner.View(), textStyle(fmt.Sprintf("Creating tables: %d/%d", m.ProvisionedCount, m.TableCount)))
	case ddbrestore.PhaseWait:
		s = fmt.Sprintf("%s%s", m.spinner.View(), textStyle(fmt.Sprintf("Waiting for tables: %d/%d ready", m.ReadyCount, m.TableCount-len(m.Skipped))))
	case ddbrestore.PhaseReplay:
		s = fmt.Sprintf("%sSuccess: %d(%d%%) ETA: %s",
			m.spinner.View(),
			m.SuccessCount,
			int(m.Percent*100),
			m.timer.Estimated(m.ItemCount, m.SuccessCount+m.FailedCount))
		if m.FailedCount > 0 {
			s += failStyle(fmt.Sprintf(" Failed: %d", m.FailedCount))
		}
	default:
		s = fmt.Sprintf("%s%s", m.spinner.View(), textStyle("Starting..."))
	}

	return s
}
