// Package tui 终端中的提议确认界面：每次展示一个 (员工, 班次) 提议，操作员按键接受或拒绝。
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/optimizer"
)

// 界面中保留的最近决定条数
const historySize = 8

type keyMap struct {
	Accept key.Binding
	Reject key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Accept, k.Reject, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Accept: key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y/enter", "accept")),
	Reject: key.NewBinding(key.WithKeys("n", "backspace"), key.WithHelp("n", "reject")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#6BCB77")).
			MarginBottom(1)
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5B8DEF")).
			Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86B"))
)

// Model 持有优化器并逐个处理提议
type Model struct {
	optimizer *optimizer.Optimizer
	roster    *domain.Roster
	onAccept  func(a *optimizer.Assignment) error

	current  *optimizer.Assignment
	accepted []*optimizer.Assignment
	history  []string
	err      error
	done     bool
	quitting bool

	help  help.Model
	width int
}

// New onAccept 在优化器接受提议之前调用，返回错误时提议保持不变
func New(o *optimizer.Optimizer, roster *domain.Roster, onAccept func(a *optimizer.Assignment) error) *Model {
	m := &Model{
		optimizer: o,
		roster:    roster,
		onAccept:  onAccept,
		help:      help.New(),
	}
	m.advance()
	return m
}

// Run 在终端中运行界面，直到没有提议、操作员退出或 ctx 被取消
func Run(ctx context.Context, m *Model, opts ...tea.ProgramOption) (*Model, error) {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	if fm, ok := final.(*Model); ok {
		m = fm
	}
	return m, err
}

// Accepted 本次运行中接受的提议，按接受顺序排列
func (m *Model) Accepted() []*optimizer.Assignment {
	return m.accepted
}

// Done 所有提议都已处理完毕时为 true，中途退出为 false
func (m *Model) Done() bool {
	return m.done
}

func (m *Model) Init() tea.Cmd {
	if m.done {
		return tea.Quit
	}
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case m.current == nil:
			return m, nil
		case key.Matches(msg, keys.Accept):
			return m.decide(true)
		case key.Matches(msg, keys.Reject):
			return m.decide(false)
		}
	}

	return m, nil
}

func (m *Model) decide(accepted bool) (tea.Model, tea.Cmd) {
	a := m.current
	m.err = nil

	if err := m.optimizer.Verify(a, accepted); err != nil {
		m.err = err
		m.advance()
		if m.done {
			return m, tea.Quit
		}
		return m, nil
	}

	if accepted && m.onAccept != nil {
		if err := m.onAccept(a); err != nil {
			m.err = err
			return m, nil
		}
	}

	outcome, err := m.optimizer.Respond(a, accepted)
	if err != nil {
		m.err = err
		return m, nil
	}

	name := a.EmployeeCode
	if emp, ok := m.roster.Employee(a.EmployeeCode); ok {
		name = emp.Name
	}
	switch outcome {
	case optimizer.OutcomeAssigned:
		m.accepted = append(m.accepted, a)
		m.record(fmt.Sprintf("✓ %s: %s", name, a.Shift))
	case optimizer.OutcomeRejected:
		m.record(fmt.Sprintf("✗ %s: %s", name, a.Shift))
	case optimizer.OutcomeUnfillable:
		m.record(warnStyle.Render(fmt.Sprintf("! no eligible employee remains for %s", a.Shift)))
	}

	m.advance()
	if m.done {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) advance() {
	a, ok := m.optimizer.NextProposal()
	if !ok {
		m.current = nil
		m.done = true
		return
	}
	m.current = a
}

func (m *Model) record(line string) {
	m.history = append(m.history, line)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
}

func (m *Model) View() string {
	summary := m.optimizer.Summary()

	var b strings.Builder
	b.WriteString(titleStyle.Render("ROSTER OPTIMIZER"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Assigned %d of %d   Remaining %d   Unfillable %d\n\n",
		summary.Assigned, summary.Total, summary.Remaining, len(summary.Unfillable)))

	if m.current != nil {
		b.WriteString(m.renderProposal(m.current))
		b.WriteString("\n")
	} else {
		b.WriteString("No further proposals.\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	if len(m.history) > 0 {
		b.WriteString(statusStyle.Render(strings.Join(m.history, "\n")))
		b.WriteString("\n")
	}

	if !m.done && !m.quitting {
		b.WriteString("\n")
		b.WriteString(m.help.View(keys))
	}
	return b.String()
}

func (m *Model) renderProposal(a *optimizer.Assignment) string {
	name := a.EmployeeCode
	employment := ""
	if emp, ok := m.roster.Employee(a.EmployeeCode); ok {
		name = fmt.Sprintf("%s (%s)", emp.Name, emp.Code)
		employment = fmt.Sprintf("%s, %s", emp.EmploymentType, emp.ContractStatus)
	}

	lines := []string{
		labelStyle.Render("Employee   ") + name,
		labelStyle.Render("Contract   ") + employment,
		labelStyle.Render("Shift      ") + a.Shift.String(),
		labelStyle.Render("Location   ") + a.Shift.WorkArea.Location,
		labelStyle.Render("Difficulty ") + fmt.Sprintf("%.2f", a.Difficulty),
		labelStyle.Render("Score      ") + fmt.Sprintf("%.3f", a.Score),
	}
	for _, c := range a.Shift.Components {
		lines = append(lines, labelStyle.Render("  part     ")+c.String())
	}

	style := boxStyle
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style.Render(strings.Join(lines, "\n"))
}
