package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/pet-engine/internal/handlers"
	"github.com/jwebster45206/pet-engine/pkg/behavior"
	"github.com/jwebster45206/pet-engine/pkg/notify"
	"github.com/jwebster45206/pet-engine/pkg/pet"
)

const (
	maxLogLines = 200
	spriteWidth = 9
)

// sprites are keyed by animation token. walk_left is drawn by mirroring
// walk_right.
var sprites = map[string][]string{
	"idle":       {" /\\_/\\  ", "( o.o ) ", " > ^ <  "},
	"sit":        {" /\\_/\\  ", "( -.- ) ", " (___)  "},
	"sleep":      {" /\\_/\\  ", "( u.u )z", " > ^ < Z"},
	"walk_right": {" /\\_/\\  ", "( o.o )>", "  / \\   "},
}

var mirrored = map[rune]rune{'(': ')', ')': '(', '<': '>', '>': '<', '/': '\\', '\\': '/'}

// spriteFor returns the lines for token, mirroring or falling back to idle
// when there is no asset.
func spriteFor(token string) []string {
	if lines, ok := sprites[token]; ok {
		return lines
	}
	if token == "walk_left" {
		var out []string
		for _, line := range sprites["walk_right"] {
			r := []rune(line)
			for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
				r[i], r[j] = r[j], r[i]
			}
			for i, c := range r {
				if m, ok := mirrored[c]; ok {
					r[i] = m
				}
			}
			out = append(out, string(r))
		}
		return out
	}
	available := make(map[string]bool, len(sprites))
	for k := range sprites {
		available[k] = true
	}
	return sprites[behavior.ResolveToken(token, available)]
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config *ConsoleConfig
	api    *APIClient

	status    *pet.Status
	inventory *handlers.InventoryResponse
	report    *pet.AchievementReport

	bar     progress.Model
	logView viewport.Model
	log     []string

	x             int
	ready         bool
	width         int
	height        int
	err           error
	showQuitModal bool
}

type pollMsg time.Time

type refreshMsg struct {
	status        *pet.Status
	inventory     *handlers.InventoryResponse
	report        *pet.AchievementReport
	notifications []notify.Notification
	err           error
}

type actionMsg struct {
	label string
	err   error
}

type boundaryMsg struct {
	state *behavior.State
	err   error
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Width(10).
			Foreground(lipgloss.Color("255"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	achievementStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("212")). // purple
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))
)

func NewConsoleUI(cfg *ConsoleConfig, api *APIClient) ConsoleUI {
	return ConsoleUI{
		config:  cfg,
		api:     api,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		logView: viewport.New(40, 10),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.poll())
}

func (m ConsoleUI) poll() tea.Cmd {
	return tea.Tick(m.config.PollInterval, func(t time.Time) tea.Msg { return pollMsg(t) })
}

func (m ConsoleUI) refresh() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		var msg refreshMsg
		var errs []error
		var err error
		if msg.status, err = api.Status(); err != nil {
			errs = append(errs, err)
		}
		if msg.inventory, err = api.Inventory(); err != nil {
			errs = append(errs, err)
		}
		if msg.report, err = api.Achievements(); err != nil {
			errs = append(errs, err)
		}
		if n, err := api.Notifications(); err != nil {
			errs = append(errs, err)
		} else {
			msg.notifications = n.Notifications
		}
		msg.err = errors.Join(errs...)
		return msg
	}
}

func (m ConsoleUI) act(label string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{label: label, err: fn()}
	}
}

func (m ConsoleUI) interact(action string) tea.Cmd {
	api := m.api
	return m.act(action, func() error {
		_, err := api.Interact(action, "")
		return err
	})
}

func (m ConsoleUI) boundary(edge behavior.Edge) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		st, err := api.Boundary(edge)
		return boundaryMsg{state: st, err: err}
	}
}

func (m ConsoleUI) stageWidth() int {
	w := m.width - 6
	if w < spriteWidth+2 {
		w = spriteWidth + 2
	}
	return w
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, m.width/2-16)
		m.logView.Width = m.width - 4
		m.logView.Height = max(3, m.height-22)
		m.ready = true
		m.renderLog()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.showQuitModal = true
			return m, nil
		case "f":
			return m, m.interact("feed")
		case "p":
			return m, m.interact("play")
		case "t":
			return m, m.interact("pet")
		case "c":
			return m, m.interact("clean")
		case "r":
			return m, m.interact("rest")
		case "s":
			return m, m.act("save", m.api.Save)
		case "l":
			api := m.api
			return m, m.act("load", func() error {
				_, err := api.Load()
				return err
			})
		}

	case pollMsg:
		cmds := []tea.Cmd{m.refresh(), m.poll()}
		if m.status != nil && m.status.Behavior.Behavior == behavior.Walk {
			if m.status.Behavior.Direction == behavior.Left {
				m.x--
			} else {
				m.x++
			}
			if m.x <= 0 {
				m.x = 0
				cmds = append(cmds, m.boundary(behavior.LeftEdge))
			} else if limit := m.stageWidth() - spriteWidth; m.x >= limit {
				m.x = limit
				cmds = append(cmds, m.boundary(behavior.RightEdge))
			}
		}
		return m, tea.Batch(cmds...)

	case refreshMsg:
		m.err = msg.err
		if msg.status != nil {
			m.status = msg.status
		}
		if msg.inventory != nil {
			m.inventory = msg.inventory
		}
		if msg.report != nil {
			m.report = msg.report
		}
		for _, n := range msg.notifications {
			m.appendLog(formatNotification(n))
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.appendLog(errorStyle.Render(describeError(msg.label, msg.err)))
			return m, nil
		}
		return m, m.refresh()

	case boundaryMsg:
		if msg.err != nil {
			m.err = msg.err
		} else if m.status != nil && msg.state != nil {
			m.status.Behavior = *msg.state
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y", "enter":
			return m, tea.Quit
		case "n", "N", "esc":
			m.showQuitModal = false
		}
	}
	return m, nil
}

func (m *ConsoleUI) appendLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
	m.renderLog()
}

func (m *ConsoleUI) renderLog() {
	width := max(10, m.logView.Width-2)
	var b strings.Builder
	for _, line := range m.log {
		b.WriteString(wordwrap.String(line, width))
		b.WriteString("\n")
	}
	m.logView.SetContent(b.String())
	m.logView.GotoBottom()
}

// describeError turns API rejections into player-facing text.
func describeError(action string, err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusTooManyRequests:
			return fmt.Sprintf("%s is cooling down: %s", action, apiErr.Message)
		case http.StatusConflict:
			return fmt.Sprintf("Can't %s: %s", action, apiErr.Message)
		}
	}
	return fmt.Sprintf("%s failed: %v", action, err)
}

func formatNotification(n notify.Notification) string {
	text := n.Title
	if n.Message != "" {
		text += ": " + n.Message
	}
	stamp := helpStyle.Render(n.Time.Local().Format("15:04:05"))
	switch n.Kind {
	case notify.KindWarning:
		return stamp + " " + warningStyle.Render(text)
	case notify.KindEvent:
		return stamp + " " + eventStyle.Render(text)
	case notify.KindAchievement, notify.KindLevelUp:
		return stamp + " " + achievementStyle.Render(text)
	default:
		return stamp + " " + text
	}
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showQuitModal {
		modal := modalStyle.Render(titleStyle.Render("Quit?") + "\n\nThe pet keeps living on the server.\n\n[y] yes   [n] no")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("PET ENGINE") + "\n")
	b.WriteString(m.renderStage() + "\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderStats(), m.renderSide()) + "\n")
	b.WriteString(panelStyle.Width(m.width - 2).Render(m.logView.View()) + "\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(wordwrap.String("Error: "+m.err.Error(), m.width-2)) + "\n")
	}
	b.WriteString(helpStyle.Render("[f]eed  [p]lay  pe[t]  [c]lean  [r]est  [s]ave  [l]oad  [q]uit"))
	return b.String()
}

func (m ConsoleUI) renderStage() string {
	token := "idle"
	if m.status != nil {
		token = m.status.AnimationToken
	}
	pad := strings.Repeat(" ", m.x)
	var b strings.Builder
	for _, line := range spriteFor(token) {
		b.WriteString(pad + line + "\n")
	}
	b.WriteString(helpStyle.Render(strings.Repeat("─", m.stageWidth())))
	return panelStyle.Width(m.width - 2).Render(b.String())
}

func (m ConsoleUI) renderStats() string {
	if m.status == nil {
		return panelStyle.Render("Waiting for the pet...")
	}
	s := m.status.Stats
	var b strings.Builder
	for _, row := range []struct {
		label string
		value int
	}{
		{"Hunger", s.Hunger},
		{"Happiness", s.Happiness},
		{"Health", s.Health},
		{"Energy", s.Energy},
	} {
		b.WriteString(labelStyle.Render(row.label) + m.bar.ViewAs(float64(row.value)/100) + "\n")
	}
	exp := 0.0
	if s.ExpToNextLevel > 0 {
		exp = s.Experience / float64(s.ExpToNextLevel)
	}
	b.WriteString(labelStyle.Render(fmt.Sprintf("Level %d", s.Level)) + m.bar.ViewAs(exp) + "\n")
	b.WriteString(fmt.Sprintf("Age %.1f days  (%s)", s.AgeDays, m.status.AnimationToken))
	return panelStyle.Render(b.String())
}

func (m ConsoleUI) renderSide() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Items") + "\n")
	if m.inventory == nil || len(m.inventory.Items) == 0 {
		b.WriteString("none\n")
	} else {
		for _, it := range m.inventory.Items {
			b.WriteString(fmt.Sprintf("%-10s x%d\n", it.Name, it.Quantity))
		}
	}
	if m.report != nil {
		b.WriteString("\n" + titleStyle.Render("Achievements") + "\n")
		b.WriteString(fmt.Sprintf("%d/%d (%.0f%%)\n", m.report.Progress.Unlocked, m.report.Progress.Total, m.report.Progress.Percentage))
	}
	if m.status != nil {
		var cooling []string
		for _, action := range []string{"feed", "play", "pet", "clean", "rest"} {
			if left := m.status.Cooldowns[action]; left > 0 {
				cooling = append(cooling, fmt.Sprintf("%s %.0fs", action, left))
			}
		}
		if len(cooling) > 0 {
			b.WriteString("\n" + helpStyle.Render(strings.Join(cooling, ", ")))
		}
	}
	return panelStyle.Render(b.String())
}
