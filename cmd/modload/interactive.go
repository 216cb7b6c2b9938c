package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/modware/mod-runtime/config"
	"github.com/modware/mod-runtime/loader"
	"github.com/modware/mod-runtime/mod"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	moduleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	addrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateModules modelState = iota
	stateResolve
)

type interactiveModel struct {
	ld       *loader.Loader
	modules  []*loader.Module
	selected int
	state    modelState
	resolve  textinput.Model
	message  string
	isErr    bool
}

func newInteractiveModel(ld *loader.Loader) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "SYMBOL"
	ti.Prompt = "resolve: "
	ti.Width = 24
	return &interactiveModel{
		ld:      ld,
		modules: ld.Modules(),
		resolve: ti,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.state == stateResolve {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.state = stateModules
			m.resolve.Blur()
		case "enter":
			name := strings.TrimSpace(m.resolve.Value())
			if addr, found := m.ld.Resolve(name); found {
				m.setMessage(fmt.Sprintf("%s = %#06x", name, addr), false)
			} else {
				m.setMessage(fmt.Sprintf("%s not found", name), true)
			}
			m.state = stateModules
			m.resolve.Blur()
		default:
			var cmd tea.Cmd
			m.resolve, cmd = m.resolve.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.modules)-1 {
			m.selected++
		}

	case "d":
		if mm := m.current(); mm != nil {
			if err := m.ld.DiscardCold(mm); err != nil {
				m.setMessage(err.Error(), true)
			} else {
				m.setMessage(fmt.Sprintf("discarded cold region of %s", mm.Name()), false)
			}
		}

	case "u":
		if mm := m.current(); mm != nil {
			if err := m.ld.Unload(context.Background(), mm); err != nil {
				m.setMessage(err.Error(), true)
			} else {
				m.setMessage(fmt.Sprintf("unloaded %s", mm.Name()), false)
				m.modules = m.ld.Modules()
				if m.selected >= len(m.modules) && m.selected > 0 {
					m.selected--
				}
			}
		}

	case "r":
		m.state = stateResolve
		m.resolve.SetValue("")
		m.resolve.Focus()
	}

	return m, nil
}

func (m *interactiveModel) current() *loader.Module {
	if m.selected < 0 || m.selected >= len(m.modules) {
		return nil
	}
	return m.modules[m.selected]
}

func (m *interactiveModel) setMessage(text string, isErr bool) {
	m.message = text
	m.isErr = isErr
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Module Loader"))
	b.WriteString("\n\n")

	if len(m.modules) == 0 {
		b.WriteString("No modules resident.\n")
	}
	for i, mm := range m.modules {
		line := m.formatModule(mm)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	syms := m.ld.Symbols()
	if len(syms) > 0 {
		b.WriteString("\nSymbols:\n")
		for _, s := range syms {
			b.WriteString("  ")
			b.WriteString(moduleStyle.Render(fmt.Sprintf("%-8s", s.Name)))
			b.WriteString(" ")
			b.WriteString(addrStyle.Render(fmt.Sprintf("%#06x", s.Address)))
			if s.Flags&mod.SymbolFlagCleanup != 0 {
				b.WriteString(" (cleanup)")
			}
			b.WriteString("\n")
		}
	}

	if m.state == stateResolve {
		b.WriteString("\n")
		b.WriteString(m.resolve.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter resolve • esc back"))
		return b.String()
	}

	if m.message != "" {
		b.WriteString("\n")
		if m.isErr {
			b.WriteString(errorStyle.Render(m.message))
		} else {
			b.WriteString(resultStyle.Render(m.message))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • d discard cold • u unload • r resolve • q quit"))
	return b.String()
}

func (m *interactiveModel) formatModule(mm *loader.Module) string {
	fp, err := m.ld.QueryFootprint(mm)
	if err != nil {
		return fmt.Sprintf("%s (%v)", mm.Name(), err)
	}
	detail := fmt.Sprintf("base %#06x, %d/%d units", mm.Base(), fp.TotalUnits, fp.ResidentUnits)
	if mm.Discarded() {
		detail += ", discarded"
	}
	return moduleStyle.Render(mm.Name()) + " " + addrStyle.Render(detail)
}

func runInteractive(cfg *config.Config) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}

	ctx := context.Background()
	l := newLoader(cfg)
	if err := loadAll(ctx, l, cfg); err != nil {
		return err
	}

	p := tea.NewProgram(newInteractiveModel(l), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
