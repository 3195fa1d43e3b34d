package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/bumper/pkg/deps"
	"github.com/matzehuels/bumper/pkg/pipeline"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// ChangeListModel - Interactive update selection
// =============================================================================

// changeItem is one row of the selection list.
type changeItem struct {
	Section  string
	Change   deps.Change
	Selected bool
}

// ChangeListModel is the bubbletea model for picking which updates to write.
// Every change starts selected.
type ChangeListModel struct {
	Items     []changeItem
	Cursor    int
	Height    int
	Offset    int
	Confirmed bool
}

// NewChangeListModel lists the changes of every successful section.
func NewChangeListModel(result *pipeline.Result) ChangeListModel {
	var items []changeItem
	for _, s := range result.Sections {
		if !s.OK() {
			continue
		}
		for _, c := range s.ChangeSet.Changes {
			items = append(items, changeItem{Section: s.Section, Change: c, Selected: true})
		}
	}
	return ChangeListModel{Items: items, Height: 15}
}

func (m ChangeListModel) Init() tea.Cmd {
	return nil
}

func (m ChangeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if len(m.Items) > 0 {
				m.Items[m.Cursor].Selected = !m.Items[m.Cursor].Selected
			}
		case "a":
			all := m.selectedCount() == len(m.Items)
			for i := range m.Items {
				m.Items[i].Selected = !all
			}
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ChangeListModel) selectedCount() int {
	n := 0
	for _, it := range m.Items {
		if it.Selected {
			n++
		}
	}
	return n
}

func (m ChangeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Updates"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ write  q abort"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Items))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		it := m.Items[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		check := "[ ]"
		if it.Selected {
			check = "[x]"
		}
		rows = append(rows, []string{
			cursor + check,
			it.Change.Name,
			it.Section,
			it.Change.Declared.String(),
			it.Change.Target().String(),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Section", "Current", "Latest").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Items) {
				return lipgloss.NewStyle()
			}
			it := m.Items[idx]
			base := lipgloss.NewStyle()
			if col == 2 {
				base = base.Foreground(colorGray)
			}
			if !it.Selected {
				base = base.Foreground(colorDim)
			} else if col == 4 {
				base = base.Foreground(colorGreen)
			}
			if idx == m.Cursor {
				base = base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d of %d selected", m.selectedCount(), len(m.Items))))

	return b.String()
}

// picked reports whether the change in section was selected.
func (m ChangeListModel) picked(section string, c deps.Change) bool {
	for _, it := range m.Items {
		if it.Section == section && it.Change.Name == c.Name {
			return it.Selected
		}
	}
	return false
}

// selectChanges runs the picker. ok is false when the user aborted.
func selectChanges(ctx context.Context, result *pipeline.Result) (*pipeline.Result, bool, error) {
	final, err := tea.NewProgram(NewChangeListModel(result), tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, false, err
	}
	m := final.(ChangeListModel)
	if !m.Confirmed {
		return nil, false, nil
	}
	return result.Filter(m.picked), true, nil
}
