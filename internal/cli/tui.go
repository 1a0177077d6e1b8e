package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nestgraph/pkg/editor"
	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// editCommand creates the "edit" command.
func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <doc>",
		Short: "Browse and edit a document's containment tree in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			if err := errs.ValidateDocumentName(name); err != nil {
				return err
			}
			store, err := c.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			doc, err := store.Load(ctx, name)
			if err != nil {
				return err
			}
			ed, err := c.newEditor(doc)
			if err != nil {
				return err
			}

			m := newEditModel(name, ed, func(doc graph.Document) error {
				return store.Save(ctx, name, doc)
			})
			final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(editModel); ok && fm.dirty {
				printWarning("Quit with unsaved changes to %s", name)
			}
			return nil
		},
	}
}

// =============================================================================
// editModel - Interactive containment tree
// =============================================================================

// treeRow is one visible line of the tree.
type treeRow struct {
	id    string
	depth int
}

// editModel is the bubbletea model behind "nestgraph edit". Members of
// collapsed containers are not listed, matching what the canvas shows.
type editModel struct {
	name string
	ed   *editor.Editor
	save func(graph.Document) error

	rows   []treeRow
	cursor int
	offset int
	height int

	clip      editor.Clip
	dirty     bool
	quitArmed bool
	status    string
}

func newEditModel(name string, ed *editor.Editor, save func(graph.Document) error) editModel {
	m := editModel{name: name, ed: ed, save: save, height: 20}
	m.refresh()
	return m
}

// refresh rebuilds the rows after an edit and keeps the cursor in range.
func (m *editModel) refresh() {
	s := m.ed.Store()
	m.rows = nil
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		e, ok := s.Entity(id)
		if !ok {
			return
		}
		m.rows = append(m.rows, treeRow{id: id, depth: depth})
		if e.IsContainer() && !e.Collapsed {
			for _, child := range e.Members() {
				walk(child, depth+1)
			}
		}
	}
	for _, id := range s.Roots() {
		walk(id, 0)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
}

func (m editModel) selected() (string, bool) {
	if len(m.rows) == 0 {
		return "", false
	}
	return m.rows[m.cursor].id, true
}

func (m editModel) Init() tea.Cmd {
	return nil
}

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if key != "q" && key != "esc" {
			m.quitArmed = false
		}
		switch key {
		case "ctrl+c":
			return m, tea.Quit
		case "q", "esc":
			if m.dirty && !m.quitArmed {
				m.quitArmed = true
				m.status = "unsaved changes: press q again to quit, s to save"
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			if id, ok := m.selected(); ok {
				changed, err := m.ed.ToggleCollapse(id)
				m.apply("toggled "+id, changed, err)
			}
		case "d", "x":
			if id, ok := m.selected(); ok {
				changed, err := m.ed.Delete(editor.Selection{Entities: []string{id}})
				m.apply("deleted "+id, changed, err)
			}
		case "c":
			if id, ok := m.selected(); ok {
				m.clip = m.ed.Copy(editor.Selection{Entities: []string{id}})
				m.status = fmt.Sprintf("copied %d entities", len(m.clip.Nodes)+len(m.clip.Containers))
			}
		case "v":
			if m.clip.Empty() {
				m.status = "clipboard is empty"
				break
			}
			sel, err := m.ed.Paste(m.clip)
			m.apply(fmt.Sprintf("pasted %d entities", len(sel.Entities)), err == nil, err)
		case "u":
			changed, err := m.ed.Undo()
			m.apply("undone", changed, err)
		case "r", "ctrl+r":
			changed, err := m.ed.Redo()
			m.apply("redone", changed, err)
		case "s":
			if err := m.save(m.ed.Document()); err != nil {
				m.status = "save failed: " + errs.UserMessage(err)
				break
			}
			m.dirty = false
			m.status = "saved"
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 5)
	}
	return m, nil
}

// apply records the outcome of a gesture in the status line.
func (m *editModel) apply(done string, changed bool, err error) {
	switch {
	case err != nil:
		m.status = errs.UserMessage(err)
	case !changed:
		m.status = "nothing changed"
	default:
		m.dirty = true
		m.status = done
	}
	m.refresh()
}

func (m editModel) View() string {
	var b strings.Builder

	title := m.name
	if m.dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ collapse  d delete  c/v copy/paste  u/r undo/redo  s save  q quit"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(listDimStyle.Render("  (empty document)"))
		b.WriteString("\n")
	}

	s := m.ed.Store()
	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		e, ok := s.Entity(row.id)
		if !ok {
			continue
		}
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		icon := "•"
		if e.IsContainer() {
			icon = "▾"
			if e.Collapsed {
				icon = "▸"
			}
		}
		line := fmt.Sprintf("%s%s%s %s", cursor, strings.Repeat("  ", row.depth), icon, e.DisplayLabel())
		if e.Label != "" && e.Label != e.ID {
			line += listDimStyle.Render(" (" + e.ID + ")")
		}
		switch {
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case e.IsContainer():
			b.WriteString(StyleHighlight.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	h := m.ed.History()
	footer := fmt.Sprintf("  %d entities · %d edges · %d undo · %d redo",
		s.NodeCount()+s.ContainerCount(), s.EdgeCount(), h.UndoLen(), h.RedoLen())
	b.WriteString(listDimStyle.Render(footer))
	if m.status != "" {
		b.WriteString("\n  " + StyleWarning.Render(m.status))
	}
	return b.String()
}
