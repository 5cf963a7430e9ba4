package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/mmcdole/modbrowse/internal/row"
	"github.com/mmcdole/modbrowse/internal/tui/styles"
)

// maxVersionLines bounds the version list of an expanded row
const maxVersionLines = 6

// View renders the application
func (m *Model) View() string {
	if !m.Ready {
		return "Loading..."
	}
	if m.State == StateHelp {
		return m.renderHelp()
	}

	body := m.renderBody(m.Height - ChromeHeight)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderQueryBar(),
		body,
		m.renderFooter(),
	)
}

func (m *Model) renderQueryBar() string {
	var left string
	switch m.State {
	case StateQuery:
		left = m.query.View()
	case StateFind:
		left = m.find.View()
	default:
		q := m.criteria.Query
		if q == "" {
			q = styles.DimStyle.Render("(all)")
		}
		left = styles.PromptStyle.Render("search › ") + q
	}

	kind := "mods"
	if m.criteria.Modpacks {
		kind = "modpacks"
	}
	right := styles.AccentStyle.Render(kind)
	if m.criteria.MCVersion != "" {
		right += styles.DimStyle.Render(" · " + m.criteria.MCVersion)
	}
	if s := m.session; s.Started() && s.Len() > 0 {
		right += styles.DimStyle.Render(fmt.Sprintf(" · %d/%d", s.Len(), s.TotalHits()))
	}

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return styles.QueryBarStyle.Width(m.Width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderBody draws the visible rows into height lines, scrolling the
// expanded content so the cursor row stays on screen
func (m *Model) renderBody(height int) string {
	if m.session.Started() && m.proj.Count() == 0 {
		msg := "No results"
		if m.criteria.Query != "" {
			msg = fmt.Sprintf("No results for %q", m.criteria.Query)
		}
		return lipgloss.Place(m.Width, height, lipgloss.Center, lipgloss.Center, styles.DimStyle.Render(msg))
	}

	var lines []string
	cursorEnd := 0
	for i, c := range m.visible {
		selected := m.offset+i == m.cursor
		if c == nil {
			lines = append(lines, m.renderSentinel(selected))
		} else {
			lines = append(lines, m.renderRow(c, selected))
			if c.Expanded() {
				lines = append(lines, m.renderExpanded(c)...)
			}
		}
		if selected {
			cursorEnd = len(lines)
		}
	}

	if cursorEnd > height {
		lines = lines[cursorEnd-height:]
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderRow(c *row.Controller, selected bool) string {
	item := c.Item()

	var badge string
	switch c.IconState() {
	case row.IconLoaded:
		badge = styles.BadgeStyle.Render(item.Source.Badge())
	case row.IconLoading:
		badge = styles.PendingBadgeStyle.Render("··")
	default:
		badge = styles.DimBadgeStyle.Render("  ")
	}

	marker := "  "
	if c.Expanded() {
		marker = "▾ "
	}
	downloads := formatCount(item.Downloads)
	titleWidth := max(m.Width-lipgloss.Width(downloads)-8, 1)

	text := item.Title
	if item.Description != "" {
		text += " · " + item.Description
	}
	text = styles.Pad(styles.Truncate(text, titleWidth), titleWidth)

	line := marker + badge + " " + text + " " + downloads
	if selected {
		return styles.SelectedRowStyle.Width(m.Width).Render(line)
	}
	return styles.NormalRowStyle.Render(line)
}

func (m *Model) renderExpanded(c *row.Controller) []string {
	indent := styles.ExpandedStyle
	switch c.DetailState() {
	case row.DetailLoading, row.DetailNone:
		return []string{indent.Render(m.spinner.View() + " loading versions")}
	case row.DetailFailed:
		msg := "details unavailable"
		if err := c.DetailErr(); err != nil {
			msg += ": " + err.Error()
		}
		return []string{indent.Render(styles.ErrorStyle.Render(msg) + styles.DimStyle.Render("  (enter to retry)"))}
	}

	versions := c.Detail().Versions
	if len(versions) == 0 {
		return []string{indent.Render(styles.DimStyle.Render("no installable versions"))}
	}

	names := c.Detail().VersionNames()
	start := max(min(c.Selected()-maxVersionLines/2, len(names)-maxVersionLines), 0)
	end := min(start+maxVersionLines, len(names))

	var out []string
	for i := start; i < end; i++ {
		label := names[i]
		if gv := versions[i].GameVersion; len(gv) > 0 {
			label += styles.DimStyle.Render(" (" + strings.Join(gv, ", ") + ")")
		}
		if i == c.Selected() {
			out = append(out, indent.Render(styles.AccentStyle.Render("● ")+label))
		} else {
			out = append(out, indent.Render("  "+label))
		}
	}

	var hint string
	switch {
	case c.InstallEnabled():
		hint = styles.AccentStyle.Render("i") + styles.DimStyle.Render(" install  [ ] choose version")
	case m.svc.Installer == nil:
		hint = styles.DimStyle.Render("installing is not configured")
	default:
		hint = styles.WarnStyle.Render("an install is in progress")
	}
	return append(out, indent.Render(hint))
}

func (m *Model) renderSentinel(selected bool) string {
	var line string
	if m.session.LastError() == domain.ErrorTransport {
		msg := "failed to load"
		if err := m.session.Err(); err != nil {
			msg += ": " + err.Error()
		}
		line = "  " + styles.ErrorStyle.Render(styles.Truncate(msg, max(m.Width-20, 10))) +
			styles.DimStyle.Render("  (r to retry)")
	} else {
		line = "  " + m.spinner.View() + styles.DimStyle.Render(" loading…")
	}
	if selected {
		return styles.SelectedRowStyle.Width(m.Width).Render(line)
	}
	return line
}

func (m *Model) renderFooter() string {
	var left string
	switch {
	case m.StatusMsg != "":
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	case m.svc.Tasks.TasksRunning():
		left = m.spinner.View() + " " + styles.DimStyle.Render(m.tasksText())
	}

	right := m.help.View(Keys)
	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return styles.Truncate(left, m.Width)
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) tasksText() string {
	tasks := m.svc.Tasks.Running()
	if len(tasks) == 0 {
		return ""
	}
	text := tasks[0].Name
	if pct, ok := m.progress[tasks[0].ID]; ok {
		text += " " + pct
	}
	if len(tasks) > 1 {
		text += fmt.Sprintf(" (+%d)", len(tasks)-1)
	}
	return text
}

// renderHelp renders the help screen
func (m *Model) renderHelp() string {
	h := m.help
	h.ShowAll = true
	content := h.View(Keys) + "\n\n" + styles.DimStyle.Render("Press any key to return...")
	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(content))
}

// formatCount renders a download count compactly (1.2k, 3.4M)
func formatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
