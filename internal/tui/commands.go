package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/modbrowse/internal/adapter"
)

// ClearStatusCmd returns a command that clears status after a delay.
// seq ties the clear to the message it was scheduled for.
func ClearStatusCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}

// OpenURLCmd opens url with the launcher
func OpenURLCmd(l *adapter.Launcher, url string) tea.Cmd {
	return func() tea.Msg {
		return LaunchedMsg{URL: url, Err: l.Launch(url)}
	}
}
