package tui

import (
	"github.com/mmcdole/modbrowse/internal/row"
	"github.com/mmcdole/modbrowse/internal/search"
)

// resizeRows grows or shrinks the row container pool to n
func (m *Model) resizeRows(n int) {
	n = max(n, 1)
	for len(m.rows) < n {
		m.nextRow++
		m.rows = append(m.rows, row.New(m.nextRow, m.rowDeps))
	}
	for len(m.rows) > n {
		last := m.rows[len(m.rows)-1]
		last.Unbind()
		m.rows = m.rows[:len(m.rows)-1]
	}
}

// syncRows binds the row containers to the entries on screen. A container
// already bound to a visible item keeps it; the rest are recycled for the
// newly visible items and any left over are unbound. Touching the sentinel
// asks the session for the next page.
func (m *Model) syncRows() {
	m.dirty = false
	m.clampCursor()
	n := len(m.rows)

	var entries []search.Entry
	want := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		e, ok := m.proj.Touch(m.offset + i)
		if !ok {
			break
		}
		entries = append(entries, e)
		if !e.Sentinel {
			want[e.Item.Key()] = true
		}
	}

	kept := make(map[string]*row.Controller, n)
	var free []*row.Controller
	for _, c := range m.rows {
		if c.Bound() && want[c.Item().Key()] {
			kept[c.Item().Key()] = c
		} else {
			free = append(free, c)
		}
	}

	m.visible = m.visible[:0]
	for _, e := range entries {
		if e.Sentinel {
			m.visible = append(m.visible, nil)
			continue
		}
		c, ok := kept[e.Item.Key()]
		if !ok {
			c, free = free[0], free[1:]
			c.Bind(e.Item)
		}
		m.visible = append(m.visible, c)
	}
	for _, c := range free {
		c.Unbind()
	}
	// Touch may have started a load that flagged the model again
	m.dirty = false
}

// clampCursor keeps the cursor on an existing entry and inside the window
func (m *Model) clampCursor() {
	count := m.proj.Count()
	if m.cursor >= count {
		m.cursor = count - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if n := len(m.rows); n > 0 && m.cursor >= m.offset+n {
		m.offset = m.cursor - n + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.syncRows()
}

func (m *Model) pageSize() int {
	return max(len(m.rows)-1, 1)
}

// current returns the controller under the cursor, or nil on the sentinel
func (m *Model) current() *row.Controller {
	i := m.cursor - m.offset
	if i < 0 || i >= len(m.visible) {
		return nil
	}
	return m.visible[i]
}
