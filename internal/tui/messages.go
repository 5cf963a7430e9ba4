package tui

// InboxMsg signals that work results are waiting in the inbox
type InboxMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct {
	Seq int
}

// LaunchedMsg reports the outcome of opening a project page
type LaunchedMsg struct {
	URL string
	Err error
}
