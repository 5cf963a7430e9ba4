package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/mmcdole/modbrowse/internal/domain"
)

// Launcher opens project pages and folders in an external program
type Launcher struct {
	command string   // configured command, empty for system default
	args    []string // additional arguments for the command
	logger  *slog.Logger

	// start runs the prepared command; replaced in tests
	start func(cmd *exec.Cmd) error
}

// NewLauncher creates a launcher from the open configuration
func NewLauncher(cfg OpenConfig, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command: cfg.Command,
		args:    cfg.Args,
		logger:  logger,
		start:   func(cmd *exec.Cmd) error { return cmd.Start() }, // Start async, don't wait
	}
}

// ProjectURL returns the public page of an item, or "" if it has none
func ProjectURL(item domain.Item) string {
	if item.Source != domain.SourceModrinth {
		return ""
	}
	slug := item.Slug
	if slug == "" {
		slug = item.ID
	}
	kind := "mod"
	if item.Modpack {
		kind = "modpack"
	}
	return fmt.Sprintf("https://modrinth.com/%s/%s", kind, slug)
}

// Launch opens target (a URL or a path) in the configured program or the
// system default
func (l *Launcher) Launch(target string) error {
	if strings.TrimSpace(target) == "" {
		return fmt.Errorf("nothing to open")
	}

	var cmd *exec.Cmd
	if l.command != "" {
		args := append(append([]string{}, l.args...), target)
		l.logger.Info("launching configured command", "command", l.command, "args", args)
		cmd = exec.Command(l.command, args...)
	} else {
		cmd = defaultCommand(target)
		l.logger.Info("launching with system default", "os", runtime.GOOS, "target", target)
	}

	if err := l.start(cmd); err != nil {
		l.logger.Error("failed to launch", "error", err, "target", target)
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	return nil
}

// defaultCommand opens target with the system default handler
func defaultCommand(target string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", target)
	case "windows":
		return exec.Command("cmd", "/c", "start", "", target)
	default:
		// Linux and other Unix-like systems
		return exec.Command("xdg-open", target)
	}
}
