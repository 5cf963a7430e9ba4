// Package install downloads a selected version file into the install
// directory. Installs run on the worker pool and are counted by the
// progress counter while they run.
package install

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/mmcdole/modbrowse/internal/progress"
	"github.com/mmcdole/modbrowse/internal/slot"
	"github.com/natefinch/atomic"
)

// Config holds installer options
type Config struct {
	Dir       string
	UserAgent string
	Timeout   time.Duration
}

// Service implements domain.Installer
type Service struct {
	cfg        Config
	client     *http.Client
	exec       slot.Executor
	post       slot.Poster
	tasks      *progress.Counter
	parent     context.Context
	onResult   func(domain.InstallResult)
	onProgress func(taskID string, loaded, total int64)
	logger     *slog.Logger
}

// New creates an installer scheduling downloads on exec
func New(cfg Config, exec slot.Executor, post slot.Poster, tasks *progress.Counter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	s := &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		exec:   exec,
		post:   post,
		tasks:  tasks,
		parent: context.Background(),
		logger: logger,
	}
	if p, ok := exec.(interface{ Context() context.Context }); ok {
		s.parent = p.Context()
	}
	return s
}

// OnResult sets the function receiving finished installs on the
// coordination context
func (s *Service) OnResult(fn func(domain.InstallResult)) {
	s.onResult = fn
}

// OnProgress sets the function receiving download progress. It is called
// from the worker goroutine.
func (s *Service) OnProgress(fn func(taskID string, loaded, total int64)) {
	s.onProgress = fn
}

// Install schedules the download of detail's version at versionIndex
func (s *Service) Install(detail *domain.Detail, versionIndex int) error {
	if detail == nil || versionIndex < 0 || versionIndex >= len(detail.Versions) {
		return domain.ErrNoVersion
	}
	v := detail.Versions[versionIndex]
	if v.FileURL == "" {
		return fmt.Errorf("version %q has no file: %w", v.Number, domain.ErrNoVersion)
	}
	item := detail.Item

	id, end := s.tasks.Begin("install " + item.Title)
	err := s.exec.Go(func() {
		res := domain.InstallResult{TaskID: id, ItemKey: item.Key(), Version: v.Number}
		res.Path, res.Bytes, res.Err = s.download(s.parent, id, v)
		if res.Err != nil {
			s.logger.Error("failed to install", "error", res.Err, "item", item.Key(), "version", v.Number)
		} else {
			s.logger.Info("installed", "item", item.Key(), "version", v.Number, "path", res.Path, "bytes", res.Bytes)
		}
		end()
		if s.onResult != nil {
			s.post.Post(func() { s.onResult(res) })
		}
	})
	if err != nil {
		end()
		return fmt.Errorf("failed to schedule install: %w", err)
	}
	return nil
}

func (s *Service) download(ctx context.Context, taskID string, v domain.Version) (string, int64, error) {
	name := fileName(v)
	if name == "" {
		return "", 0, fmt.Errorf("cannot derive file name for %q: %w", v.FileURL, domain.ErrBadResponse)
	}

	if err := os.MkdirAll(s.cfg.Dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create install directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.FileURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", 0, domain.ErrNotFound
	case http.StatusTooManyRequests:
		return "", 0, domain.ErrRateLimited
	default:
		return "", 0, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	body := &countingReader{r: resp.Body, total: resp.ContentLength}
	if s.onProgress != nil {
		body.report = func(loaded, total int64) { s.onProgress(taskID, loaded, total) }
	}

	dest := filepath.Join(s.cfg.Dir, name)
	if err := atomic.WriteFile(dest, body); err != nil {
		return "", 0, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return dest, body.n, nil
}

// fileName picks a safe base name for the downloaded file
func fileName(v domain.Version) string {
	name := v.FileName
	if name == "" {
		if u, err := url.Parse(v.FileURL); err == nil {
			name = path.Base(u.Path)
		}
	}
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

type countingReader struct {
	r      io.Reader
	n      int64
	total  int64
	report domain.ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if n > 0 && c.report != nil {
		c.report(c.n, c.total)
	}
	return n, err
}
