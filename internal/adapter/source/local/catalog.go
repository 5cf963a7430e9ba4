// Package local serves a catalog from a JSON file, for offline use and demos
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/modbrowse/internal/domain"
)

// Entry is one project in the catalog file
type Entry struct {
	ID          string         `json:"id"`
	Slug        string         `json:"slug,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Icon        string         `json:"icon,omitempty"` // Path relative to the catalog file, or file:// URL
	Modpack     bool           `json:"modpack,omitempty"`
	Downloads   int64          `json:"downloads,omitempty"`
	Versions    []EntryVersion `json:"versions,omitempty"`
}

// EntryVersion is one installable version of an entry
type EntryVersion struct {
	Name         string   `json:"name"`
	Number       string   `json:"number"`
	GameVersions []string `json:"game_versions,omitempty"`
	FileURL      string   `json:"file_url"`
	FileName     string   `json:"file_name,omitempty"`
}

// Catalog implements domain.Catalog over a catalog file
type Catalog struct {
	entries  []Entry
	byID     map[string]int
	baseDir  string
	pageSize int
	logger   *slog.Logger
}

// Open reads the catalog file at path
func Open(path string, pageSize int, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	c := &Catalog{
		entries:  entries,
		byID:     make(map[string]int, len(entries)),
		baseDir:  filepath.Dir(path),
		pageSize: pageSize,
		logger:   logger,
	}
	for i, e := range entries {
		c.byID[e.ID] = i
	}
	logger.Info("loaded local catalog", "path", path, "entries", len(entries))
	return c, nil
}

// matching returns the entries that satisfy criteria, best match first.
// An empty query keeps file order.
func (c *Catalog) matching(criteria domain.SearchCriteria) []Entry {
	var candidates []Entry
	for _, e := range c.entries {
		if e.Modpack != criteria.Modpacks {
			continue
		}
		if criteria.MCVersion != "" && !supports(e, criteria.MCVersion) {
			continue
		}
		candidates = append(candidates, e)
	}

	query := strings.TrimSpace(criteria.Query)
	if query == "" {
		return candidates
	}

	titles := make([]string, len(candidates))
	for i, e := range candidates {
		titles[i] = e.Title
	}
	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Stable(ranks)

	out := make([]Entry, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, candidates[r.OriginalIndex])
	}
	return out
}

func supports(e Entry, gameVersion string) bool {
	for _, v := range e.Versions {
		if slices.Contains(v.GameVersions, gameVersion) {
			return true
		}
	}
	return false
}

// Search implements domain.SearchRepository
func (c *Catalog) Search(ctx context.Context, criteria domain.SearchCriteria, prev *domain.SearchResult) (*domain.PageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all := c.matching(criteria)
	offset := 0
	if prev != nil {
		offset = prev.Fetched
	}
	if offset >= len(all) {
		return &domain.PageResult{TotalHits: len(all)}, nil
	}
	end := min(offset+c.pageSize, len(all))

	items := make([]domain.Item, 0, end-offset)
	for _, e := range all[offset:end] {
		items = append(items, c.toItem(e))
	}
	return &domain.PageResult{
		Items:     items,
		TotalHits: len(all),
		EndOfData: end == len(all),
	}, nil
}

// GetDetails implements domain.DetailRepository
func (c *Catalog) GetDetails(ctx context.Context, item domain.Item) (*domain.Detail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i, ok := c.byID[item.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	e := c.entries[i]
	versions := make([]domain.Version, 0, len(e.Versions))
	for _, v := range e.Versions {
		versions = append(versions, domain.Version{
			Name:        v.Name,
			Number:      v.Number,
			GameVersion: v.GameVersions,
			FileURL:     v.FileURL,
			FileName:    v.FileName,
		})
	}
	return &domain.Detail{Item: item, Versions: versions}, nil
}

// FetchIcon implements domain.IconSource. Only local files are served.
func (c *Catalog) FetchIcon(ctx context.Context, key, iconURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := c.iconPath(iconURL)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		c.logger.Debug("icon file missing", "key", key, "path", path)
		return nil, nil
	}
	return data, err
}

func (c *Catalog) iconPath(iconURL string) string {
	if iconURL == "" {
		return ""
	}
	if u, err := url.Parse(iconURL); err == nil && u.Scheme != "" {
		if u.Scheme != "file" {
			return ""
		}
		return u.Path
	}
	if filepath.IsAbs(iconURL) {
		return iconURL
	}
	return filepath.Join(c.baseDir, iconURL)
}

func (c *Catalog) toItem(e Entry) domain.Item {
	return domain.Item{
		ID:          e.ID,
		Slug:        e.Slug,
		Title:       e.Title,
		Description: e.Description,
		IconURL:     e.Icon,
		Source:      domain.SourceLocal,
		Modpack:     e.Modpack,
		Downloads:   e.Downloads,
	}
}

// Len returns the number of entries in the file
func (c *Catalog) Len() int {
	return len(c.entries)
}
