package domain

import "strings"

// Source identifies the catalog backend an item came from
type Source string

const (
	SourceModrinth Source = "modrinth"
	SourceLocal    Source = "local"
)

// Badge returns a short label for the source (rendered next to the title)
func (s Source) Badge() string {
	switch s {
	case SourceModrinth:
		return "MR"
	case SourceLocal:
		return "LC"
	default:
		return "??"
	}
}

// Item is a catalog entry as returned by a search page.
// Items are immutable once fetched; copy them by value.
type Item struct {
	ID          string // Backend project identifier
	Slug        string // URL-friendly name (may be empty)
	Title       string // Display title
	Description string // Short summary
	IconURL     string // Icon location, empty when the project has none
	Source      Source // Backend the item came from
	Modpack     bool   // True for modpacks, false for single mods
	Downloads   int64  // Download count reported by the backend
}

// Key returns the identity of the item across pages and sources
func (i Item) Key() string {
	return string(i.Source) + ":" + i.ID
}

// IconKey returns the image cache key for the item's icon
func (i Item) IconKey() string {
	return i.Key()
}

// HasIcon reports whether the item references an icon
func (i Item) HasIcon() bool {
	return strings.TrimSpace(i.IconURL) != ""
}

// Version is one installable release of an item
type Version struct {
	Name        string   // Human readable version name
	Number      string   // Version number string
	GameVersion []string // Supported game versions
	FileURL     string   // Primary file download location
	FileName    string   // Primary file name
}

// Detail is the extended information fetched when a row is expanded
type Detail struct {
	Item     Item
	Versions []Version
}

// VersionNames returns the selectable names in display order
func (d *Detail) VersionNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.Versions))
	for i, v := range d.Versions {
		if v.Name != "" {
			names[i] = v.Name
		} else {
			names[i] = v.Number
		}
	}
	return names
}

// SearchCriteria is the active filter set. It is a value type:
// replacing it starts a new search.
type SearchCriteria struct {
	Query     string
	Modpacks  bool   // Search modpacks instead of mods
	MCVersion string // Restrict to a game version, empty for any
}

// IsZero reports whether no criteria have been set
func (c SearchCriteria) IsZero() bool {
	return c == SearchCriteria{}
}

// SearchResult is the accumulated result of a search. It doubles as the
// continuation cursor handed back to the catalog for the next page.
type SearchResult struct {
	Items     []Item // Accumulated, de-duplicated items in display order
	Fetched   int    // Raw number of entries consumed from the backend so far
	TotalHits int    // Total reported by the backend (0 when unknown)
}

// PageResult is one page returned by the catalog
type PageResult struct {
	Items     []Item
	TotalHits int
	EndOfData bool // Backend knows there is nothing after this page
}
