package domain

import (
	"context"
)

// SearchRepository fetches pages of catalog search results.
// prev is nil for the first page; otherwise it is the result accumulated so far.
// Implementations may be called from any worker goroutine and must not
// mutate prev.
type SearchRepository interface {
	Search(ctx context.Context, criteria SearchCriteria, prev *SearchResult) (*PageResult, error)
}

// DetailRepository fetches extended information for a single item
type DetailRepository interface {
	GetDetails(ctx context.Context, item Item) (*Detail, error)
}

// IconSource fetches raw icon bytes. A nil slice with a nil error means the
// item has no icon.
type IconSource interface {
	FetchIcon(ctx context.Context, key, url string) ([]byte, error)
}

// Catalog combines the repository interfaces a catalog backend must implement
type Catalog interface {
	SearchRepository
	DetailRepository
	IconSource
}

// Installer installs one version of a detailed item. Install is
// fire-and-forget: it returns once the work is scheduled.
type Installer interface {
	Install(detail *Detail, versionIndex int) error
}

// TaskState exposes whether background tasks (installs) are running.
// Install affordances are disabled while it reports true.
type TaskState interface {
	TasksRunning() bool
}
