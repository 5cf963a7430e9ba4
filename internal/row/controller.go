// Package row implements the per-row state machine for recycled list rows.
// A Controller belongs to a row container, not to an item: binding it to a
// new item revokes whatever was still loading for the previous one.
package row

import (
	"context"
	"log/slog"

	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/mmcdole/modbrowse/internal/imagecache"
	"github.com/mmcdole/modbrowse/internal/slot"
)

// IconRequester is the part of the image cache a row uses
type IconRequester interface {
	Request(key, url string, recv imagecache.Receiver) imagecache.Handle
	Cancel(h imagecache.Handle)
}

// Deps are the collaborators shared by every row
type Deps struct {
	Details   domain.DetailRepository
	Icons     IconRequester
	Exec      slot.Executor
	Post      slot.Poster
	Issuer    *slot.Issuer     // optional
	Tasks     domain.TaskState // optional, nil means no tasks ever run
	Installer domain.Installer // optional, nil disables install
	OnChange  func(c *Controller)
	Logger    *slog.Logger
}

// Controller is the state of one row container. All methods must be called
// on the coordination context.
type Controller struct {
	id     int
	deps   Deps
	logger *slog.Logger
	parent context.Context

	bound bool
	item  domain.Item
	gen   uint64

	expanded    bool
	detailState DetailState
	detail      *domain.Detail
	detailErr   error
	details     *slot.Holder
	selected    int

	iconState   IconState
	icon        *imagecache.Image
	iconHandle  imagecache.Handle
	iconPending bool
}

// New creates an idle controller for the row container id
func New(id int, d Deps) *Controller {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	issuer := d.Issuer
	if issuer == nil {
		issuer = slot.NewIssuer(logger)
	}
	c := &Controller{
		id:      id,
		deps:    d,
		logger:  logger.With("row", id),
		parent:  context.Background(),
		details: slot.NewHolder(issuer),
	}
	if p, ok := d.Exec.(interface{ Context() context.Context }); ok {
		c.parent = p.Context()
	}
	return c
}

// Bind assigns item to the row. Rebinding the same item keeps its state;
// a different item revokes pending work and starts over with an icon request.
func (c *Controller) Bind(item domain.Item) {
	if c.bound && c.item.Key() == item.Key() {
		return
	}
	c.release()

	c.bound = true
	c.item = item
	c.gen++
	c.expanded = false
	c.detailState = DetailNone
	c.detail = nil
	c.detailErr = nil
	c.selected = 0
	c.iconState = IconNone

	c.requestIcon()
}

// Unbind returns the row to idle. Call it before the container is reused.
func (c *Controller) Unbind() {
	if !c.bound {
		return
	}
	c.release()

	c.bound = false
	c.item = domain.Item{}
	c.gen++
	c.expanded = false
	c.detailState = DetailNone
	c.detail = nil
	c.detailErr = nil
	c.selected = 0
	c.iconState = IconNone
}

func (c *Controller) release() {
	c.details.Revoke()
	if c.iconPending && c.deps.Icons != nil {
		c.deps.Icons.Cancel(c.iconHandle)
	}
	c.iconPending = false
	c.iconHandle = imagecache.Handle{}
	c.icon = nil
}

func (c *Controller) requestIcon() {
	if !c.item.HasIcon() || c.deps.Icons == nil {
		c.iconState = IconAbsent
		return
	}

	gen := c.gen
	c.iconState = IconLoading
	c.iconPending = true
	h := c.deps.Icons.Request(c.item.IconKey(), c.item.IconURL, func(img *imagecache.Image) {
		if c.gen != gen {
			return
		}
		c.iconPending = false
		if img == nil {
			c.iconState = IconAbsent
		} else {
			c.iconState = IconLoaded
			c.icon = img
		}
		c.changed()
	})
	if c.iconPending {
		c.iconHandle = h
	}
}

// Expand shows the detail presentation and fetches detail if it is not
// loaded or loading. Returns true if a fetch was started.
func (c *Controller) Expand() bool {
	if !c.bound {
		return false
	}
	c.expanded = true

	if c.detailState == DetailLoaded || c.details.Active() {
		c.changed()
		return false
	}

	c.detailState = DetailLoading
	c.detailErr = nil
	sl := c.details.Replace(c.parent)
	tok := sl.Token()
	item := c.item

	slot.Spawn(sl, c.deps.Exec, c.deps.Post, func(ctx context.Context) (*domain.Detail, error) {
		return c.deps.Details.GetDetails(ctx, item)
	}, func(d *domain.Detail, err error) {
		c.finishDetail(tok, d, err)
	})

	c.changed()
	return true
}

func (c *Controller) finishDetail(tok slot.Token, d *domain.Detail, err error) {
	if !c.details.Release(tok) {
		c.logger.Debug("discarding stale detail", "token", uint64(tok))
		return
	}

	if err != nil || d == nil {
		c.detailState = DetailFailed
		c.detailErr = err
		c.logger.Warn("failed to fetch details", "error", err, "item", c.item.Key())
	} else {
		c.detailState = DetailLoaded
		c.detail = d
		c.selected = 0
	}
	c.changed()
}

// Collapse hides the detail presentation. Fetched detail is kept.
func (c *Controller) Collapse() {
	if !c.expanded {
		return
	}
	c.expanded = false
	c.changed()
}

// Toggle flips between expanded and collapsed
func (c *Controller) Toggle() {
	if c.expanded {
		c.Collapse()
	} else {
		c.Expand()
	}
}

// SelectVersion chooses the version Install will use
func (c *Controller) SelectVersion(index int) error {
	if c.detailState != DetailLoaded || index < 0 || index >= len(c.detail.Versions) {
		return domain.ErrNoVersion
	}
	c.selected = index
	c.changed()
	return nil
}

// InstallEnabled reports whether the install affordance is available
func (c *Controller) InstallEnabled() bool {
	if c.deps.Installer == nil || c.detailState != DetailLoaded || len(c.detail.Versions) == 0 {
		return false
	}
	return c.deps.Tasks == nil || !c.deps.Tasks.TasksRunning()
}

// Install hands the selected version to the installer
func (c *Controller) Install() error {
	if !c.InstallEnabled() {
		return domain.ErrInstallDisabled
	}
	if c.selected < 0 || c.selected >= len(c.detail.Versions) {
		return domain.ErrNoVersion
	}
	c.logger.Info("installing", "item", c.item.Key(), "version", c.detail.Versions[c.selected].Number)
	return c.deps.Installer.Install(c.detail, c.selected)
}

// TasksChanged re-renders the row when install availability may have changed
func (c *Controller) TasksChanged() {
	if c.bound && c.expanded {
		c.changed()
	}
}

func (c *Controller) changed() {
	if c.deps.OnChange != nil {
		c.deps.OnChange(c)
	}
}

// ID returns the row container id
func (c *Controller) ID() int { return c.id }

// Bound reports whether an item is bound
func (c *Controller) Bound() bool { return c.bound }

// Item returns the bound item
func (c *Controller) Item() domain.Item { return c.item }

// Generation changes on every bind and unbind
func (c *Controller) Generation() uint64 { return c.gen }

// Expanded reports whether the detail presentation is shown
func (c *Controller) Expanded() bool { return c.expanded }

// DetailState returns the detail fetch state
func (c *Controller) DetailState() DetailState { return c.detailState }

// Detail returns the fetched detail, or nil
func (c *Controller) Detail() *domain.Detail { return c.detail }

// DetailErr returns why the last detail fetch failed
func (c *Controller) DetailErr() error { return c.detailErr }

// Selected returns the selected version index
func (c *Controller) Selected() int { return c.selected }

// IconState returns the icon request state
func (c *Controller) IconState() IconState { return c.iconState }

// Icon returns the loaded icon, or nil
func (c *Controller) Icon() *imagecache.Image { return c.icon }

// ErrorKind returns the row-local failure shown to the user, if any
func (c *Controller) ErrorKind() domain.ErrorKind {
	switch {
	case c.detailState == DetailFailed:
		return domain.ErrorDetailUnavailable
	case c.iconState == IconAbsent:
		return domain.ErrorIconAbsent
	default:
		return domain.ErrorNone
	}
}
