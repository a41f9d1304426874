// Package dashboard wires the pipeline to discrete UI events. Every handler
// rebuilds its own output from the immutable dataset and the current
// selection; a later event always supersedes an earlier one.
package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"examdash/internal/dataset"
	"examdash/internal/detail"
	"examdash/internal/leaderboard"
	"examdash/internal/search"
	"examdash/internal/series"
)

var (
	// ErrUnknownStudent is returned when a selection names no roster entry
	ErrUnknownStudent = errors.New("unknown student")
	// ErrNotLoaded is returned by handlers that need the dataset before it
	// arrived, or after the load failed
	ErrNotLoaded = errors.New("dataset not loaded")
)

// Overview is everything the aggregate view draws.
type Overview struct {
	series.Aggregates
	Top    leaderboard.Board `json:"top_improvers"`
	Bottom leaderboard.Board `json:"bottom_improvers"`
}

// Renderer receives fully-formed outputs. Implementations must not call
// back into the Controller from these methods.
type Renderer interface {
	RenderOverview(Overview)
	RenderMatches([]search.Result)
	RenderDetail(detail.Projection)
	Resize(width, height int)
}

// Controller owns the loaded dataset and the single current selection.
type Controller struct {
	mu       sync.Mutex
	logger   *slog.Logger
	renderer Renderer

	ds         *dataset.Dataset
	matcher    *search.Matcher
	overview   Overview
	matches    []search.Result
	state      detail.State
	projection detail.Projection
	failed     error
	width      int
	height     int
}

// New creates a controller. A nil renderer or logger is allowed.
func New(r Renderer, logger *slog.Logger) *Controller {
	if r == nil {
		r = nopRenderer{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		renderer: r,
		logger:   logger,
		matches:  []search.Result{},
	}
}

// BuildOverview derives the overview outputs from ds.
func BuildOverview(ds *dataset.Dataset) Overview {
	top, bottom := leaderboard.Both(ds)
	return Overview{
		Aggregates: series.Build(ds),
		Top:        top,
		Bottom:     bottom,
	}
}

// OnLoad installs the dataset, derives the overview and search index, and
// renders the overview. It is ignored after a load failure.
func (c *Controller) OnLoad(ds *dataset.Dataset) {
	c.mu.Lock()
	if c.failed != nil {
		c.mu.Unlock()
		return
	}
	ds.Normalize()
	c.ds = ds
	c.matcher = search.New(ds.Students)
	c.overview = BuildOverview(ds)
	c.matches = []search.Result{}
	overview := c.overview
	c.mu.Unlock()

	c.logger.Info("Dataset loaded",
		"students", len(ds.Students),
		"subjects", len(ds.SubjectStats),
		"classes", len(ds.ClassStats))
	c.renderer.RenderOverview(overview)
}

// OnLoadError records a terminal load failure. There is no retry.
func (c *Controller) OnLoadError(err error) {
	c.mu.Lock()
	c.failed = err
	c.mu.Unlock()

	c.logger.Error("Dataset load failed", "error", err)
}

// OnInput recomputes the match list for query.
func (c *Controller) OnInput(query string) []search.Result {
	c.mu.Lock()
	if c.matcher == nil {
		c.mu.Unlock()
		return []search.Result{}
	}
	c.matches = c.matcher.Match(query)
	matches := c.matches
	c.mu.Unlock()

	c.renderer.RenderMatches(matches)
	return matches
}

// OnSelect shows the student with id, replacing any current detail, and
// clears the match list. Reselecting the shown student is safe.
func (c *Controller) OnSelect(id string) (detail.Projection, error) {
	c.mu.Lock()
	if c.ds == nil {
		c.mu.Unlock()
		return detail.Projection{}, ErrNotLoaded
	}
	student, ok := c.ds.Student(id)
	if !ok {
		c.mu.Unlock()
		return detail.Projection{}, fmt.Errorf("%w: %s", ErrUnknownStudent, id)
	}

	next, changed := c.state.Select(id)
	c.state = next
	c.projection = detail.Project(student)
	c.matches = []search.Result{}
	projection := c.projection
	c.mu.Unlock()

	if changed {
		c.logger.Info("Student selected", "student_id", id, "name", student.Name)
	}
	c.renderer.RenderMatches([]search.Result{})
	c.renderer.RenderDetail(projection)
	return projection, nil
}

// OnResize re-renders the cached outputs at the new size without
// recomputing them.
func (c *Controller) OnResize(width, height int) {
	c.mu.Lock()
	c.width, c.height = width, height
	loaded := c.ds != nil
	overview := c.overview
	shown := c.state.Shown()
	projection := c.projection
	c.mu.Unlock()

	c.renderer.Resize(width, height)
	if loaded {
		c.renderer.RenderOverview(overview)
	}
	if shown {
		c.renderer.RenderDetail(projection)
	}
}

// Loaded reports whether a dataset is installed.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ds != nil
}

// Failed returns the terminal load error, if any.
func (c *Controller) Failed() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

// Dataset returns the installed dataset, or nil.
func (c *Controller) Dataset() *dataset.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ds
}

// Overview returns the cached overview.
func (c *Controller) Overview() (Overview, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overview, c.ds != nil
}

// Matches returns the current match list.
func (c *Controller) Matches() []search.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matches
}

// Detail returns the current projection while a student is shown.
func (c *Controller) Detail() (detail.Projection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection, c.state.Shown()
}

// State returns the detail view state.
func (c *Controller) State() detail.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Size returns the last viewport size.
func (c *Controller) Size() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

type nopRenderer struct{}

func (nopRenderer) RenderOverview(Overview)        {}
func (nopRenderer) RenderMatches([]search.Result)  {}
func (nopRenderer) RenderDetail(detail.Projection) {}
func (nopRenderer) Resize(int, int)                {}
