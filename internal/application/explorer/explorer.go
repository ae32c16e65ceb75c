// Package explorer is the adapter layer between the resolver, the suggestion
// engine and a front end. It owns the current session, the re-entrancy guard
// and the render/display sequencing of a search.
package explorer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/turtacn/molexplorer/internal/application/render"
	"github.com/turtacn/molexplorer/internal/application/resolver"
	"github.com/turtacn/molexplorer/internal/domain/compound"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/internal/infrastructure/storage"
	"github.com/turtacn/molexplorer/pkg/errors"
)

// Resolver resolves a finalized query.
type Resolver interface {
	ResolveWithProgress(ctx context.Context, query string, progress resolver.ProgressFunc) (*resolver.Result, error)
}

// Suggester produces autocomplete suggestions.
type Suggester interface {
	Suggest(raw string) []compound.Suggestion
}

// Export is a downloadable copy of the current structure.
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Explorer drives one session. Methods are safe for concurrent use, but only
// one search runs at a time.
type Explorer struct {
	resolver  Resolver
	suggester Suggester
	viewer    render.Viewer
	display   Display
	samples   *compound.SampleSet
	logger    logging.Logger
	now       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	// mu serializes viewer calls and session swaps.
	mu      sync.Mutex
	style   render.Style
	session atomic.Pointer[Session]
	loading atomic.Bool
}

// Option configures an Explorer.
type Option func(*Explorer)

func WithLogger(l logging.Logger) Option {
	return func(e *Explorer) {
		if l != nil {
			e.logger = l.Named("explorer")
		}
	}
}

// WithRand sets the source used by Random.
func WithRand(r *rand.Rand) Option {
	return func(e *Explorer) { e.rng = r }
}

// WithSamples replaces compound.DefaultSamples.
func WithSamples(s *compound.SampleSet) Option {
	return func(e *Explorer) {
		if s != nil {
			e.samples = s
		}
	}
}

// WithStyle sets the initial render style.
func WithStyle(s render.Style) Option {
	return func(e *Explorer) { e.style = s }
}

// WithClock overrides time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Explorer) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an explorer. A nil display discards output.
func New(res Resolver, suggester Suggester, viewer render.Viewer, display Display, opts ...Option) *Explorer {
	if display == nil {
		display = nopDisplay{}
	}
	e := &Explorer{
		resolver:  res,
		suggester: suggester,
		viewer:    viewer,
		display:   display,
		samples:   compound.DefaultSamples,
		logger:    logging.NewNopLogger(),
		now:       time.Now,
		style:     render.DefaultStyle,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.session.Store(emptySession(0))
	return e
}

// Current returns the current session. It is never nil.
func (e *Explorer) Current() *Session {
	return e.session.Load()
}

// Loading reports whether a search is in flight.
func (e *Explorer) Loading() bool {
	return e.loading.Load()
}

// Style returns the active render style.
func (e *Explorer) Style() render.Style {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.style
}

// Suggest returns suggestions for the text typed so far.
func (e *Explorer) Suggest(input string) []compound.Suggestion {
	if e.suggester == nil {
		return nil
	}
	return e.suggester.Suggest(input)
}

// Search resolves query and, on success, renders it and makes it current.
// On failure the previous session stays current and exactly one error toast
// is emitted. A blank query is ignored; a search started while another is
// loading fails with SearchInProgress.
func (e *Explorer) Search(ctx context.Context, query string) (*Session, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.InvalidParam("search query must not be empty")
	}
	if !e.loading.CompareAndSwap(false, true) {
		e.logger.Debug("search rejected, another is loading", logging.String("query", query))
		return nil, errors.New(errors.ErrCodeSearchInProgress, "")
	}
	defer e.loading.Store(false)

	e.display.SetLoading(true)
	defer e.display.SetLoading(false)

	session, err := e.search(ctx, query)
	if err != nil {
		e.logger.Error("search failed",
			logging.String("query", query),
			logging.String("kind", errors.Kind(err)),
			logging.Err(err))
		e.display.Notify(Toast{Severity: SeverityError, Message: errors.Message(err)})
		e.display.SetStatus(StatusReady)
		return nil, err
	}
	return session, nil
}

func (e *Explorer) search(ctx context.Context, query string) (*Session, error) {
	e.display.SetStatus(StatusSearching)
	res, err := e.resolver.ResolveWithProgress(ctx, query, func(s resolver.Stage) {
		switch s {
		case resolver.StageProperties:
			e.display.SetStatus(StatusLoadingProps)
		case resolver.StageStructure:
			e.display.SetStatus(StatusLoadingStructure)
		}
	})
	if err != nil {
		return nil, err
	}

	info := InfoFor(res)

	e.mu.Lock()
	prev := e.session.Load()
	if err := render.Apply(e.viewer, res.Structure, render.Preset(e.style)); err != nil {
		e.restore(prev)
		e.mu.Unlock()
		return nil, err
	}
	next := sessionFrom(prev.Version+1, res, info, e.now())
	e.session.Store(next)
	e.mu.Unlock()

	for _, n := range res.Notices {
		e.display.Notify(toastFor(n))
	}
	e.display.ShowCompound(info)
	e.display.SetStatus(fmt.Sprintf(statusLoadedFmt, res.DisplayName))
	e.display.Notify(Toast{Severity: SeveritySuccess, Message: fmt.Sprintf(msgLoadedFmt, res.DisplayName)})
	return next, nil
}

// restore puts the previous structure back after a failed render. Caller
// holds mu.
func (e *Explorer) restore(prev *Session) {
	var err error
	if prev.Loaded() {
		err = render.Apply(e.viewer, prev.Structure, render.Preset(e.style))
	} else {
		err = render.Blank(e.viewer)
	}
	if err != nil {
		e.logger.Warn("failed to restore previous structure", logging.Err(err))
	}
}

// RandomName picks a sample compound uniformly.
func (e *Explorer) RandomName() string {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.samples.Random(e.rng)
}

// Random searches a randomly chosen sample compound.
func (e *Explorer) Random(ctx context.Context) (*Session, error) {
	return e.Search(ctx, e.RandomName())
}

// Clear empties the viewer and replaces the session with an empty one.
func (e *Explorer) Clear() {
	e.mu.Lock()
	if err := render.Blank(e.viewer); err != nil {
		e.logger.Warn("failed to clear viewer", logging.Err(err))
	}
	prev := e.session.Load()
	e.session.Store(emptySession(prev.Version + 1))
	e.mu.Unlock()

	e.display.ShowCompound(EmptyInfo())
	e.display.SetStatus(StatusReady)
	e.display.Notify(Toast{Severity: SeverityInfo, Message: msgCleared})
}

// SetStyle switches the render style, re-rendering the current structure.
func (e *Explorer) SetStyle(style render.Style) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.style = style
	if !e.session.Load().Loaded() {
		return nil
	}
	return render.Restyle(e.viewer, render.Preset(style))
}

// ResetView re-centres the current structure.
func (e *Explorer) ResetView() error {
	e.mu.Lock()
	if !e.session.Load().Loaded() {
		e.mu.Unlock()
		return nil
	}
	err := render.Reset(e.viewer)
	e.mu.Unlock()
	if err != nil {
		e.logger.Warn("failed to reset view", logging.Err(err))
		return err
	}
	e.display.Notify(Toast{Severity: SeveritySuccess, Message: msgViewReset})
	return nil
}

// Export returns the current structure as a file. With nothing loaded it
// fails with NothingLoaded and an error toast.
func (e *Explorer) Export() (Export, error) {
	cur := e.session.Load()
	if !cur.Loaded() {
		err := errors.New(errors.ErrCodeNothingLoaded, "")
		e.display.Notify(Toast{Severity: SeverityError, Message: errors.Message(err)})
		return Export{}, err
	}
	return exportOf(cur), nil
}

// Download saves the current structure to store and returns its location.
func (e *Explorer) Download(ctx context.Context, store storage.ExportStore) (string, error) {
	exp, err := e.Export()
	if err != nil {
		return "", err
	}
	loc, err := store.Save(ctx, storage.Object{Key: exp.FileName, ContentType: exp.ContentType, Data: exp.Data})
	if err != nil {
		e.display.Notify(Toast{Severity: SeverityError, Message: errors.Message(err)})
		return "", err
	}
	e.display.Notify(Toast{Severity: SeveritySuccess, Message: msgDownloaded})
	return loc, nil
}

// ShareLink returns base with the current query as its search parameter.
func (e *Explorer) ShareLink(base string) (string, error) {
	cur := e.session.Load()
	if cur.CID == 0 {
		e.display.Notify(Toast{Severity: SeverityError, Message: msgNothingToShare})
		return "", errors.New(errors.ErrCodeNothingLoaded, msgNothingToShare)
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.InvalidParam("invalid share base URL").WithCause(err)
	}
	q := u.Query()
	q.Set("search", cur.Query)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// exportOf builds the export of a loaded session.
func exportOf(s *Session) Export {
	name := strings.TrimSpace(s.DisplayName)
	if name == "" {
		name = "compound"
	}
	return Export{
		FileName:    name + ".sdf",
		ContentType: storage.SDFContentType,
		Data:        []byte(s.Structure.Text),
	}
}
