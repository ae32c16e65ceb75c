// Package resolver turns a finalized search query into a loaded compound:
// identifier, properties, structure record and display name.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/molexplorer/internal/domain/compound"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/pkg/errors"
)

// User-facing messages.
const (
	msgNotFound              = `Compound "%s" not found. Try checking the spelling or use a different name.`
	msgNoResults             = `No results found for "%s". Please check the spelling or try a synonym.`
	msgPropertiesUnavailable = "Failed to fetch compound properties"
	msgNoStructure           = "No molecular structure available"

	NoticeFallback2D = "3D coordinates unavailable, using 2D structure"
	NoticeNoSynonyms = "Alternate names unavailable"
)

// Source is the compound database as seen by the resolver.
type Source interface {
	LookupCIDs(ctx context.Context, name string) ([]compound.CID, error)
	Properties(ctx context.Context, cid compound.CID) (compound.Properties, error)
	Synonyms(ctx context.Context, cid compound.CID) ([]string, error)
	Structure(ctx context.Context, cid compound.CID, dim compound.Dimension) (string, error)
}

// Recorder receives per-resolution observations. kind is empty on success.
type Recorder interface {
	ObserveResolution(kind string, d time.Duration)
	ObserveStructureFallback()
}

// Severity of a Notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Notice is a non-fatal condition met while resolving.
type Notice struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Stage marks progress through a resolution.
type Stage int

const (
	StageLookup Stage = iota
	StageProperties
	StageStructure
)

func (s Stage) String() string {
	switch s {
	case StageLookup:
		return "lookup"
	case StageProperties:
		return "properties"
	case StageStructure:
		return "structure"
	default:
		return "unknown"
	}
}

// ProgressFunc is told when a stage begins.
type ProgressFunc func(Stage)

// Result is a fully resolved compound. It is only produced when every
// required step succeeded.
type Result struct {
	CID           compound.CID              `json:"cid"`
	Query         string                    `json:"query"`
	CanonicalName string                    `json:"canonical_name"`
	Properties    compound.Properties       `json:"properties"`
	Structure     compound.StructuralRecord `json:"-"`
	DisplayName   string                    `json:"display_name"`
	CommonName    string                    `json:"common_name"`
	Notices       []Notice                  `json:"notices,omitempty"`
}

// Resolver runs the lookup sequence against a Source.
type Resolver struct {
	source   Source
	synonyms *compound.SynonymMap
	logger   logging.Logger
	recorder Recorder
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l.Named("resolver")
		}
	}
}

func WithRecorder(rec Recorder) Option {
	return func(r *Resolver) { r.recorder = rec }
}

// New creates a resolver. A nil synonym map selects compound.DefaultSynonyms.
func New(source Source, synonyms *compound.SynonymMap, opts ...Option) *Resolver {
	if synonyms == nil {
		synonyms = compound.DefaultSynonyms
	}
	r := &Resolver{source: source, synonyms: synonyms, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs a resolution without progress reporting.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Result, error) {
	return r.ResolveWithProgress(ctx, query, nil)
}

// ResolveWithProgress resolves query, calling progress as each stage starts.
// The first unrecoverable failure aborts the remaining steps.
func (r *Resolver) ResolveWithProgress(ctx context.Context, query string, progress ProgressFunc) (res *Result, err error) {
	if progress == nil {
		progress = func(Stage) {}
	}
	start := time.Now()
	defer func() { r.observe(query, res, err, time.Since(start)) }()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, errors.InvalidParam("search query must not be empty")
	}

	canonical := trimmed
	if c, ok := r.synonyms.Lookup(compound.NormalizeQuery(trimmed)); ok {
		canonical = c
	}

	progress(StageLookup)
	cid, err := r.identify(ctx, trimmed, canonical)
	if err != nil {
		return nil, err
	}

	progress(StageProperties)
	props, synonyms, notices, err := r.describe(ctx, cid)
	if err != nil {
		return nil, err
	}

	progress(StageStructure)
	record, fellBack, err := r.structure(ctx, cid)
	if err != nil {
		return nil, err
	}
	if fellBack {
		notices = append(notices, Notice{Severity: SeverityWarning, Message: NoticeFallback2D})
	}

	return &Result{
		CID:           cid,
		Query:         trimmed,
		CanonicalName: canonical,
		Properties:    props,
		Structure:     record,
		DisplayName:   compound.DisplayName(synonyms, props.IUPACName, trimmed),
		CommonName:    compound.CommonName(synonyms, trimmed),
		Notices:       notices,
	}, nil
}

// identify maps the canonical name to a CID. Digit-only names are used as
// the identifier directly.
func (r *Resolver) identify(ctx context.Context, query, canonical string) (compound.CID, error) {
	if compound.IsIdentifier(canonical) {
		cid, err := compound.ParseCID(canonical)
		if err != nil {
			return 0, errors.NotFound(fmt.Sprintf(msgNotFound, query)).WithCause(err)
		}
		r.logger.Debug("query is an identifier, skipping name lookup", logging.Int64("cid", int64(cid)))
		return cid, nil
	}

	cids, err := r.source.LookupCIDs(ctx, canonical)
	if err != nil {
		var se *errors.StatusError
		switch {
		case errors.As(err, &se):
			return 0, errors.NotFound(fmt.Sprintf(msgNotFound, query)).WithCause(err)
		case errors.IsCode(err, errors.ErrCodeSerialization):
			return 0, errors.NotFound(fmt.Sprintf(msgNoResults, query)).WithCause(err)
		default:
			return 0, err
		}
	}
	if len(cids) == 0 {
		return 0, errors.NotFound(fmt.Sprintf(msgNoResults, query))
	}
	return cids[0], nil
}

// describe fetches properties and synonyms concurrently. Only the
// properties request can fail the resolution.
func (r *Resolver) describe(ctx context.Context, cid compound.CID) (compound.Properties, []string, []Notice, error) {
	var (
		props    compound.Properties
		synonyms []string
		notices  []Notice
		mu       sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := r.source.Properties(gctx, cid)
		if err != nil {
			return r.propertiesError(err)
		}
		props = p
		return nil
	})
	g.Go(func() error {
		s, err := r.source.Synonyms(gctx, cid)
		if err != nil {
			r.logger.Debug("synonyms unavailable", logging.Int64("cid", int64(cid)), logging.Err(err))
			mu.Lock()
			notices = append(notices, Notice{Severity: SeverityInfo, Message: NoticeNoSynonyms})
			mu.Unlock()
			return nil
		}
		synonyms = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return compound.Properties{}, nil, nil, err
	}
	return props, synonyms, notices, nil
}

func (r *Resolver) propertiesError(err error) error {
	if errors.IsTimeout(err) || errors.IsCode(err, errors.ErrCodeNetwork) {
		return err
	}
	return errors.PropertiesUnavailable(msgPropertiesUnavailable).WithCause(err)
}

// structure fetches the 3D record and falls back to 2D on any 3D failure.
func (r *Resolver) structure(ctx context.Context, cid compound.CID) (compound.StructuralRecord, bool, error) {
	text, err := r.source.Structure(ctx, cid, compound.Dim3D)
	if err == nil && compound.Usable3D(text) {
		return compound.StructuralRecord{Text: text, Dim: compound.Dim3D}, false, nil
	}

	fields := []logging.Field{logging.Int64("cid", int64(cid))}
	if err != nil {
		fields = append(fields, logging.Err(err))
	} else {
		fields = append(fields, logging.Int("length", len(strings.TrimSpace(text))))
	}
	r.logger.Warn("3D structure unavailable, falling back to 2D", fields...)
	if r.recorder != nil {
		r.recorder.ObserveStructureFallback()
	}

	text, err = r.source.Structure(ctx, cid, compound.Dim2D)
	if err != nil {
		if errors.IsTimeout(err) || errors.IsCode(err, errors.ErrCodeNetwork) {
			return compound.StructuralRecord{}, true, err
		}
		return compound.StructuralRecord{}, true, errors.NoStructure(msgNoStructure).WithCause(err)
	}
	if strings.TrimSpace(text) == "" {
		return compound.StructuralRecord{}, true, errors.NoStructure(msgNoStructure)
	}
	return compound.StructuralRecord{Text: text, Dim: compound.Dim2D}, true, nil
}

func (r *Resolver) observe(query string, res *Result, err error, d time.Duration) {
	kind := ""
	if err != nil {
		kind = errors.Kind(err)
		r.logger.Info("resolution failed",
			logging.String("query", query),
			logging.String("kind", kind),
			logging.Duration("duration", d),
			logging.Err(err))
	} else {
		r.logger.Info("resolution completed",
			logging.String("query", query),
			logging.Int64("cid", int64(res.CID)),
			logging.String("display_name", res.DisplayName),
			logging.String("dim", res.Structure.Dim.String()),
			logging.Duration("duration", d))
	}
	if r.recorder != nil {
		r.recorder.ObserveResolution(kind, d)
	}
}
