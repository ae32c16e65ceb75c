package handlers

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/molexplorer/internal/application/explorer"
	"github.com/turtacn/molexplorer/internal/application/resolver"
	"github.com/turtacn/molexplorer/internal/domain/compound"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/internal/infrastructure/storage"
	"github.com/turtacn/molexplorer/pkg/errors"
)

// CompoundResolver resolves a search query into a loaded compound.
type CompoundResolver interface {
	Resolve(ctx context.Context, query string) (*resolver.Result, error)
}

// StructureSource fetches a structural record directly, used when a 2D
// record is asked for a compound that resolved to 3D.
type StructureSource interface {
	Structure(ctx context.Context, cid compound.CID, dim compound.Dimension) (string, error)
}

// CompoundHandler serves compound lookups, structure downloads and exports.
// Every request resolves afresh; no session is shared between requests.
type CompoundHandler struct {
	resolver CompoundResolver
	source   StructureSource
	store    storage.ExportStore
	logger   logging.Logger
}

// NewCompoundHandler creates a handler. source and store may be nil, which
// disables direct 2D fetches and exports respectively.
func NewCompoundHandler(res CompoundResolver, source StructureSource, store storage.ExportStore, logger logging.Logger) *CompoundHandler {
	return &CompoundHandler{
		resolver: res,
		source:   source,
		store:    store,
		logger:   orNop(logger).Named("handlers.compound"),
	}
}

// CompoundResponse is the body of a successful lookup.
type CompoundResponse struct {
	Compound  *resolver.Result `json:"compound"`
	Info      explorer.Info    `json:"info"`
	Dimension string           `json:"dimension"`
}

// ExportResponse is the body of a successful export.
type ExportResponse struct {
	FileName string `json:"file_name"`
	Location string `json:"location"`
	Size     int    `json:"size"`
}

// Get handles GET /api/v1/compounds/{query}.
func (h *CompoundHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, pathQuery(r))
}

// Search handles GET /api/v1/compounds?search=, the initial-query form.
func (h *CompoundHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, r.URL.Query().Get("search"))
}

func (h *CompoundHandler) lookup(w http.ResponseWriter, r *http.Request, query string) {
	res, err := h.resolver.Resolve(r.Context(), query)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, CompoundResponse{
		Compound:  res,
		Info:      explorer.InfoFor(res),
		Dimension: res.Structure.Dim.String(),
	})
}

// Structure handles GET /api/v1/compounds/{query}/structure?dim=. The record
// is sent byte-identical to what the database returned.
func (h *CompoundHandler) Structure(w http.ResponseWriter, r *http.Request) {
	res, err := h.resolver.Resolve(r.Context(), pathQuery(r))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	record := res.Structure
	if dim := r.URL.Query().Get("dim"); dim != "" && compound.ParseDimension(dim) == compound.Dim2D && record.Is3D() {
		record, err = h.fetch2D(r.Context(), res.CID)
		if err != nil {
			writeAppError(w, h.logger, err)
			return
		}
	}

	w.Header().Set("Content-Type", storage.SDFContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exportFileName(res)}))
	w.Header().Set("X-Structure-Dimension", record.Dim.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(record.Text))
}

func (h *CompoundHandler) fetch2D(ctx context.Context, cid compound.CID) (compound.StructuralRecord, error) {
	if h.source == nil {
		return compound.StructuralRecord{}, errors.New(errors.ErrCodeServiceUnavailable, "2D structures are not available")
	}
	text, err := h.source.Structure(ctx, cid, compound.Dim2D)
	if err != nil {
		if errors.IsTimeout(err) || errors.IsCode(err, errors.ErrCodeNetwork) {
			return compound.StructuralRecord{}, err
		}
		return compound.StructuralRecord{}, errors.NoStructure("No molecular structure available").WithCause(err)
	}
	if strings.TrimSpace(text) == "" {
		return compound.StructuralRecord{}, errors.NoStructure("No molecular structure available")
	}
	return compound.StructuralRecord{Text: text, Dim: compound.Dim2D}, nil
}

// Export handles POST /api/v1/compounds/{query}/exports.
func (h *CompoundHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeAppError(w, h.logger, errors.New(errors.ErrCodeServiceUnavailable, "exports are not enabled"))
		return
	}
	res, err := h.resolver.Resolve(r.Context(), pathQuery(r))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	name := exportFileName(res)
	data := []byte(res.Structure.Text)
	location, err := h.store.Save(r.Context(), storage.Object{Key: name, ContentType: storage.SDFContentType, Data: data})
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	h.logger.Info("structure exported",
		logging.Int64("cid", int64(res.CID)),
		logging.String("location", location))
	writeJSON(w, http.StatusCreated, ExportResponse{FileName: name, Location: location, Size: len(data)})
}

func exportFileName(res *resolver.Result) string {
	name := res.DisplayName
	if strings.TrimSpace(name) == "" {
		name = "compound"
	}
	return storage.SanitizeKey(name + ".sdf")
}

// pathQuery returns the {query} URL parameter, unescaped when the router
// handed it over in raw form.
func pathQuery(r *http.Request) string {
	raw := chi.URLParam(r, "query")
	if q, err := url.PathUnescape(raw); err == nil {
		return q
	}
	return raw
}
