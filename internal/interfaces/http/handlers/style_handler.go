package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/molexplorer/internal/application/render"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
)

// StyleHandler exposes the render presets to a web viewer.
type StyleHandler struct {
	logger logging.Logger
}

func NewStyleHandler(logger logging.Logger) *StyleHandler {
	return &StyleHandler{logger: orNop(logger).Named("handlers.style")}
}

// StyleResponse is one preset with the palette it is drawn with.
type StyleResponse struct {
	Spec        render.StyleSpec `json:"spec"`
	Summary     string           `json:"summary"`
	Background  string           `json:"background"`
	Fallback    string           `json:"default_color"`
	ElementList []string         `json:"elements"`
}

// StylesResponse is the body of GET /api/v1/styles.
type StylesResponse struct {
	Default string          `json:"default"`
	Styles  []StyleResponse `json:"styles"`
}

// List handles GET /api/v1/styles.
func (h *StyleHandler) List(w http.ResponseWriter, r *http.Request) {
	resp := StylesResponse{Default: string(render.DefaultStyle)}
	for _, st := range render.Styles() {
		resp.Styles = append(resp.Styles, styleResponse(st))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/styles/{style}. Aliases such as "spacefill" are
// accepted.
func (h *StyleHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := render.ParseStyle(chi.URLParam(r, "style"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, styleResponse(st))
}

func styleResponse(st render.Style) StyleResponse {
	spec := render.Preset(st)
	return StyleResponse{
		Spec:        spec,
		Summary:     spec.Describe(),
		Background:  render.BackgroundColor,
		Fallback:    render.DefaultColor,
		ElementList: spec.Colors.Elements(),
	}
}
