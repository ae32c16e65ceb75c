package handlers

import (
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/turtacn/molexplorer/internal/domain/compound"
	"github.com/turtacn/molexplorer/pkg/errors"
)

// RandomHandler picks sample compounds.
type RandomHandler struct {
	samples *compound.SampleSet
	mu      sync.Mutex
	rng     *rand.Rand
}

// NewRandomHandler draws from samples, compound.DefaultSamples when nil. A nil
// rng uses the global source.
func NewRandomHandler(samples *compound.SampleSet, rng *rand.Rand) *RandomHandler {
	if samples == nil {
		samples = compound.DefaultSamples
	}
	return &RandomHandler{samples: samples, rng: rng}
}

// RandomResponse is the body of GET /api/v1/random.
type RandomResponse struct {
	Name string `json:"name"`
}

// Get handles GET /api/v1/random.
func (h *RandomHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	name := h.samples.Random(h.rng)
	h.mu.Unlock()
	if name == "" {
		writeAppError(w, nil, errors.New(errors.ErrCodeServiceUnavailable, "no sample compounds configured"))
		return
	}
	writeJSON(w, http.StatusOK, RandomResponse{Name: name})
}
