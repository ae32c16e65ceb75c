package handlers

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molexplorer/internal/domain/compound"
)

func TestRandomHandler_Get(t *testing.T) {
	samples := compound.NewSampleSet("aspirin", "caffeine")
	h := NewRandomHandler(samples, rand.New(rand.NewPCG(1, 2)))

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/random", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body RandomResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, samples.Names(), body.Name)
	}
}

func TestRandomHandler_DefaultSamples(t *testing.T) {
	h := NewRandomHandler(nil, nil)

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/random", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body RandomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, compound.DefaultSamples.Names(), body.Name)
}

func TestRandomHandler_EmptySet(t *testing.T) {
	h := NewRandomHandler(compound.NewSampleSet(), nil)

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/random", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
