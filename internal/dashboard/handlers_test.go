package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap/zaptest"

	"github.com/EmpoweredVote/EV-Circuits/internal/config"
	"github.com/EmpoweredVote/EV-Circuits/internal/model"
	"github.com/EmpoweredVote/EV-Circuits/internal/sources"
)

// stubLoader hands out a fixed snapshot (or error) and counts loads.
type stubLoader struct {
	snap  *sources.Snapshot
	err   error
	calls atomic.Int32
}

func (s *stubLoader) Load(ctx context.Context) (*sources.Snapshot, error) {
	s.calls.Add(1)
	return s.snap, s.err
}

func square(x, y float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x, y}, {x + 0.01, y}, {x + 0.01, y + 0.01}, {x, y + 0.01}, {x, y},
	}})
}

func testSnapshot() *sources.Snapshot {
	return &sources.Snapshot{
		ID:          "11111111-2222-5333-8444-555555555555",
		Fingerprint: "abc123",
		Current: model.RawTable{
			Header: []string{"circuito", "comuna", "descripcion_candidatura", "sum cant_votos"},
			Rows: [][]string{
				{"1", "Comuna 1", "LA LIBERTAD AVANZA", "300"},
				{"1", "Comuna 1", "ES AHORA BUENOS AIRES", "200"},
				{"2", "Comuna 2", "ES AHORA BUENOS AIRES", "50"},
			},
		},
		Prior: model.RawTable{
			Header: []string{"circuito_id", "seccion_nombre", "agrupacion_nombre", "sum votos_cantidad"},
			Rows:   [][]string{{"1", "Comuna 1", "LA LIBERTAD AVANZA", "100"}},
		},
		Geometry: []model.CircuitGeometry{
			{Circuit: "00001", Geometry: square(-58.42, -34.61), Properties: map[string]interface{}{"circuito": "00001"}},
			{Circuit: "00002", Geometry: square(-58.40, -34.60), Properties: map[string]interface{}{"circuito": "00002"}},
			{Circuit: "00003", Geometry: square(-58.38, -34.59), Properties: map[string]interface{}{"circuito": "00003"}},
		},
	}
}

func newServer(t *testing.T, loader *stubLoader) http.Handler {
	t.Helper()
	svc := NewService(sources.NewCache(loader, "test"), config.DefaultElection().Normalized(), zaptest.NewLogger(t))
	return SetupRoutes(svc, time.Hour)
}

func do(t *testing.T, h http.Handler, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMap(t *testing.T) {
	h := newServer(t, &stubLoader{snap: testSnapshot()})

	rec := do(t, h, http.MethodGet, "/api/map?view=2&comuna=Todas&labels=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "11111111-2222-5333-8444-555555555555", rec.Header().Get("X-Snapshot-ID"))
	assert.Equal(t, `"abc123"`, rec.Header().Get("ETag"))

	var body struct {
		View     int    `json:"view"`
		Title    string `json:"title"`
		Features struct {
			Features []json.RawMessage `json:"features"`
		} `json:"features"`
		Labels []struct {
			Text string `json:"text"`
		} `json:"labels"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.View)
	assert.Equal(t, "2. Cantidad de Votos LLA 2025", body.Title)
	assert.Len(t, body.Features.Features, 3)
	require.Len(t, body.Labels, 2, "unmatched circuit has no label")
	assert.Equal(t, "300", body.Labels[0].Text)
}

func TestMap_FilterByComuna(t *testing.T) {
	h := newServer(t, &stubLoader{snap: testSnapshot()})

	rec := do(t, h, http.MethodGet, "/api/map?view=1&comuna=COMUNA%202", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Features struct {
			Features []json.RawMessage `json:"features"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Features.Features, 1)
}

func TestMap_BadRequest(t *testing.T) {
	loader := &stubLoader{snap: testSnapshot()}
	h := newServer(t, loader)

	rec := do(t, h, http.MethodGet, "/api/map?view=7", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/map?labels=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, int32(0), loader.calls.Load(), "bad requests never load sources")
}

func TestMap_NotModified(t *testing.T) {
	h := newServer(t, &stubLoader{snap: testSnapshot()})

	rec := do(t, h, http.MethodGet, "/api/map?view=3", map[string]string{"If-None-Match": `"abc123"`})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestMap_MissingColumn(t *testing.T) {
	snap := testSnapshot()
	snap.Current.Header = []string{"circuito", "descripcion_candidatura", "sum cant_votos"}
	h := newServer(t, &stubLoader{snap: snap})

	rec := do(t, h, http.MethodGet, "/api/map", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "No se encontró la columna 'comuna' en resultados 2025.", body["error"])
}

func TestMap_RetrievalError(t *testing.T) {
	loader := &stubLoader{err: &sources.RetrievalError{
		Source: sources.SourceGeometry, URL: "http://x", Err: errors.New("status 404"),
	}}
	h := newServer(t, loader)

	rec := do(t, h, http.MethodGet, "/api/map", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "geometry")

	// failures are not memoized
	do(t, h, http.MethodGet, "/api/map", nil)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestComunas(t *testing.T) {
	h := newServer(t, &stubLoader{snap: testSnapshot()})

	rec := do(t, h, http.MethodGet, "/api/comunas", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"Todas", "COMUNA 1", "COMUNA 2"}, got)
}

func TestViews(t *testing.T) {
	h := newServer(t, &stubLoader{snap: testSnapshot()})

	rec := do(t, h, http.MethodGet, "/api/views", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "5. Crecimiento Porcentual")
}

func TestCircuit(t *testing.T) {
	h := newServer(t, &stubLoader{snap: testSnapshot()})

	rec := do(t, h, http.MethodGet, "/api/circuits/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Circuit string `json:"circuito"`
		Metrics struct {
			Winner       string   `json:"winner"`
			TotalCurrent int64    `json:"total_current"`
			ShareCurrent *float64 `json:"share_current"`
			GrowthAbs    int64    `json:"growth_abs"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "00001", got.Circuit)
	assert.Equal(t, "LLA", got.Metrics.Winner)
	assert.Equal(t, int64(500), got.Metrics.TotalCurrent)
	require.NotNil(t, got.Metrics.ShareCurrent)
	assert.InDelta(t, 60.0, *got.Metrics.ShareCurrent, 1e-9)
	assert.Equal(t, int64(200), got.Metrics.GrowthAbs)

	rec = do(t, h, http.MethodGet, "/api/circuits/00003", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"metrics":null`)

	rec = do(t, h, http.MethodGet, "/api/circuits/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefresh(t *testing.T) {
	loader := &stubLoader{snap: testSnapshot()}
	h := newServer(t, loader)

	do(t, h, http.MethodGet, "/api/comunas", nil)
	do(t, h, http.MethodGet, "/api/comunas", nil)
	require.Equal(t, int32(1), loader.calls.Load())

	rec := do(t, h, http.MethodPost, "/api/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int32(2), loader.calls.Load())
	assert.Contains(t, rec.Body.String(), `"circuits":3`)

	rec = do(t, h, http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestPage(t *testing.T) {
	h := newServer(t, &stubLoader{snap: testSnapshot()})

	rec := do(t, h, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "1. Ganador por Circuito")
	assert.Contains(t, body, `<option value="COMUNA 2">COMUNA 2</option>`)
	assert.Contains(t, body, "leaflet")

	// map errors go to a sibling box so the map node survives a later refresh
	assert.Contains(t, body, `<div id="map-error" class="error" hidden></div>`)
	assert.NotContains(t, body, "outerHTML")
}

func TestPage_Error(t *testing.T) {
	snap := testSnapshot()
	snap.Prior.Header = []string{"circuito_id", "agrupacion_nombre", "sum votos_cantidad"}
	h := newServer(t, &stubLoader{snap: snap})

	rec := do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "No se encontró la columna")
	assert.False(t, strings.Contains(body, `id="map"`), "nothing but the error is rendered")
}

func TestHealth(t *testing.T) {
	loader := &stubLoader{snap: testSnapshot()}
	h := newServer(t, loader)

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "snapshot")
	assert.Equal(t, int32(0), loader.calls.Load())

	do(t, h, http.MethodGet, "/api/comunas", nil)
	rec = do(t, h, http.MethodGet, "/healthz", nil)
	assert.Contains(t, rec.Body.String(), "11111111-2222-5333-8444-555555555555")
}

func TestServerTiming(t *testing.T) {
	h := newServer(t, &stubLoader{snap: testSnapshot()})

	rec := do(t, h, http.MethodGet, "/api/comunas", nil)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Server-Timing"), "pipeline;dur="))
}
