package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/EmpoweredVote/EV-Circuits/internal/logging"
	"github.com/EmpoweredVote/EV-Circuits/internal/pipeline"
	"github.com/EmpoweredVote/EV-Circuits/internal/render"
	"github.com/EmpoweredVote/EV-Circuits/internal/sources"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Handlers serves the dashboard endpoints.
type Handlers struct {
	svc *Service
}

type pageData struct {
	Title    string
	Views    []render.Option
	Comunas  []string
	Snapshot string
	Error    string
}

// Page renders the dashboard shell. When the sources cannot be loaded or processed only
// the error message is shown.
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Análisis Electoral por Circuito - CABA"}
	status := http.StatusOK

	res, err := h.svc.Result(r.Context())
	if err != nil {
		status = http.StatusServiceUnavailable
		data.Error = userMessage(err)
	} else {
		data.Views = render.ViewOptions(res.Election)
		data.Comunas = render.SubdivisionOptions(res.Circuits)
		data.Snapshot = res.SnapshotID
		setSnapshotHeaders(w, res)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		logging.LogError(h.svc.log, "render page", err)
	}
}

// Map returns the rendered view for ?view=&comuna=&labels=.
func (h *Handlers) Map(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	view, err := render.ParseView(q.Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	labels := true
	if s := q.Get("labels"); s != "" {
		labels, err = strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid labels value")
			return
		}
	}

	res, ok := h.result(w, r)
	if !ok {
		return
	}

	m, err := render.Render(res.Circuits, res.Election, render.Options{
		View:        view,
		Subdivision: strings.TrimSpace(q.Get("comuna")),
		Labels:      labels,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Views lists the view selector entries.
func (h *Handlers) Views(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, render.ViewOptions(h.svc.Election()))
}

// Comunas lists the comuna filter options.
func (h *Handlers) Comunas(w http.ResponseWriter, r *http.Request) {
	res, ok := h.result(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, render.SubdivisionOptions(res.Circuits))
}

// Circuit returns one circuit's properties and metrics.
func (h *Handlers) Circuit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "circuit")

	res, ok := h.result(w, r)
	if !ok {
		return
	}

	c, found := res.Find(id)
	if !found {
		writeError(w, http.StatusNotFound, "Circuit not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Refresh drops the cached sources and reloads them.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, userMessage(err))
		return
	}
	setSnapshotHeaders(w, res)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot": res.SnapshotID,
		"circuits": len(res.Circuits),
		"coverage": res.Coverage,
	})
}

// Health reports liveness and the cached snapshot, if any. It never triggers a load.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if snap, ok := h.svc.cache.Cached(); ok {
		body["snapshot"] = snap.ID
	}
	writeJSON(w, http.StatusOK, body)
}

// result runs the pipeline and answers 503 itself on failure. A matching If-None-Match
// is answered with 304.
func (h *Handlers) result(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	start := time.Now()
	res, err := h.svc.Result(r.Context())
	addServerTiming(w, timing{name: "pipeline", dur: time.Since(start)})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, false
		}
		writeError(w, http.StatusServiceUnavailable, userMessage(err))
		return nil, false
	}

	setSnapshotHeaders(w, res)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag(res) {
		w.WriteHeader(http.StatusNotModified)
		return nil, false
	}
	return res, true
}

func etag(res *pipeline.Result) string {
	return `"` + res.Fingerprint + `"`
}

func setSnapshotHeaders(w http.ResponseWriter, res *pipeline.Result) {
	w.Header().Set("X-Snapshot-ID", res.SnapshotID)
	if res.Fingerprint != "" {
		w.Header().Set("ETag", etag(res))
	}
}

// userMessage maps fatal pipeline errors to the text shown on the dashboard.
func userMessage(err error) string {
	var mce *pipeline.MissingColumnError
	var re *sources.RetrievalError
	switch {
	case errors.As(err, &mce):
		return mce.UserMessage()
	case errors.As(err, &re):
		return "No se pudieron cargar los datos (" + re.Source + "): " + re.Err.Error()
	case errors.Is(err, pipeline.ErrInvalidVotes):
		return "Los datos de votos son inválidos: " + err.Error()
	}
	return "Error inesperado: " + err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
