// Package render turns joined circuit rows into a styled map for one view: GeoJSON
// features carrying fill style and tooltip rows, an optional colour scale and
// optional value labels.
package render

import (
	"fmt"

	"github.com/EmpoweredVote/EV-Circuits/internal/config"
	"github.com/EmpoweredVote/EV-Circuits/internal/model"
	"github.com/twpayne/go-geom/encoding/geojson"
)

const (
	focusColor = "purple"
	rivalColor = "green"
)

// Style holds Leaflet path options for one feature.
type Style struct {
	FillColor   string  `json:"fillColor"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	FillOpacity float64 `json:"fillOpacity"`
}

func fill(color string) Style {
	return Style{FillColor: color, Color: "black", Weight: 0.5, FillOpacity: 0.7}
}

// TooltipRow is one alias/value line of a feature tooltip.
type TooltipRow struct {
	Alias string `json:"alias"`
	Value string `json:"value"`
}

// Label is value text anchored inside a circuit polygon.
type Label struct {
	Circuit string  `json:"circuito"`
	Text    string  `json:"text"`
	Lon     float64 `json:"lon"`
	Lat     float64 `json:"lat"`
}

// Category is a legend entry of the winner view.
type Category struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Options selects what to render.
type Options struct {
	View        View
	Subdivision string
	Labels      bool
}

// Map is a rendered view.
type Map struct {
	View        View                       `json:"view"`
	Title       string                     `json:"title"`
	Subdivision string                     `json:"comuna"`
	Legend      string                     `json:"legend,omitempty"`
	Scale       *Scale                     `json:"scale,omitempty"`
	Categories  []Category                 `json:"categories,omitempty"`
	Features    *geojson.FeatureCollection `json:"features"`
	Labels      []Label                    `json:"labels"`
}

// Render filters rows by comuna and styles them for the selected view.
func Render(rows []model.EnrichedCircuit, e config.Election, opt Options) (*Map, error) {
	if !opt.View.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownView, int(opt.View))
	}
	sub := opt.Subdivision
	if sub == "" {
		sub = AllSubdivisions
	}
	rows = FilterBySubdivision(rows, sub)

	m := &Map{
		View:        opt.View,
		Title:       opt.View.Title(e),
		Subdivision: sub,
		Legend:      opt.View.Legend(e),
		Features:    &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(rows))},
		Labels:      []Label{},
	}

	if opt.View == ViewWinner {
		m.Categories = []Category{
			{Name: e.FocusGroup, Color: focusColor},
			{Name: e.RivalGroup, Color: rivalColor},
			{Name: "Sin datos", Color: NullColor},
		}
		for _, r := range rows {
			m.Features.Features = append(m.Features.Features, winnerFeature(r, e))
		}
		return m, nil
	}

	m.Scale = scaleFor(rows, opt.View, m.Legend)
	tip := opt.View.Tooltip()
	for _, r := range rows {
		v := opt.View.Value(r.Metrics)
		props := baseProperties(r)
		props[opt.View.Property()] = v
		props["style"] = fill(m.Scale.Color(v))
		props["tooltip"] = []TooltipRow{
			{Alias: "Circuito", Value: r.Circuit},
			{Alias: m.Legend, Value: formatOrRaw(tip, v)},
		}
		m.Features.Features = append(m.Features.Features, feature(r, props))
	}

	if opt.Labels && opt.View.HasLabels() {
		m.Labels = labels(rows, opt.View)
	}
	return m, nil
}

func winnerFeature(r model.EnrichedCircuit, e config.Election) *geojson.Feature {
	props := baseProperties(r)
	color := NullColor
	var winner interface{}
	if r.Metrics != nil {
		winner = r.Metrics.Winner
		color = rivalColor
		if r.Metrics.Winner == e.FocusGroup {
			color = focusColor
		}
	}
	props[ViewWinner.Property()] = winner
	props["style"] = fill(color)

	tip := []TooltipRow{{Alias: "Circuito", Value: r.Circuit}}
	for _, tp := range e.Tooltip {
		row := TooltipRow{Alias: tp.Alias}
		if r.Metrics != nil {
			if n, ok := r.Metrics.TooltipVotes(tp.Field); ok {
				row.Value = groupDots(n)
				props[tp.Field] = n
			}
		}
		tip = append(tip, row)
	}
	props["tooltip"] = tip
	return feature(r, props)
}

func scaleFor(rows []model.EnrichedCircuit, v View, caption string) *Scale {
	var vmin, vmax float64
	first := true
	for _, r := range rows {
		p := v.Value(r.Metrics)
		if p == nil {
			continue
		}
		if first || *p < vmin {
			vmin = *p
		}
		if first || *p > vmax {
			vmax = *p
		}
		first = false
	}
	return NewScale(caption, vmin, vmax, StepCount)
}

func labels(rows []model.EnrichedCircuit, v View) []Label {
	f := v.Label()
	out := []Label{}
	for _, r := range rows {
		val := v.Value(r.Metrics)
		if val == nil {
			continue
		}
		pt, ok := RepresentativePoint(r.Geometry)
		if !ok {
			continue
		}
		out = append(out, Label{
			Circuit: r.Circuit,
			Text:    formatOrRaw(f, val),
			Lon:     pt[0],
			Lat:     pt[1],
		})
	}
	return out
}

func baseProperties(r model.EnrichedCircuit) map[string]interface{} {
	props := make(map[string]interface{}, len(r.Properties)+4)
	for k, v := range r.Properties {
		props[k] = v
	}
	props["circuito"] = r.Circuit
	if s := r.Subdivision(); s != "" {
		props["COMUNA"] = s
	}
	return props
}

func feature(r model.EnrichedCircuit, props map[string]interface{}) *geojson.Feature {
	return &geojson.Feature{ID: r.Circuit, Geometry: r.Geometry, Properties: props}
}
