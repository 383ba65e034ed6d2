package sources

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/EmpoweredVote/EV-Circuits/internal/model"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// CircuitProperty is the feature property holding the circuit identifier.
const CircuitProperty = "circuito"

// ParseGeometry decodes a GeoJSON FeatureCollection into circuit geometries.
// Every feature must carry an areal geometry and a circuito property; the circuit id
// is stringified and zero-padded, and written back into the properties padded.
func ParseGeometry(data []byte) ([]model.CircuitGeometry, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("%w: geojson: %v", ErrMalformed, err)
	}

	out := make([]model.CircuitGeometry, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil {
			return nil, fmt.Errorf("%w: feature %d is null", ErrMalformed, i)
		}
		switch f.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			return nil, fmt.Errorf("%w: feature %d has unsupported geometry %T", ErrMalformed, i, f.Geometry)
		}

		raw, ok := f.Properties[CircuitProperty]
		if !ok {
			return nil, fmt.Errorf("%w: feature %d has no %q property", ErrMalformed, i, CircuitProperty)
		}
		id, err := circuitString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrMalformed, i, err)
		}

		props := make(map[string]interface{}, len(f.Properties))
		for k, v := range f.Properties {
			props[k] = v
		}
		circuit := model.PadCircuit(id)
		props[CircuitProperty] = circuit

		out = append(out, model.CircuitGeometry{
			Circuit:    circuit,
			Geometry:   f.Geometry,
			Properties: props,
		})
	}
	return out, nil
}

// circuitString renders a circuito property value the way it is written in the
// results tables: integral numbers without a decimal part.
func circuitString(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return "", fmt.Errorf("circuito is not finite")
		}
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10), nil
		}
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	default:
		return "", fmt.Errorf("circuito has unsupported type %T", v)
	}
}
