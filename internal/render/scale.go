package render

import (
	"github.com/lucasb-eyer/go-colorful"
)

const (
	// NullColor fills circuits whose view value is null.
	NullColor = "gray"
	// StepCount is the number of bins of the choropleth scale.
	StepCount = 10
)

// rdYlGn is the 11-class ColorBrewer RdYlGn palette, red (low) to green (high).
var rdYlGn = []string{
	"#a50026", "#d73027", "#f46d43", "#fdae61", "#fee08b", "#ffffbf",
	"#d9ef8b", "#a6d96a", "#66bd63", "#1a9850", "#006837",
}

// Scale is a stepped colour scale over [Min, Max]. Thresholds has one more entry than
// Colors; value x takes Colors[i] when Thresholds[i] <= x < Thresholds[i+1].
type Scale struct {
	Caption    string    `json:"caption"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Thresholds []float64 `json:"thresholds"`
	Colors     []string  `json:"colors"`
}

// NewScale spreads the RdYlGn palette linearly over [vmin, vmax] and steps it into n bins.
// Each bin takes the linear colour sampled at a point that slides from the bin's lower
// edge (first bin) to its upper edge (last bin), so both palette ends are used.
func NewScale(caption string, vmin, vmax float64, n int) *Scale {
	if n < 2 {
		n = 2
	}
	lin := newLinear(rdYlGn, vmin, vmax)

	s := &Scale{
		Caption:    caption,
		Min:        vmin,
		Max:        vmax,
		Thresholds: make([]float64, n+1),
		Colors:     make([]string, n),
	}
	for i := 0; i <= n; i++ {
		s.Thresholds[i] = vmin + (vmax-vmin)*float64(i)/float64(n)
	}
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		x := s.Thresholds[i]*(1-t) + s.Thresholds[i+1]*t
		s.Colors[i] = lin.at(x).Hex()
	}
	return s
}

// Color returns the fill colour for v, NullColor when v is nil.
func (s *Scale) Color(v *float64) string {
	if v == nil {
		return NullColor
	}
	x := *v
	last := len(s.Thresholds) - 1
	if x <= s.Thresholds[0] {
		return s.Colors[0]
	}
	if x >= s.Thresholds[last] {
		return s.Colors[len(s.Colors)-1]
	}
	i := 0
	for i < last && s.Thresholds[i+1] <= x {
		i++
	}
	return s.Colors[i]
}

type linear struct {
	index  []float64
	colors []colorful.Color
}

func newLinear(hex []string, vmin, vmax float64) linear {
	l := linear{index: make([]float64, len(hex)), colors: make([]colorful.Color, len(hex))}
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			panic("render: bad palette colour " + h)
		}
		l.colors[i] = c
		l.index[i] = vmin + (vmax-vmin)*float64(i)/float64(len(hex)-1)
	}
	return l
}

func (l linear) at(x float64) colorful.Color {
	last := len(l.index) - 1
	if x <= l.index[0] {
		return l.colors[0]
	}
	if x >= l.index[last] {
		return l.colors[last]
	}
	i := 1
	for l.index[i] <= x {
		i++
	}
	t := (x - l.index[i-1]) / (l.index[i] - l.index[i-1])
	return l.colors[i-1].BlendRgb(l.colors[i], t)
}
