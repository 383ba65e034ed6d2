package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/EV-Circuits/internal/config"
	"github.com/EmpoweredVote/EV-Circuits/internal/model"
)

// ErrUnknownView is returned for a view selection outside the catalogue.
var ErrUnknownView = errors.New("unknown view")

// View identifies one of the five map views by its ordinal.
type View int

const (
	ViewWinner View = iota + 1
	ViewFocusVotes
	ViewFocusShare
	ViewGrowthVotes
	ViewGrowthShare
)

// Views lists the catalogue in display order.
var Views = []View{ViewWinner, ViewFocusVotes, ViewFocusShare, ViewGrowthVotes, ViewGrowthShare}

// ParseView accepts an ordinal ("3") or an ordinal-prefixed title ("3. Porcentaje LLA 2025").
// An empty selection is the winner view.
func ParseView(s string) (View, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ViewWinner, nil
	}
	head := s
	if i := strings.IndexByte(s, '.'); i > 0 {
		head = s[:i]
	}
	n, err := strconv.Atoi(head)
	if err != nil || !View(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
	return View(n), nil
}

// Valid reports whether v is in the catalogue.
func (v View) Valid() bool {
	return v >= ViewWinner && v <= ViewGrowthShare
}

// Title is the ordinal-prefixed name shown in the view selector.
func (v View) Title(e config.Election) string {
	switch v {
	case ViewWinner:
		return "1. Ganador por Circuito"
	case ViewFocusVotes:
		return fmt.Sprintf("2. Cantidad de Votos %s %d", e.FocusGroup, e.Current.Year)
	case ViewFocusShare:
		return fmt.Sprintf("3. Porcentaje %s %d", e.FocusGroup, e.Current.Year)
	case ViewGrowthVotes:
		return "4. Crecimiento en Votos"
	case ViewGrowthShare:
		return "5. Crecimiento Porcentual"
	}
	return ""
}

// Legend is the caption of the colour scale and the tooltip alias of the view value.
func (v View) Legend(e config.Election) string {
	switch v {
	case ViewFocusVotes:
		return fmt.Sprintf("Votos %s %d", e.FocusGroup, e.Current.Year)
	case ViewFocusShare:
		return fmt.Sprintf("%% %s %d", e.FocusGroup, e.Current.Year)
	case ViewGrowthVotes:
		return "Crecimiento absoluto"
	case ViewGrowthShare:
		return "Crecimiento porcentual"
	}
	return ""
}

// Property is the feature property the view value is written under.
func (v View) Property() string {
	switch v {
	case ViewWinner:
		return "GANADOR"
	case ViewFocusVotes:
		return "LLA"
	case ViewFocusShare:
		return "PORC_2025"
	case ViewGrowthVotes:
		return "DIF_ABS"
	case ViewGrowthShare:
		return "DIF_PORC"
	}
	return ""
}

// HasLabels reports whether the view can show value labels on the map.
func (v View) HasLabels() bool {
	return v == ViewFocusVotes || v == ViewFocusShare
}

// Value extracts the numeric value a choropleth view colours by. It is nil for
// circuits without metrics and for null shares.
func (v View) Value(m *model.AggregatedCircuit) *float64 {
	if m == nil {
		return nil
	}
	switch v {
	case ViewFocusVotes:
		return floatPtr(float64(m.FocusVotes))
	case ViewFocusShare:
		return m.ShareCurrent
	case ViewGrowthVotes:
		return floatPtr(float64(m.GrowthAbs))
	case ViewGrowthShare:
		return m.GrowthPct
	}
	return nil
}

// Tooltip is the formatter for the value row of the view tooltip.
func (v View) Tooltip() Formatter {
	switch v {
	case ViewFocusVotes:
		return FormatVotes
	case ViewFocusShare:
		return FormatShare
	case ViewGrowthVotes:
		return FormatGrowthVotes
	case ViewGrowthShare:
		return FormatGrowthShare
	}
	return FormatCount
}

// Label is the formatter for on-map labels, nil when the view has none.
func (v View) Label() Formatter {
	switch v {
	case ViewFocusVotes:
		return FormatCount
	case ViewFocusShare:
		return FormatShare
	}
	return nil
}

// Option is one entry of the view selector.
type Option struct {
	ID    View   `json:"id"`
	Title string `json:"title"`
}

// ViewOptions returns the view selector entries for e.
func ViewOptions(e config.Election) []Option {
	out := make([]Option, len(Views))
	for i, v := range Views {
		out[i] = Option{ID: v, Title: v.Title(e)}
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }
