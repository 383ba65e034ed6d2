package render

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ErrUnformattable is returned by a Formatter for nil, NaN or infinite values.
var ErrUnformattable = errors.New("value cannot be formatted")

// Formatter turns a view value into display text.
type Formatter func(v *float64) (string, error)

// FormatCount prints a whole number with dot thousands separators: 12.345.
func FormatCount(v *float64) (string, error) {
	f, err := finite(v)
	if err != nil {
		return "", err
	}
	return groupDots(int64(math.Round(f))), nil
}

// FormatVotes prints a vote count: "12.345 votos".
func FormatVotes(v *float64) (string, error) {
	s, err := FormatCount(v)
	if err != nil {
		return "", err
	}
	return s + " votos", nil
}

// FormatShare prints a percentage with one decimal: "60.0%".
func FormatShare(v *float64) (string, error) {
	f, err := finite(v)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'f', 1, 64) + "%", nil
}

// FormatGrowthVotes prints a signed vote difference: "+300 votos".
func FormatGrowthVotes(v *float64) (string, error) {
	f, err := finite(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%+d votos", int64(math.Round(f))), nil
}

// FormatGrowthShare prints a signed percentage-point difference: "+12.3%".
func FormatGrowthShare(v *float64) (string, error) {
	f, err := finite(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%+.1f%%", f), nil
}

// formatOrRaw applies f and falls back to the raw value when it cannot format.
func formatOrRaw(f Formatter, v *float64) string {
	s, err := f(v)
	if err != nil {
		return raw(v)
	}
	return s
}

func raw(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func finite(v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: null", ErrUnformattable)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, fmt.Errorf("%w: %v", ErrUnformattable, *v)
	}
	return *v, nil
}

func groupDots(n int64) string {
	return strings.ReplaceAll(humanize.Comma(n), ",", ".")
}
