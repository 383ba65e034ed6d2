package dashboard

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// timing is one Server-Timing metric.
type timing struct {
	name string
	dur  time.Duration
}

func addServerTiming(w http.ResponseWriter, metrics ...timing) {
	if len(metrics) == 0 {
		return
	}
	parts := make([]string, len(metrics))
	for i, m := range metrics {
		parts[i] = fmt.Sprintf("%s;dur=%.1f", m.name, float64(m.dur.Microseconds())/1000)
	}
	// Additive header
	w.Header().Add("Server-Timing", strings.Join(parts, ", "))
}
