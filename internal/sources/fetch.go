package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/EmpoweredVote/EV-Circuits/internal/logging"
	"go.uber.org/zap"
)

const userAgent = "ev-circuits/1.0"

// fetch downloads url and returns its body. Non-2xx responses are errors.
func fetch(ctx context.Context, client *http.Client, log *zap.Logger, source, url string) ([]byte, error) {
	logging.LogFetch(log, source, url)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RetrievalError{Source: source, URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &RetrievalError{Source: source, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RetrievalError{Source: source, URL: url, Err: fmt.Errorf("unexpected HTTP status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RetrievalError{Source: source, URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}

	logging.LogFetched(log, source, resp.StatusCode, len(body), time.Since(start))
	return body, nil
}
