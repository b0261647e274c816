package fixture

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/klipach/fixturebot/log"
)

// NewHTTPClient returns a client that logs every backend request.
// A zero timeout leaves requests bounded only by their context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &loggingRoundTripper{
			rt: http.DefaultTransport,
		},
	}
}

// loggingRoundTripper logs the outgoing request and its outcome
type loggingRoundTripper struct {
	rt http.RoundTripper
}

func (lrt *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	logger := log.LoggerFromContext(req.Context())
	start := time.Now()

	resp, err := lrt.rt.RoundTrip(req)
	if err != nil {
		logger.Error("backend request failed",
			slog.String("url", req.URL.String()),
			slog.Duration("duration", time.Since(start)),
			slog.String("errorMsg", err.Error()),
		)
		return nil, err
	}

	logger.Info("backend request",
		slog.String("url", req.URL.String()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return resp, nil
}
