package portal

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// loggingTransport logs every round trip at debug level, with the logger of
// the request context.
type loggingTransport struct {
	base http.RoundTripper
}

// LoggingTransport wraps base (http.DefaultTransport if nil) to log requests.
func LoggingTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &loggingTransport{base: base}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	log := zerolog.Ctx(req.Context())
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		log.Debug().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("request failed")
		return nil, err
	}
	// the query only holds cache busters and ids, the path is enough.
	log.Debug().
		Str("method", req.Method).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")
	return resp, nil
}
