package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/metrics"
	"github.com/akolanti/extractview/pkg/logger_i"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// Middleware runs every API request through trace injection and the
// optional bearer check. Limited routes also pass the per-IP rate limiter.
type Middleware struct {
	authToken string
	limiter   *IPRateLimiter
}

func New(cfg config.Config) *Middleware {
	perSecond := cfg.RateLimit.PerSecond
	if perSecond <= 0 {
		perSecond = config.RATE_LIMIT_PER_SECOND
	}
	burst := cfg.RateLimit.Burst
	if burst <= 0 {
		burst = config.BURST_RATE_LIMIT_PER_SECOND
	}
	return &Middleware{
		authToken: cfg.AuthToken,
		limiter:   NewIPRateLimiter(rate.Limit(perSecond), burst),
	}
}

func (m *Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return m.wrap(next, false)
}

// WrapLimited is Wrap plus the rate limiter, for the upload routes.
func (m *Middleware) WrapLimited(next http.HandlerFunc) http.HandlerFunc {
	return m.wrap(next, true)
}

func (m *Middleware) wrap(next http.HandlerFunc, limited bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := m.processRequest(requestResponseStruct{req: r, writer: rec}, limited)

		if handleBadRequest(re) {
			next(rec, re.req)
		}

		metrics.HttpRequestsTotal.WithLabelValues(routeLabel(r), strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

func (m *Middleware) processRequest(re requestResponseStruct, limited bool) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)
	re = authenticate(re, m.authToken)
	if re.badRequest.isBadRequest {
		return re //stop if auth fails
	}
	if limited {
		re = rateLimiter(re, m.limiter)
	}
	return re
}

// routeLabel keeps the metric cardinality bounded: the chi pattern rather
// than the raw path, which carries ids and file names.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
