package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/RegGuru/internal/handlers"
	"github.com/akolanti/RegGuru/internal/metrics"
	"github.com/akolanti/RegGuru/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
	limiter    *IPRateLimiter
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
	id           string
}

var GetHandler = Wrap(handlers.GetHandler)

var ChatHandler = Wrap(handlers.ChatHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)
var PostUploadHandler = Wrap(handlers.PostUploadHandler)
var GetDocumentsHandler = Wrap(handlers.GetDocumentsHandler)
var SaveQueryHandler = Wrap(handlers.SaveQueryHandler)
var GetQueriesHandler = Wrap(handlers.GetQueriesHandler)

// Wrap runs trace injection, auth and rate limiting before next, and records the response status.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return wrapWith(limiterInstance, next)
}

func wrapWith(limiter *IPRateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec, limiter: limiter})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
		} else {
			next(rec, re.req)
		}

		metrics.HttpRequestsTotal.WithLabelValues(routeLabel(r), strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

// routeLabel keeps /status/{id} as one series.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Info("New request received")
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re = authenticate(re)
	if re.badRequest.isBadRequest {
		return re //stop if auth fails
	}
	return rateLimiter(re)
}
