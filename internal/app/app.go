// Package app is the HTTP facade of the media pipeline. It maps request
// shapes onto the domain interfaces and holds no state of its own beyond the
// long-lived backend client handles.
package app

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/upcastmedia/vodpipe/internal/apperr"
)

type appHandler struct {
	c  *Controller
	fn func(http.ResponseWriter, *http.Request) error
}

func (h appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.fn(w, r)
	if err == nil {
		return
	}
	code := statusOf(apperr.KindOf(err))
	evt := h.c.logger.Error()
	if code < http.StatusInternalServerError {
		evt = h.c.logger.Warn()
	}
	evt.Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", code).
		Msg("request failed")
	_ = replyJSON(w, ErrorResponse{Code: code, Message: err.Error()}, code)
}

// statusOf maps the error taxonomy onto HTTP statuses. Configuration errors
// should never reach a request path; they map to 500 as a catch-all.
func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.InvalidArgument:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Unavailable:
		return http.StatusServiceUnavailable
	case apperr.UpstreamTimeout:
		return http.StatusGatewayTimeout
	case apperr.Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Register API endpoints to the router.
func SetupRoutes(r *mux.Router, c *Controller) {
	r.Methods("GET").Path("/metrics").Handler(promhttp.Handler())

	api := r.PathPrefix("/vodpipe/v1").Subrouter()
	api.Use(metricsMiddleware)
	h := func(fn func(http.ResponseWriter, *http.Request) error) http.Handler {
		return appHandler{c, fn}
	}
	api.Methods("POST").Path("/uploads/url").Handler(h(c.issueUploadURL))
	api.Methods("POST").Path("/uploads/multipart").Handler(h(c.issueMultipartURLs))
	api.Methods("GET").Path("/uploads/multipart/parts").Handler(h(c.listUploadedParts))
	api.Methods("POST").Path("/uploads/multipart/complete").Handler(h(c.completeMultipart))
	api.Methods("POST").Path("/uploads/multipart/abort").Handler(h(c.abortMultipart))
	api.Methods("GET").Path("/uploads/{id}").Handler(h(c.getUpload))
	api.Methods("GET").Path("/objects").Handler(h(c.listObjects))
	api.Methods("POST").Path("/urls/signed").Handler(h(c.signURL))
	api.Methods("POST").Path("/urls/renditions").Handler(h(c.renditionURLs))
	api.Methods("POST").Path("/transcode").Handler(h(c.submitTranscode))
	api.Methods("GET").Path("/transcode/{jobId}").Handler(h(c.jobStatus))
	api.Methods("GET").Path("/transcode").Handler(h(c.listJobs))
}

// Parse incoming request body as JSON object.
func parseJSON(r *http.Request, data interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, "cannot parse JSON from request body", err)
	}
	return nil
}

// Respond the output with JSON format to the client.
func replyJSON(w http.ResponseWriter, data interface{}, code int) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
