package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/km-arc/go-laravel/framework/container"
	"github.com/km-arc/go-laravel/framework/multibind"
)

// Response wraps http.ResponseWriter with Laravel-style helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// ── JSON responses ────────────────────────────────────────────────────────────

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// Error sends a JSON error response.
//
//	res.Error(http.StatusNotFound, "Resource not found")
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// NotFound sends 404.
func (res *Response) NotFound(message ...string) {
	res.Error(http.StatusNotFound, first(message, "Not found."))
}

// ServerError sends 500.
func (res *Response) ServerError(message ...string) {
	res.Error(http.StatusInternalServerError, first(message, "Server Error."))
}

// Failure maps a resolution error onto a status code. Lists that are not
// finalized yet answer 503; broken contributors answer 500 and name the
// offending source.
func (res *Response) Failure(err error) {
	var (
		null    *multibind.NullElementError
		failure *multibind.ResolverFailure
	)
	switch {
	case errors.Is(err, multibind.ErrConfigurationState):
		res.Error(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, container.ErrNotBound):
		res.NotFound(err.Error())
	case errors.As(err, &null):
		res.JSON(http.StatusInternalServerError, envelope{
			"message":  "list contains a null element",
			"source":   null.Source,
			"position": null.Position,
		})
	case errors.As(err, &failure):
		res.JSON(http.StatusInternalServerError, envelope{
			"message":  failure.Err.Error(),
			"source":   failure.Source,
			"position": failure.Position,
		})
	default:
		res.ServerError(err.Error())
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
