package errors

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

// ContentTypeProblemJSON is the media type for Problem Details responses.
const ContentTypeProblemJSON = "application/problem+json"

const internalDetail = "an unexpected error occurred"

// ErrorMapper maps domain/application errors to ProblemDetail.
type ErrorMapper func(err error) (ProblemDetail, bool)

// Responder sends Problem Details responses, consulting its mappers before
// falling back to an opaque internal error.
type Responder struct {
	// BaseURI is prepended to problem type URIs if they are relative.
	BaseURI string
	mappers []ErrorMapper
	logger  *slog.Logger
}

// ResponderOption customises a Responder.
type ResponderOption func(*Responder)

// WithMappers appends error mappers consulted in order.
func WithMappers(mappers ...ErrorMapper) ResponderOption {
	return func(r *Responder) {
		r.mappers = append(r.mappers, mappers...)
	}
}

// WithLogger records unmapped errors before they are hidden behind a 500.
func WithLogger(logger *slog.Logger) ResponderOption {
	return func(r *Responder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResponder creates a problem responder. The authorization mapper is always installed first.
func NewResponder(baseURI string, opts ...ResponderOption) *Responder {
	r := &Responder{
		BaseURI: baseURI,
		mappers: []ErrorMapper{MapAuthzError},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond sends a ProblemDetail response with proper content type.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.BaseURI != "" && len(problem.Type) > 0 && problem.Type[0] == '/' {
		problem.Type = r.BaseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

// RespondError converts err into a ProblemDetail. Errors no mapper recognises
// are logged and answered with a 500 that does not leak their text.
func (r *Responder) RespondError(c *gin.Context, err error) {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			r.Respond(c, problem)
			return
		}
	}
	r.logger.ErrorContext(c.Request.Context(), "unhandled request error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
	)
	r.Respond(c, ErrInternal.WithDetail(internalDetail))
}

// BadRequest sends a 400 problem response.
func (r *Responder) BadRequest(c *gin.Context, detail string) {
	r.Respond(c, ErrBadRequest.WithDetail(detail))
}

// ValidationFailed sends a 422 problem response with field errors.
func (r *Responder) ValidationFailed(c *gin.Context, detail string, fieldErrors map[string]string) {
	r.Respond(c, NewValidationProblem(detail, fieldErrors))
}

// NotFound sends a 404 problem response.
func (r *Responder) NotFound(c *gin.Context, resourceType string, identifier any) {
	r.Respond(c, NewNotFoundProblem(resourceType, identifier))
}

// MapAuthzError maps the acting-user failures shared by every bounded context.
// Acting on someone else's application answers 401, the status API clients
// already handle for ownership failures; role and state failures answer 403.
func MapAuthzError(err error) (ProblemDetail, bool) {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		return ErrUnauthorized.WithDetail(authz.ErrUnauthenticated.Error()), true
	case errors.Is(err, authz.ErrNotOwner):
		return ErrUnauthorized.WithDetail(authz.ErrNotOwner.Error()), true
	case errors.Is(err, authz.ErrForbidden):
		return ErrForbidden.WithDetail(err.Error()), true
	default:
		return ProblemDetail{}, false
	}
}

// HTTPStatusFromError extracts HTTP status from an error if possible.
func HTTPStatusFromError(err error) int {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem.Status
	}
	return http.StatusInternalServerError
}
