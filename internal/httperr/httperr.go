// Package httperr is the single place internal failures become HTTP
// responses. Every failure kind the application can raise is a member of a
// closed taxonomy; the responder matches it exactly once and negotiates the
// body format from the Accept header.
package httperr

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"github.com/forizec/forizec/internal/store"
)

// Kind tags a failure class. Each kind carries a fixed status code and a
// message policy; unknown failures fall through to KindInternal.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindHTTP
	KindNotFound
	KindMethodNotAllowed
	KindPayloadTooLarge
	KindConstraint
	KindUnavailable
	KindFileNotFound
	KindForbidden
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindHTTP:
		return "http"
	case KindNotFound:
		return "not_found"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindConstraint:
		return "constraint"
	case KindUnavailable:
		return "unavailable"
	case KindFileNotFound:
		return "file_not_found"
	case KindForbidden:
		return "forbidden"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// E is a classified failure. Detail is the client-visible message; Err is the
// wrapped cause and is only ever surfaced in debug mode.
type E struct {
	Kind   Kind
	Status int
	Detail string
	Fields map[string]string
	Body   string
	Err    error
}

func (e *E) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *E) Unwrap() error { return e.Err }

// New raises an explicit application HTTP error whose detail passes through
// verbatim.
func New(status int, detail string) *E {
	return &E{Kind: KindHTTP, Status: status, Detail: detail}
}

// NotFound is a routing miss or a missing row surfaced to the client.
func NotFound(detail string) *E {
	if detail == "" {
		detail = "Not Found"
	}
	return &E{Kind: KindNotFound, Status: http.StatusNotFound, Detail: detail}
}

// MethodNotAllowed is raised by the router for a known path with the wrong verb.
func MethodNotAllowed() *E {
	return &E{Kind: KindMethodNotAllowed, Status: http.StatusMethodNotAllowed, Detail: "Method Not Allowed"}
}

// PayloadTooLarge is raised when a request body exceeds the configured limit.
func PayloadTooLarge() *E {
	return &E{Kind: KindPayloadTooLarge, Status: http.StatusRequestEntityTooLarge, Detail: "Payload too large"}
}

// Forbidden is an authorization failure. The detail is always generic.
func Forbidden() *E {
	return &E{Kind: KindForbidden, Status: http.StatusForbidden, Detail: "Permission denied"}
}

// Validation carries structured per-field errors and renders as 422. body is
// the offending request payload, echoed back alongside the field errors.
func Validation(fields map[string]string, body string) *E {
	return &E{
		Kind:   KindValidation,
		Status: http.StatusUnprocessableEntity,
		Detail: "Validation error",
		Fields: fields,
		Body:   body,
	}
}

// Unavailable is a storage or connection outage. The client never sees the
// underlying cause, regardless of debug mode.
func Unavailable(err error) *E {
	return &E{Kind: KindUnavailable, Status: http.StatusServiceUnavailable, Detail: "Database unavailable", Err: err}
}

// Classify maps an arbitrary failure into the taxonomy. Already-classified
// errors pass through unchanged; store sentinels and well-known stdlib errors
// map to their kinds; everything else is internal.
func Classify(err error) *E {
	var e *E
	if errors.As(err, &e) {
		return e
	}

	if errors.Is(err, store.ErrUnavailable) || errors.Is(err, store.ErrPoolExhausted) {
		return Unavailable(err)
	}

	var cerr *store.ConstraintError
	if errors.As(err, &cerr) {
		return &E{
			Kind:   KindConstraint,
			Status: http.StatusBadRequest,
			Detail: cerr.Detail,
			Err:    err,
		}
	}
	if errors.Is(err, store.ErrConstraintViolation) {
		return &E{Kind: KindConstraint, Status: http.StatusBadRequest, Detail: "Constraint violation", Err: err}
	}

	if errors.Is(err, store.ErrNotFound) {
		return &E{Kind: KindNotFound, Status: http.StatusNotFound, Detail: "Not Found", Err: err}
	}

	if errors.Is(err, store.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return &E{Kind: KindTimeout, Status: http.StatusGatewayTimeout, Detail: "The operation took too long to complete", Err: err}
	}

	if errors.Is(err, fs.ErrNotExist) {
		return &E{Kind: KindFileNotFound, Status: http.StatusNotFound, Detail: "File not found", Err: err}
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return &E{Kind: KindPayloadTooLarge, Status: http.StatusRequestEntityTooLarge, Detail: "Payload too large", Err: err}
	}

	return &E{Kind: KindInternal, Status: http.StatusInternalServerError, Detail: "An unexpected error occurred.", Err: err}
}
