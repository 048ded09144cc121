package httperr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/forizec/forizec/internal/store"
)

func TestClassifyStoreSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"not found", store.ErrNotFound, KindNotFound, 404},
		{"wrapped not found", fmt.Errorf("get policy: %w", store.ErrNotFound), KindNotFound, 404},
		{"unavailable", store.ErrUnavailable, KindUnavailable, 503},
		{"pool exhausted", store.ErrPoolExhausted, KindUnavailable, 503},
		{"timeout", store.ErrTimeout, KindTimeout, 504},
		{"deadline exceeded", context.DeadlineExceeded, KindTimeout, 504},
		{"missing file", fs.ErrNotExist, KindFileNotFound, 404},
		{"unknown", errors.New("boom"), KindInternal, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Classify(tt.err)
			require.Equal(t, tt.kind, e.Kind)
			require.Equal(t, tt.status, e.Status)
		})
	}
}

func TestClassifyConstraintKeepsDetail(t *testing.T) {
	cause := &store.ConstraintError{
		Constraint: "users_email_key",
		Detail:     "duplicate key value violates unique constraint \"users_email_key\"",
	}
	e := Classify(fmt.Errorf("create user: %w", cause))
	require.Equal(t, KindConstraint, e.Kind)
	require.Equal(t, http.StatusBadRequest, e.Status)
	require.Equal(t, cause.Detail, e.Detail)
}

func TestClassifyPassesThroughExplicitErrors(t *testing.T) {
	e := Classify(New(http.StatusConflict, "invitation already accepted"))
	require.Equal(t, KindHTTP, e.Kind)
	require.Equal(t, http.StatusConflict, e.Status)
	require.Equal(t, "invitation already accepted", e.Detail)
}

func TestClassifyMaxBytes(t *testing.T) {
	e := Classify(fmt.Errorf("read body: %w", &http.MaxBytesError{Limit: 1 << 20}))
	require.Equal(t, KindPayloadTooLarge, e.Kind)
	require.Equal(t, http.StatusRequestEntityTooLarge, e.Status)
}

func newResponder(debug bool) *Responder {
	return &Responder{Log: zerolog.Nop(), Debug: debug}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestResponderContentNegotiation(t *testing.T) {
	rp := newResponder(false)

	t.Run("html", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		req.Header.Set("Accept", "text/html")
		rec := httptest.NewRecorder()

		rp.Write(rec, req, NotFound(""))

		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		require.Contains(t, rec.Body.String(), "<h1>404 Error</h1>")
		require.Contains(t, rec.Body.String(), "Not Found")
	})

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()

		rp.Write(rec, req, NotFound(""))

		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "Not Found", decodeBody(t, rec)["detail"])
	})
}

func TestResponderOutageIsAlwaysGeneric(t *testing.T) {
	cause := fmt.Errorf("%w: dial tcp 10.0.0.5:5432: connect: connection refused", store.ErrUnavailable)

	for _, debug := range []bool{false, true} {
		rp := newResponder(debug)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/services", nil)
		rec := httptest.NewRecorder()

		rp.Write(rec, req, cause)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decodeBody(t, rec)
		require.Equal(t, "Database unavailable", body["detail"])
		require.NotContains(t, rec.Body.String(), "10.0.0.5")
		require.NotContains(t, body, "traceback")
	}
}

func TestResponderOutageLogsAboveOtherKinds(t *testing.T) {
	var buf bytes.Buffer
	rp := &Responder{Log: zerolog.New(&buf)}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/services", nil)
	rp.Write(httptest.NewRecorder(), req, NotFound(""))
	require.Contains(t, buf.String(), `"level":"warn"`)
	require.NotContains(t, buf.String(), "outage")

	buf.Reset()
	rp.Write(httptest.NewRecorder(), req, store.ErrUnavailable)
	require.Contains(t, buf.String(), `"level":"error"`)
	require.Contains(t, buf.String(), `"severity":"outage"`)
}

func TestResponderValidationBody(t *testing.T) {
	rp := newResponder(false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/policies", nil)
	rec := httptest.NewRecorder()

	rp.Write(rec, req, Validation(map[string]string{"title": "must not be empty"}, `{"title": ""}`))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	detail, ok := body["detail"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "must not be empty", detail["title"])
	require.Equal(t, `{"title": ""}`, body["body"])
}

func TestResponderInternalDetailGatedByDebug(t *testing.T) {
	cause := errors.New("nil pointer in report renderer")

	t.Run("production hides cause", func(t *testing.T) {
		rp := newResponder(false)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		rp.Write(rec, req, cause)

		body := decodeBody(t, rec)
		require.Equal(t, "An unexpected error occurred.", body["detail"])
		require.NotContains(t, body, "traceback")
	})

	t.Run("debug surfaces cause and trace", func(t *testing.T) {
		rp := newResponder(true)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		rp.Write(rec, req, cause)

		body := decodeBody(t, rec)
		require.Equal(t, cause.Error(), body["detail"])
		require.NotEmpty(t, body["traceback"])
	})
}
