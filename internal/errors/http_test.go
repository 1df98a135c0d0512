package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/davgallery/pkg/provider"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"upstream 404", provider.NewStatusError("List", "/x", 404), http.StatusNotFound, CodeNotFound},
		{"upstream 401", provider.NewStatusError("List", "/x", 401), http.StatusUnauthorized, CodeInvalidCredentials},
		{"upstream 403", provider.NewStatusError("List", "/x", 403), http.StatusForbidden, CodeAccessDenied},
		{"upstream 500", provider.NewStatusError("List", "/x", 500), http.StatusBadGateway, CodeUpstream},
		{"upstream 429", provider.NewStatusError("List", "/x", 429), http.StatusBadGateway, CodeUpstream},
		{"network", &provider.TransportError{Op: "List", Path: "/x", Err: errors.New("refused")}, http.StatusBadGateway, CodeUpstream},
		{"parse", &provider.ParseError{Op: "List", Path: "/x", Err: errors.New("eof")}, http.StatusBadGateway, CodeParse},
		{"deadline", &provider.TransportError{Op: "List", Path: "/x", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, CodeTimeout},
		{"bad request", BadRequest("path is required", nil), http.StatusBadRequest, CodeBadRequest},
		{"plain", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := Classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestRespondWithError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/list", nil)
	req = req.WithContext(WithRequestID(req.Context(), "req-1"))
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, provider.NewStatusError("List", "/Photos", 404))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeNotFound, body.Error.Code)
	assert.Equal(t, "req-1", body.Error.RequestID)
	assert.Equal(t, float64(404), body.Error.Details["upstream_status"])
}

func TestRespondWithError_NoUpstreamDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, BadRequest("bad", nil))

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeBadRequest, body.Error.Code)
	assert.Nil(t, body.Error.Details)
	assert.Empty(t, body.Error.RequestID)
}

func TestStatusError(t *testing.T) {
	cause := errors.New("cause")
	err := BadRequest("invalid deep", cause)
	assert.Equal(t, "invalid deep: cause", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", (&StatusError{Message: "plain"}).Error())
}

func TestRequestIDContext(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestIDFromContext(ctx))
}
