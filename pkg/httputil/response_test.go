package httputil

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceloop/marketplace-api/pkg/errors"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", errors.Validation("email", "is required"), http.StatusUnprocessableEntity},
		{"business rule", errors.BusinessRule(errors.CodeInvalidTransition, "no"), http.StatusUnprocessableEntity},
		{"forbidden", errors.Forbidden(""), http.StatusForbidden},
		{"not found", errors.NotFound("booking", nil), http.StatusNotFound},
		{"unauthorized", errors.Unauthorized(stderrors.New("bad token")), http.StatusUnauthorized},
		{"internal", errors.Internal(stderrors.New("boom")), http.StatusInternalServerError},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := testContext()
			RespondError(c, tc.err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRespondErrorKeysByField(t *testing.T) {
	c, rec := testContext()
	RespondError(c, errors.Validation("start_time", "must be in the future"))

	resp := decode(t, rec)
	require.Contains(t, resp.Errors, "start_time")
	assert.Equal(t, []string{"must be in the future"}, resp.Errors["start_time"])
}

func TestRespondErrorKeysByCodeWithoutField(t *testing.T) {
	c, rec := testContext()
	RespondError(c, errors.BusinessRule(errors.CodeAlreadyReviewed, "already reviewed"))

	resp := decode(t, rec)
	require.Contains(t, resp.Errors, errors.CodeAlreadyReviewed)
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	c, rec := testContext()
	RespondError(c, errors.Internal(stderrors.New("pq: connection refused")))

	resp := decode(t, rec)
	assert.Equal(t, "internal server error", resp.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestRespondOKEnvelope(t *testing.T) {
	c, rec := testContext()
	RespondOK(c, "booking retrieved", map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "booking retrieved", resp.Message)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Errors)
}
