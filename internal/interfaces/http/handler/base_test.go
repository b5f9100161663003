package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agrifin/backend/internal/domain/shared"
	"github.com/agrifin/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context string",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from request header",
			setup: func(c *gin.Context) {
				c.Request.Header.Set("X-Request-ID", "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "missing everywhere",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(t)
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestGetActor(t *testing.T) {
	c, _ := newTestContext(t)
	assert.Equal(t, "system", getActor(c))

	c.Request.Header.Set("X-Actor", "ops@agrifin")
	assert.Equal(t, "ops@agrifin", getActor(c))
}

func TestBaseHandler_Success(t *testing.T) {
	h := BaseHandler{}
	c, w := newTestContext(t)

	h.Success(c, gin.H{"hello": "world"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	h := BaseHandler{}
	c, w := newTestContext(t)

	h.SuccessWithMeta(c, []string{"a", "b"}, 42, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(42), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandler_Created(t *testing.T) {
	h := BaseHandler{}
	c, w := newTestContext(t)

	h.Created(c, gin.H{"id": "new"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestBaseHandler_ErrorHelpers(t *testing.T) {
	tests := []struct {
		name         string
		call         func(h BaseHandler, c *gin.Context)
		expectedCode int
		expectedErr  string
	}{
		{
			name:         "bad request",
			call:         func(h BaseHandler, c *gin.Context) { h.BadRequest(c, "bad") },
			expectedCode: http.StatusBadRequest,
			expectedErr:  dto.ErrCodeBadRequest,
		},
		{
			name:         "not found",
			call:         func(h BaseHandler, c *gin.Context) { h.NotFound(c, "missing") },
			expectedCode: http.StatusNotFound,
			expectedErr:  dto.ErrCodeNotFound,
		},
		{
			name:         "conflict",
			call:         func(h BaseHandler, c *gin.Context) { h.Conflict(c, "dup") },
			expectedCode: http.StatusConflict,
			expectedErr:  dto.ErrCodeConflict,
		},
		{
			name:         "internal",
			call:         func(h BaseHandler, c *gin.Context) { h.InternalError(c, "boom") },
			expectedCode: http.StatusInternalServerError,
			expectedErr:  dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := BaseHandler{}
			c, w := newTestContext(t)
			tt.call(h, c)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
		})
	}
}

func TestBaseHandler_ErrorCarriesRequestID(t *testing.T) {
	h := BaseHandler{}
	c, w := newTestContext(t)
	c.Set(RequestIDKey, "req-777")

	h.BadRequest(c, "bad")

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-777", resp.Error.RequestID)
}

func TestHandleDomainError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{
			name:         "domain not found keeps its code",
			err:          shared.NewDomainError("ORDER_NOT_FOUND", "Delivery order missing"),
			expectedCode: http.StatusNotFound,
			expectedErr:  "ORDER_NOT_FOUND",
		},
		{
			name:         "invalid transition maps to 422",
			err:          shared.NewDomainError("INVALID_TRANSITION", "Cannot move there"),
			expectedCode: http.StatusUnprocessableEntity,
			expectedErr:  "INVALID_TRANSITION",
		},
		{
			name:         "business rule maps to 422",
			err:          shared.NewDomainError("ADVANCE_NOT_ELIGIBLE", "Order does not qualify"),
			expectedCode: http.StatusUnprocessableEntity,
			expectedErr:  "ADVANCE_NOT_ELIGIBLE",
		},
		{
			name:         "no capital maps to 409",
			err:          shared.NewDomainError("NO_CAPITAL_AVAILABLE", "No pool can fund this"),
			expectedCode: http.StatusConflict,
			expectedErr:  "NO_CAPITAL_AVAILABLE",
		},
		{
			name:         "sentinel not found",
			err:          shared.ErrNotFound,
			expectedCode: http.StatusNotFound,
			expectedErr:  "NOT_FOUND",
		},
		{
			name:         "unknown error is internal",
			err:          assertAnError{},
			expectedCode: http.StatusInternalServerError,
			expectedErr:  dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := BaseHandler{}
			c, w := newTestContext(t)
			h.HandleDomainError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
		})
	}
}

type assertAnError struct{}

func (assertAnError) Error() string { return "something unexpected" }
