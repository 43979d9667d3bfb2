package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeAuthFailed, http.StatusUnauthorized},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenRevoked, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeInvalidTransition, http.StatusUnprocessableEntity},
		{ErrCodeMissingTaxID, http.StatusUnprocessableEntity},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		// Family fallbacks
		{"INVALID_TAX_RATE", http.StatusBadRequest},
		{"INVALID_CLIENT_EMAIL", http.StatusBadRequest},
		{"TENANT_NOT_FOUND", http.StatusNotFound},
		{"ALREADY_ENABLED", http.StatusConflict},
		{"TOKEN_SOMETHING", http.StatusUnauthorized},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	t.Run("computes total pages", func(t *testing.T) {
		resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)
		require.NotNil(t, resp.Meta)
		assert.True(t, resp.Success)
		assert.Equal(t, 3, resp.Meta.TotalPages)
		assert.Equal(t, 2, resp.Meta.Page)
	})

	t.Run("zero page size uses defaults", func(t *testing.T) {
		resp := NewSuccessResponseWithMeta(nil, 5, 0, 0)
		assert.Equal(t, 1, resp.Meta.Page)
		assert.Equal(t, 20, resp.Meta.PageSize)
		assert.Equal(t, 1, resp.Meta.TotalPages)
	})

	t.Run("oversized page size is clamped", func(t *testing.T) {
		resp := NewSuccessResponseWithMeta(nil, 500, 1, 1000)
		assert.Equal(t, 100, resp.Meta.PageSize)
		assert.Equal(t, 5, resp.Meta.TotalPages)
	})
}

func TestErrorResponse_JSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeInvalidState, "Quote is not a draft", "req-1")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")

	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, "INVALID_STATE", errObj["code"])
	assert.Equal(t, "Quote is not a draft", errObj["message"])
	assert.Equal(t, "req-1", errObj["request_id"])
	assert.NotContains(t, errObj, "details")
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-2", []ValidationDetail{
		{Field: "email", Rule: "email", Message: "email must be a valid email address"},
	})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-2", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "email", resp.Error.Details[0].Field)
}
