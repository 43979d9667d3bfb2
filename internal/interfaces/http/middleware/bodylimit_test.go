package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(BodyLimit(64))
	echo := func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "read limit")
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	}
	router.POST("/quotes", echo)
	router.GET("/quotes", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name          string
		method        string
		body          string
		contentLength int64
		wantStatus    int
		wantCode      string
	}{
		{"within limit", http.MethodPost, `{"client_name":"Sunrise"}`, 25, http.StatusOK, ""},
		{"declared length over limit", http.MethodPost, strings.Repeat("x", 100), 100, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE"},
		{"chunked body over limit", http.MethodPost, strings.Repeat("x", 100), -1, http.StatusRequestEntityTooLarge, ""},
		{"no body", http.MethodGet, "", 0, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, "/quotes", body)
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
			}
		})
	}
}
