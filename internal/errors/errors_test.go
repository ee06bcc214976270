package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		expectedCategory ErrorCategory
		expectedStatus   int
	}{
		{
			name:             "app error passes through",
			err:              NewNotFoundError("repo", "lab/foldx"),
			expectedCategory: CategoryNotFound,
			expectedStatus:   http.StatusNotFound,
		},
		{
			name:             "connection refused becomes network error",
			err:              fmt.Errorf("dial tcp: connection refused"),
			expectedCategory: CategoryNetwork,
			expectedStatus:   http.StatusBadGateway,
		},
		{
			name:             "context deadline becomes timeout error",
			err:              context.DeadlineExceeded,
			expectedCategory: CategoryTimeout,
			expectedStatus:   http.StatusGatewayTimeout,
		},
		{
			name:             "unknown error becomes internal",
			err:              fmt.Errorf("something odd"),
			expectedCategory: CategoryInternal,
			expectedStatus:   http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := ToAppError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.expectedCategory, appErr.Category)
			assert.Equal(t, tt.expectedStatus, appErr.HTTPStatus)
		})
	}

	assert.Nil(t, ToAppError(nil))
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(NewNetworkError("down", nil)))
	assert.True(t, IsRetryableError(NewRateLimitError("60")))
	assert.True(t, IsRetryableError(NewExternalAPIError("GitHub", nil)))
	assert.False(t, IsRetryableError(NewValidationError("bad input", nil)))
	assert.False(t, IsRetryableError(NewNotFoundError("repo", "x")))
}

func TestGetRetryDelay(t *testing.T) {
	rateLimitDelay := GetRetryDelay(NewRateLimitError("60"), 3)
	assert.Equal(t, 9*time.Second, rateLimitDelay)

	networkDelay := GetRetryDelay(NewNetworkError("down", nil), 2)
	assert.Equal(t, 800*time.Millisecond, networkDelay)
}

func TestErrorHandlerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/boom", func(c *gin.Context) {
		c.Error(NewNotFoundError("repo", "lab/missing"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestMarshalToleratesMissingCause(t *testing.T) {
	// Constructors without a cause must still serialize; the embedded
	// builder's own marshaler would dereference a nil cause.
	for _, appErr := range []*AppError{
		NewValidationError("unknown sort field", map[string]string{"sort": "forks"}),
		NewNotFoundError("repo", "lab/foldx"),
		NewUnauthorizedError("missing bearer token"),
		NewRateLimitError("60"),
		NewExternalAPIError("GitHub", nil),
	} {
		raw, err := json.Marshal(appErr)
		require.NoError(t, err, appErr.Category)
		assert.Contains(t, string(raw), string(appErr.Category))
	}

	raw, err := json.Marshal(NewValidationError("bad limit", map[string]string{"limit": "zero"}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"limit":"zero"`)

	withCause := NewExternalAPIError("GitHub", fmt.Errorf("boom upstream"))
	raw, err = json.Marshal(withCause)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "boom upstream")
}

func TestErrorHandlerRendersCauselessErrorAsClientStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RecoveryHandler())
	router.Use(ErrorHandler())
	router.GET("/bad", func(c *gin.Context) {
		c.Error(NewValidationError("unknown sort field", map[string]string{"sort": "forks"}))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation")
	assert.Contains(t, w.Body.String(), "unknown sort field")
	assert.Contains(t, w.Body.String(), "forks")
}

func TestWrapError(t *testing.T) {
	base := fmt.Errorf("base failure")
	wrapped := WrapError(base, "loading %s", "repos.json")
	require.Error(t, wrapped)
	assert.Contains(t, wrapped.Error(), "loading repos.json")
	assert.ErrorIs(t, wrapped, base)

	assert.NoError(t, WrapError(nil, "ignored"))
}
