package apierror

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    *APIError
		status int
	}{
		{Conflict("taken"), http.StatusConflict},
		{Unauthorized("nope"), http.StatusUnauthorized},
		{Forbidden("nope"), http.StatusForbidden},
		{NotFound("missing"), http.StatusNotFound},
		{BadRequest("bad"), http.StatusBadRequest},
		{New(Kind("SOMETHING_ELSE"), "x"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(string(tc.err.Code), func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.HTTPStatus())
		})
	}
}

func TestAs_UnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("loading server: %w", NotFound("Server with ID %q not found", "abc"))

	apiErr, ok := As(wrapped)

	require.True(t, ok)
	assert.Equal(t, KindNotFound, apiErr.Code)
	assert.Equal(t, `Server with ID "abc" not found`, apiErr.Message)
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindConflict))
}

func TestAs_PlainError(t *testing.T) {
	_, ok := As(fmt.Errorf("boom"))
	assert.False(t, ok)
}

func TestWithDetail_DoesNotMutateOriginal(t *testing.T) {
	base := BadRequest("validation failed")

	withField := base.WithDetail("name", "too short")

	assert.Nil(t, base.Details)
	assert.Equal(t, "too short", withField.Details["name"])
	assert.Equal(t, base.Message, withField.Message)
}
