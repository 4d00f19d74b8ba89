package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/invoicely/invoicely/internal/shared"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("invoice: %w", shared.ErrNotFound): http.StatusNotFound,
		shared.ErrValidation:                          http.StatusBadRequest,
		shared.ErrUnauthorized:                        http.StatusUnauthorized,
		errors.New("db down"):                         http.StatusInternalServerError,
	}
	for err, status := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, err)
		assert.Equal(t, status, rr.Code, err.Error())
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	}
}

func TestWantsJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, WantsJSON(req))
	req.Header.Set("Accept", "application/json, text/plain")
	assert.True(t, WantsJSON(req))
}
