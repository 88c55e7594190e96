package utils

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	err := RespondWithJSON(rec, 201, map[string]any{"id": "abc", "count": 2})

	require.NoError(t, err)
	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"abc","count":2}`, rec.Body.String())
}

func TestRespondWithJSON_EncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	err := RespondWithJSON(rec, 200, math.Inf(1))

	require.Error(t, err)
	assert.Equal(t, 500, rec.Code)
}

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, 400, "Stats field is required")

	assert.Equal(t, 400, rec.Code)
	assert.JSONEq(t, `{"error":"Stats field is required"}`, rec.Body.String())
}
