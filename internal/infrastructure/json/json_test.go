package json

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDecodesBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"jane"}`))

	var dst struct {
		Name string `json:"name"`
	}
	require.NoError(t, Read(r, &dst))
	assert.Equal(t, "jane", dst.Name)
}

func TestReadRejectsTrailingValue(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}{"b":2}`))

	var dst map[string]any
	assert.Error(t, Read(r, &dst))
}

func TestReadRejectsInvalidJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))

	var dst map[string]any
	assert.Error(t, Read(r, &dst))
}

func TestWriteSetsStatusAndContentType(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, http.StatusCreated, map[string]string{"id": "1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"1"}`, w.Body.String())
}

func TestWriteErrorShapes(t *testing.T) {
	w := httptest.NewRecorder()
	WriteNotFoundError(w, "Post not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not Found","message":"Post not found"}`, w.Body.String())

	w = httptest.NewRecorder()
	WriteRateLimitError(w, 30)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}
