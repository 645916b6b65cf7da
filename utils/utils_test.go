package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID(14)
		require.Len(t, id, 14)
		for _, r := range id {
			assert.Contains(t, string(letterRunes), string(r))
		}
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestRespondWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithJSON(rec, http.StatusCreated, M{"ok": true})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
}

func TestSendResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	SendResponse(rec, http.StatusOK, "payload", "all good", nil)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "all good", body["message"])
	assert.Equal(t, "payload", body["data"])
	assert.NotContains(t, body, "error")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "pic.jpg", SanitizeFilename("pic.jpg"))
	assert.Equal(t, "pic.jpg", SanitizeFilename("../../pic.jpg"))
	assert.Equal(t, "a_b_.png", SanitizeFilename("a b?.png"))
	assert.Equal(t, "file", SanitizeFilename(""))
}
