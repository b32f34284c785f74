package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postSimFile(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	NewRouter().ServeHTTP(rec, req)
	return rec
}

func TestParseEndpoint(t *testing.T) {
	rec := postSimFile(t, "/parse", validSimFileData)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var sf SimFile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sf))

	assert := assert.New(t)
	assert.Equal("Test Song", sf.Metadata.Title)
	assert.Len(sf.TimingPoints, 2)
	assert.Len(sf.Warnings, 3)
	require.Len(t, sf.Difficulties, 2)
	assert.Equal("Challenge", sf.Difficulties[0].Name)
	assert.Len(sf.Difficulties[0].Notes, 8)
	assert.Equal(Mine, sf.Difficulties[1].Notes[0].Kind)
}

func TestParseEndpointMalformed(t *testing.T) {
	rec := postSimFile(t, "/parse", "#OFFSET:abc;\n")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "malformed field")
}

func TestParseEndpointRejectsGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/parse", nil)
	rec := httptest.NewRecorder()
	NewRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRewriteEndpoint(t *testing.T) {
	rec := postSimFile(t, "/rewrite", validSimFileData)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))

	sf, err := ParseSimFile(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "Test Song", sf.Metadata.Title)
	assert.Len(t, sf.Difficulties, 2)
	assert.Empty(t, sf.Warnings)
}

func TestRewriteEndpointEmptyDifficulty(t *testing.T) {
	body := "#TITLE:x;\n//\n#NOTES:\ndance-single:\n:\nHard:\n1:\n:\n0000\n;\n"
	rec := postSimFile(t, "/rewrite", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, ErrEmptyDifficulty.Error())
}

func TestTimelineEndpoint(t *testing.T) {
	rec := postSimFile(t, "/timeline?difficulty=easy", validSimFileData)
	require.Equal(t, http.StatusOK, rec.Code)

	var timeline Timeline
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &timeline))
	assert.Equal(t, "Easy", timeline.Difficulty)
	require.Len(t, timeline.Measures, 1)
	assert.Equal(t, 2, timeline.Measures[0].NoteCount)
}

func TestTimelineEndpointUnknownDifficulty(t *testing.T) {
	rec := postSimFile(t, "/timeline?difficulty=Edit", validSimFileData)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterAllowsCrossOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader(validSimFileData))
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	rec := postSimFile(t, "/parse", validSimFileData)
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader(validSimFileData))
	req.Header.Set("X-Request-ID", "abc123")
	rec = httptest.NewRecorder()
	NewRouter().ServeHTTP(rec, req)
	assert.Equal(t, "abc123", rec.Header().Get("X-Request-ID"))
}

// brokenResponseWriter accepts headers but fails every body write
type brokenResponseWriter struct {
	header http.Header
	status int
}

func (w *brokenResponseWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}

func (w *brokenResponseWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func (w *brokenResponseWriter) WriteHeader(status int) {
	w.status = status
}

func TestResponseWriteFailuresAreLogged(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	w := &brokenResponseWriter{}
	writeJSON(w, http.StatusOK, ErrorResponse{Error: "x"})
	assert.Equal(t, http.StatusOK, w.status)
	assert.Contains(t, logs.String(), "Error writing JSON response: connection reset")

	logs.Reset()
	req := httptest.NewRequest(http.MethodPost, "/rewrite", strings.NewReader(validSimFileData))
	handleRewrite(&brokenResponseWriter{}, req)
	assert.Contains(t, logs.String(), "Error writing rewrite response: connection reset")
}
