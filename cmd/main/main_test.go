package main

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/Murmur/pkg/markov"
	"github.com/CTAG07/Murmur/pkg/notestock"
	"github.com/CTAG07/Murmur/pkg/store"
	"github.com/stretchr/testify/require"
)

// testEnv bundles a running API server and the state behind it.
type testEnv struct {
	server     *httptest.Server
	app        *Server
	state      *ModelState
	store      *store.Store
	config     *ConfigManager
	actionChan chan string
}

// setupTestServer creates a database, the application state and an
// httptest server for the full API. It uses t.Cleanup to release resources.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := initDB(filepath.Join(dir, "test.db"))
	require.NoError(t, err, "failed to open database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, store.SetupSchema(db))
	require.NoError(t, setupAuthSchema(db))

	s, err := store.New(db)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	cm, err := NewConfigManager(filepath.Join(dir, "config.json"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	config := cm.Get()
	state := NewModelState(markov.NewDefaultTokenizer(), config.Markov.MaxGenerateLength, logger)
	actionChan := make(chan string, 1)

	server, err := NewServer(cm, logger, db, s, state, notestock.NewExtractor(), actionChan)
	require.NoError(t, err)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{
		server:     ts,
		app:        server,
		state:      state,
		store:      s,
		config:     cm,
		actionChan: actionChan,
	}
}

// do sends a request to the test server and decodes a JSON response into out
// when out is non-nil. It returns the status code.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, out any, headers ...string) int {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode
}

// learnAndBuild teaches the served model texts through the API.
func (e *testEnv) learnAndBuild(t *testing.T, texts ...string) {
	t.Helper()
	body, err := json.Marshal(LearnTextsRequest{Texts: texts})
	require.NoError(t, err)
	code := e.do(t, http.MethodPost, "/api/markov/learn/texts?build=true", bytes.NewReader(body), nil)
	require.Equal(t, http.StatusOK, code)
}

// makeArchive builds a notestock export holding posts with the given contents.
func makeArchive(t *testing.T, contents ...string) []byte {
	t.Helper()
	posts := make([]map[string]string, 0, len(contents))
	for _, c := range contents {
		posts = append(posts, map[string]string{"content": c})
	}
	data, err := json.Marshal(posts)
	require.NoError(t, err)

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "posts.json", Mode: 0o644, Size: int64(len(data)), Typeflag: tar.TypeReg}))
	_, err = tw.Write(data)
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	w, err := zw.Create("notestock.tar")
	require.NoError(t, err)
	_, err = w.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return zipBuf.Bytes()
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return strings.NewReader(string(data))
}
