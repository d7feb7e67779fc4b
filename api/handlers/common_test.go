// Common test helpers
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/searchbadges/badges"
	"github.com/meghashyamc/searchbadges/config"
	"github.com/meghashyamc/searchbadges/db/kvdb"
	"github.com/meghashyamc/searchbadges/db/searchdb"
	"github.com/meghashyamc/searchbadges/logger"
	"github.com/meghashyamc/searchbadges/services/index"
	"github.com/meghashyamc/searchbadges/services/search"
	"github.com/meghashyamc/searchbadges/validation"
	"github.com/stretchr/testify/require"
)

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

var testSite = map[string]string{
	"index.html": `<html lang="en"><head><title>Docs</title></head>
<body><main><h1>Welcome</h1><p>Welcome to the documentation portal.</p></main></body></html>`,
	"guides/install.html": `<html lang="en"><body><main data-pagefind-filter="type:note">
<h1>Install</h1><p>Install the command line tool.</p>
<h2 id="proxy">Proxy</h2><p>Configure the proxy settings.</p></main></body></html>`,
	"pricing/index.html": `<html lang="en"><body><main data-pagefind-filter="type:pro">
<h1>Pricing</h1><p>Team pricing for larger organisations.</p></main></body></html>`,
	"snippets/index.html": `<html lang="en"><body><main data-pagefind-filter="type:dev">
<h1>Snippets</h1><p>Reusable examples for the proxy client.</p></main></body></html>`,
}

type testCase struct {
	name             string
	requestHeaders   map[string]string
	requestBody      map[string]any
	queryParams      map[string]string
	expectedStatus   int
	expectedResponse map[string]any
}

func newTestLogger() logger.Logger {
	return logger.NewWithWriter(os.Stderr, slog.LevelDebug)
}

func setupTestServer(t *testing.T, assert *require.Assertions) (*gin.Engine, string) {
	t.Setenv("STORAGE_PATH", t.TempDir())
	cfg, err := config.Load("test")
	assert.NoError(err, "could not load config")

	siteRoot := t.TempDir()
	for relPath, content := range testSite {
		fullPath := filepath.Join(siteRoot, relPath)
		err := os.MkdirAll(filepath.Dir(fullPath), 0755)
		assert.NoError(err, "could not create test sub-directory")
		err = os.WriteFile(fullPath, []byte(content), 0644)
		assert.NoError(err, "could not write test file")
	}

	testLogger := newTestLogger()

	props, err := badges.LoadProps(cfg.GetBadgesPath())
	assert.NoError(err, "could not load badges config")

	searchDB, err := searchdb.New(testLogger, cfg)
	assert.NoError(err, "could not create search database")

	kvDB, err := kvdb.New(testLogger, cfg)
	assert.NoError(err, "could not create kv database")
	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")

	ctx, cancel := context.WithCancel(context.Background())
	indexService := index.New(ctx, testLogger, searchDB, kvDB, nil, cfg.GetDefaultLang())
	searchService := search.New(testLogger, searchDB, kvDB, props, nil, search.Settings{
		ExcerptLength: cfg.GetExcerptLength(),
		BaseURL:       cfg.GetBaseURL(),
		FilterKey:     cfg.GetFilterKey(),
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()

	SetupIndex(router, testLogger, indexService, validator)
	SetupSearch(router, testLogger, searchService, validator)
	SetupBadges(router, testLogger, searchService, validator)

	t.Cleanup(func() {
		cancel()
		assert.NoError(searchDB.Close(), "could not close search database")
		assert.NoError(kvDB.Close(), "could not close kv database")
	})

	return router, siteRoot
}

func makeTestHTTPRequest(router *gin.Engine, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]any, queryParams map[string]string) *httptest.ResponseRecorder {

	var err error
	w := httptest.NewRecorder()

	if len(queryParams) > 0 {
		values := url.Values{}
		for key, value := range queryParams {
			values.Set(key, value)
		}
		endpoint = endpoint + "?" + values.Encode()
	}
	var jsonBody []byte
	var req *http.Request
	if requestBodyMap != nil {
		jsonBody, err = json.Marshal(requestBodyMap)
		assert.NoError(err)
	}

	slog.Info("Making test request", "method", method, "endpoint", endpoint, "headers", headers, "body", string(jsonBody))

	if len(jsonBody) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(jsonBody))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(w, req)

	return w
}

// indexSite builds the index of the site under root and waits for it.
func indexSite(assert *require.Assertions, router *gin.Engine, root string) {
	w := makeTestHTTPRequest(router, assert, http.MethodPost, "/index", defaultTestRequestHeaders, map[string]any{"path": root}, nil)
	assert.Equal(http.StatusAccepted, w.Code, "index creation should be accepted")
	assertSuccessfulIndexCreation(assert, router, w.Body.Bytes())
}

func assertSuccessfulIndexCreation(assert *require.Assertions, router *gin.Engine, responseBytes []byte) {
	type indexResponse struct {
		Data   IndexResponse `json:"data"`
		Errors []string      `json:"errors"`
	}
	actualResponse := indexResponse{}
	err := json.Unmarshal(responseBytes, &actualResponse)
	assert.NoError(err, "could not unmarshal gotten response")
	assert.NotEmpty(actualResponse.Data.ID, "index response should carry a request id")

	type statusResponse struct {
		Data IndexStatusResponse `json:"data"`
	}
	maxWaitForIndexCreation := 10 * time.Second

	for startTime := time.Now().UTC(); time.Since(startTime) < maxWaitForIndexCreation; time.Sleep(100 * time.Millisecond) {
		w := makeTestHTTPRequest(router, assert, http.MethodGet, fmt.Sprintf("/index/%s", actualResponse.Data.ID), nil, nil, nil)
		assert.Equal(http.StatusOK, w.Code)
		status := statusResponse{}
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &status))
		assert.NotEqual(indexStatusFailed, status.Data.Status, "indexing failed")
		if status.Data.Status == indexStatusComplete {
			assert.Equal(index.ProgressStatusComplete, status.Data.Progress)
			return
		}
	}
	assert.Fail("timed out waiting for index creation: ", actualResponse.Data.ID)
}

func decodeResponse(assert *require.Assertions, w *httptest.ResponseRecorder) map[string]any {
	var responseMap map[string]any
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &responseMap), fmt.Sprintf("response gotten was %s", w.Body.String()))
	return responseMap
}

// assertSubset checks that every key of expected is present in actual with
// the same value, recursing into nested maps.
func assertSubset(assert *require.Assertions, expected map[string]any, actual map[string]any) {
	for key, expectedValue := range expected {
		actualValue, exists := actual[key]
		assert.True(exists, fmt.Sprintf("expected field %s not found", key))
		if expectedMap, ok := expectedValue.(map[string]any); ok {
			actualMap, ok := actualValue.(map[string]any)
			assert.True(ok, fmt.Sprintf("field %s should be an object", key))
			assertSubset(assert, expectedMap, actualMap)
			continue
		}
		assert.Equal(expectedValue, actualValue, fmt.Sprintf("field %s mismatch", key))
	}
}
