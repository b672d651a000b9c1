package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"modgraph/internal/api/handler/response"
	"modgraph/internal/api/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const printDocument = `{
  "version": 1,
  "metadata": {"name": "Test Mod", "modId": "test mod!"},
  "nodes": [
    {"id": "srv", "type": "init-server", "category": "event",
     "outputs": [{"id": "out", "label": "out", "kind": "exec"}]},
    {"id": "p", "type": "print", "data": {"message": 1.0},
     "inputs": [{"id": "in", "label": "in", "kind": "exec"}, {"id": "message", "label": "message", "kind": "data"}],
     "outputs": [{"id": "out", "label": "out", "kind": "exec"}]}
  ],
  "connections": [
    {"id": "c1", "from": {"nodeId": "srv", "portId": "out"}, "to": {"nodeId": "p", "portId": "in"}}
  ]
}`

func init() {
	gin.SetMode(gin.TestMode)
}

func newCompileRouter(checks map[string]HealthCheck) *gin.Engine {
	router := gin.New()
	compiler := service.NewCompileService(zerolog.Nop(), service.CompileServiceOptions{
		Cache:    service.NewLRUCache(16, 0),
		MaxNodes: 100,
	})
	CompileHandler(router, compiler, checks, zerolog.Nop())
	return router
}

func do(router http.Handler, method, path string, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCompileEndpoint(t *testing.T) {
	router := newCompileRouter(nil)

	w := do(router, http.MethodPost, "/api/v1/compile", printDocument)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res response.CompileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res.Source, "printt( 1.0 )")
	assert.False(t, res.Cached)
	require.Len(t, res.Roots, 1)
	assert.Equal(t, "ModServer_Init", res.Roots[0].Function)
	assert.NotNil(t, res.Diagnostics)

	w = do(router, http.MethodPost, "/api/v1/compile", printDocument)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Cached)
}

func TestCompileEndpoint_EmptyGraph(t *testing.T) {
	router := newCompileRouter(nil)

	w := do(router, http.MethodPost, "/api/v1/compile", `{"nodes": [], "connections": []}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res response.CompileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "// Empty graph: nothing to compile.\n", res.Source)
	assert.Empty(t, res.Roots)
}

func TestCompileEndpoint_BadInput(t *testing.T) {
	router := newCompileRouter(nil)

	w := do(router, http.MethodPost, "/api/v1/compile", `{"nodes": [`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/v1/compile", `{"nodes": [{"id": "a", "type": "print", "inputs": [{"id": "x", "kind": "wire"}]}]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var apiErr response.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, "invalid document", apiErr.Message)
	assert.NotEmpty(t, apiErr.Data)
}

func TestExportAndRecoverEndpoints(t *testing.T) {
	router := newCompileRouter(nil)

	w := do(router, http.MethodPost, "/api/v1/export", printDocument)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var exported response.ExportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exported))
	assert.True(t, strings.HasPrefix(exported.Script, "// Mod: Test Mod\n"))

	body, err := json.Marshal(map[string]string{"script": exported.Script})
	require.NoError(t, err)
	w = do(router, http.MethodPost, "/api/v1/recover", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"type":"print"`)
	assert.Contains(t, w.Body.String(), `"message":1.0`)

	w = do(router, http.MethodPost, "/api/v1/recover", `{"script": "untyped\n"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(router, http.MethodPost, "/api/v1/recover", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportEndpoint_Download(t *testing.T) {
	router := newCompileRouter(nil)

	w := do(router, http.MethodPost, "/api/v1/export?download=1", printDocument)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="test_mod_.nut"`, w.Header().Get("Content-Disposition"))
	assert.Len(t, w.Header().Get("X-Modgraph-Hash"), 64)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("#if SERVER")))
}

func TestHealthAndNodeTypes(t *testing.T) {
	router := newCompileRouter(map[string]HealthCheck{
		"redis": func(context.Context) error { return nil },
	})
	w := do(router, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health response.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.True(t, health.Backends["redis"])

	router = newCompileRouter(map[string]HealthCheck{
		"postgres": func(context.Context) error { return errors.New("down") },
	})
	w = do(router, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(router, http.MethodGet, "/api/v1/node-types", "")
	require.Equal(t, http.StatusOK, w.Code)
	var types response.NodeTypesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &types))
	assert.Contains(t, types.Types, "branch")
}

func TestScriptFileName(t *testing.T) {
	assert.Equal(t, "my_mod.nut", scriptFileName("my_mod"))
	assert.Equal(t, "a_b.nut", scriptFileName("a/b"))
	assert.Equal(t, "mod.nut", scriptFileName(""))
	assert.Equal(t, "mod.nut", scriptFileName("!!"))
}
