package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/dao-ai/builder/pkg/config"
	"github.com/dao-ai/builder/pkg/logger"
)

func newTestServer(t *testing.T, mutate func(*appconfig.Config)) (*Server, *gin.Engine) {
	t.Helper()
	cfg := appconfig.Default()
	if mutate != nil {
		mutate(cfg)
	}
	s := New(cfg, logger.NewNop())
	return s, s.Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthAndVersion(t *testing.T) {
	t.Run("Should report healthy", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		w := doJSON(t, router, http.MethodGet, "/api/v0/healthz", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "healthy")
	})
	t.Run("Should attach a request id to every response", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		w := doJSON(t, router, http.MethodGet, "/api/v0/healthz", nil)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestSectionCRUD(t *testing.T) {
	t.Run("Should create, fetch, list, and delete an entity", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		entity := map[string]any{"name": "gpt-4o", "provider": "openai"}

		w := doJSON(t, router, http.MethodPut, "/api/v0/sections/llms/gpt", entity)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("ETag"))

		w = doJSON(t, router, http.MethodGet, "/api/v0/sections/llms/gpt", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "gpt-4o", got["name"])

		w = doJSON(t, router, http.MethodGet, "/api/v0/sections/llms", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "gpt")

		w = doJSON(t, router, http.MethodDelete, "/api/v0/sections/llms/gpt", nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/v0/sections/llms/gpt", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
	t.Run("Should merge fields on patch", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		doJSON(t, router, http.MethodPut, "/api/v0/sections/llms/gpt",
			map[string]any{"name": "gpt-4o", "temperature": 0.2})
		w := doJSON(t, router, http.MethodPatch, "/api/v0/sections/llms/gpt",
			map[string]any{"temperature": 0.9})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/v0/sections/llms/gpt", nil)
		var got map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 0.9, got["temperature"])
		assert.Equal(t, "gpt-4o", got["name"])
	})
	t.Run("Should reject a key already used in another section", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		w := doJSON(t, router, http.MethodPut, "/api/v0/sections/llms/shared", map[string]any{"name": "a"})
		require.Equal(t, http.StatusOK, w.Code)
		w = doJSON(t, router, http.MethodPut, "/api/v0/sections/tools/shared", map[string]any{"name": "b"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
	t.Run("Should return problem documents for unknown sections", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		w := doJSON(t, router, http.MethodPut, "/api/v0/sections/widgets/w", map[string]any{"name": "w"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		var problem map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
		assert.Equal(t, float64(http.StatusNotFound), problem["status"])
		assert.NotEmpty(t, problem["details"])
	})
	t.Run("Should store and return the singleton sections", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		w := doJSON(t, router, http.MethodPut, "/api/v0/app",
			map[string]any{"name": "assistant"})
		require.Equal(t, http.StatusNoContent, w.Code)
		w = doJSON(t, router, http.MethodGet, "/api/v0/app", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "assistant")
	})
}

func TestExportAndImport(t *testing.T) {
	t.Run("Should export YAML with reconstructed anchors", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		doJSON(t, router, http.MethodPut, "/api/v0/sections/llms/gpt",
			map[string]any{"name": "gpt-4o"})
		doJSON(t, router, http.MethodPut, "/api/v0/sections/agents/helper",
			map[string]any{"name": "helper", "model": "*gpt"})

		w := doJSON(t, router, http.MethodGet, "/api/v0/export", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/yaml")
		assert.Contains(t, w.Body.String(), "gpt: &gpt")
		assert.Contains(t, w.Body.String(), "model: *gpt")
	})
	t.Run("Should set a download filename when requested", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		w := doJSON(t, router, http.MethodGet, "/api/v0/export?download=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "model_config.yaml")
	})
	t.Run("Should import a document and expose it through export", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		doc := strings.Join([]string{
			"resources:",
			"  llms:",
			"    gpt: &gpt",
			"      name: gpt-4o",
			"agents:",
			"  helper:",
			"    name: helper",
			"    model: *gpt",
			"",
		}, "\n")
		req := httptest.NewRequest(http.MethodPost, "/api/v0/import", strings.NewReader(doc))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"imported":true`)

		w = doJSON(t, router, http.MethodGet, "/api/v0/export", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "gpt: &gpt")
		assert.Contains(t, w.Body.String(), "model: *gpt")
	})
	t.Run("Should reject malformed YAML on import", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v0/import", strings.NewReader("a: [unclosed"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestValidateEndpoint(t *testing.T) {
	t.Run("Should report a yaml_parse issue for malformed content", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		w := doJSON(t, router, http.MethodPost, "/api/v0/validate",
			map[string]any{"yaml_content": "a: [unclosed"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "yaml_parse")
	})
	t.Run("Should validate the current configuration when no body is posted", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		w := doJSON(t, router, http.MethodPost, "/api/v0/validate", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "valid")
	})
}

func TestDeployCheckEndpoint(t *testing.T) {
	t.Run("Should fail readiness for an empty configuration", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		w := doJSON(t, router, http.MethodPost, "/api/v0/deploy/check", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var check DeployCheck
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &check))
		assert.False(t, check.Valid)
		assert.NotEmpty(t, check.Errors)
	})
	t.Run("Should pass readiness with app, agents, and orchestration", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		doJSON(t, router, http.MethodPut, "/api/v0/sections/agents/helper",
			map[string]any{"name": "helper"})
		doJSON(t, router, http.MethodPut, "/api/v0/sections/vector_stores/vs",
			map[string]any{"name": "products"})
		doJSON(t, router, http.MethodPut, "/api/v0/app", map[string]any{
			"name": "assistant",
			"registered_model": map[string]any{
				"name":   "catalog.schema.assistant",
				"schema": map[string]any{"catalog_name": "main", "schema_name": "agents"},
			},
			"orchestration": map[string]any{
				"supervisor": map[string]any{"name": "sup"},
			},
		})
		w := doJSON(t, router, http.MethodPost, "/api/v0/deploy/check", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var check DeployCheck
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &check))
		assert.True(t, check.Valid, "errors: %v", check.Errors)
		assert.Equal(t, 1, check.AgentCount)
		assert.Equal(t, "assistant", check.EndpointName)
		require.Len(t, check.Requirements, 1)
		assert.Equal(t, "vector_search", check.Requirements[0].Type)
	})
}

func TestAssistEndpoints(t *testing.T) {
	t.Run("Should pass prompt generation through to the assist endpoint", func(t *testing.T) {
		assist := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"You are helpful."}}]}`))
		}))
		t.Cleanup(assist.Close)
		_, router := newTestServer(t, func(cfg *appconfig.Config) {
			cfg.Assist.Endpoint = assist.URL
		})
		w := doJSON(t, router, http.MethodPost, "/api/v0/ai/prompt",
			map[string]any{"context": "help users"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "You are helpful.")
	})
	t.Run("Should reject generation without input as a client error", func(t *testing.T) {
		_, router := newTestServer(t, nil)
		w := doJSON(t, router, http.MethodPost, "/api/v0/ai/prompt", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("Should surface assist endpoint failures as bad gateway", func(t *testing.T) {
		assist := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(assist.Close)
		_, router := newTestServer(t, func(cfg *appconfig.Config) {
			cfg.Assist.Endpoint = assist.URL
		})
		w := doJSON(t, router, http.MethodPost, "/api/v0/ai/handoff-prompt",
			map[string]any{"agent_name": "helper", "system_prompt": "You route."})
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}
