package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dao-ai/builder/engine/config"
	"github.com/dao-ai/builder/engine/generator"
	"github.com/dao-ai/builder/engine/importer"
	"github.com/dao-ai/builder/engine/promptgen"
	"github.com/dao-ai/builder/engine/store"
	"github.com/dao-ai/builder/pkg/version"
)

const exportFilename = "model_config.yaml"

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": version.Get().Version})
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}

func (s *Server) handleListSection(c *gin.Context) {
	section := c.Param("section")
	snapshot, _, err := s.store.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	entities, ok := snapshot.SectionMap(section)
	if !ok {
		respondError(c, http.StatusNotFound, "unknown section: "+section)
		return
	}
	c.JSON(http.StatusOK, gin.H{"section": section, "entities": entities})
}

func (s *Server) handleGetEntity(c *gin.Context) {
	entity, etag, err := s.store.GetEntity(c.Request.Context(), c.Param("section"), c.Param("key"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.Header("ETag", etag)
	c.JSON(http.StatusOK, entity)
}

func (s *Server) handlePutEntity(c *gin.Context) {
	var entity map[string]any
	if err := c.ShouldBindJSON(&entity); err != nil {
		respondError(c, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	etag, err := s.store.PutEntity(c.Request.Context(), c.Param("section"), c.Param("key"), entity)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.Header("ETag", etag)
	c.JSON(http.StatusOK, gin.H{"etag": etag})
}

func (s *Server) handlePatchEntity(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		respondError(c, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	etag, err := s.store.PatchEntity(c.Request.Context(), c.Param("section"), c.Param("key"), fields)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.Header("ETag", etag)
	c.JSON(http.StatusOK, gin.H{"etag": etag})
}

func (s *Server) handleDeleteEntity(c *gin.Context) {
	if err := s.store.DeleteEntity(c.Request.Context(), c.Param("section"), c.Param("key")); err != nil {
		respondStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetSingleton(section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot, _, err := s.store.Snapshot(c.Request.Context())
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		if section == config.SectionMemory {
			c.JSON(http.StatusOK, snapshot.Memory)
			return
		}
		c.JSON(http.StatusOK, snapshot.App)
	}
}

func (s *Server) handlePutSingleton(section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "request body must be a JSON object")
			return
		}
		var err error
		if section == config.SectionMemory {
			err = s.store.SetMemory(c.Request.Context(), body)
		} else {
			err = s.store.SetApp(c.Request.Context(), body)
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleExport(c *gin.Context) {
	text, err := s.exportYAML(c)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if c.Query("download") == "1" {
		c.Header("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	}
	c.Data(http.StatusOK, "text/yaml; charset=utf-8", []byte(text))
}

func (s *Server) exportYAML(c *gin.Context) (string, error) {
	ctx := c.Request.Context()
	snapshot, idx, err := s.store.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return generator.New(snapshot, idx).GenerateYAML(ctx)
}

func (s *Server) handleImport(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read request body")
		return
	}
	cfg, idx, err := importer.Import(body)
	if err != nil {
		var parseErr *importer.ParseError
		if errors.As(err, &parseErr) {
			respondError(c, http.StatusBadRequest, parseErr.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.store.Replace(c.Request.Context(), cfg, idx); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"imported": true,
		"sections": s.store.SectionCounts(c.Request.Context()),
		"anchors":  idx.Len(),
	})
}

type validateRequest struct {
	YAMLContent string `json:"yaml_content"`
}

func (s *Server) handleValidate(c *gin.Context) {
	var req validateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "request body must be a JSON object")
			return
		}
	}
	text := req.YAMLContent
	if text == "" {
		generated, err := s.exportYAML(c)
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		text = generated
	}
	c.JSON(http.StatusOK, s.validator.Validate(c.Request.Context(), text))
}

func (s *Server) handleDeployCheck(c *gin.Context) {
	snapshot, _, err := s.store.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, checkDeployment(snapshot))
}

func (s *Server) handleGeneratePrompt(c *gin.Context) {
	var in promptgen.PromptInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	s.respondGenerated(c)(s.assist.GeneratePrompt(c.Request.Context(), in))
}

func (s *Server) handleGenerateGuardrailPrompt(c *gin.Context) {
	var in promptgen.GuardrailInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	s.respondGenerated(c)(s.assist.GenerateGuardrailPrompt(c.Request.Context(), in))
}

func (s *Server) handleGenerateHandoffPrompt(c *gin.Context) {
	var in promptgen.HandoffInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	s.respondGenerated(c)(s.assist.GenerateHandoffPrompt(c.Request.Context(), in))
}

func (s *Server) handleGenerateSupervisorPrompt(c *gin.Context) {
	var in promptgen.SupervisorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	s.respondGenerated(c)(s.assist.GenerateSupervisorPrompt(c.Request.Context(), in))
}

func (s *Server) respondGenerated(c *gin.Context) func(string, error) {
	return func(prompt string, err error) {
		if err != nil {
			if errors.Is(err, promptgen.ErrMissingInput) {
				respondError(c, http.StatusBadRequest, err.Error())
				return
			}
			respondError(c, http.StatusBadGateway, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"prompt": prompt})
	}
}

func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrUnknownSection):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrKeyConflict):
		respondError(c, http.StatusConflict, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, err.Error())
	}
}
