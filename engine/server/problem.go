package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dao-ai/builder/engine/core"
	"github.com/dao-ai/builder/pkg/logger"
)

// respondProblem writes a canonical RFC 7807 error response and aborts the
// request.
func respondProblem(c *gin.Context, problem *core.Problem) {
	prepared := core.NormalizeProblem(problem)
	if prepared.Instance == "" {
		prepared.Instance = c.Request.URL.Path
	}
	body := core.BuildProblemBody(prepared)
	logProblem(c, prepared)
	c.JSON(prepared.Status, body)
	c.Abort()
}

func respondError(c *gin.Context, status int, detail string) {
	respondProblem(c, &core.Problem{
		Status: status,
		Title:  http.StatusText(status),
		Detail: detail,
	})
}

func logProblem(c *gin.Context, problem *core.Problem) {
	log := logger.FromContext(c.Request.Context())
	fields := []any{
		"status", problem.Status,
		"detail", problem.Detail,
		"path", c.Request.URL.Path,
	}
	if problem.Status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
		return
	}
	log.Warn("request failed", fields...)
}
