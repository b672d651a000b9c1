package endpoints

import (
	"context"
	"fmt"
	"modgraph/internal/api/handler/request"
	"modgraph/internal/api/handler/response"
	"modgraph/internal/api/service"
	"modgraph/pkg"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthCheck probes one backend
type HealthCheck func(ctx context.Context) error

type compileHandler struct {
	compiler *service.CompileService
	checks   map[string]HealthCheck
	logger   zerolog.Logger
}

// CompileHandler registers the stateless compile endpoints
func CompileHandler(router gin.IRouter, compiler *service.CompileService, checks map[string]HealthCheck, logger zerolog.Logger) {
	h := &compileHandler{compiler: compiler, checks: checks, logger: logger}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.health)
		v1.GET("/node-types", h.nodeTypes)
		v1.POST("/compile", h.compile)
		v1.POST("/export", h.export)
		v1.POST("/recover", h.recoverDocument)
	}
}

func (slf *compileHandler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	res := response.HealthResponse{Status: "ok", Backends: make(map[string]bool, len(slf.checks))}
	status := http.StatusOK
	for name, check := range slf.checks {
		if err := check(ctx); err != nil {
			slf.logger.Warn().Err(err).Str("backend", name).Msg("Health check failed")
			res.Backends[name] = false
			res.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Backends[name] = true
	}
	c.JSON(status, res)
}

func (slf *compileHandler) nodeTypes(c *gin.Context) {
	c.JSON(http.StatusOK, response.NodeTypesResponse{Types: slf.compiler.NodeTypes()})
}

func (slf *compileHandler) compile(c *gin.Context) {
	doc, err := bindDocument(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	out, err := slf.compiler.Compile(c.Request.Context(), doc)
	if err != nil {
		writeError(c, slf.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCompileResponse(out))
}

func (slf *compileHandler) export(c *gin.Context) {
	doc, err := bindDocument(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	script, out, err := slf.compiler.Export(c.Request.Context(), doc)
	if err != nil {
		writeError(c, slf.logger, err)
		return
	}

	if c.Query("download") != "" {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, scriptFileName(doc.Metadata.ModID)))
		c.Header("X-Modgraph-Hash", out.Hash)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(script))
		return
	}
	c.JSON(http.StatusOK, response.ExportResponse{
		Hash:        out.Hash,
		Script:      script,
		Diagnostics: out.Diagnostics,
	})
}

func (slf *compileHandler) recoverDocument(c *gin.Context) {
	var req request.RecoverScript
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	doc, err := slf.compiler.Recover(req.Script)
	if err != nil {
		writeError(c, slf.logger, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func toCompileResponse(out *service.CompileOutput) response.CompileResponse {
	return response.CompileResponse{
		Hash:        out.Hash,
		Cached:      out.Cached,
		Source:      out.Source,
		Roots:       nonNil(out.Roots),
		Diagnostics: nonNil(out.Diagnostics),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return make([]T, 0)
	}
	return s
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// scriptFileName returns the .nut file name an exported script is offered as
func scriptFileName(modID string) string {
	name := unsafeFileChars.ReplaceAllString(modID, "_")
	if name == "" || name == "_" {
		name = "mod"
	}
	return name + ".nut"
}
