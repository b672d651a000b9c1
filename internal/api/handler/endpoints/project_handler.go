package endpoints

import (
	"modgraph"
	"modgraph/internal/api/handler/middleware"
	"modgraph/internal/api/handler/request"
	"modgraph/internal/api/handler/response"
	"modgraph/internal/api/service"
	"modgraph/internal/export"
	"modgraph/pkg"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type projectHandler struct {
	projects *service.ProjectService
	logger   zerolog.Logger
}

// ProjectHandler registers the project CRUD routes behind authentication
func ProjectHandler(router gin.IRouter, cfg modgraph.AppConfig, projects *service.ProjectService, logger zerolog.Logger) {
	h := &projectHandler{projects: projects, logger: logger}

	routes := router.Group("/api/v1/projects")
	routes.Use(middleware.AuthMiddleware(cfg))
	{
		routes.GET("", h.list)
		routes.POST("", h.create)
		routes.GET("/:id", h.get)
		routes.PATCH("/:id", h.update)
		routes.DELETE("/:id", h.delete)
		routes.POST("/:id/compile", h.compile)
		routes.GET("/:id/export", h.export)
	}
}

// target reads the caller and the project id, writing the error response
// when either is missing.
func (slf *projectHandler) target(c *gin.Context) (uint, uuid.UUID, bool) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return 0, uuid.Nil, false
	}
	id, err := pkg.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return 0, uuid.Nil, false
	}
	return userID, id, true
}

func (slf *projectHandler) list(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	res, err := slf.projects.List(userID, page, pageSize)
	if err != nil {
		writeError(c, slf.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (slf *projectHandler) create(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}

	var dto request.CreateProject
	if err := pkg.ParseAndValidate(c, &dto); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	project, err := slf.projects.Create(userID, dto)
	if err != nil {
		writeError(c, slf.logger, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (slf *projectHandler) get(c *gin.Context) {
	userID, id, ok := slf.target(c)
	if !ok {
		return
	}

	project, err := slf.projects.Get(userID, id)
	if err != nil {
		writeError(c, slf.logger, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (slf *projectHandler) update(c *gin.Context) {
	userID, id, ok := slf.target(c)
	if !ok {
		return
	}

	var dto request.UpdateProject
	if err := pkg.ParseAndValidate(c, &dto); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	project, err := slf.projects.Update(userID, id, dto)
	if err != nil {
		writeError(c, slf.logger, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (slf *projectHandler) delete(c *gin.Context) {
	userID, id, ok := slf.target(c)
	if !ok {
		return
	}

	if err := slf.projects.Delete(userID, id); err != nil {
		writeError(c, slf.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (slf *projectHandler) compile(c *gin.Context) {
	userID, id, ok := slf.target(c)
	if !ok {
		return
	}

	out, err := slf.projects.Compile(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, slf.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCompileResponse(out))
}

func (slf *projectHandler) export(c *gin.Context) {
	userID, id, ok := slf.target(c)
	if !ok {
		return
	}

	project, err := slf.projects.Get(userID, id)
	if err != nil {
		writeError(c, slf.logger, err)
		return
	}
	out, err := slf.projects.Compile(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, slf.logger, err)
		return
	}
	script, err := export.Wrap(out.Source, project.Document)
	if err != nil {
		writeError(c, slf.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+scriptFileName(project.Document.Metadata.ModID)+`"`)
	c.Header("X-Modgraph-Hash", out.Hash)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(script))
}
