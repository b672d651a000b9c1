package endpoints

import (
	"fmt"
	"modgraph"
	"modgraph/internal/api/handler/middleware"
	"modgraph/internal/api/handler/response"
	"modgraph/internal/api/models"
	"modgraph/internal/api/service"
	ws "modgraph/internal/api/websocket"
	"modgraph/pkg"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type websocketHandler struct {
	hub       *ws.Hub
	processor *ws.MessageProcessor
	projects  *service.ProjectService
	config    modgraph.AppConfig
	logger    zerolog.Logger
}

// WebSocketHandler registers the live compile rooms. When projects is nil
// (no database) rooms are not tied to stored projects, and when no JWT
// secret is configured clients join as guests.
func WebSocketHandler(router gin.IRouter, cfg modgraph.AppConfig, hub *ws.Hub, processor *ws.MessageProcessor, projects *service.ProjectService, logger zerolog.Logger) {
	h := &websocketHandler{
		hub:       hub,
		processor: processor,
		projects:  projects,
		config:    cfg,
		logger:    logger,
	}

	router.GET("/ws/projects/:id", h.handleWebSocket)

	rooms := router.Group("/api/v1/projects")
	if cfg.JWT.Secret != "" {
		rooms.Use(middleware.AuthMiddleware(cfg))
	}
	rooms.GET("/:id/users", h.getActiveUsers)

	if cfg.JWT.Secret != "" {
		admin := router.Group("/api/v1/ws")
		admin.Use(middleware.AuthMiddleware(cfg), middleware.RequireRole(models.RoleAdmin))
		admin.GET("/stats", h.getRoomStats)
	}
}

// identify resolves the connecting user. ok is false when a response has
// already been written.
func (slf *websocketHandler) identify(c *gin.Context) (uint, string, bool) {
	if slf.config.JWT.Secret == "" {
		return 0, "guest-" + uuid.NewString()[:8], true
	}

	token, found := middleware.BearerToken(c)
	if !found {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "missing token"})
		return 0, "", false
	}
	claims, err := pkg.ValidateToken(token, slf.config.JWT.Secret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "invalid token"})
		return 0, "", false
	}
	username := claims.Email
	if username == "" {
		username = fmt.Sprintf("user%d", claims.UserID)
	}
	return claims.UserID, username, true
}

func (slf *websocketHandler) handleWebSocket(c *gin.Context) {
	projectID := c.Param("id")
	userID, username, ok := slf.identify(c)
	if !ok {
		return
	}

	if slf.projects != nil {
		id, err := uuid.Parse(projectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.APIError{Message: "invalid project id"})
			return
		}
		if err = slf.projects.CanAccess(userID, id); err != nil {
			writeError(c, slf.logger, err)
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}

	clientID := uuid.New().String()
	client := ws.NewClient(clientID, userID, username, projectID, slf.hub, conn, slf.processor, slf.logger)
	slf.hub.Register <- client

	slf.logger.Info().
		Str("clientId", clientID).
		Uint("userId", userID).
		Str("projectId", projectID).
		Msg("WebSocket connection established")

	go client.WritePump()
	go client.ReadPump()
}

func (slf *websocketHandler) getActiveUsers(c *gin.Context) {
	projectID := c.Param("id")
	c.JSON(http.StatusOK, gin.H{
		"projectId": projectID,
		"users":     slf.hub.GetActiveUsersInRoom(projectID),
	})
}

func (slf *websocketHandler) getRoomStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"rooms": slf.hub.GetRoomStats(),
	})
}
