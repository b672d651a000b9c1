package endpoints

import (
	"encoding/json"
	"net/http"
	"testing"

	"modgraph"
	"modgraph/internal/api/handler/response"
	"modgraph/internal/api/models"
	"modgraph/internal/api/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryUsers map[uint]models.User

func (m memoryUsers) FindByEmail(email string) (models.User, error) {
	for _, u := range m {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m memoryUsers) FindByID(id uint) (models.User, error) {
	u, ok := m[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (m memoryUsers) Create(user *models.User) error {
	user.ID = uint(len(m) + 1)
	m[user.ID] = *user
	return nil
}

func (m memoryUsers) Update(user *models.User) error {
	m[user.ID] = *user
	return nil
}

func (m memoryUsers) ExistsByEmail(email string) (bool, error) {
	_, err := m.FindByEmail(email)
	return err == nil, nil
}

func newAuthRouter() *gin.Engine {
	var cfg modgraph.AppConfig
	cfg.JWT.Secret = testSecret
	cfg.JWT.Expiration = 5
	cfg.JWT.RefreshExpiration = 1
	users := service.NewUserServiceWithStore(memoryUsers{}, cfg, zerolog.Nop())

	router := gin.New()
	AuthHandler(router, cfg, users, zerolog.Nop())
	return router
}

func TestAuthEndpoints(t *testing.T) {
	router := newAuthRouter()
	account := `{"email": "ana@example.com", "password": "longenough", "displayName": "Ana"}`

	w := do(router, http.MethodPost, "/api/v1/auth/register", account)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(router, http.MethodPost, "/api/v1/auth/register", account)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodPost, "/api/v1/auth/register", `{"email": "bad", "password": "x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/v1/auth/login", `{"email": "ana@example.com", "password": "wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPost, "/api/v1/auth/login", `{"email": "ana@example.com", "password": "longenough"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var auth response.AuthResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))

	w = do(router, http.MethodGet, "/api/v1/me", "", "Authorization", "Bearer "+auth.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"displayName":"Ana"`)

	w = do(router, http.MethodPost, "/api/v1/auth/refresh", `{"refreshToken": "`+auth.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/api/v1/auth/refresh", `{"refreshToken": "`+auth.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
