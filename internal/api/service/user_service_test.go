package service

import (
	"testing"

	"modgraph"
	"modgraph/internal/api/handler/request"
	"modgraph/internal/api/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryUsers struct {
	rows   map[uint]models.User
	nextID uint
}

func (slf *memoryUsers) FindByEmail(email string) (models.User, error) {
	for _, u := range slf.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (slf *memoryUsers) FindByID(id uint) (models.User, error) {
	u, ok := slf.rows[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (slf *memoryUsers) Create(user *models.User) error {
	slf.nextID++
	user.ID = slf.nextID
	slf.rows[user.ID] = *user
	return nil
}

func (slf *memoryUsers) Update(user *models.User) error {
	slf.rows[user.ID] = *user
	return nil
}

func (slf *memoryUsers) ExistsByEmail(email string) (bool, error) {
	_, err := slf.FindByEmail(email)
	return err == nil, nil
}

func newTestUserService() (*UserService, *memoryUsers) {
	store := &memoryUsers{rows: make(map[uint]models.User)}
	var cfg modgraph.AppConfig
	cfg.JWT.Secret = "user-test-secret"
	cfg.JWT.Expiration = 5
	cfg.JWT.RefreshExpiration = 1
	return NewUserServiceWithStore(store, cfg, zerolog.Nop()), store
}

func register(t *testing.T, svc *UserService, email string, password string) uint {
	t.Helper()
	res, err := svc.Register(request.RegisterDTO{Email: email, Password: password, DisplayName: "Jean"})
	require.NoError(t, err)
	return res.User.ID
}

func TestUser_Register(t *testing.T) {
	svc, store := newTestUserService()

	result, err := svc.Register(request.RegisterDTO{
		Email:       "  Jean@Example.com ",
		Password:    "testpassword123",
		DisplayName: "Jean",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "jean@example.com", result.User.Email)
	assert.Equal(t, "Jean", result.User.DisplayName)
	assert.Equal(t, string(models.RoleUser), result.User.Role)
	assert.True(t, result.User.Active)

	stored := store.rows[result.User.ID]
	assert.NotEqual(t, "testpassword123", stored.Password)
	assert.Equal(t, result.RefreshToken, stored.RefreshToken)
}

func TestUser_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newTestUserService()
	register(t, svc, "dup@example.com", "testpassword123")

	_, err := svc.Register(request.RegisterDTO{Email: "DUP@example.com", Password: "testpassword123", DisplayName: "x"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUser_Login(t *testing.T) {
	svc, _ := newTestUserService()
	register(t, svc, "marie@example.com", "loginpassword")

	res, err := svc.Login(request.LoginDTO{Email: "marie@example.com", Password: "loginpassword"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "marie@example.com", res.User.Email)

	_, err = svc.Login(request.LoginDTO{Email: "marie@example.com", Password: "wrongpassword"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(request.LoginDTO{Email: "nobody@example.com", Password: "anything"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUser_Login_InactiveAccount(t *testing.T) {
	svc, store := newTestUserService()
	id := register(t, svc, "inactive@example.com", "testpassword")

	u := store.rows[id]
	u.Active = false
	store.rows[id] = u

	_, err := svc.Login(request.LoginDTO{Email: "inactive@example.com", Password: "testpassword"})
	assert.ErrorIs(t, err, ErrInactiveAccount)
}

func TestUser_GetByID(t *testing.T) {
	svc, _ := newTestUserService()
	id := register(t, svc, "getby@example.com", "testpassword")

	user, err := svc.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "getby@example.com", user.Email)

	_, err = svc.GetByID(99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUser_RefreshToken_DefaultLifetimes(t *testing.T) {
	var cfg modgraph.AppConfig
	cfg.JWT.Secret = "user-test-secret"
	svc := NewUserServiceWithStore(&memoryUsers{rows: make(map[uint]models.User)}, cfg, zerolog.Nop())

	reg, err := svc.Register(request.RegisterDTO{Email: "zero@example.com", Password: "testpassword", DisplayName: "Z"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(reg.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)
}

func TestUser_RefreshToken(t *testing.T) {
	svc, _ := newTestUserService()
	reg, err := svc.Register(request.RegisterDTO{Email: "refresh@example.com", Password: "testpassword", DisplayName: "R"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(reg.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)
	assert.NotEqual(t, reg.RefreshToken, refreshed.RefreshToken)

	// the previous refresh token was replaced
	_, err = svc.RefreshToken(reg.RefreshToken)
	assert.ErrorContains(t, err, "invalid refresh token")

	_, err = svc.RefreshToken("not-a-real-token")
	assert.ErrorContains(t, err, "invalid or expired refresh token")

	_, err = svc.RefreshToken(refreshed.Token)
	assert.ErrorContains(t, err, "invalid or expired refresh token")
}
